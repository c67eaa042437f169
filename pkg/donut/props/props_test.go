package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/settings"
	"github.com/matzehuels/donut/pkg/errors"
)

func find(cards []Card, name string) Card {
	for _, c := range cards {
		if c.Name == name {
			return c
		}
	}
	return Card{}
}

func TestEnumerate(t *testing.T) {
	s := settings.Default()
	s.Legend.TitleText = "Region"
	legend := []donut.LegendEntry{
		{ID: "cat:n", Label: "North", Color: "#a6cee3", Selected: true},
		{ID: "cat:s", Label: "South", Color: "#1f78b4"},
	}

	cards := Enumerate(s, legend)
	require.Len(t, cards, 4)

	lg := find(cards, CardLegend)
	assert.Equal(t, "Region", lg.Properties[3].Value)
	assert.Equal(t, settings.PositionTop, lg.Properties[1].Value)
	assert.Len(t, lg.Properties[1].Options, 4)

	dp := find(cards, CardDataPoint)
	require.Len(t, dp.Properties, 2, "one fill per slice, no default color when unset")
	assert.Equal(t, "cat:n", dp.Properties[0].Selector)
	assert.Equal(t, "#a6cee3", dp.Properties[0].Value)
	assert.True(t, dp.Properties[0].Selected)
	assert.Equal(t, "South", dp.Properties[1].DisplayName)

	lb := find(cards, CardLabels)
	assert.Equal(t, settings.DefaultLabelColor, lb.Properties[2].Value)
}

func TestEnumerateDefaultColor(t *testing.T) {
	s := settings.Default()
	s.DataPoint.DefaultColor = "#cccccc"
	dp := find(Enumerate(s, nil), CardDataPoint)
	require.Len(t, dp.Properties, 1)
	assert.Equal(t, "default_color", dp.Properties[0].Name)
}

func TestApply(t *testing.T) {
	s := settings.Default()

	s, err := Apply(s, Edit{Card: CardLegend, Property: "position", Value: "right"})
	require.NoError(t, err)
	assert.Equal(t, settings.PositionRight, s.Legend.Position)

	s, err = Apply(s, Edit{Card: CardLabels, Property: "precision", Value: "2"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Labels.Precision)

	s, err = Apply(s, Edit{Card: CardDataPoint, Property: "fill", Selector: "cat:n", Value: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", s.DataPoint.Fill["cat:n"])

	s, err = Apply(s, Edit{Card: CardDataPoint, Property: "fill", Selector: "cat:n"})
	require.NoError(t, err)
	assert.NotContains(t, s.DataPoint.Fill, "cat:n")

	s, err = Apply(s, Edit{Card: CardChart, Property: "thickness_ratio", Value: "0"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Chart.ThicknessRatio)
}

func TestApplyDoesNotShareFill(t *testing.T) {
	base := settings.Default()
	base.DataPoint.Fill = map[string]string{"a": "#000000"}

	_, err := Apply(base, Edit{Card: CardDataPoint, Property: "fill", Selector: "b", Value: "#ffffff"})
	require.NoError(t, err)
	assert.Len(t, base.DataPoint.Fill, 1)
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		edit Edit
	}{
		{"unknown", Edit{Card: "legend", Property: "font"}},
		{"bad bool", Edit{Card: CardLegend, Property: "show", Value: "maybe"}},
		{"bad number", Edit{Card: CardLabels, Property: "precision", Value: "two"}},
		{"invalid position", Edit{Card: CardLegend, Property: "position", Value: "middle"}},
		{"invalid color", Edit{Card: CardLabels, Property: "color", Value: "red"}},
		{"fill without selector", Edit{Card: CardDataPoint, Property: "fill", Value: "#ffffff"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(settings.Default(), tt.edit)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidSettings))
		})
	}
}

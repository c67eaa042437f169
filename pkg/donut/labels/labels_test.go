package labels

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/settings"
)

func TestAutoUnits(t *testing.T) {
	tests := []struct {
		max  float64
		want float64
	}{
		{0, settings.UnitsNone},
		{999, settings.UnitsNone},
		{1000, settings.UnitsThousands},
		{2.5e6, settings.UnitsMillions},
		{-7e9, settings.UnitsBillions},
		{3e14, settings.UnitsTrillions},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AutoUnits(tt.max), "max=%g", tt.max)
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		name  string
		ls    donut.LabelSettings
		max   float64
		value float64
		want  string
	}{
		{"grouping", donut.LabelSettings{DisplayUnits: settings.UnitsNone}, 0, 1234.4, "1,234"},
		{"thousands", donut.LabelSettings{DisplayUnits: settings.UnitsThousands, Precision: 1}, 0, 1234.4, "1.2K"},
		{"auto millions", donut.LabelSettings{DisplayUnits: settings.UnitsAuto, Precision: 2}, 2.5e6, 1.25e6, "1.25M"},
		{"negative", donut.LabelSettings{DisplayUnits: settings.UnitsThousands, Precision: 1}, 0, -1500, "-1.5K"},
		{"padded precision", donut.LabelSettings{DisplayUnits: settings.UnitsNone, Precision: 2}, 0, 3, "3.00"},
		{"not finite", donut.LabelSettings{DisplayUnits: settings.UnitsNone}, 0, math.NaN(), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.ls, tt.max).Value(tt.value))
		})
	}
}

func TestPercent(t *testing.T) {
	f := New(donut.LabelSettings{}, 0)
	assert.Equal(t, "25.6%", f.Percent(0.256))
	assert.Equal(t, "0.0%", f.Percent(math.NaN()))
}

func TestLabel(t *testing.T) {
	s := donut.Slice{Label: "North", Measure: 4200}
	ls := donut.LabelSettings{Show: true, ShowCategory: true, DisplayUnits: settings.UnitsAuto, Precision: 1}

	assert.Equal(t, "North: 4.2K", New(ls, 4200).Label(s))

	ls.ShowCategory = false
	assert.Equal(t, "4.2K", New(ls, 4200).Label(s))

	ls.Show = false
	assert.Empty(t, New(ls, 4200).Label(s))
}

func TestWithLanguage(t *testing.T) {
	f := New(donut.LabelSettings{DisplayUnits: settings.UnitsNone, Precision: 1}, 0, WithLanguage(language.German))
	assert.Equal(t, "1.234,5", f.Value(1234.5))
}

package visual

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/animation"
	"github.com/matzehuels/donut/pkg/donut/props"
	"github.com/matzehuels/donut/pkg/donut/rotation"
	"github.com/matzehuels/donut/pkg/donut/selection"
	"github.com/matzehuels/donut/pkg/donut/settings"
)

var square = donut.Viewport{Width: 400, Height: 400}

func update(r *dataview.Result, s settings.Settings) Update {
	return Update{Result: r, Viewport: square, Settings: s}
}

func abc(values ...float64) *dataview.Result {
	return dataview.Categorical("Letter", []string{"A", "B", "C", "D", "E"}[:len(values)], "Count", values, nil)
}

func arcs(f Frame, layer donut.Layer) []Arc {
	var out []Arc
	for _, a := range f.Arcs {
		if a.Layer == layer {
			out = append(out, a)
		}
	}
	return out
}

func TestUpdate(t *testing.T) {
	v := New()
	f := v.Update(update(abc(1, 2, 3), settings.Default()))

	require.Len(t, f.Slices, 3)
	assert.Equal(t, "Letter", f.LegendTitle)
	assert.Len(t, f.Legend, 3)
	assert.Empty(t, f.Warnings)
	assert.False(t, f.Culled)
	assert.Equal(t, 6.0, f.Total)

	normal := arcs(f, donut.LayerNormal)
	require.Len(t, normal, 3)
	assert.Empty(t, arcs(f, donut.LayerHighlight))
	for i, a := range normal {
		assert.Equal(t, i, a.Slice)
		assert.Equal(t, selection.FullOpacity, a.Opacity)
		assert.Equal(t, f.Slices[i].Color, a.Color)
	}
	assert.InDelta(t, 2*math.Pi, normal[2].Geometry.EndAngle, 1e-12)
	assert.InDelta(t, 180, normal[0].Geometry.OuterRadius, 1e-9)
	assert.InDelta(t, 120, normal[0].Geometry.InnerRadius, 1e-9)

	assert.Equal(t, animation.KindNone, f.Transition.Kind)
	assert.Equal(t, animation.DefaultDuration, f.Transition.Duration)
	assert.Equal(t, f.Slices, v.Frame().Slices)
}

func TestUpdateSuppressAnimation(t *testing.T) {
	v := New()
	u := update(abc(1, 2), settings.Default())
	u.SuppressAnimation = true
	assert.Zero(t, v.Update(u).Transition.Duration)
}

func TestColorsStableAcrossUpdates(t *testing.T) {
	v := New()
	first := v.Update(update(abc(1, 2, 3), settings.Default()))
	second := v.Update(update(dataview.Categorical("Letter", []string{"C", "A"}, "Count", []float64{5, 5}, nil), settings.Default()))

	colors := map[donut.Identity]string{}
	for _, s := range first.Slices {
		colors[s.ID] = s.Color
	}
	for _, s := range second.Slices {
		assert.Equal(t, colors[s.ID], s.Color, "slice %s", s.ID)
	}
}

func TestEmpty(t *testing.T) {
	v := New()
	f := v.Update(update(nil, settings.Default()))
	assert.True(t, f.Empty())
	assert.Empty(t, f.Arcs)

	f = v.Update(update(abc(0, 0), settings.Default()))
	assert.True(t, f.Empty())
	assert.Empty(t, f.Legend)
}

func TestCullingAndResize(t *testing.T) {
	v := New()
	u := update(abc(1000, 1), settings.Default())
	u.Viewport = donut.Viewport{Width: 100, Height: 100}

	f := v.Update(u)
	require.Len(t, f.Slices, 1)
	assert.True(t, f.Culled)
	assert.InDelta(t, 9.549, f.Threshold, 1e-3)
	require.Len(t, f.Warnings, 1)
	assert.Equal(t, donut.WarningCulled, f.Warnings[0].Code)
	assert.Len(t, f.Legend, 2, "legend keeps culled slices")

	f = v.Resize(donut.Viewport{Width: 10000, Height: 10000})
	assert.Len(t, f.Slices, 2)
	assert.False(t, f.Culled)
	assert.Empty(t, f.Warnings)
	assert.Zero(t, f.Transition.Duration)
}

func TestValidatorWarningsForwarded(t *testing.T) {
	v := New()
	f := v.Update(update(abc(4, math.NaN(), math.Inf(1)), settings.Default()))

	codes := make([]donut.WarningCode, len(f.Warnings))
	for i, w := range f.Warnings {
		codes[i] = w.Code
	}
	assert.Equal(t, []donut.WarningCode{donut.WarningNaN, donut.WarningInfinity, donut.WarningCulled}, codes)
	require.Len(t, f.Slices, 1)
	assert.Equal(t, 1.0, f.Slices[0].Percentage)
}

func TestClickSelection(t *testing.T) {
	v := New()
	var events []selection.Event
	v.OnSelect(func(e selection.Event) { events = append(events, e) })

	f := v.Update(update(abc(1, 2, 3), settings.Default()))
	b := f.Slices[1].ID

	f = v.Click(b, false)
	require.Len(t, events, 1)
	assert.Equal(t, []donut.Identity{b}, events[0].Identities)
	for _, a := range arcs(f, donut.LayerNormal) {
		want := selection.DimmedOpacity
		if a.ID == b {
			want = selection.FullOpacity
		}
		assert.Equal(t, want, a.Opacity, "arc %s", a.ID)
	}
	assert.True(t, f.Slices[1].Selected)
	assert.True(t, f.Legend[1].Selected)

	f = v.Click(f.Slices[2].ID, true)
	assert.Len(t, events[len(events)-1].Identities, 2)

	f = v.ClearSelection()
	assert.Empty(t, events[len(events)-1].Identities)
	for _, a := range f.Arcs {
		assert.Equal(t, selection.FullOpacity, a.Opacity)
	}

	f = v.Select(b)
	assert.True(t, f.Slices[1].Selected)
}

func TestRepeatedLabelsAreSeparateSlices(t *testing.T) {
	v := New()
	f := v.Update(update(dataview.Categorical("R", []string{"A", "A", "B"}, "S", []float64{30, 50, 20}, nil), settings.Default()))
	require.Len(t, f.Slices, 3)
	assert.NotEqual(t, f.Slices[0].ID, f.Slices[1].ID)
	assert.NotEqual(t, f.Slices[0].Color, f.Slices[1].Color)

	f = v.Click(f.Slices[0].ID, false)
	assert.True(t, f.Slices[0].Selected)
	assert.False(t, f.Slices[1].Selected)
	assert.False(t, f.Slices[2].Selected)
	assert.Len(t, arcs(f, donut.LayerNormal), 3)

	f = v.Update(update(dataview.Categorical("R", []string{"A", "A", "B"}, "S", []float64{40, 40, 20}, nil), settings.Default()))
	assert.Len(t, arcs(f, donut.LayerNormal), 3)
	assert.True(t, f.Slices[0].Selected)
	assert.False(t, f.Slices[1].Selected)
}

func TestSelectionSurvivesResize(t *testing.T) {
	v := New()
	f := v.Update(update(abc(1, 2, 3), settings.Default()))
	v.Click(f.Slices[0].ID, false)

	f = v.Resize(donut.Viewport{Width: 300, Height: 200})
	assert.True(t, f.Slices[0].Selected)
}

func TestHighlights(t *testing.T) {
	v := New()
	v.Update(update(abc(2, 4), settings.Default()))

	r := abc(2, 4)
	r.Measures[0].Highlights = []float64{1, 4}
	f := v.Update(update(r, settings.Default()))

	assert.True(t, f.HasHighlights)
	assert.Equal(t, animation.KindEnter, f.Transition.Kind)
	hl := arcs(f, donut.LayerHighlight)
	require.Len(t, hl, 2)
	for _, a := range arcs(f, donut.LayerNormal) {
		assert.Equal(t, selection.DimmedOpacity, a.Opacity)
	}
	assert.Greater(t, hl[1].Geometry.OuterRadius, hl[0].Geometry.OuterRadius)

	f = v.Update(update(abc(2, 4), settings.Default()))
	assert.Equal(t, animation.KindExit, f.Transition.Kind)
	assert.Empty(t, arcs(f, donut.LayerHighlight))
}

func TestDataLabels(t *testing.T) {
	s := settings.Default()
	s.Labels.Show = true
	v := New()
	f := v.Update(update(abc(1, 2, 3), s))

	require.Len(t, f.DataLabels, 3)
	assert.Equal(t, "A: 1", f.DataLabels[0].Text)
	x, y := f.DataLabels[0].X, f.DataLabels[0].Y
	assert.InDelta(t, 180+LabelOffset, math.Hypot(x, y), 1e-9)

	assert.Empty(t, New().Update(update(abc(1, 2), settings.Default())).DataLabels)
}

func TestInteractiveLegend(t *testing.T) {
	s := settings.Default()
	s.Chart.Interactive = true
	v := New()

	f := v.Update(update(abc(1, 1, 1, 1, 1), s))
	require.NotNil(t, f.Rotation)
	assert.Equal(t, 0, f.Rotation.Current)
	assert.Len(t, f.Rotation.Strip, 5)
	assert.Len(t, f.Rotation.Entries, 5)
	for _, a := range arcs(f, donut.LayerNormal) {
		want := selection.DimmedOpacity
		if a.Slice == 0 {
			want = selection.FullOpacity
		}
		assert.Equal(t, want, a.Opacity)
	}

	f = v.Step(2)
	assert.Equal(t, 2, f.Rotation.Current)
	assert.True(t, f.Rotation.Snap)

	f = v.Click(f.Slices[4].ID, false)
	assert.Equal(t, 4, f.Rotation.Current)

	cx, cy := square.Center()
	v.DragStart(rotation.Pointer(cx, cy-100))
	f = v.DragMove(rotation.Pointer(cx+100, cy))
	assert.False(t, f.Rotation.Snap)
	f = v.DragEnd()
	assert.True(t, f.Rotation.Snap)

	// a refresh puts the first slice back in front
	f = v.Update(update(abc(1, 1, 1), s))
	assert.Equal(t, 0, f.Rotation.Current)
	assert.Len(t, f.Rotation.Strip, 3)

	s.Chart.Interactive = false
	f = v.Update(update(abc(1, 1, 1), s))
	assert.Nil(t, f.Rotation)
}

func TestInteractiveOffIgnoresGestures(t *testing.T) {
	v := New()
	before := v.Update(update(abc(1, 2), settings.Default()))
	assert.Equal(t, before.Arcs, v.DragStart(rotation.Pointer(0, 0)).Arcs)
	assert.Nil(t, v.Step(1).Rotation)
}

func TestProperties(t *testing.T) {
	v := New()
	v.Update(update(abc(1, 2, 3), settings.Default()))
	cards := v.Properties()

	var fills int
	for _, c := range cards {
		if c.Name != props.CardDataPoint {
			continue
		}
		for _, p := range c.Properties {
			if p.Name == "fill" {
				fills++
			}
		}
	}
	assert.Equal(t, 3, fills)
}

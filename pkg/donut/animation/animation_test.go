package animation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/layout"
	"github.com/matzehuels/donut/pkg/donut/selection"
)

var engine = layout.Engine{Radius: 100, InnerArcRatio: 0.9, ThicknessRatio: 0.5}

func slice(id string, pct, ratio float64) donut.Slice {
	return donut.Slice{ID: donut.Identity(id), Value: pct * 100, Percentage: pct, HighlightRatio: ratio}
}

func ids(slices []donut.Slice) []donut.Identity { return donut.Identities(slices) }

func TestKind(t *testing.T) {
	assert.Equal(t, KindNone, Kind(false, false))
	assert.Equal(t, KindEnter, Kind(false, true))
	assert.Equal(t, KindUpdate, Kind(true, true))
	assert.Equal(t, KindExit, Kind(true, false))
	assert.Equal(t, "exit", KindExit.String())
}

func TestDiff(t *testing.T) {
	prev := []donut.Slice{slice("a", .5, 0), slice("b", .5, 0)}
	next := []donut.Slice{slice("b", .4, 0), slice("c", .6, 0)}

	j := Diff(prev, next)
	assert.Equal(t, []donut.Identity{"c"}, j.Enter)
	assert.Equal(t, []donut.Identity{"b"}, j.Update)
	assert.Equal(t, []donut.Identity{"a"}, j.Exit)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		prev []string
		next []string
		want []donut.Identity
	}{
		{"same", []string{"a", "b"}, []string{"a", "b"}, []donut.Identity{"a", "b"}},
		{"exit in middle", []string{"a", "b", "c"}, []string{"a", "c"}, []donut.Identity{"a", "b", "c"}},
		{"exit at front", []string{"a", "b"}, []string{"b"}, []donut.Identity{"a", "b"}},
		{"enter", []string{"a"}, []string{"a", "b"}, []donut.Identity{"a", "b"}},
		{"reorder", []string{"a", "b"}, []string{"b", "a"}, []donut.Identity{"b", "a"}},
		{"replace all", []string{"a", "b"}, []string{"c"}, []donut.Identity{"a", "b", "c"}},
		{"from nothing", nil, []string{"x", "y"}, []donut.Identity{"x", "y"}},
		{"to nothing", []string{"x"}, nil, []donut.Identity{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prev, next []donut.Slice
			for _, id := range tt.prev {
				prev = append(prev, slice(id, 1, 0))
			}
			for _, id := range tt.next {
				next = append(next, slice(id, 1, 0))
			}
			before, after := Merge(prev, next)
			assert.Equal(t, tt.want, ids(before))
			assert.Equal(t, tt.want, ids(after))
		})
	}
}

func TestMergePlaceholders(t *testing.T) {
	prev := []donut.Slice{slice("a", .5, .3), slice("b", .5, .3)}
	next := []donut.Slice{slice("b", .2, .1), slice("c", .8, .1)}

	before, after := Merge(prev, next)
	require.Len(t, before, 3)

	assert.Equal(t, 0.5, before[0].Percentage)
	assert.Equal(t, 0.0, after[0].Percentage, "exiting a shrinks to zero")
	assert.Equal(t, 0.0, after[0].HighlightRatio)
	assert.Equal(t, 0.0, before[2].Percentage, "entering c grows from zero")
	assert.Equal(t, 0.8, after[2].Percentage)
}

func TestPlanNoHighlights(t *testing.T) {
	prev := State{Slices: []donut.Slice{slice("a", .5, 0), slice("b", .5, 0)}, Engine: engine}
	next := State{Slices: []donut.Slice{slice("b", 1, 0)}, Engine: engine}

	tr := Plan(prev, next, selection.New(), Options{})
	assert.Equal(t, KindNone, tr.Kind)
	assert.Equal(t, DefaultDuration, tr.Duration)
	require.Len(t, tr.Tweens, 2)

	exit := tr.Tweens[0]
	assert.Equal(t, donut.Identity("a"), exit.ID)
	assert.Equal(t, PhaseExit, exit.Phase)
	assert.True(t, exit.Remove)
	assert.InDelta(t, 0, exit.To.Width(), 1e-12)
	assert.InDelta(t, layout.FullCircle/2, exit.From.Width(), 1e-12)

	final := tr.Final()
	require.Len(t, final, 1)
	assert.Equal(t, donut.Identity("b"), final[0].ID)
	assert.InDelta(t, layout.FullCircle, final[0].Geometry.Width(), 1e-12)
}

func TestPlanFirstRender(t *testing.T) {
	next := State{Slices: []donut.Slice{slice("a", .25, 0), slice("b", .75, 0)}, Engine: engine}

	tr := Plan(State{}, next, selection.New(), Options{})
	require.Len(t, tr.Tweens, 2)
	for _, tw := range tr.Tweens {
		assert.Equal(t, PhaseEnter, tw.Phase)
		assert.Equal(t, 0.0, tw.From.Width())
		assert.Equal(t, engine.OuterRadius(), tw.From.OuterRadius)
	}
}

func TestPlanHighlightsEnter(t *testing.T) {
	slices := []donut.Slice{slice("a", .5, .2), slice("b", .5, .6)}
	prev := State{Slices: slices, Engine: engine}
	next := State{Slices: slices, HasHighlights: true, Engine: engine}

	tr := Plan(prev, next, selection.New(), Options{})
	assert.Equal(t, KindEnter, tr.Kind)

	var overlays []Tween
	for _, tw := range tr.Tweens {
		if tw.Layer == donut.LayerHighlight {
			overlays = append(overlays, tw)
		} else {
			assert.Equal(t, selection.FullOpacity, tw.FromOpacity)
			assert.Equal(t, selection.DimmedOpacity, tw.ToOpacity, "normal arcs dim under overlays")
		}
	}
	require.Len(t, overlays, 2)
	inner := engine.InnerRadius()
	assert.Equal(t, inner, overlays[0].From.OuterRadius, "grows out of the zero band")
	assert.InDelta(t, inner+(engine.OuterRadius()-inner)*0.2, overlays[0].To.OuterRadius, 1e-9)
	assert.InDelta(t, inner+(engine.OuterRadius()-inner)*0.6, overlays[1].To.OuterRadius, 1e-9)
}

func TestPlanHighlightsUpdate(t *testing.T) {
	prev := State{Slices: []donut.Slice{slice("a", .5, .2), slice("b", .5, .6)}, HasHighlights: true, Engine: engine}
	next := State{Slices: []donut.Slice{slice("a", .5, .8), slice("b", .5, .1)}, HasHighlights: true, Engine: engine}

	tr := Plan(prev, next, selection.New(), Options{})
	assert.Equal(t, KindUpdate, tr.Kind)

	got := map[donut.Identity]Tween{}
	for _, tw := range tr.Tweens {
		if tw.Layer == donut.LayerHighlight {
			got[tw.ID] = tw
		}
	}
	require.Len(t, got, 2)
	assert.Greater(t, got["a"].To.OuterRadius, got["a"].From.OuterRadius)
	assert.Less(t, got["b"].To.OuterRadius, got["b"].From.OuterRadius)
}

func TestPlanHighlightsExit(t *testing.T) {
	slices := []donut.Slice{slice("a", .5, .5), slice("b", .5, .5)}
	prev := State{Slices: slices, HasHighlights: true, Engine: engine}
	next := State{Slices: slices, Engine: engine}

	tr := Plan(prev, next, selection.New(), Options{})
	assert.Equal(t, KindExit, tr.Kind)

	for _, tw := range tr.Tweens {
		switch tw.Layer {
		case donut.LayerHighlight:
			assert.True(t, tw.Remove)
			assert.Equal(t, tw.To.InnerRadius, tw.To.OuterRadius, "shrinks to the zero band")
		case donut.LayerNormal:
			assert.Equal(t, selection.DimmedOpacity, tw.FromOpacity)
			assert.Equal(t, selection.FullOpacity, tw.ToOpacity)
		}
	}
	for _, kf := range tr.Final() {
		assert.Equal(t, donut.LayerNormal, kf.Layer, "overlays removed at the end")
	}
}

func TestPlanSuppress(t *testing.T) {
	next := State{Slices: []donut.Slice{slice("a", 1, 0)}, Engine: engine}
	tr := Plan(State{}, next, selection.New(), Options{Suppress: true, Duration: time.Second})
	assert.Equal(t, time.Duration(0), tr.Duration)

	tr = Plan(State{}, next, selection.New(), Options{Duration: time.Second})
	assert.Equal(t, time.Second, tr.Duration)
}

func TestTweenAt(t *testing.T) {
	tw := Tween{
		From:        layout.Geometry{EndAngle: 1, OuterRadius: 10},
		To:          layout.Geometry{EndAngle: 3, OuterRadius: 30},
		FromOpacity: 0.4,
		ToOpacity:   1,
	}
	g, o := tw.At(0.5)
	assert.Equal(t, 2.0, g.EndAngle)
	assert.Equal(t, 20.0, g.OuterRadius)
	assert.InDelta(t, 0.7, o, 1e-12)

	g, o = tw.At(2)
	assert.Equal(t, tw.To, g)
	assert.Equal(t, 1.0, o)
}

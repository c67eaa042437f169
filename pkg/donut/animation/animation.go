// Package animation plans the transition between two consecutive renders.
//
// The package never draws and never keeps history: callers hold the previous
// [State] and pass it to [Plan] together with the next one. The returned
// [Transition] lists one [Tween] per arc with start and end keyframes that an
// external scheduler interpolates over [Transition.Duration].
//
// # Transition kinds
//
// The kind depends only on whether the two states draw highlight overlays:
//
//	had \ has   no           yes
//	no          KindNone     KindEnter
//	yes         KindExit     KindUpdate
//
// Slices are matched by identity. Identities present only in the previous
// state get a zero-value placeholder in the next one so they shrink away
// instead of vanishing.
package animation

import (
	"time"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/layout"
)

// DefaultDuration is the transition length used when none is configured.
const DefaultDuration = 250 * time.Millisecond

// TransitionKind classifies a transition by its highlight overlays.
type TransitionKind int

const (
	// KindNone: neither state has overlays; arcs update in place.
	KindNone TransitionKind = iota
	// KindEnter: overlays appear and grow out of the zero band.
	KindEnter
	// KindUpdate: overlays on both sides cross-fade by identity.
	KindUpdate
	// KindExit: overlays shrink to the zero band and are removed.
	KindExit
)

// String returns the kind name.
func (k TransitionKind) String() string {
	switch k {
	case KindEnter:
		return "enter"
	case KindUpdate:
		return "update"
	case KindExit:
		return "exit"
	default:
		return "none"
	}
}

// Kind returns the transition kind between two states.
func Kind(hadHighlights, hasHighlights bool) TransitionKind {
	switch {
	case !hadHighlights && hasHighlights:
		return KindEnter
	case hadHighlights && hasHighlights:
		return KindUpdate
	case hadHighlights && !hasHighlights:
		return KindExit
	default:
		return KindNone
	}
}

// State is one rendered chart as far as transitions are concerned.
type State struct {
	Slices        []donut.Slice
	HasHighlights bool
	Engine        layout.Engine
}

// Phase is the role of an identity in a keyed diff.
type Phase int

const (
	PhaseUpdate Phase = iota
	PhaseEnter
	PhaseExit
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseEnter:
		return "enter"
	case PhaseExit:
		return "exit"
	default:
		return "update"
	}
}

// Join is the keyed three-way diff of two slice lists.
type Join struct {
	Enter  []donut.Identity // only in next
	Update []donut.Identity // in both
	Exit   []donut.Identity // only in prev
}

// Diff matches prev and next by identity. Enter and Update follow the order
// of next, Exit the order of prev.
func Diff(prev, next []donut.Slice) Join {
	inPrev := index(prev)
	inNext := index(next)
	var j Join
	for _, s := range next {
		if _, ok := inPrev[s.ID]; ok {
			j.Update = append(j.Update, s.ID)
		} else {
			j.Enter = append(j.Enter, s.ID)
		}
	}
	for _, s := range prev {
		if _, ok := inNext[s.ID]; !ok {
			j.Exit = append(j.Exit, s.ID)
		}
	}
	return j
}

// Merge aligns prev and next on the union of their identities. Both returned
// lists have the same length and identity order: next's order, with exiting
// identities kept next to their previous neighbours. Identities missing from
// a side are filled with zero-value placeholders.
func Merge(prev, next []donut.Slice) (before, after []donut.Slice) {
	inPrev := index(prev)
	inNext := index(next)
	emitted := make(map[donut.Identity]bool, len(prev)+len(next))

	push := func(b, a donut.Slice) {
		before = append(before, b)
		after = append(after, a)
		emitted[a.ID] = true
	}

	i, j := 0, 0
	for i < len(prev) || j < len(next) {
		if i < len(prev) {
			p := prev[i]
			if _, ok := inNext[p.ID]; !ok {
				push(p, placeholder(p))
				i++
				continue
			}
			if emitted[p.ID] {
				i++
				continue
			}
		}
		if j < len(next) {
			n := next[j]
			if k, ok := inPrev[n.ID]; ok {
				push(prev[k], n)
			} else {
				push(placeholder(n), n)
			}
			j++
			continue
		}
		i++
	}
	return before, after
}

func index(slices []donut.Slice) map[donut.Identity]int {
	m := make(map[donut.Identity]int, len(slices))
	for i, s := range slices {
		m[s.ID] = i
	}
	return m
}

// placeholder returns s with every magnitude zeroed.
func placeholder(s donut.Slice) donut.Slice {
	s.Measure, s.Value, s.Percentage = 0, 0, 0
	s.Highlight, s.HighlightRatio = 0, 0
	return s
}

// Tween animates one arc.
type Tween struct {
	ID          donut.Identity
	Slice       donut.Slice // the slice as it ends up, a placeholder on exit
	Layer       donut.Layer
	Phase       Phase
	From, To    layout.Geometry
	FromOpacity float64
	ToOpacity   float64
	Remove      bool // drop the arc once the tween completes
}

// At returns the geometry and opacity at progress p, clamped to [0, 1].
func (t Tween) At(p float64) (layout.Geometry, float64) {
	p = min(max(p, 0), 1)
	return layout.Lerp(t.From, t.To, p), t.FromOpacity + (t.ToOpacity-t.FromOpacity)*p
}

// Transition is a complete plan between two states.
type Transition struct {
	Kind     TransitionKind
	Duration time.Duration
	Tweens   []Tween
}

// Keyframe is one arc at a point in time.
type Keyframe struct {
	ID       donut.Identity
	Slice    donut.Slice
	Layer    donut.Layer
	Geometry layout.Geometry
	Opacity  float64
}

// At samples every tween at progress p. Once p reaches 1, arcs marked for
// removal are left out. Normal arcs come before highlight arcs.
func (t Transition) At(p float64) []Keyframe {
	out := make([]Keyframe, 0, len(t.Tweens))
	for _, layer := range []donut.Layer{donut.LayerNormal, donut.LayerHighlight} {
		for _, tw := range t.Tweens {
			if tw.Layer != layer || (p >= 1 && tw.Remove) {
				continue
			}
			g, o := tw.At(p)
			out = append(out, Keyframe{ID: tw.ID, Slice: tw.Slice, Layer: tw.Layer, Geometry: g, Opacity: o})
		}
	}
	return out
}

// Final returns the keyframes at the end of the transition.
func (t Transition) Final() []Keyframe { return t.At(1) }

// Opacities computes render opacity; the selection controller implements it.
type Opacities interface {
	Opacity(s donut.Slice, layer donut.Layer, highlighted bool) float64
}

// Options tunes a plan.
type Options struct {
	Duration time.Duration
	Suppress bool // jump straight to the end state
}

// Plan computes the transition from prev to next. A zero prev.Engine means
// there was no previous render; next.Engine is used for both sides then.
func Plan(prev, next State, op Opacities, opts Options) Transition {
	tr := Transition{Kind: Kind(prev.HasHighlights, next.HasHighlights), Duration: opts.Duration}
	if tr.Duration == 0 {
		tr.Duration = DefaultDuration
	}
	if opts.Suppress {
		tr.Duration = 0
	}
	prevEngine := prev.Engine
	if prevEngine == (layout.Engine{}) {
		prevEngine = next.Engine
	}

	before, after := Merge(prev.Slices, next.Slices)
	from := layout.Partition(before)
	to := layout.Partition(after)
	join := Diff(prev.Slices, next.Slices)
	phases := make(map[donut.Identity]Phase, len(after))
	for _, id := range join.Enter {
		phases[id] = PhaseEnter
	}
	for _, id := range join.Exit {
		phases[id] = PhaseExit
	}

	for i := range after {
		id := after[i].ID
		phase := phases[id]
		tw := Tween{
			ID:     id,
			Slice:  after[i],
			Layer:  donut.LayerNormal,
			Phase:  phase,
			From:   prevEngine.ArcOf(from[i], layout.BandNormal),
			To:     next.Engine.ArcOf(to[i], layout.BandNormal),
			Remove: phase == PhaseExit,
		}
		tw.FromOpacity = op.Opacity(before[i], donut.LayerNormal, prev.HasHighlights)
		tw.ToOpacity = op.Opacity(after[i], donut.LayerNormal, next.HasHighlights)
		switch phase {
		case PhaseEnter:
			tw.FromOpacity = tw.ToOpacity
		case PhaseExit:
			tw.ToOpacity = tw.FromOpacity
		}
		tr.Tweens = append(tr.Tweens, tw)
	}

	for i := range after {
		id := after[i].ID
		phase := phases[id]
		tw := Tween{ID: id, Slice: after[i], Layer: donut.LayerHighlight, Phase: phase}
		switch tr.Kind {
		case KindNone:
			continue
		case KindEnter:
			if phase == PhaseExit {
				continue
			}
			tw.Phase = PhaseEnter
			tw.From = next.Engine.ArcOf(to[i], layout.BandZero)
			tw.To = next.Engine.ArcOf(to[i], layout.BandHighlight)
			tw.FromOpacity = op.Opacity(after[i], donut.LayerHighlight, true)
			tw.ToOpacity = tw.FromOpacity
		case KindUpdate:
			tw.From = prevEngine.ArcOf(from[i], layout.BandHighlight)
			tw.To = next.Engine.ArcOf(to[i], layout.BandHighlight)
			tw.FromOpacity = op.Opacity(before[i], donut.LayerHighlight, true)
			tw.ToOpacity = op.Opacity(after[i], donut.LayerHighlight, true)
			tw.Remove = phase == PhaseExit
		case KindExit:
			if phase == PhaseEnter {
				continue
			}
			tw.Phase = PhaseExit
			tw.From = prevEngine.ArcOf(from[i], layout.BandHighlight)
			tw.To = next.Engine.ArcOf(to[i], layout.BandZero)
			tw.FromOpacity = op.Opacity(before[i], donut.LayerHighlight, true)
			tw.ToOpacity = tw.FromOpacity
			tw.Remove = true
		}
		tr.Tweens = append(tr.Tweens, tw)
	}
	return tr
}

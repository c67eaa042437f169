// Package layout computes the arc geometry of a donut chart.
//
// Angles are in radians, measured clockwise from 12 o'clock, and the chart
// center is the origin. [Partition] assigns each slice its angular span and
// [Engine.ArcOf] turns a span into a [Geometry] for one of three radius bands:
//
//   - [BandZero]: a sliver at the inner radius, the entry and exit keyframe.
//   - [BandNormal]: the full ring.
//   - [BandHighlight]: the ring shortened by the slice's highlight ratio.
//
// The same call produces "before" and "after" keyframes, so transitions never
// need geometry of their own.
package layout

import (
	"math"

	"github.com/matzehuels/donut/pkg/donut"
)

// FullCircle is 2π.
const FullCircle = 2 * math.Pi

// ZeroEpsilon is the outer radius of a zero-band arc on a pie (inner radius
// 0), keeping the shape non-degenerate.
const ZeroEpsilon = 1e-5

// Band selects the radius pair of an arc.
type Band int

const (
	BandNormal Band = iota
	BandHighlight
	BandZero
)

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandHighlight:
		return "highlight"
	case BandZero:
		return "zero"
	default:
		return "normal"
	}
}

// Span is the angular range of one slice.
type Span struct {
	Slice      donut.Slice
	StartAngle float64
	EndAngle   float64
}

// Width returns the angular width of the span.
func (s Span) Width() float64 { return s.EndAngle - s.StartAngle }

// Center returns the angle halfway through the span.
func (s Span) Center() float64 { return (s.StartAngle + s.EndAngle) / 2 }

// Geometry is one arc: an annular sector.
type Geometry struct {
	StartAngle  float64 `json:"start_angle"`
	EndAngle    float64 `json:"end_angle"`
	InnerRadius float64 `json:"inner_radius"`
	OuterRadius float64 `json:"outer_radius"`
}

// Width returns the angular width of the arc.
func (g Geometry) Width() float64 { return g.EndAngle - g.StartAngle }

// Thickness returns the radial thickness of the arc.
func (g Geometry) Thickness() float64 { return g.OuterRadius - g.InnerRadius }

// Centroid returns the point halfway through the arc in both directions,
// relative to the chart center with y pointing down.
func (g Geometry) Centroid() (x, y float64) {
	a := (g.StartAngle + g.EndAngle) / 2
	r := (g.InnerRadius + g.OuterRadius) / 2
	return Point(a, r)
}

// Point converts a layout angle and radius to x/y relative to the center,
// with y pointing down.
func Point(angle, radius float64) (x, y float64) {
	return radius * math.Sin(angle), -radius * math.Cos(angle)
}

// Lerp interpolates between two arcs component by component.
func Lerp(a, b Geometry, t float64) Geometry {
	return Geometry{
		StartAngle:  a.StartAngle + (b.StartAngle-a.StartAngle)*t,
		EndAngle:    a.EndAngle + (b.EndAngle-a.EndAngle)*t,
		InnerRadius: a.InnerRadius + (b.InnerRadius-a.InnerRadius)*t,
		OuterRadius: a.OuterRadius + (b.OuterRadius-a.OuterRadius)*t,
	}
}

// Partition splits the full circle across slices in list order, each span
// proportional to the slice's share of the summed percentages. When the sum is
// 0 every span is empty and starts at 0.
func Partition(slices []donut.Slice) []Span {
	total := 0.0
	for _, s := range slices {
		total += math.Max(s.Percentage, 0)
	}
	spans := make([]Span, len(slices))
	angle := 0.0
	for i, s := range slices {
		width := 0.0
		if total > 0 {
			width = math.Max(s.Percentage, 0) / total * FullCircle
		}
		end := angle + width
		if i == len(slices)-1 && total > 0 {
			end = FullCircle
		}
		spans[i] = Span{Slice: s, StartAngle: angle, EndAngle: end}
		angle = end
	}
	return spans
}

// Engine holds the radii of one chart.
type Engine struct {
	Radius         float64 // outer bound, usually half the shorter viewport side
	InnerArcRatio  float64 // normal outer radius as a fraction of Radius
	ThicknessRatio float64 // inner radius as a fraction of Radius, 0 for a pie
}

// NewEngine returns an engine for a viewport.
func NewEngine(vp donut.Viewport, innerArcRatio, thicknessRatio float64) Engine {
	return Engine{Radius: vp.Radius(), InnerArcRatio: innerArcRatio, ThicknessRatio: thicknessRatio}
}

// InnerRadius returns the hole radius.
func (e Engine) InnerRadius() float64 { return math.Max(e.Radius*e.ThicknessRatio, 0) }

// OuterRadius returns the normal outer radius.
func (e Engine) OuterRadius() float64 { return math.Max(e.Radius*e.InnerArcRatio, 0) }

// ArcOf returns the geometry of span in the given band.
func (e Engine) ArcOf(span Span, band Band) Geometry {
	g := Geometry{StartAngle: span.StartAngle, EndAngle: span.EndAngle, InnerRadius: e.InnerRadius()}
	outer := e.OuterRadius()
	switch band {
	case BandZero:
		g.OuterRadius = g.InnerRadius
		if g.InnerRadius == 0 {
			g.OuterRadius = ZeroEpsilon
		}
	case BandHighlight:
		ratio := math.Min(math.Max(span.Slice.HighlightRatio, 0), 1)
		g.OuterRadius = g.InnerRadius + (outer-g.InnerRadius)*ratio
	default:
		g.OuterRadius = outer
	}
	return g
}

// Arcs returns the geometry of every span in one band.
func (e Engine) Arcs(spans []Span, band Band) []Geometry {
	out := make([]Geometry, len(spans))
	for i, s := range spans {
		out[i] = e.ArcOf(s, band)
	}
	return out
}

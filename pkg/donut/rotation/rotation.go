// Package rotation implements the interactive legend mode: the chart turns so
// that one slice sits at the top, driven by taps and drag gestures, while a
// legend strip scrolls endlessly underneath.
//
// The controller keeps the rotation state (angle, bucket bounds, current
// index, accumulated drag) and nothing else. [Controller.Reset] must be called
// whenever the slice list changes; it abandons any gesture in flight.
package rotation

import (
	"fmt"
	"math"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/layout"
	"github.com/matzehuels/donut/pkg/donut/selection"
)

// TapThreshold is the net drag rotation, in radians, below which a gesture
// counts as a tap and is left to the tap handler.
const TapThreshold = 0.05

// Point is a pointer position in viewport pixels.
type Point struct {
	X, Y float64
}

// Sample is one pointer or touch event. Only the first touch is used.
type Sample struct {
	Touches []Point
}

// Pointer returns a single-pointer sample.
func Pointer(x, y float64) Sample { return Sample{Touches: []Point{{X: x, Y: y}}} }

// Change is emitted whenever the rotation or current slice changes.
type Change struct {
	Index    int
	Rotation float64
	Snap     bool // true when the chart should animate to Rotation, false while tracking a drag
}

// EntryFunc produces the legend strip labels of a slice.
type EntryFunc func(s donut.Slice) Entry

// Controller is the gesture engine. It is not safe for concurrent use.
type Controller struct {
	spans    []layout.Span
	angles   []float64
	bounds   []float64
	current  Cyclic
	rotation float64

	dragging  bool
	lastAngle float64
	delta     float64

	center    Point
	strip     *Strip
	measurer  Measurer
	maxWidth  float64
	padding   float64
	entry     EntryFunc
	listeners []func(Change)
}

// Option configures a Controller.
type Option func(*Controller)

// WithCenter sets the chart center in pointer coordinates.
func WithCenter(x, y float64) Option { return func(c *Controller) { c.center = Point{X: x, Y: y} } }

// WithMeasurer sets the text measurer of the legend strip.
func WithMeasurer(m Measurer) Option { return func(c *Controller) { c.measurer = m } }

// WithMaxItemWidth caps the label width of a strip item.
func WithMaxItemWidth(w float64) Option { return func(c *Controller) { c.maxWidth = w } }

// WithItemPadding sets the padding added to every strip item.
func WithItemPadding(p float64) Option { return func(c *Controller) { c.padding = p } }

// WithEntryFunc sets how slices are labelled in the strip.
func WithEntryFunc(fn EntryFunc) Option { return func(c *Controller) { c.entry = fn } }

// New returns a controller with no slices.
func New(opts ...Option) *Controller {
	c := &Controller{
		measurer: DefaultMeasurer(),
		maxWidth: DefaultMaxItemWidth,
		padding:  DefaultItemPadding,
		entry:    defaultEntry,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.strip = NewStrip(nil, c.measurer, c.maxWidth, c.padding)
	return c
}

func defaultEntry(s donut.Slice) Entry {
	return Entry{
		Label:   s.Label,
		Value:   fmt.Sprintf("%.4g", s.Measure),
		Percent: fmt.Sprintf("%.1f%%", s.Percentage*100),
	}
}

// Reset adopts a new partition. The first slice becomes current, the chart
// snaps to it and any gesture in progress is dropped.
func (c *Controller) Reset(spans []layout.Span) {
	n := len(spans)
	c.spans = spans
	c.angles = make([]float64, n)
	c.bounds = make([]float64, n)
	entries := make([]Entry, n)
	for i, s := range spans {
		c.angles[i] = normalize(-s.Center())
		c.bounds[i] = s.EndAngle
		entries[i] = c.entry(s.Slice)
	}
	c.dragging, c.delta, c.lastAngle = false, 0, 0
	c.current = NewCyclic(0, n)
	c.rotation = 0
	if n > 0 {
		c.rotation = c.angles[0]
	}
	c.strip = NewStrip(entries, c.measurer, c.maxWidth, c.padding)
}

// SetCenter moves the chart center, for example after a resize.
func (c *Controller) SetCenter(x, y float64) { c.center = Point{X: x, Y: y} }

// OnChange registers fn for rotation changes.
func (c *Controller) OnChange(fn func(Change)) { c.listeners = append(c.listeners, fn) }

// Len returns the number of slices.
func (c *Controller) Len() int { return len(c.spans) }

// Current returns the current slice index.
func (c *Controller) Current() Cyclic { return c.current }

// Rotation returns the chart rotation in radians, clockwise.
func (c *Controller) Rotation() float64 { return c.rotation }

// Dragging reports whether a gesture is in progress.
func (c *Controller) Dragging() bool { return c.dragging }

// Delta returns the rotation accumulated by the current gesture.
func (c *Controller) Delta() float64 { return c.delta }

// Strip returns the legend strip.
func (c *Controller) Strip() *Strip { return c.strip }

// Angle returns the rotation that brings slice i to the top, in [0, 2π).
func (c *Controller) Angle(i int) float64 { return c.angles[i] }

// IndexFromAngle returns the slice at the top of the chart when it is
// rotated by theta. It returns -1 without slices.
func (c *Controller) IndexFromAngle(theta float64) int {
	n := len(c.bounds)
	if n == 0 {
		return -1
	}
	top := normalize(-theta)
	for i, end := range c.bounds {
		if top < end {
			return i
		}
	}
	return n - 1
}

// Opacity returns the render opacity of slice i: the current slice is
// opaque, all others dimmed.
func (c *Controller) Opacity(i int) float64 {
	if c.Len() > 0 && i == c.current.Int() {
		return selection.FullOpacity
	}
	return selection.DimmedOpacity
}

// Select makes slice i current and snaps the chart to it along the shorter
// way round.
func (c *Controller) Select(i int) {
	if c.Len() == 0 {
		return
	}
	c.current = NewCyclic(i, c.Len())
	c.rotation += wrapPi(c.angles[c.current.Int()] - c.rotation)
	c.strip.MoveTo(c.current)
	c.emit(true)
}

// Step selects the slice k positions after the current one.
func (c *Controller) Step(k int) {
	if c.Len() == 0 {
		return
	}
	c.Select(c.current.Advance(k).Int())
}

// DragStart begins a gesture.
func (c *Controller) DragStart(s Sample) {
	p, ok := first(s)
	if !ok || c.Len() == 0 {
		return
	}
	c.dragging = true
	c.delta = 0
	c.lastAngle = c.pointerAngle(p)
}

// DragMove rotates the chart by the angle the pointer swept since the last
// sample. Crossing into another bucket makes that slice current at once.
func (c *Controller) DragMove(s Sample) {
	p, ok := first(s)
	if !ok || !c.dragging {
		return
	}
	a := c.pointerAngle(p)
	d := wrapPi(a - c.lastAngle)
	c.lastAngle = a
	c.delta += d
	c.rotation += d

	if i := c.IndexFromAngle(c.rotation); i != c.current.Int() {
		c.current = NewCyclic(i, c.Len())
		c.strip.MoveTo(c.current)
	}
	c.emit(false)
}

// DragEnd finishes a gesture. A gesture that barely moved is ignored;
// otherwise the chart snaps to the current slice.
func (c *Controller) DragEnd() {
	if !c.dragging {
		return
	}
	c.dragging = false
	if math.Abs(c.delta) < TapThreshold {
		return
	}
	c.Select(c.current.Int())
}

func (c *Controller) emit(snap bool) {
	ch := Change{Index: c.current.Int(), Rotation: c.rotation, Snap: snap}
	for _, fn := range c.listeners {
		fn(ch)
	}
}

// pointerAngle returns the angle of p around the center, clockwise from 12
// o'clock like layout angles.
func (c *Controller) pointerAngle(p Point) float64 {
	return math.Atan2(p.X-c.center.X, -(p.Y - c.center.Y))
}

func first(s Sample) (Point, bool) {
	if len(s.Touches) == 0 {
		return Point{}, false
	}
	return s.Touches[0], true
}

// normalize wraps a into [0, 2π).
func normalize(a float64) float64 {
	a = math.Mod(a, layout.FullCircle)
	if a < 0 {
		a += layout.FullCircle
	}
	if a >= layout.FullCircle {
		a = 0
	}
	return a
}

// wrapPi wraps a into (-π, π].
func wrapPi(a float64) float64 {
	a = normalize(a)
	if a > math.Pi {
		a -= layout.FullCircle
	}
	return a
}

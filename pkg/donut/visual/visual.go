// Package visual drives the chart core for one chart instance.
//
// A [Visual] owns the state that outlives a single data refresh: the color
// scale, the selection, the rotation controller of the interactive legend
// mode and the previously rendered state used to plan transitions. Every
// entry point returns a complete [Frame] describing what to draw.
//
//	v := visual.New(visual.WithLogger(logger))
//	frame := v.Update(visual.Update{Result: result, Viewport: vp, Settings: s})
//	frame = v.Click(frame.Slices[0].ID, false)
//
// A Visual is not safe for concurrent use.
package visual

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/animation"
	"github.com/matzehuels/donut/pkg/donut/convert"
	"github.com/matzehuels/donut/pkg/donut/cull"
	"github.com/matzehuels/donut/pkg/donut/labels"
	"github.com/matzehuels/donut/pkg/donut/layout"
	"github.com/matzehuels/donut/pkg/donut/palette"
	"github.com/matzehuels/donut/pkg/donut/props"
	"github.com/matzehuels/donut/pkg/donut/rotation"
	"github.com/matzehuels/donut/pkg/donut/selection"
	"github.com/matzehuels/donut/pkg/donut/settings"
)

// LabelOffset is the gap, in pixels, between the outer arc and a data label.
const LabelOffset = 14.0

// Update is one data refresh from the host.
type Update struct {
	Result            *dataview.Result
	Viewport          donut.Viewport
	Settings          settings.Settings
	SuppressAnimation bool
}

// Arc is one drawable arc in its final state.
type Arc struct {
	ID       donut.Identity
	Slice    int // index into Frame.Slices
	Layer    donut.Layer
	Geometry layout.Geometry
	Opacity  float64
	Color    string
}

// DataLabel is a positioned data label, relative to the chart center.
type DataLabel struct {
	ID   donut.Identity
	Text string
	X, Y float64
}

// RotationFrame is the interactive legend state of a frame.
type RotationFrame struct {
	Angle   float64
	Current int
	Snap    bool
	Strip   []rotation.Item
	Entries []rotation.Entry
}

// Frame is everything needed to draw the chart after one operation.
type Frame struct {
	Viewport      donut.Viewport
	Settings      settings.Settings
	Mode          convert.Mode
	Slices        []donut.Slice // after culling, in drawing order
	Legend        []donut.LegendEntry
	LegendTitle   string
	Labels        donut.LabelSettings
	DataLabels    []DataLabel
	Arcs          []Arc
	Transition    animation.Transition
	Warnings      []donut.Warning
	Culled        bool
	Threshold     float64
	Total         float64
	HasHighlights bool
	Overflow      bool
	Rotation      *RotationFrame // nil unless the interactive legend is on
}

// Empty reports whether there is nothing to draw.
func (f Frame) Empty() bool { return len(f.Slices) == 0 }

// Visual is one chart instance.
type Visual struct {
	logger   *log.Logger
	duration time.Duration

	settings settings.Settings
	viewport donut.Viewport
	scale    *palette.Scale
	scaleFor string

	model    convert.Model
	warnings []donut.Warning
	format   *labels.Formatter

	sel     *selection.Controller
	rot     *rotation.Controller
	rotIDs  []donut.Identity
	snapped bool

	prev  animation.State
	frame Frame
}

// Option configures a Visual.
type Option func(*Visual)

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option { return func(v *Visual) { v.logger = l } }

// WithDuration sets the transition duration.
func WithDuration(d time.Duration) Option { return func(v *Visual) { v.duration = d } }

// New returns a visual with default settings and no data.
func New(opts ...Option) *Visual {
	v := &Visual{
		settings: settings.Default(),
		sel:      selection.New(),
		duration: animation.DefaultDuration,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = log.New(io.Discard)
	}
	return v
}

// Update converts a new data result and renders it.
func (v *Visual) Update(u Update) Frame {
	v.settings = u.Settings
	v.viewport = u.Viewport
	if v.scale == nil || v.scaleFor != u.Settings.Chart.Palette {
		p, err := palette.Brewer(u.Settings.Chart.Palette)
		if err != nil {
			v.logger.Warn("unknown palette, using default", "palette", u.Settings.Chart.Palette)
			p = palette.Default()
		}
		v.scale, v.scaleFor = palette.NewScale(p), u.Settings.Chart.Palette
	}

	v.warnings = dataview.Validate(u.Result)
	v.model = convert.Convert(dataview.Sanitize(u.Result), convert.Options{Settings: u.Settings, Scale: v.scale})
	v.format = labels.New(v.model.Labels, v.model.MaxValue)
	v.logger.Debug("converted",
		"mode", v.model.Mode,
		"slices", len(v.model.Slices),
		"highlights", v.model.HasHighlights,
		"overflow", v.model.Overflow,
	)
	return v.render(u.SuppressAnimation, true)
}

// Resize re-culls and re-lays out the current data for vp without animating.
func (v *Visual) Resize(vp donut.Viewport) Frame {
	v.viewport = vp
	return v.render(true, false)
}

// Click applies a tap on a slice. In the interactive legend mode the chart
// rotates to the slice; otherwise the selection changes.
func (v *Visual) Click(id donut.Identity, multi bool) Frame {
	if v.rot != nil {
		for i, s := range v.frame.Slices {
			if s.ID == id {
				v.rot.Select(i)
				break
			}
		}
		return v.render(false, false)
	}
	v.sel.Click(id, multi)
	return v.render(false, false)
}

// ClearSelection empties the selection.
func (v *Visual) ClearSelection() Frame {
	v.sel.Clear()
	return v.render(false, false)
}

// Select replaces the selection with ids.
func (v *Visual) Select(ids ...donut.Identity) Frame {
	v.sel.Select(ids...)
	return v.render(false, false)
}

// Step moves the interactive legend k slices. It is a no-op outside the
// interactive mode.
func (v *Visual) Step(k int) Frame {
	if v.rot != nil {
		v.rot.Step(k)
	}
	return v.render(false, false)
}

// DragStart begins a rotation gesture.
func (v *Visual) DragStart(s rotation.Sample) Frame {
	if v.rot != nil {
		v.rot.DragStart(s)
	}
	return v.frame
}

// DragMove continues a rotation gesture. The chart follows without easing.
func (v *Visual) DragMove(s rotation.Sample) Frame {
	if v.rot == nil {
		return v.frame
	}
	v.rot.DragMove(s)
	return v.render(true, false)
}

// DragEnd finishes a rotation gesture.
func (v *Visual) DragEnd() Frame {
	if v.rot == nil {
		return v.frame
	}
	v.rot.DragEnd()
	return v.render(false, false)
}

// OnSelect registers fn for selection events.
func (v *Visual) OnSelect(fn selection.Listener) { v.sel.Subscribe(fn) }

// Properties returns the property cards for the current state.
func (v *Visual) Properties() []props.Card {
	return props.Enumerate(v.settings, v.frame.Legend)
}

// Frame returns the most recent frame.
func (v *Visual) Frame() Frame { return v.frame }

// Settings returns the current settings.
func (v *Visual) Settings() settings.Settings { return v.settings }

// Formatter returns the data label formatter of the current data.
func (v *Visual) Formatter() *labels.Formatter {
	if v.format == nil {
		v.format = labels.New(v.settings.LabelSettings(), 0)
	}
	return v.format
}

func (v *Visual) render(suppress, refreshed bool) Frame {
	all := v.sel.Reconcile(v.model.Slices)
	culled := cull.Filter(all, v.viewport, v.model.MaxValue)
	slices := culled.Slices
	if culled.Culled {
		v.logger.Debug("culled slices", "dropped", culled.Dropped, "threshold", culled.Threshold)
	}

	spans := layout.Partition(slices)
	engine := layout.NewEngine(v.viewport, v.settings.Chart.InnerArcRatio, v.settings.Chart.ThicknessRatio)
	highlighted := v.model.HasHighlights && len(slices) > 0

	f := Frame{
		Viewport:      v.viewport,
		Settings:      v.settings,
		Mode:          v.model.Mode,
		Slices:        slices,
		Legend:        v.sel.Mark(v.model.Legend),
		LegendTitle:   v.model.LegendTitle,
		Labels:        v.model.Labels,
		Culled:        culled.Culled,
		Threshold:     culled.Threshold,
		Total:         v.model.Total,
		HasHighlights: highlighted,
		Overflow:      v.model.Overflow,
	}
	f.Warnings = append(f.Warnings, v.warnings...)
	if w, ok := culled.Warning(); ok {
		f.Warnings = append(f.Warnings, w)
	}

	var op animation.Opacities = v.sel
	if v.syncRotation(spans, refreshed) {
		op = rotationOpacities{rot: v.rot, index: indexOf(slices)}
		items := v.rot.Strip().Items()
		entries := make([]rotation.Entry, v.rot.Strip().Len())
		for i, it := range items {
			entries[i] = v.rot.Strip().Entry(it.Slice)
		}
		f.Rotation = &RotationFrame{
			Angle:   v.rot.Rotation(),
			Current: v.rot.Current().Int(),
			Snap:    v.snapped,
			Strip:   items,
			Entries: entries,
		}
		v.snapped = false
	}

	next := animation.State{Slices: slices, HasHighlights: highlighted, Engine: engine}
	f.Transition = animation.Plan(v.prev, next, op, animation.Options{Duration: v.duration, Suppress: suppress})
	v.prev = next

	index := indexOf(slices)
	for _, kf := range f.Transition.Final() {
		f.Arcs = append(f.Arcs, Arc{
			ID:       kf.ID,
			Slice:    index[kf.ID],
			Layer:    kf.Layer,
			Geometry: kf.Geometry,
			Opacity:  kf.Opacity,
			Color:    kf.Slice.Color,
		})
	}
	f.DataLabels = v.dataLabels(spans, engine)

	v.frame = f
	return f
}

// syncRotation creates, resets or drops the rotation controller to match
// the settings and the slice list. It reports whether the interactive
// legend is active.
func (v *Visual) syncRotation(spans []layout.Span, refreshed bool) bool {
	if !v.settings.Chart.Interactive {
		v.rot, v.rotIDs = nil, nil
		return false
	}
	cx, cy := v.viewport.Center()
	if v.rot == nil {
		v.rot = rotation.New(rotation.WithCenter(cx, cy), rotation.WithEntryFunc(v.stripEntry))
		v.rot.OnChange(func(ch rotation.Change) {
			if ch.Snap {
				v.snapped = true
			}
		})
		refreshed = true
	}
	v.rot.SetCenter(cx, cy)

	ids := make([]donut.Identity, len(spans))
	for i, s := range spans {
		ids[i] = s.Slice.ID
	}
	if refreshed || !sameIDs(ids, v.rotIDs) {
		v.rot.Reset(spans)
		v.rotIDs = ids
	}
	return true
}

func (v *Visual) stripEntry(s donut.Slice) rotation.Entry {
	f := v.Formatter()
	return rotation.Entry{Label: s.Label, Value: f.Value(s.Measure), Percent: f.Percent(s.Percentage)}
}

func (v *Visual) dataLabels(spans []layout.Span, engine layout.Engine) []DataLabel {
	if !v.settings.Labels.Show || len(spans) == 0 {
		return nil
	}
	f := v.Formatter()
	out := make([]DataLabel, 0, len(spans))
	for _, sp := range spans {
		x, y := layout.Point(sp.Center(), engine.OuterRadius()+LabelOffset)
		out = append(out, DataLabel{ID: sp.Slice.ID, Text: f.Label(sp.Slice), X: x, Y: y})
	}
	return out
}

type rotationOpacities struct {
	rot   *rotation.Controller
	index map[donut.Identity]int
}

func (r rotationOpacities) Opacity(s donut.Slice, layer donut.Layer, highlighted bool) float64 {
	i, ok := r.index[s.ID]
	if !ok {
		return selection.DimmedOpacity
	}
	o := r.rot.Opacity(i)
	if layer == donut.LayerHighlight && o < selection.FullOpacity {
		return selection.HighlightDimmedOpacity
	}
	if layer == donut.LayerNormal && highlighted {
		return selection.DimmedOpacity
	}
	return o
}

func indexOf(slices []donut.Slice) map[donut.Identity]int {
	m := make(map[donut.Identity]int, len(slices))
	for i, s := range slices {
		m[s.ID] = i
	}
	return m
}

func sameIDs(a, b []donut.Identity) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

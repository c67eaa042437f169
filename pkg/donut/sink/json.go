package sink

import (
	"encoding/json"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/layout"
	"github.com/matzehuels/donut/pkg/donut/rotation"
	"github.com/matzehuels/donut/pkg/donut/visual"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	transition bool
}

// WithJSONTransition includes the transition plan: one tween per arc with
// its start and end geometry and opacity.
func WithJSONTransition() JSONOption { return func(r *jsonRenderer) { r.transition = true } }

type jsonOutput struct {
	Width         float64           `json:"width"`
	Height        float64           `json:"height"`
	Mode          string            `json:"mode"`
	Total         float64           `json:"total"`
	HasHighlights bool              `json:"has_highlights,omitempty"`
	Overflow      bool              `json:"overflow,omitempty"`
	Culled        bool              `json:"culled,omitempty"`
	Threshold     float64           `json:"threshold"`
	LegendTitle   string            `json:"legend_title,omitempty"`
	Slices        []donut.Slice     `json:"slices"`
	Legend        []jsonLegend      `json:"legend"`
	Labels        jsonLabelSettings `json:"labels"`
	Arcs          []jsonArc         `json:"arcs"`
	DataLabels    []jsonDataLabel   `json:"data_labels,omitempty"`
	Warnings      []donut.Warning   `json:"warnings"`
	Rotation      *jsonRotation     `json:"rotation,omitempty"`
	Transition    *jsonTransition   `json:"transition,omitempty"`
}

type jsonLegend struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Selected bool   `json:"selected,omitempty"`
}

type jsonLabelSettings struct {
	Show         bool    `json:"show"`
	ShowCategory bool    `json:"show_category"`
	Color        string  `json:"color"`
	DisplayUnits float64 `json:"display_units"`
	Precision    int     `json:"precision"`
}

type jsonArc struct {
	ID       string          `json:"id"`
	Layer    string          `json:"layer"`
	Geometry layout.Geometry `json:"geometry"`
	Opacity  float64         `json:"opacity"`
	Color    string          `json:"color"`
}

type jsonDataLabel struct {
	ID   string  `json:"id"`
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type jsonRotation struct {
	Angle   float64         `json:"angle"`
	Current int             `json:"current"`
	Snap    bool            `json:"snap,omitempty"`
	Strip   []jsonStripItem `json:"strip"`
}

type jsonStripItem struct {
	rotation.Item
	Label   string `json:"label"`
	Value   string `json:"value"`
	Percent string `json:"percent"`
}

type jsonTransition struct {
	Kind       string      `json:"kind"`
	DurationMS int64       `json:"duration_ms"`
	Tweens     []jsonTween `json:"tweens"`
}

type jsonTween struct {
	ID          string          `json:"id"`
	Layer       string          `json:"layer"`
	Phase       string          `json:"phase"`
	From        layout.Geometry `json:"from"`
	To          layout.Geometry `json:"to"`
	FromOpacity float64         `json:"from_opacity"`
	ToOpacity   float64         `json:"to_opacity"`
	Remove      bool            `json:"remove,omitempty"`
}

// RenderJSON exports the frame as a pretty-printed JSON document.
//
// RenderJSON returns an error only if JSON marshaling fails. It does not
// modify f.
func RenderJSON(f visual.Frame, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Width:         f.Viewport.Width,
		Height:        f.Viewport.Height,
		Mode:          f.Mode.String(),
		Total:         f.Total,
		HasHighlights: f.HasHighlights,
		Overflow:      f.Overflow,
		Culled:        f.Culled,
		Threshold:     f.Threshold,
		LegendTitle:   f.LegendTitle,
		Slices:        f.Slices,
		Legend:        make([]jsonLegend, 0, len(f.Legend)),
		Labels: jsonLabelSettings{
			Show:         f.Labels.Show,
			ShowCategory: f.Labels.ShowCategory,
			Color:        f.Labels.Color,
			DisplayUnits: f.Labels.DisplayUnits,
			Precision:    f.Labels.Precision,
		},
		Arcs:     make([]jsonArc, 0, len(f.Arcs)),
		Warnings: f.Warnings,
	}
	if out.Slices == nil {
		out.Slices = []donut.Slice{}
	}
	if out.Warnings == nil {
		out.Warnings = []donut.Warning{}
	}
	for _, e := range f.Legend {
		out.Legend = append(out.Legend, jsonLegend{ID: string(e.ID), Label: e.Label, Color: e.Color, Selected: e.Selected})
	}
	for _, a := range f.Arcs {
		out.Arcs = append(out.Arcs, jsonArc{
			ID:       string(a.ID),
			Layer:    a.Layer.String(),
			Geometry: a.Geometry,
			Opacity:  a.Opacity,
			Color:    a.Color,
		})
	}
	for _, l := range f.DataLabels {
		out.DataLabels = append(out.DataLabels, jsonDataLabel{ID: string(l.ID), Text: l.Text, X: l.X, Y: l.Y})
	}
	if f.Rotation != nil {
		rot := &jsonRotation{Angle: f.Rotation.Angle, Current: f.Rotation.Current, Snap: f.Rotation.Snap}
		for i, it := range f.Rotation.Strip {
			e := f.Rotation.Entries[i]
			rot.Strip = append(rot.Strip, jsonStripItem{Item: it, Label: e.Label, Value: e.Value, Percent: e.Percent})
		}
		out.Rotation = rot
	}
	if r.transition {
		out.Transition = buildTransition(f)
	}

	return json.MarshalIndent(out, "", "  ")
}

func buildTransition(f visual.Frame) *jsonTransition {
	tr := &jsonTransition{
		Kind:       f.Transition.Kind.String(),
		DurationMS: f.Transition.Duration.Milliseconds(),
		Tweens:     make([]jsonTween, 0, len(f.Transition.Tweens)),
	}
	for _, tw := range f.Transition.Tweens {
		tr.Tweens = append(tr.Tweens, jsonTween{
			ID:          string(tw.ID),
			Layer:       tw.Layer.String(),
			Phase:       tw.Phase.String(),
			From:        tw.From,
			To:          tw.To,
			FromOpacity: tw.FromOpacity,
			ToOpacity:   tw.ToOpacity,
			Remove:      tw.Remove,
		})
	}
	return tr
}

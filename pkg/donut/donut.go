package donut

import (
	"math"
	"strings"
)

// Identity is the opaque key of a slice. It is derived from the category,
// series and measure a slice was built from and stays the same across data
// refreshes as long as that provenance does.
type Identity string

// NewIdentity joins provenance parts into an identity. Empty parts are skipped.
func NewIdentity(parts ...string) Identity {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return Identity(strings.Join(kept, "|"))
}

// Tooltip is the raw data a host-side formatter turns into tooltip text.
type Tooltip struct {
	Label     string   `json:"label"`
	Series    string   `json:"series,omitempty"`
	Measure   string   `json:"measure,omitempty"`
	Value     float64  `json:"value"`
	Highlight *float64 `json:"highlight,omitempty"`
	Format    string   `json:"format,omitempty"`
}

// Slice is one wedge of the chart.
type Slice struct {
	ID      Identity `json:"id"`
	Origins []string `json:"origins,omitempty"` // original data identities, reported in selection events
	Label   string   `json:"label"`
	Series  string   `json:"series,omitempty"`

	Measure        float64 `json:"measure"`         // signed raw value
	Value          float64 `json:"value"`           // |Measure|
	Percentage     float64 `json:"percentage"`      // share of the whole, in [0,1]
	Highlight      float64 `json:"highlight"`       // signed raw highlight value, 0 if absent
	HighlightRatio float64 `json:"highlight_ratio"` // fraction of the normal arc covered by the overlay

	Color    string  `json:"color"`
	Selected bool    `json:"selected"`
	Format   string  `json:"format,omitempty"`
	Tooltip  Tooltip `json:"tooltip"`
}

// LegendEntry is one row of the legend.
type LegendEntry struct {
	ID       Identity `json:"id"`
	Label    string   `json:"label"`
	Color    string   `json:"color"`
	Selected bool     `json:"selected"`
}

// LabelSettings is the snapshot of data label options taken at conversion.
type LabelSettings struct {
	Show         bool    `json:"show"`
	ShowCategory bool    `json:"show_category"`
	Color        string  `json:"color"`
	DisplayUnits float64 `json:"display_units"`
	Precision    int     `json:"precision"`
}

// Viewport is the drawing area in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Radius returns the largest radius that fits the viewport, never negative.
func (v Viewport) Radius() float64 {
	r := math.Min(v.Width, v.Height) / 2
	if r < 0 || math.IsNaN(r) {
		return 0
	}
	return r
}

// Center returns the viewport center.
func (v Viewport) Center() (x, y float64) { return v.Width / 2, v.Height / 2 }

// Layer tells the two stacked arcs of a slice apart.
type Layer int

const (
	// LayerNormal is the full arc sized by the slice percentage.
	LayerNormal Layer = iota
	// LayerHighlight is the overlay arc sized by the highlight ratio.
	LayerHighlight
)

// String returns the layer name.
func (l Layer) String() string {
	if l == LayerHighlight {
		return "highlight"
	}
	return "normal"
}

// WarningCode classifies a non-fatal condition.
type WarningCode string

const (
	WarningCulled     WarningCode = "CULLED"
	WarningNaN        WarningCode = "NAN"
	WarningInfinity   WarningCode = "INFINITY"
	WarningOutOfRange WarningCode = "OUT_OF_RANGE"
)

// Warning is a non-fatal condition surfaced next to a best-effort render.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// Identities returns the IDs of slices in order.
func Identities(slices []Slice) []Identity {
	ids := make([]Identity, len(slices))
	for i, s := range slices {
		ids[i] = s.ID
	}
	return ids
}

// Package convert turns tabular query results into the slice model.
//
// # Modes
//
// The populated dimensions pick one of three mutually exclusive modes:
//
//   - Category: one slice per category member, crossed with every measure
//     column when there is more than one.
//   - Series: no category but a series dimension; one slice per series member.
//   - Measures: neither dimension; one slice per measure column.
//
// # Percentages and highlights
//
// Percentages are shares of the summed absolute values. When any highlight
// exceeds its value in magnitude, every slice switches to highlight
// magnitudes for its percentage and gets a highlight ratio of exactly 1.
package convert

import (
	"math"

	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/palette"
	"github.com/matzehuels/donut/pkg/donut/settings"
)

// BlankLabel stands in for null or empty category and series labels.
const BlankLabel = "(Blank)"

// RatioEpsilon replaces a highlight ratio of exactly 0 so that highlight arcs
// never interpolate from a degenerate shape.
const RatioEpsilon = 1e-6

// Mode identifies how a result was converted.
type Mode int

const (
	ModeEmpty Mode = iota
	ModeCategory
	ModeSeries
	ModeMeasures
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCategory:
		return "category"
	case ModeSeries:
		return "series"
	case ModeMeasures:
		return "measures"
	default:
		return "empty"
	}
}

// Options configures one conversion.
type Options struct {
	Settings settings.Settings
	// Scale keeps colors stable across conversions. When nil, colors rotate
	// through the configured palette by slice index.
	Scale *palette.Scale
}

// Model is the result of a conversion.
type Model struct {
	Mode           Mode
	Slices         []donut.Slice
	Legend         []donut.LegendEntry
	LegendTitle    string
	Labels         donut.LabelSettings
	Total          float64
	HighlightTotal float64
	MaxValue       float64
	HasHighlights  bool
	Overflow       bool
}

// Empty reports whether the model has no slices.
func (m Model) Empty() bool { return len(m.Slices) == 0 }

// row is one slice candidate before normalization.
type row struct {
	id        donut.Identity
	origins   []string
	label     string
	legend    string
	series    string
	measure   string
	format    string
	value     float64
	highlight float64
}

// Convert builds the slice model for r. A nil or all-zero result yields an
// empty model, never an error.
func Convert(r *dataview.Result, opts Options) Model {
	m := Model{Labels: opts.Settings.LabelSettings()}
	if r == nil || len(r.Measures) == 0 {
		return m
	}

	var rows []row
	switch {
	case r.HasCategory():
		m.Mode, rows = ModeCategory, categoryRows(r)
		m.LegendTitle = r.Category.Name
	case r.HasSeries():
		m.Mode, rows = ModeSeries, seriesRows(r)
		m.LegendTitle = r.Series.Name
	default:
		m.Mode, rows = ModeMeasures, measureRows(r)
	}
	if opts.Settings.Legend.TitleText != "" {
		m.LegendTitle = opts.Settings.Legend.TitleText
	}
	m.HasHighlights = r.HasHighlights()

	for _, rw := range rows {
		v, h := math.Abs(rw.value), math.Abs(rw.highlight)
		m.Total += v
		m.HighlightTotal += h
		m.MaxValue = math.Max(m.MaxValue, v)
		if h > v {
			m.Overflow = true
		}
	}
	if m.Total == 0 {
		m.Overflow = false
		return m
	}

	resolver := colorResolver(opts)
	m.Slices = make([]donut.Slice, len(rows))
	m.Legend = make([]donut.LegendEntry, len(rows))
	for i, rw := range rows {
		s := donut.Slice{
			ID:        rw.id,
			Origins:   rw.origins,
			Label:     rw.label,
			Series:    rw.series,
			Measure:   rw.value,
			Value:     math.Abs(rw.value),
			Highlight: rw.highlight,
			Format:    rw.format,
		}
		s.Percentage, s.HighlightRatio = m.share(rw)
		s.Color = resolver.Resolve(string(rw.id), rw.label, string(rw.id), i)
		s.Tooltip = donut.Tooltip{
			Label:   rw.label,
			Series:  rw.series,
			Measure: rw.measure,
			Value:   rw.value,
			Format:  rw.format,
		}
		if m.HasHighlights {
			h := rw.highlight
			s.Tooltip.Highlight = &h
		}
		m.Slices[i] = s
		m.Legend[i] = donut.LegendEntry{ID: s.ID, Label: rw.legend, Color: s.Color}
	}
	return m
}

// share returns the percentage and highlight ratio of one row.
func (m Model) share(rw row) (pct, ratio float64) {
	v, h := math.Abs(rw.value), math.Abs(rw.highlight)
	if m.Overflow {
		if m.HighlightTotal == 0 {
			return 0, 1
		}
		return h / m.HighlightTotal, 1
	}
	pct = v / m.Total
	switch {
	case !m.HasHighlights, v == 0:
		ratio = 0
	case h == 0:
		ratio = RatioEpsilon
	default:
		ratio = math.Min(h/v, 1)
	}
	return pct, ratio
}

func colorResolver(opts Options) palette.Resolver {
	rotation, err := palette.Brewer(opts.Settings.Chart.Palette)
	if err != nil {
		rotation = palette.Default()
	}
	return palette.Resolver{
		Overrides: opts.Settings.DataPoint.Fill,
		Scale:     opts.Scale,
		Rotation:  rotation,
		Fallback:  opts.Settings.DataPoint.DefaultColor,
	}
}

func categoryRows(r *dataview.Result) []row {
	crossed := len(r.Measures) > 1
	rows := make([]row, 0, len(r.Category.Members)*len(r.Measures))
	keys := r.Category.Keys()
	for i, member := range r.Category.Members {
		catKey := keys[i]
		label := displayLabel(member.Label)
		for _, m := range r.Measures {
			rw := row{
				label:   label,
				legend:  label,
				measure: m.Title(),
				format:  m.Format,
				value:   cell(m.Values, i),
			}
			rw.highlight = cell(m.Highlights, i)

			parts := []string{"cat:" + catKey}
			rw.origins = []string{catKey}
			if m.Series != "" {
				parts = append(parts, "ser:"+m.Series)
				rw.origins = append(rw.origins, m.Series)
				rw.series = seriesLabel(r, m.Series)
			}
			if crossed {
				parts = append(parts, "m:"+m.Name)
				column := m.Title()
				if rw.series != "" {
					column = rw.series
				}
				rw.legend = label + " - " + column
			}
			rw.id = donut.NewIdentity(parts...)
			rows = append(rows, rw)
		}
	}
	return rows
}

func seriesRows(r *dataview.Result) []row {
	tagged := false
	for _, m := range r.Measures {
		if m.Series != "" {
			tagged = true
			break
		}
	}

	var rows []row
	keys := r.Series.Keys()
	for i, member := range r.Series.Members {
		key := keys[i]
		var col *dataview.Measure
		if tagged {
			for j := range r.Measures {
				if r.Measures[j].Series == key {
					col = &r.Measures[j]
					break
				}
			}
		} else if i < len(r.Measures) {
			col = &r.Measures[i]
		}
		if col == nil {
			continue
		}
		label := displayLabel(member.Label)
		rows = append(rows, row{
			id:        donut.NewIdentity("ser:" + key),
			origins:   []string{key},
			label:     label,
			legend:    label,
			series:    label,
			measure:   col.Title(),
			format:    col.Format,
			value:     cell(col.Values, 0),
			highlight: cell(col.Highlights, 0),
		})
	}
	return rows
}

func measureRows(r *dataview.Result) []row {
	rows := make([]row, 0, len(r.Measures))
	for _, m := range r.Measures {
		title := m.Title()
		rows = append(rows, row{
			id:        donut.NewIdentity("m:" + m.Name),
			origins:   []string{m.Name},
			label:     title,
			legend:    title,
			measure:   title,
			format:    m.Format,
			value:     cell(m.Values, 0),
			highlight: cell(m.Highlights, 0),
		})
	}
	return rows
}

func seriesLabel(r *dataview.Result, key string) string {
	if r.Series == nil {
		return key
	}
	for i, k := range r.Series.Keys() {
		if k == key {
			return displayLabel(r.Series.Members[i].Label)
		}
	}
	return key
}

func displayLabel(label string) string {
	if label == "" {
		return BlankLabel
	}
	return label
}

// cell returns vals[i], or 0 when the column is shorter or the cell is not
// a finite number.
func cell(vals []float64, i int) float64 {
	if i >= len(vals) {
		return 0
	}
	v := vals[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

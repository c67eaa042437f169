package dataview

import (
	"strconv"

	"github.com/matzehuels/donut/pkg/errors"
)

// Result is a tabular query result as handed over by the host.
// It is read-only to the chart core.
type Result struct {
	Category *Dimension `json:"category,omitempty" toml:"category"`
	Series   *Dimension `json:"series,omitempty" toml:"series"`
	Measures []Measure  `json:"measures" toml:"measures"`
}

// Dimension is a grouping column: a category axis or a series legend.
type Dimension struct {
	Name    string   `json:"name" toml:"name"`
	Members []Member `json:"members" toml:"members"`
}

// Member is one value of a dimension. An empty label marks a blank member.
type Member struct {
	ID    string `json:"id,omitempty" toml:"id"`
	Label string `json:"label" toml:"label"`
}

// Key returns the member ID, falling back to its position for unkeyed data.
func (m Member) Key(index int) string {
	if m.ID != "" {
		return m.ID
	}
	if m.Label != "" {
		return m.Label
	}
	return "#" + strconv.Itoa(index)
}

// Keys returns one key per member. Unkeyed members whose label occurs more
// than once in the dimension get their position appended, so repeated labels
// still yield distinct keys.
func (d *Dimension) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.Members))
	seen := make(map[string]int, len(d.Members))
	for i, m := range d.Members {
		keys[i] = m.Key(i)
		seen[keys[i]]++
	}
	for i, m := range d.Members {
		if m.ID == "" && seen[keys[i]] > 1 {
			keys[i] += "#" + strconv.Itoa(i)
		}
	}
	return keys
}

// checkKeys rejects dimensions whose member keys collide.
func (d *Dimension) checkKeys(kind string) (map[string]bool, error) {
	keys := make(map[string]bool)
	if d == nil {
		return keys, nil
	}
	for i, k := range d.Keys() {
		if keys[k] {
			return nil, errors.New(errors.ErrCodeInvalidDataset,
				"%s %q: member %d repeats key %q", kind, d.Name, i, k)
		}
		keys[k] = true
	}
	return keys, nil
}

// Measure is a numeric column. Highlights, when present, are aligned with
// Values cell by cell.
type Measure struct {
	Name        string    `json:"name" toml:"name"`
	DisplayName string    `json:"display_name,omitempty" toml:"display_name"`
	Format      string    `json:"format,omitempty" toml:"format"`
	Series      string    `json:"series,omitempty" toml:"series"` // key of the series member this column belongs to
	Values      []float64 `json:"values" toml:"values"`
	Highlights  []float64 `json:"highlights,omitempty" toml:"highlights"`
}

// Title returns the display name, or the name if none is set.
func (m Measure) Title() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}

// HasHighlights reports whether any measure carries highlight values.
func (r *Result) HasHighlights() bool {
	for _, m := range r.Measures {
		if m.Highlights != nil {
			return true
		}
	}
	return false
}

// HasCategory reports whether the category dimension is populated.
func (r *Result) HasCategory() bool {
	return r.Category != nil && len(r.Category.Members) > 0
}

// HasSeries reports whether the series dimension is populated.
func (r *Result) HasSeries() bool {
	return r.Series != nil && len(r.Series.Members) > 0
}

// CheckShape verifies that columns line up with the dimensions. Shape problems
// are errors; bad numbers are not, see [Validate].
func (r *Result) CheckShape() error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidDataset, "dataset is empty")
	}
	rows := 1
	if r.HasCategory() {
		rows = len(r.Category.Members)
	}
	if _, err := r.Category.checkKeys("category"); err != nil {
		return err
	}
	series, err := r.Series.checkKeys("series")
	if err != nil {
		return err
	}
	for i, m := range r.Measures {
		if m.Name == "" {
			return errors.New(errors.ErrCodeInvalidDataset, "measure %d has no name", i)
		}
		if r.HasCategory() && len(m.Values) != rows {
			return errors.New(errors.ErrCodeInvalidDataset,
				"measure %q has %d values, category %q has %d members", m.Name, len(m.Values), r.Category.Name, rows)
		}
		if !r.HasCategory() && len(m.Values) == 0 {
			return errors.New(errors.ErrCodeInvalidDataset, "measure %q has no values", m.Name)
		}
		if m.Highlights != nil && len(m.Highlights) != len(m.Values) {
			return errors.New(errors.ErrCodeInvalidDataset,
				"measure %q has %d highlights for %d values", m.Name, len(m.Highlights), len(m.Values))
		}
		if m.Series != "" && !series[m.Series] {
			return errors.New(errors.ErrCodeInvalidDataset, "measure %q refers to unknown series %q", m.Name, m.Series)
		}
	}
	return nil
}

// Clone returns a deep copy of r.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{Category: r.Category.clone(), Series: r.Series.clone()}
	out.Measures = make([]Measure, len(r.Measures))
	for i, m := range r.Measures {
		m.Values = append([]float64(nil), m.Values...)
		if m.Highlights != nil {
			m.Highlights = append([]float64{}, m.Highlights...)
		}
		out.Measures[i] = m
	}
	return out
}

func (d *Dimension) clone() *Dimension {
	if d == nil {
		return nil
	}
	return &Dimension{Name: d.Name, Members: append([]Member(nil), d.Members...)}
}

// Categorical builds a single-measure result over a category axis.
// A nil highlights slice means no highlight overlay.
func Categorical(category string, labels []string, measure string, values, highlights []float64) *Result {
	members := make([]Member, len(labels))
	for i, l := range labels {
		members[i] = Member{Label: l}
	}
	return &Result{
		Category: &Dimension{Name: category, Members: members},
		Measures: []Measure{{Name: measure, Values: values, Highlights: highlights}},
	}
}

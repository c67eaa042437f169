// Package selection tracks which slices are selected and how opaque each
// slice renders as a result.
package selection

import (
	"github.com/google/uuid"

	"github.com/matzehuels/donut/pkg/donut"
)

// Opacity levels.
const (
	FullOpacity            = 1.0
	DimmedOpacity          = 0.4
	HighlightDimmedOpacity = 0.6
)

// Event is emitted on every selection change. Identities lists the selected
// slices in selection order; it is empty after a clear.
type Event struct {
	ID         string           `json:"id"`
	Identities []donut.Identity `json:"identities"`
	Origins    [][]string       `json:"origins"`
}

// Listener receives selection events.
type Listener func(Event)

// Controller holds the selected set. It is not safe for concurrent use.
type Controller struct {
	order     []donut.Identity
	selected  map[donut.Identity]bool
	origins   map[donut.Identity][]string
	known     map[donut.Identity]bool
	listeners []Listener
}

// New returns a controller with nothing selected.
func New() *Controller {
	return &Controller{
		selected: make(map[donut.Identity]bool),
		origins:  make(map[donut.Identity][]string),
	}
}

// Subscribe registers fn for selection events.
func (c *Controller) Subscribe(fn Listener) {
	c.listeners = append(c.listeners, fn)
}

// Click applies a tap on slice id. A plain click selects only id, or clears
// the selection when id already is the only selected slice. A multi click
// toggles id and leaves the rest alone. Clicks on identities that are not in
// the current slice list are ignored once a slice list is known.
func (c *Controller) Click(id donut.Identity, multi bool) {
	if c.known != nil && !c.known[id] {
		return
	}
	switch {
	case multi && c.selected[id]:
		c.remove(id)
	case multi:
		c.add(id)
	case c.selected[id] && len(c.order) == 1:
		c.reset()
	default:
		c.reset()
		c.add(id)
	}
	c.emit()
}

// Clear empties the selection and emits an empty event.
func (c *Controller) Clear() {
	c.reset()
	c.emit()
}

// Select replaces the selection with ids, skipping unknown and duplicate
// identities. It emits one event.
func (c *Controller) Select(ids ...donut.Identity) {
	c.reset()
	for _, id := range ids {
		if c.known != nil && !c.known[id] {
			continue
		}
		if !c.selected[id] {
			c.add(id)
		}
	}
	c.emit()
}

// Reconcile makes the controller track slices: identities no longer present
// are dropped silently and the Selected flag of every slice is set. The
// returned slice list is a copy.
func (c *Controller) Reconcile(slices []donut.Slice) []donut.Slice {
	c.known = make(map[donut.Identity]bool, len(slices))
	for _, s := range slices {
		c.known[s.ID] = true
		c.origins[s.ID] = s.Origins
	}
	kept := c.order[:0]
	for _, id := range c.order {
		if c.known[id] {
			kept = append(kept, id)
		} else {
			delete(c.selected, id)
		}
	}
	c.order = kept
	for id := range c.origins {
		if !c.known[id] {
			delete(c.origins, id)
		}
	}

	out := make([]donut.Slice, len(slices))
	for i, s := range slices {
		s.Selected = c.selected[s.ID]
		out[i] = s
	}
	return out
}

// Mark sets the Selected flag of legend entries.
func (c *Controller) Mark(entries []donut.LegendEntry) []donut.LegendEntry {
	out := make([]donut.LegendEntry, len(entries))
	for i, e := range entries {
		e.Selected = c.selected[e.ID]
		out[i] = e
	}
	return out
}

// IsSelected reports whether id is selected.
func (c *Controller) IsSelected(id donut.Identity) bool { return c.selected[id] }

// Empty reports whether nothing is selected.
func (c *Controller) Empty() bool { return len(c.order) == 0 }

// Selected returns the selected identities in selection order.
func (c *Controller) Selected() []donut.Identity {
	return append([]donut.Identity(nil), c.order...)
}

// Opacity returns the render opacity of a slice's arc on layer. highlighted
// tells whether the chart currently draws highlight overlays; normal arcs
// under an overlay are always dimmed so the overlay carries the emphasis.
func (c *Controller) Opacity(s donut.Slice, layer donut.Layer, highlighted bool) float64 {
	if layer == donut.LayerNormal && highlighted {
		return DimmedOpacity
	}
	if c.Empty() || c.selected[s.ID] {
		return FullOpacity
	}
	if layer == donut.LayerHighlight {
		return HighlightDimmedOpacity
	}
	return DimmedOpacity
}

func (c *Controller) add(id donut.Identity) {
	c.selected[id] = true
	c.order = append(c.order, id)
}

func (c *Controller) remove(id donut.Identity) {
	delete(c.selected, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Controller) reset() {
	c.order = c.order[:0]
	clear(c.selected)
}

func (c *Controller) emit() {
	ev := Event{
		ID:         uuid.NewString(),
		Identities: c.Selected(),
		Origins:    make([][]string, 0, len(c.order)),
	}
	if ev.Identities == nil {
		ev.Identities = []donut.Identity{}
	}
	for _, id := range c.order {
		ev.Origins = append(ev.Origins, c.origins[id])
	}
	for _, fn := range c.listeners {
		fn(ev)
	}
}

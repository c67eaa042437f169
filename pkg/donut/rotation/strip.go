package rotation

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Legend strip sizing defaults, in pixels.
const (
	DefaultMaxItemWidth = 160.0
	DefaultItemPadding  = 16.0
)

// Measurer returns the rendered width of a text.
type Measurer interface {
	Measure(text string) float64
}

// FaceMeasurer measures text with a font face.
type FaceMeasurer struct {
	Face font.Face
}

// Measure implements [Measurer].
func (m FaceMeasurer) Measure(text string) float64 {
	return float64(font.MeasureString(m.Face, text)) / 64
}

// DefaultMeasurer measures with the 7x13 fixed bitmap face.
func DefaultMeasurer() FaceMeasurer {
	return FaceMeasurer{Face: basicfont.Face7x13}
}

// Entry holds the three labels of one legend strip item.
type Entry struct {
	Label   string
	Value   string
	Percent string
}

// Item is one rendered legend strip box. StartX is relative to the center of
// the current item, so the strip never drifts however often it cycles.
type Item struct {
	Slice    int     `json:"slice"`
	StartX   float64 `json:"start_x"`
	BoxWidth float64 `json:"box_width"`
	Current  bool    `json:"current"`
}

// Strip is the endlessly scrolling legend of the interactive mode. It keeps a
// fixed window of items around the current slice: two on each side for four
// or more slices, one on each side for three, and every slice without
// cycling for one or two.
type Strip struct {
	entries []Entry
	widths  []float64
	items   []Item
	left    Cyclic
	right   Cyclic
	current Cyclic
}

// NewStrip builds a strip over entries with the first slice current.
func NewStrip(entries []Entry, m Measurer, maxWidth, padding float64) *Strip {
	s := &Strip{entries: entries, widths: make([]float64, len(entries))}
	for i, e := range entries {
		w := max(m.Measure(e.Label), m.Measure(e.Value), m.Measure(e.Percent))
		s.widths[i] = min(w, maxWidth) + padding
	}
	s.rebuild(NewCyclic(0, len(entries)))
	return s
}

// Cycles reports whether the strip relocates items as the current slice moves.
func (s *Strip) Cycles() bool { return len(s.entries) >= 3 }

// halfWindow returns how many items sit on each side of the current one.
func (s *Strip) halfWindow() int {
	switch n := len(s.entries); {
	case n >= 4:
		return 2
	case n == 3:
		return 1
	default:
		return 0
	}
}

// Len returns the number of rendered items.
func (s *Strip) Len() int { return len(s.items) }

// Current returns the current slice index.
func (s *Strip) Current() Cyclic { return s.current }

// Left returns the slice index of the leftmost item.
func (s *Strip) Left() Cyclic { return s.left }

// Right returns the slice index of the rightmost item.
func (s *Strip) Right() Cyclic { return s.right }

// Entry returns the labels of slice i.
func (s *Strip) Entry(i int) Entry { return s.entries[i] }

// Width returns the box width of slice i.
func (s *Strip) Width(i int) float64 { return s.widths[i] }

// Items returns a copy of the rendered items, left to right.
func (s *Strip) Items() []Item {
	return append([]Item(nil), s.items...)
}

// MoveTo makes target current. Short moves relocate edge items one step at a
// time; moves longer than the window rebuild it in place.
func (s *Strip) MoveTo(target Cyclic) {
	if len(s.entries) == 0 {
		return
	}
	if !s.Cycles() {
		s.current = target
		s.place()
		return
	}
	d := s.current.Distance(target)
	if d > len(s.items) || -d > len(s.items) {
		s.rebuild(target)
		return
	}
	for ; d > 0; d-- {
		s.shift(1)
	}
	for ; d < 0; d++ {
		s.shift(-1)
	}
	s.place()
}

// shift moves the window one slice. The item falling off the trailing edge
// is relocated to the leading edge.
func (s *Strip) shift(dir int) {
	last := len(s.items) - 1
	if dir > 0 {
		moved := s.items[0]
		copy(s.items, s.items[1:])
		s.left, s.right = s.left.Next(), s.right.Next()
		moved.Slice = s.right.Int()
		s.items[last] = moved
	} else {
		moved := s.items[last]
		copy(s.items[1:], s.items[:last])
		s.left, s.right = s.left.Prev(), s.right.Prev()
		moved.Slice = s.left.Int()
		s.items[0] = moved
	}
	s.current = s.current.Advance(dir)
}

// rebuild refills the window around current, reusing the item storage.
func (s *Strip) rebuild(current Cyclic) {
	n := len(s.entries)
	s.current = current
	size := n
	if s.Cycles() {
		size = 2*s.halfWindow() + 1
	}
	if cap(s.items) < size {
		s.items = make([]Item, 0, size)
	}
	if !s.Cycles() {
		s.items = s.items[:0]
		for i := 0; i < n; i++ {
			s.items = append(s.items, Item{Slice: i})
		}
		s.left, s.right = NewCyclic(0, n), NewCyclic(n-1, n)
		s.place()
		return
	}
	h := s.halfWindow()
	s.left, s.right = current.Advance(-h), current.Advance(h)
	s.items = s.items[:0]
	for k := -h; k <= h; k++ {
		s.items = append(s.items, Item{Slice: current.Advance(k).Int()})
	}
	s.place()
}

// place lays items out contiguously. A cycling strip centers the current
// item on x = 0; a static strip centers the whole row.
func (s *Strip) place() {
	total := 0.0
	for i := range s.items {
		s.items[i].BoxWidth = s.widths[s.items[i].Slice]
		s.items[i].Current = s.items[i].Slice == s.current.Int()
		total += s.items[i].BoxWidth
	}
	x := -total / 2
	if s.Cycles() {
		h := s.halfWindow()
		x = -s.items[h].BoxWidth / 2
		for i := 0; i < h; i++ {
			x -= s.items[i].BoxWidth
		}
		for i := range s.items {
			s.items[i].Current = i == h
		}
	}
	for i := range s.items {
		s.items[i].StartX = x
		x += s.items[i].BoxWidth
	}
}

// Package palette resolves slice colors.
//
// Colors come from three places, in priority order:
//
//  1. An explicit override for the slice (by identity, then by label).
//  2. A keyed [Scale]: the same key always yields the same color, across
//     refreshes, for as long as the scale lives.
//  3. Rotation through a [Palette] by slice index.
//
// Palettes are built from the ColorBrewer qualitative schemes.
package palette

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/aclements/go-gg/palette/brewer"

	"github.com/matzehuels/donut/pkg/errors"
)

// DefaultName is the brewer scheme used when none is configured.
const DefaultName = "Paired"

// Qualitative lists the brewer schemes suited to unordered categories.
var Qualitative = []string{"Paired", "Set3", "Set1", "Set2", "Dark2", "Accent", "Pastel1", "Pastel2"}

// Palette is an ordered list of hex colors.
type Palette []string

// At returns the color for index i, cycling through the palette.
// An empty palette yields "".
func (p Palette) At(i int) string {
	if len(p) == 0 {
		return ""
	}
	i %= len(p)
	if i < 0 {
		i += len(p)
	}
	return p[i]
}

// Brewer returns the largest variant of the named brewer scheme.
func Brewer(name string) (Palette, error) {
	variants, ok := brewer.ByName[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidSettings, "unknown palette %q", name)
	}
	levels := make([]int, 0, len(variants))
	for n := range variants {
		levels = append(levels, n)
	}
	if len(levels) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSettings, "palette %q has no variants", name)
	}
	sort.Ints(levels)

	colors := variants[levels[len(levels)-1]]
	out := make(Palette, 0, len(colors))
	for _, c := range colors {
		out = append(out, Hex(c))
	}
	return out, nil
}

// Default returns the default palette.
func Default() Palette {
	p, err := Brewer(DefaultName)
	if err != nil {
		panic(err)
	}
	return p
}

// Hex formats a color as #rrggbb, dropping alpha.
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// Scale hands out palette colors by key. The first key seen gets the first
// color, the second key the second, and so on; a key keeps its color for
// the lifetime of the scale. Keys stay distinct until the palette wraps.
type Scale struct {
	palette  Palette
	assigned map[string]int
}

// NewScale creates a scale over p.
func NewScale(p Palette) *Scale {
	return &Scale{palette: p, assigned: make(map[string]int)}
}

// Color returns the color bound to key, binding the next free color first
// if the key is new.
func (s *Scale) Color(key string) string {
	i, ok := s.assigned[key]
	if !ok {
		i = len(s.assigned)
		s.assigned[key] = i
	}
	return s.palette.At(i)
}

// Len returns the number of keys bound so far.
func (s *Scale) Len() int { return len(s.assigned) }

// Resolver applies the color priority for one conversion pass.
type Resolver struct {
	Overrides map[string]string // by slice identity or label
	Scale     *Scale            // optional
	Rotation  Palette           // used when Scale is nil
	Fallback  string            // used when neither Scale nor Rotation yields a color
}

// Resolve returns the color for a slice.
func (r Resolver) Resolve(id, label, key string, index int) string {
	if c, ok := r.Overrides[id]; ok && c != "" {
		return c
	}
	if c, ok := r.Overrides[label]; ok && c != "" {
		return c
	}
	var c string
	if r.Scale != nil {
		c = r.Scale.Color(key)
	} else {
		c = r.Rotation.At(index)
	}
	if c == "" {
		return r.Fallback
	}
	return c
}

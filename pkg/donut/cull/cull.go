// Package cull drops slices too thin to see at the current viewport size.
package cull

import (
	"math"

	"github.com/matzehuels/donut/pkg/donut"
)

// MinArcLength is the shortest arc, in pixels, worth drawing.
const MinArcLength = 3.0

// Result is the outcome of one culling pass.
type Result struct {
	Slices    []donut.Slice
	Culled    bool    // at least one slice was dropped
	Dropped   int     // number of slices dropped
	Threshold float64 // values below this were dropped
}

// Threshold returns the smallest value that still gets an arc of
// [MinArcLength] pixels on a circle fitting vp, relative to maxValue.
// A viewport without area yields 0.
func Threshold(vp donut.Viewport, maxValue float64) float64 {
	radius := vp.Radius()
	if radius <= 0 || math.IsNaN(maxValue) || math.IsInf(maxValue, 0) {
		return 0
	}
	return (MinArcLength / radius) / (2 * math.Pi) * maxValue
}

// Filter keeps the slices whose value reaches the threshold for vp, in order.
// The input is not modified.
func Filter(slices []donut.Slice, vp donut.Viewport, maxValue float64) Result {
	threshold := Threshold(vp, maxValue)
	res := Result{Slices: make([]donut.Slice, 0, len(slices)), Threshold: threshold}
	for _, s := range slices {
		if s.Value < threshold {
			res.Dropped++
			continue
		}
		res.Slices = append(res.Slices, s)
	}
	res.Culled = res.Dropped > 0
	return res
}

// Warning returns the warning reported when slices were dropped.
func (r Result) Warning() (donut.Warning, bool) {
	if !r.Culled {
		return donut.Warning{}, false
	}
	return donut.Warning{
		Code:    donut.WarningCulled,
		Message: "Some slices are too small to display at this size and have been hidden",
	}, true
}

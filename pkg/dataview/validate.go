package dataview

import (
	"fmt"
	"math"

	"github.com/matzehuels/donut/pkg/donut"
)

// MaxMagnitude is the largest absolute value rendered as-is. Larger values
// are reported as out of range and replaced by [Sanitize].
const MaxMagnitude = 1e300

// Validate scans every value and highlight cell and reports NaN, infinite
// and out-of-range numbers. At most one warning per kind is returned, in a
// fixed order.
func Validate(r *Result) []donut.Warning {
	if r == nil {
		return nil
	}
	var nan, inf, huge int
	visit := func(v float64) {
		switch {
		case math.IsNaN(v):
			nan++
		case math.IsInf(v, 0):
			inf++
		case math.Abs(v) > MaxMagnitude:
			huge++
		}
	}
	for _, m := range r.Measures {
		for _, v := range m.Values {
			visit(v)
		}
		for _, v := range m.Highlights {
			visit(v)
		}
	}

	var warnings []donut.Warning
	if nan > 0 {
		warnings = append(warnings, donut.Warning{
			Code:    donut.WarningNaN,
			Message: fmt.Sprintf("%s not a number and rendered as 0", cells(nan)),
		})
	}
	if inf > 0 {
		warnings = append(warnings, donut.Warning{
			Code:    donut.WarningInfinity,
			Message: fmt.Sprintf("%s infinite and rendered as 0", cells(inf)),
		})
	}
	if huge > 0 {
		warnings = append(warnings, donut.Warning{
			Code:    donut.WarningOutOfRange,
			Message: fmt.Sprintf("%s outside ±%g and rendered as 0", cells(huge), MaxMagnitude),
		})
	}
	return warnings
}

func cells(n int) string {
	if n == 1 {
		return "1 value is"
	}
	return fmt.Sprintf("%d values are", n)
}

// Sanitize returns a copy of r in which every cell [Validate] would complain
// about is replaced by 0. The input is not modified.
func Sanitize(r *Result) *Result {
	out := r.Clone()
	if out == nil {
		return nil
	}
	for i := range out.Measures {
		clean(out.Measures[i].Values)
		clean(out.Measures[i].Highlights)
	}
	return out
}

func clean(vals []float64) {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxMagnitude {
			vals[i] = 0
		}
	}
}

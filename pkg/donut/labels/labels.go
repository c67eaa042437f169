// Package labels formats data label text: display units, precision and
// locale-aware digit grouping.
package labels

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/settings"
)

// PercentPrecision is the number of fraction digits in percent labels.
const PercentPrecision = 1

var suffixes = map[float64]string{
	settings.UnitsThousands: "K",
	settings.UnitsMillions:  "M",
	settings.UnitsBillions:  "bn",
	settings.UnitsTrillions: "T",
}

// AutoUnits picks the largest display unit not exceeding maxValue.
func AutoUnits(maxValue float64) float64 {
	v := math.Abs(maxValue)
	for _, u := range []float64{settings.UnitsTrillions, settings.UnitsBillions, settings.UnitsMillions, settings.UnitsThousands} {
		if v >= u {
			return u
		}
	}
	return settings.UnitsNone
}

// Suffix returns the abbreviation appended to values scaled by units.
func Suffix(units float64) string { return suffixes[units] }

// Formatter renders slice values as label text.
type Formatter struct {
	settings donut.LabelSettings
	units    float64
	printer  *message.Printer
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithLanguage selects the locale used for separators. The default is English.
func WithLanguage(tag language.Tag) Option {
	return func(f *Formatter) { f.printer = message.NewPrinter(tag) }
}

// New returns a formatter for ls. maxValue resolves automatic display units.
func New(ls donut.LabelSettings, maxValue float64, opts ...Option) *Formatter {
	f := &Formatter{settings: ls, units: ls.DisplayUnits, printer: message.NewPrinter(language.English)}
	if f.units == settings.UnitsAuto {
		f.units = AutoUnits(maxValue)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Units returns the resolved display unit.
func (f *Formatter) Units() float64 { return f.units }

// Value formats v in the resolved units, for example "1.2K".
func (f *Formatter) Value(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return f.decimal(v/f.units, f.settings.Precision) + Suffix(f.units)
}

// Percent formats a share in [0,1] as a percentage.
func (f *Formatter) Percent(p float64) string {
	if math.IsNaN(p) {
		p = 0
	}
	return f.decimal(p*100, PercentPrecision) + "%"
}

// Label returns the data label of s, or "" when labels are hidden.
func (f *Formatter) Label(s donut.Slice) string {
	if !f.settings.Show {
		return ""
	}
	text := f.Value(s.Measure)
	if f.settings.ShowCategory {
		return s.Label + ": " + text
	}
	return text
}

func (f *Formatter) decimal(v float64, precision int) string {
	return f.printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(precision),
		number.MaxFractionDigits(precision),
	))
}

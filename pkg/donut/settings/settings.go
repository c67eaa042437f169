// Package settings holds the user-facing chart options and loads them from
// TOML files.
//
// A settings file only needs the keys it changes; everything else keeps the
// value from [Default]:
//
//	[legend]
//	position = "right"
//	title_text = "Sales by region"
//
//	[labels]
//	show = true
//	display_units = 1000
//	precision = 1
//
//	[data_point.fill]
//	"North" = "#1f77b4"
package settings

import (
	"bytes"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/palette"
	"github.com/matzehuels/donut/pkg/errors"
)

// Legend positions.
const (
	PositionTop    = "top"
	PositionBottom = "bottom"
	PositionLeft   = "left"
	PositionRight  = "right"
)

// ValidPositions lists the accepted legend positions.
var ValidPositions = map[string]bool{
	PositionTop:    true,
	PositionBottom: true,
	PositionLeft:   true,
	PositionRight:  true,
}

// Display units. Auto picks a unit from the largest value.
const (
	UnitsAuto      = 0
	UnitsNone      = 1
	UnitsThousands = 1e3
	UnitsMillions  = 1e6
	UnitsBillions  = 1e9
	UnitsTrillions = 1e12
)

// Defaults.
const (
	DefaultInnerArcRatio  = 0.9
	DefaultThicknessRatio = 0.6
	DefaultLabelColor     = "#777777"
	DefaultPrecision      = 0
	MaxPrecision          = 15
)

// Settings is the full option set of one chart.
type Settings struct {
	Legend    Legend    `toml:"legend" json:"legend"`
	Labels    Labels    `toml:"labels" json:"labels"`
	DataPoint DataPoint `toml:"data_point" json:"data_point"`
	Chart     Chart     `toml:"chart" json:"chart"`
}

// Legend controls the legend block.
type Legend struct {
	Show      bool   `toml:"show" json:"show"`
	Position  string `toml:"position" json:"position"`
	TitleText string `toml:"title_text" json:"title_text"`
	ShowTitle bool   `toml:"show_title" json:"show_title"`
}

// Labels controls the data labels drawn next to slices.
type Labels struct {
	Show         bool    `toml:"show" json:"show"`
	ShowCategory bool    `toml:"show_category" json:"show_category"`
	Color        string  `toml:"color" json:"color"`
	DisplayUnits float64 `toml:"display_units" json:"display_units"`
	Precision    int     `toml:"precision" json:"precision"`
}

// DataPoint controls slice colors. Fill keys are slice identities or labels.
type DataPoint struct {
	DefaultColor string            `toml:"default_color" json:"default_color,omitempty"`
	Fill         map[string]string `toml:"fill" json:"fill,omitempty"`
}

// Chart controls geometry and interaction.
type Chart struct {
	InnerArcRatio  float64 `toml:"inner_arc_ratio" json:"inner_arc_ratio"`
	ThicknessRatio float64 `toml:"thickness_ratio" json:"thickness_ratio"`
	Palette        string  `toml:"palette" json:"palette"`
	Interactive    bool    `toml:"interactive" json:"interactive"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		Legend: Legend{Show: true, Position: PositionTop, ShowTitle: true},
		Labels: Labels{
			ShowCategory: true,
			Color:        DefaultLabelColor,
			DisplayUnits: UnitsAuto,
			Precision:    DefaultPrecision,
		},
		Chart: Chart{
			InnerArcRatio:  DefaultInnerArcRatio,
			ThicknessRatio: DefaultThicknessRatio,
			Palette:        palette.DefaultName,
		},
	}
}

// Pie returns s with a zero thickness ratio, turning the donut into a pie.
func (s Settings) Pie() Settings {
	s.Chart.ThicknessRatio = 0
	return s
}

// LabelSettings returns the snapshot handed to the converter.
func (s Settings) LabelSettings() donut.LabelSettings {
	return donut.LabelSettings{
		Show:         s.Labels.Show,
		ShowCategory: s.Labels.ShowCategory,
		Color:        s.Labels.Color,
		DisplayUnits: s.Labels.DisplayUnits,
		Precision:    s.Labels.Precision,
	}
}

// Validate checks s for values the chart cannot draw.
func (s Settings) Validate() error {
	if !ValidPositions[s.Legend.Position] {
		return errors.New(errors.ErrCodeInvalidSettings, "invalid legend position: %q (valid: top, bottom, left, right)", s.Legend.Position)
	}
	if s.Labels.Precision < 0 || s.Labels.Precision > MaxPrecision {
		return errors.New(errors.ErrCodeInvalidSettings, "label precision must be between 0 and %d", MaxPrecision)
	}
	switch s.Labels.DisplayUnits {
	case UnitsAuto, UnitsNone, UnitsThousands, UnitsMillions, UnitsBillions, UnitsTrillions:
	default:
		return errors.New(errors.ErrCodeInvalidSettings, "invalid display units: %g", s.Labels.DisplayUnits)
	}
	if s.Labels.Color != "" {
		if err := errors.ValidateColor(s.Labels.Color); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSettings, err, "labels.color")
		}
	}
	if s.DataPoint.DefaultColor != "" {
		if err := errors.ValidateColor(s.DataPoint.DefaultColor); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSettings, err, "data_point.default_color")
		}
	}
	for key, c := range s.DataPoint.Fill {
		if err := errors.ValidateColor(c); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSettings, err, "data_point.fill[%q]", key)
		}
	}
	if s.Chart.InnerArcRatio <= 0 || s.Chart.InnerArcRatio > 1 {
		return errors.New(errors.ErrCodeInvalidSettings, "inner_arc_ratio must be in (0, 1]")
	}
	if s.Chart.ThicknessRatio < 0 || s.Chart.ThicknessRatio >= s.Chart.InnerArcRatio {
		return errors.New(errors.ErrCodeInvalidSettings, "thickness_ratio must be in [0, inner_arc_ratio)")
	}
	if _, err := palette.Brewer(s.Chart.Palette); err != nil {
		return err
	}
	return nil
}

// Read decodes TOML settings from r over the defaults and validates them.
func Read(r io.Reader) (Settings, error) {
	s := Default()
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "decode settings")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Settings{}, errors.New(errors.ErrCodeInvalidSettings, "unknown setting %q", undecoded[0].String())
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads the settings file at path. An empty path returns the defaults.
func Load(path string) (Settings, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "settings %s", path)
		}
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "read %s", path)
	}
	return Read(bytes.NewReader(data))
}

// Encode writes s as TOML.
func Encode(s Settings, w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

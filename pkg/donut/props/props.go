// Package props describes chart settings as property cards for a host-side
// property editor, and applies edits coming back from it.
//
// Cards are projections of the current settings and legend. Nothing here is
// computed independently of the converter and the selection state.
package props

import (
	"strconv"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/settings"
	"github.com/matzehuels/donut/pkg/errors"
)

// Card names.
const (
	CardLegend    = "legend"
	CardLabels    = "labels"
	CardDataPoint = "data_point"
	CardChart     = "chart"
)

// Kind is the editor widget a property needs.
type Kind string

const (
	KindBool   Kind = "bool"
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindColor  Kind = "color"
	KindEnum   Kind = "enum"
)

// Property is one editable value.
type Property struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Kind        Kind     `json:"kind"`
	Value       any      `json:"value"`
	Options     []string `json:"options,omitempty"`  // for KindEnum
	Selector    string   `json:"selector,omitempty"` // slice identity for per-slice properties
	Selected    bool     `json:"selected,omitempty"`
}

// Card groups the properties of one settings object.
type Card struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Properties  []Property `json:"properties"`
}

// Enumerate returns the property cards for s. legend supplies one fill
// property per slice, keyed by identity.
func Enumerate(s settings.Settings, legend []donut.LegendEntry) []Card {
	cards := []Card{
		{
			Name:        CardLegend,
			DisplayName: "Legend",
			Properties: []Property{
				{Name: "show", DisplayName: "Show", Kind: KindBool, Value: s.Legend.Show},
				{Name: "position", DisplayName: "Position", Kind: KindEnum, Value: s.Legend.Position,
					Options: []string{settings.PositionTop, settings.PositionBottom, settings.PositionLeft, settings.PositionRight}},
				{Name: "show_title", DisplayName: "Title", Kind: KindBool, Value: s.Legend.ShowTitle},
				{Name: "title_text", DisplayName: "Legend name", Kind: KindText, Value: s.Legend.TitleText},
			},
		},
		{
			Name:        CardLabels,
			DisplayName: "Detail labels",
			Properties: []Property{
				{Name: "show", DisplayName: "Show", Kind: KindBool, Value: s.Labels.Show},
				{Name: "show_category", DisplayName: "Category", Kind: KindBool, Value: s.Labels.ShowCategory},
				{Name: "color", DisplayName: "Color", Kind: KindColor, Value: s.Labels.Color},
				{Name: "display_units", DisplayName: "Display units", Kind: KindNumber, Value: s.Labels.DisplayUnits},
				{Name: "precision", DisplayName: "Decimal places", Kind: KindNumber, Value: s.Labels.Precision},
			},
		},
	}

	dp := Card{Name: CardDataPoint, DisplayName: "Data colors"}
	if s.DataPoint.DefaultColor != "" {
		dp.Properties = append(dp.Properties, Property{
			Name: "default_color", DisplayName: "Default color", Kind: KindColor, Value: s.DataPoint.DefaultColor,
		})
	}
	for _, e := range legend {
		dp.Properties = append(dp.Properties, Property{
			Name:        "fill",
			DisplayName: e.Label,
			Kind:        KindColor,
			Value:       e.Color,
			Selector:    string(e.ID),
			Selected:    e.Selected,
		})
	}
	cards = append(cards, dp)

	cards = append(cards, Card{
		Name:        CardChart,
		DisplayName: "Shapes",
		Properties: []Property{
			{Name: "inner_arc_ratio", DisplayName: "Outer radius", Kind: KindNumber, Value: s.Chart.InnerArcRatio},
			{Name: "thickness_ratio", DisplayName: "Inner radius", Kind: KindNumber, Value: s.Chart.ThicknessRatio},
			{Name: "interactive", DisplayName: "Rotating legend", Kind: KindBool, Value: s.Chart.Interactive},
		},
	})
	return cards
}

// Edit is a change made in the property editor.
type Edit struct {
	Card     string
	Property string
	Selector string // slice identity, for data_point.fill
	Value    string
}

// Apply returns s with e applied and validated.
func Apply(s settings.Settings, e Edit) (settings.Settings, error) {
	var err error
	switch e.Card + "." + e.Property {
	case "legend.show":
		s.Legend.Show, err = parseBool(e)
	case "legend.position":
		s.Legend.Position = e.Value
	case "legend.show_title":
		s.Legend.ShowTitle, err = parseBool(e)
	case "legend.title_text":
		s.Legend.TitleText = e.Value
	case "labels.show":
		s.Labels.Show, err = parseBool(e)
	case "labels.show_category":
		s.Labels.ShowCategory, err = parseBool(e)
	case "labels.color":
		s.Labels.Color = e.Value
	case "labels.display_units":
		s.Labels.DisplayUnits, err = parseFloat(e)
	case "labels.precision":
		s.Labels.Precision, err = strconv.Atoi(e.Value)
		if err != nil {
			err = invalid(e, err)
		}
	case "data_point.default_color":
		s.DataPoint.DefaultColor = e.Value
	case "data_point.fill":
		if e.Selector == "" {
			return s, errors.New(errors.ErrCodeInvalidSettings, "data_point.fill needs a selector")
		}
		fill := make(map[string]string, len(s.DataPoint.Fill)+1)
		for k, v := range s.DataPoint.Fill {
			fill[k] = v
		}
		if e.Value == "" {
			delete(fill, e.Selector)
		} else {
			fill[e.Selector] = e.Value
		}
		s.DataPoint.Fill = fill
	case "chart.inner_arc_ratio":
		s.Chart.InnerArcRatio, err = parseFloat(e)
	case "chart.thickness_ratio":
		s.Chart.ThicknessRatio, err = parseFloat(e)
	case "chart.interactive":
		s.Chart.Interactive, err = parseBool(e)
	default:
		return s, errors.New(errors.ErrCodeInvalidSettings, "unknown property %s.%s", e.Card, e.Property)
	}
	if err != nil {
		return s, err
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func parseBool(e Edit) (bool, error) {
	b, err := strconv.ParseBool(e.Value)
	if err != nil {
		return false, invalid(e, err)
	}
	return b, nil
}

func parseFloat(e Edit) (float64, error) {
	f, err := strconv.ParseFloat(e.Value, 64)
	if err != nil {
		return 0, invalid(e, err)
	}
	return f, nil
}

func invalid(e Edit, err error) error {
	return errors.Wrap(errors.ErrCodeInvalidSettings, err, "%s.%s", e.Card, e.Property)
}

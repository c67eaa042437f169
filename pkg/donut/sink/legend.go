package sink

import (
	"github.com/matzehuels/donut/pkg/donut/rotation"
	"github.com/matzehuels/donut/pkg/donut/settings"
	"github.com/matzehuels/donut/pkg/donut/visual"
)

const (
	legendMargin  = 8.0
	legendRow     = 18.0
	legendSwatch  = 10.0
	legendGap     = 6.0
	legendSpacing = 16.0
	stripHeight   = 40.0
)

// legendItem is one positioned legend row. X and Y are the top-left corner
// of the swatch in viewport pixels.
type legendItem struct {
	X, Y     float64
	Color    string
	Label    string
	Selected bool
	Title    bool
}

// legendLayout positions the legend title and entries of f along the edge
// named by the legend settings.
func legendLayout(f visual.Frame, m rotation.Measurer) []legendItem {
	lg := f.Settings.Legend
	if !lg.Show || len(f.Legend) == 0 || f.Rotation != nil {
		return nil
	}

	var items []legendItem
	if lg.ShowTitle && f.LegendTitle != "" {
		items = append(items, legendItem{Label: f.LegendTitle, Title: true})
	}
	for _, e := range f.Legend {
		items = append(items, legendItem{Label: e.Label, Color: e.Color, Selected: e.Selected})
	}

	width := func(it legendItem) float64 {
		w := m.Measure(it.Label)
		if !it.Title {
			w += legendSwatch + legendGap
		}
		return w
	}

	switch lg.Position {
	case settings.PositionLeft, settings.PositionRight:
		x := legendMargin
		if lg.Position == settings.PositionRight {
			widest := 0.0
			for _, it := range items {
				widest = max(widest, width(it))
			}
			x = f.Viewport.Width - legendMargin - widest
		}
		for i := range items {
			items[i].X, items[i].Y = x, legendMargin+float64(i)*legendRow
		}
	default:
		x, y := legendMargin, legendMargin
		if lg.Position == settings.PositionBottom {
			y = f.Viewport.Height - legendMargin - legendSwatch
		}
		for i := range items {
			w := width(items[i])
			if x > legendMargin && x+w > f.Viewport.Width-legendMargin {
				x = legendMargin
				if lg.Position == settings.PositionBottom {
					y -= legendRow
				} else {
					y += legendRow
				}
			}
			items[i].X, items[i].Y = x, y
			x += w + legendSpacing
		}
	}
	return items
}

// stripTop returns the y coordinate of the legend strip boxes.
func stripTop(f visual.Frame) float64 {
	return f.Viewport.Height - legendMargin - stripHeight
}

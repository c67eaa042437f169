package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/layout"
	"github.com/matzehuels/donut/pkg/donut/rotation"
	"github.com/matzehuels/donut/pkg/donut/visual"
)

const sliceInteractionCSS = `
    .arc { transition: opacity 0.2s ease; }
    svg.hovering .arc.normal { opacity: 0.4; }
    svg.hovering .arc.hover { opacity: 1; }
    .legend-entry { cursor: pointer; }`

const sliceInteractionJS = `
    const root = document.currentScript.closest('svg');
    function hover(id) {
      root.classList.toggle('hovering', id !== null);
      root.querySelectorAll('.arc').forEach(a => a.classList.toggle('hover', a.dataset.slice === id));
    }
    root.querySelectorAll('.arc, .legend-entry').forEach(el => {
      el.addEventListener('mouseenter', () => hover(el.dataset.slice));
      el.addEventListener('mouseleave', () => hover(null));
    });`

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	background  string
	interaction bool
	legend      bool
	measurer    rotation.Measurer
}

// WithBackground fills the viewport with color before drawing.
func WithBackground(color string) SVGOption {
	return func(r *svgRenderer) { r.background = color }
}

// WithInteraction embeds hover styling and script.
func WithInteraction() SVGOption { return func(r *svgRenderer) { r.interaction = true } }

// WithoutLegend skips the legend.
func WithoutLegend() SVGOption { return func(r *svgRenderer) { r.legend = false } }

// RenderSVG renders the final state of f as a standalone SVG document.
func RenderSVG(f visual.Frame, opts ...SVGOption) []byte {
	r := svgRenderer{legend: true, measurer: rotation.DefaultMeasurer()}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := f.Viewport.Width, f.Viewport.Height
	cx, cy := f.Viewport.Center()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="sans-serif" font-size="12">`+"\n",
		w, h, w, h)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(r.background))
	}

	rotate := 0.0
	if f.Rotation != nil {
		rotate = f.Rotation.Angle
	}
	fmt.Fprintf(&buf, `  <g class="chart" transform="translate(%.2f %.2f) rotate(%.4f)">`+"\n", cx, cy, rotate*180/math.Pi)
	for _, a := range f.Arcs {
		renderArc(&buf, f, a)
	}
	for _, l := range f.DataLabels {
		fmt.Fprintf(&buf, `    <text class="data-label" data-slice="%s" x="%.2f" y="%.2f" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			escapeXML(string(l.ID)), l.X, l.Y, escapeXML(f.Labels.Color), escapeXML(l.Text))
	}
	buf.WriteString("  </g>\n")

	if r.legend {
		renderLegend(&buf, f, r.measurer)
	}
	if f.Rotation != nil {
		renderStrip(&buf, f, cx)
	}
	if r.interaction {
		renderSliceInteraction(&buf)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderArc(buf *bytes.Buffer, f visual.Frame, a visual.Arc) {
	if a.Geometry.Width() <= 0 {
		return
	}
	class := "arc " + a.Layer.String()
	if a.Slice < len(f.Slices) && f.Slices[a.Slice].Selected {
		class += " selected"
	}
	fmt.Fprintf(buf, `    <path class="%s" data-slice="%s" d="%s" fill="%s" fill-opacity="%.2f">`,
		class, escapeXML(string(a.ID)), arcPath(a.Geometry), escapeXML(a.Color), a.Opacity)
	if a.Layer == donut.LayerNormal && a.Slice < len(f.Slices) {
		s := f.Slices[a.Slice]
		fmt.Fprintf(buf, "<title>%s: %g (%.1f%%)</title>", escapeXML(s.Label), s.Measure, s.Percentage*100)
	}
	buf.WriteString("</path>\n")
}

// arcPath returns the SVG path of an annular sector around the origin. A
// sector spanning the full circle is split in two halves.
func arcPath(g layout.Geometry) string {
	if g.Width() >= layout.FullCircle-1e-9 {
		mid := g.StartAngle + math.Pi
		first, second := g, g
		first.EndAngle, second.StartAngle = mid, mid
		return sectorPath(first) + " " + sectorPath(second)
	}
	return sectorPath(g)
}

func sectorPath(g layout.Geometry) string {
	large := 0
	if g.Width() > math.Pi {
		large = 1
	}
	x0, y0 := layout.Point(g.StartAngle, g.OuterRadius)
	x1, y1 := layout.Point(g.EndAngle, g.OuterRadius)
	if g.InnerRadius <= 0 {
		return fmt.Sprintf("M0 0 L%.3f %.3f A%.3f %.3f 0 %d 1 %.3f %.3f Z",
			x0, y0, g.OuterRadius, g.OuterRadius, large, x1, y1)
	}
	x2, y2 := layout.Point(g.EndAngle, g.InnerRadius)
	x3, y3 := layout.Point(g.StartAngle, g.InnerRadius)
	return fmt.Sprintf("M%.3f %.3f A%.3f %.3f 0 %d 1 %.3f %.3f L%.3f %.3f A%.3f %.3f 0 %d 0 %.3f %.3f Z",
		x0, y0, g.OuterRadius, g.OuterRadius, large, x1, y1,
		x2, y2, g.InnerRadius, g.InnerRadius, large, x3, y3)
}

func renderLegend(buf *bytes.Buffer, f visual.Frame, m rotation.Measurer) {
	items := legendLayout(f, m)
	if len(items) == 0 {
		return
	}
	buf.WriteString(`  <g class="legend">` + "\n")
	for i, it := range items {
		if it.Title {
			fmt.Fprintf(buf, `    <text class="legend-title" x="%.2f" y="%.2f" font-weight="bold">%s</text>`+"\n",
				it.X, it.Y+legendSwatch, escapeXML(it.Label))
			continue
		}
		id := f.Legend[i-(len(items)-len(f.Legend))].ID
		weight := "normal"
		if it.Selected {
			weight = "bold"
		}
		fmt.Fprintf(buf, `    <g class="legend-entry" data-slice="%s">`, escapeXML(string(id)))
		fmt.Fprintf(buf, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`,
			it.X+legendSwatch/2, it.Y+legendSwatch/2, legendSwatch/2, escapeXML(it.Color))
		fmt.Fprintf(buf, `<text x="%.2f" y="%.2f" font-weight="%s">%s</text></g>`+"\n",
			it.X+legendSwatch+legendGap, it.Y+legendSwatch, weight, escapeXML(it.Label))
	}
	buf.WriteString("  </g>\n")
}

func renderStrip(buf *bytes.Buffer, f visual.Frame, cx float64) {
	top := stripTop(f)
	buf.WriteString(`  <g class="legend-strip">` + "\n")
	for i, it := range f.Rotation.Strip {
		e := f.Rotation.Entries[i]
		opacity := 0.4
		if it.Current {
			opacity = 1
		}
		x := cx + it.StartX
		fmt.Fprintf(buf, `    <g class="strip-item" data-index="%d" opacity="%.1f">`, it.Slice, opacity)
		fmt.Fprintf(buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none"/>`, x, top, it.BoxWidth, stripHeight)
		mid := x + it.BoxWidth/2
		fmt.Fprintf(buf, `<text x="%.2f" y="%.2f" text-anchor="middle">%s</text>`, mid, top+12, escapeXML(e.Label))
		fmt.Fprintf(buf, `<text x="%.2f" y="%.2f" text-anchor="middle">%s</text>`, mid, top+25, escapeXML(e.Value))
		fmt.Fprintf(buf, `<text x="%.2f" y="%.2f" text-anchor="middle">%s</text></g>`+"\n", mid, top+38, escapeXML(e.Percent))
	}
	buf.WriteString("  </g>\n")
}

func renderSliceInteraction(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", sliceInteractionCSS)
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", sliceInteractionJS)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

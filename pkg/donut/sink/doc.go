// Package sink provides output format renderers for donut chart frames.
//
// # Overview
//
// A "sink" transforms a [visual.Frame] into a final output format. This
// package provides renderers for:
//
//   - SVG: Scalable vector graphics with hover and selection styling
//   - JSON: Frame data export for host-side renderers and tooling
//   - PNG: Raster image output, rendered in pure Go
//   - WebP: Lossless raster output for the web
//
// # SVG Output
//
// [RenderSVG] draws every arc of the frame in its final state, the legend,
// data labels and, in the interactive legend mode, the rotated chart and
// the legend strip:
//
//	svg := sink.RenderSVG(frame,
//	    sink.WithBackground("#ffffff"),
//	    sink.WithInteraction(),
//	)
//
// # SVG Options
//
//   - [WithBackground]: Fill the viewport before drawing
//   - [WithInteraction]: Embed CSS/JS that emphasizes the hovered slice
//   - [WithoutLegend]: Skip the legend even when the settings enable it
//
// # JSON Output
//
// [RenderJSON] exports slices, legend, arc geometry, warnings and optionally
// the transition plan as a pretty-printed JSON document. The geometry is in
// chart coordinates: angles in radians clockwise from 12 o'clock, radii in
// pixels, positions relative to the chart center.
//
// # Raster Output
//
// [RenderPNG] and [RenderWebP] rasterize arcs as polygons with
// github.com/gogpu/gg, supersampled and scaled down with a Catmull-Rom
// filter. Text is drawn with the 7x13 bitmap face after scaling so labels
// stay crisp.
//
//	png, err := sink.RenderPNG(frame, sink.WithSupersample(3))
//
// No sink modifies the frame; all are safe to call concurrently on the same
// frame.
package sink

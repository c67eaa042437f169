// Package donut holds the shared model of the donut chart engine.
//
// # Overview
//
// A donut chart shows the parts of a whole as wedges of a ring. This package
// tree turns tabular query results into those wedges and drives the two
// interaction modes: direct multi-select with dimming, and the touch-oriented
// interactive legend that rotates the chart to bring one slice to the top.
//
// The stages, leaves first:
//
//  1. Convert ([convert]): tabular [dataview.Result] to an ordered [Slice] list.
//  2. Cull ([cull]): drop slices whose arc would be narrower than a few pixels.
//  3. Layout ([layout]): angular spans and radius bands per slice.
//  4. Selection ([selection]): selected identities and per-slice opacity.
//  5. Animation ([animation]): keyed enter/update/exit transition plans.
//  6. Rotation ([rotation]): drag gestures, cyclic index and the legend strip.
//
// The [visual] package wires the stages together and the [sink] package turns
// a finished frame into SVG, JSON, PNG or WebP.
//
// # Usage
//
//	v := visual.New(settings.Default())
//	frame := v.Update(visual.Update{Result: result, Viewport: donut.Viewport{Width: 400, Height: 400}})
//	svg := sink.RenderSVG(frame)
//
// [convert]: github.com/matzehuels/donut/pkg/donut/convert
// [cull]: github.com/matzehuels/donut/pkg/donut/cull
// [layout]: github.com/matzehuels/donut/pkg/donut/layout
// [selection]: github.com/matzehuels/donut/pkg/donut/selection
// [animation]: github.com/matzehuels/donut/pkg/donut/animation
// [rotation]: github.com/matzehuels/donut/pkg/donut/rotation
// [visual]: github.com/matzehuels/donut/pkg/donut/visual
// [sink]: github.com/matzehuels/donut/pkg/donut/sink
// [dataview.Result]: github.com/matzehuels/donut/pkg/dataview.Result
package donut

package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/sink"
	"github.com/matzehuels/donut/pkg/donut/visual"
	"github.com/matzehuels/donut/pkg/errors"
	"github.com/matzehuels/donut/pkg/observability"
)

// Build runs the chart core over res: conversion, culling and layout, then
// the requested selection and rotation focus. opts must be validated.
func (r *Runner) Build(ctx context.Context, res *dataview.Result, opts Options) (visual.Frame, error) {
	if err := ctx.Err(); err != nil {
		return visual.Frame{}, err
	}
	categories := 0
	if res.Category != nil {
		categories = len(res.Category.Members)
	}
	observability.Pipeline().OnBuildStart(ctx, categories, opts.Width, opts.Height)
	start := time.Now()

	v := visual.New(visual.WithLogger(opts.Logger))
	f := v.Update(visual.Update{
		Result:   res,
		Viewport: opts.Viewport(),
		Settings: opts.ResolvedSettings(),
	})
	if len(opts.Selected) > 0 {
		ids := make([]donut.Identity, len(opts.Selected))
		for i, id := range opts.Selected {
			ids[i] = donut.Identity(id)
		}
		f = v.Select(ids...)
	}
	if opts.Focus != 0 {
		f = v.Step(opts.Focus)
	}

	observability.Pipeline().OnBuildComplete(ctx, len(f.Slices), f.Culled, time.Since(start), nil)
	return f, nil
}

// RenderFormat exports f in one format.
func RenderFormat(f visual.Frame, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		var so []sink.SVGOption
		if opts.Background != "" {
			so = append(so, sink.WithBackground(opts.Background))
		}
		if opts.Script {
			so = append(so, sink.WithInteraction())
		}
		if opts.NoLegend {
			so = append(so, sink.WithoutLegend())
		}
		return sink.RenderSVG(f, so...), nil
	case FormatJSON:
		return sink.RenderJSON(f, sink.WithJSONTransition())
	case FormatPNG, FormatWebP:
		ro := []sink.RasterOption{}
		if opts.Background != "" {
			ro = append(ro, sink.WithRasterBackground(opts.Background))
		}
		if opts.Supersample > 0 {
			ro = append(ro, sink.WithSupersample(opts.Supersample))
		}
		if format == FormatPNG {
			return sink.RenderPNG(f, ro...)
		}
		return sink.RenderWebP(f, ro...)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
	}
}

// Render exports f in every format of opts.
func Render(ctx context.Context, f visual.Frame, opts Options) (map[string][]byte, error) {
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts := make(map[string][]byte, len(opts.Formats))
	var err error
	for _, format := range opts.Formats {
		var data []byte
		if data, err = RenderFormat(f, format, opts); err != nil {
			break
		}
		artifacts[format] = data
	}
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

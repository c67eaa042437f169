// Package cli implements the donut command-line interface.
//
// Commands load a dataset, run it through the chart core and export or
// display the result. The CLI is built using cobra and logs with
// charmbracelet/log.
//
// # Commands
//
//   - render: Export a chart as SVG, JSON, PNG or WebP
//   - inspect: Print the slices, warnings and culling of a dataset
//   - explore: Drive the rotating legend in the terminal
//   - serve: Run the HTTP render service
//   - cache: Manage the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// turns on the pipeline and cache hooks. Loggers are passed through
// context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/donut/pkg/pipeline"
)

// newLogger returns a logger writing to w at level, with "15:04:05.00"
// timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took. Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered sales.svg (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logResult writes the stage timings and cache outcome of a pipeline run at
// debug level.
func logResult(l *log.Logger, r *pipeline.Result) {
	l.Debug("pipeline",
		"categories", r.Stats.Categories,
		"slices", r.Stats.Slices,
		"load", r.Stats.LoadTime.Round(time.Microsecond),
		"build", r.Stats.BuildTime.Round(time.Microsecond),
		"render", r.Stats.RenderTime.Round(time.Microsecond),
		"dataset_hit", r.CacheInfo.DatasetHit,
		"frame_hit", r.CacheInfo.FrameHit,
		"render_hit", r.CacheInfo.RenderHit)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() if there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

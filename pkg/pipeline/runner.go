package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/donut/pkg/cache"
	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut/sink"
	"github.com/matzehuels/donut/pkg/observability"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner can serve concurrent requests.
type Runner struct {
	Cache      cache.Cache
	Keyer      cache.Keyer
	Logger     *log.Logger
	HTTPClient *http.Client
}

// NewRunner returns a runner. A nil cache disables caching, a nil keyer
// means DefaultKeyer and a nil logger means the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:      c,
		Keyer:      keyer,
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Execute loads the dataset, then builds and renders it through the cache.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	loadStart := time.Now()
	res, datasetHash, hit, err := r.LoadDataset(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result := &Result{DatasetHash: datasetHash}
	result.Stats.LoadTime = time.Since(loadStart)
	result.CacheInfo.DatasetHit = hit
	if res.Category != nil {
		result.Stats.Categories = len(res.Category.Members)
	}
	r.Logger.Info("loaded dataset",
		"categories", result.Stats.Categories,
		"measures", len(res.Measures),
		"duration", result.Stats.LoadTime)

	if err := r.RenderWithCache(ctx, res, opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

// RenderWithCache fills result with the frame summary and artifacts of res.
// The frame export is cached under the dataset hash and the build options;
// artifacts are cached under the frame hash and their render options. When
// the frame and every artifact hit, nothing is built.
func (r *Runner) RenderWithCache(ctx context.Context, res *dataview.Result, opts Options, result *Result) error {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	c := r.Cache
	if opts.NoCache {
		c = cache.NewNullCache()
	}
	if result.Artifacts == nil {
		result.Artifacts = make(map[string][]byte, len(opts.Formats))
	}

	fko, err := opts.FrameKeyOpts()
	if err != nil {
		return fmt.Errorf("frame key: %w", err)
	}
	frameKey := r.Keyer.FrameKey(result.DatasetHash, fko)

	if frameJSON, hit, err := c.Get(ctx, frameKey); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "frame")
		frameHash := cache.Hash(frameJSON)
		if r.cachedArtifacts(ctx, c, frameHash, opts, result.Artifacts) {
			if err := json.Unmarshal(frameJSON, &result.Summary); err == nil {
				result.FrameHash = frameHash
				result.Stats.Slices = len(result.Summary.Slices)
				result.CacheInfo.FrameHit = true
				result.CacheInfo.RenderHit = true
				r.Logger.Debug("served from cache", "formats", opts.Formats)
				return nil
			}
		}
	} else {
		observability.Cache().OnCacheMiss(ctx, "frame")
	}

	buildStart := time.Now()
	f, err := r.Build(ctx, res, opts)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	result.Frame = &f
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Slices = len(f.Slices)
	result.Summary = Summary{
		Slices:    f.Slices,
		Warnings:  f.Warnings,
		Culled:    f.Culled,
		Threshold: f.Threshold,
		Total:     f.Total,
	}
	r.Logger.Info("built frame",
		"slices", len(f.Slices),
		"culled", f.Culled,
		"warnings", len(f.Warnings),
		"duration", result.Stats.BuildTime)

	frameJSON, err := sink.RenderJSON(f)
	if err != nil {
		return fmt.Errorf("export frame: %w", err)
	}
	result.FrameHash = cache.Hash(frameJSON)
	r.store(ctx, c, "frame", frameKey, frameJSON, cache.TTLFrame)

	renderStart := time.Now()
	artifacts, err := Render(ctx, f, opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	for format, data := range artifacts {
		result.Artifacts[format] = data
		r.store(ctx, c, "artifact", r.Keyer.ArtifactKey(result.FrameHash, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
	}
	result.Stats.RenderTime = time.Since(renderStart)
	r.Logger.Info("rendered outputs", "formats", opts.Formats, "duration", result.Stats.RenderTime)
	return nil
}

// cachedArtifacts fills out with every format of opts and reports whether
// all of them were found.
func (r *Runner) cachedArtifacts(ctx context.Context, c cache.Cache, frameHash string, opts Options, out map[string][]byte) bool {
	found := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit, err := c.Get(ctx, r.Keyer.ArtifactKey(frameHash, opts.ArtifactKeyOpts(format)))
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			return false
		}
		observability.Cache().OnCacheHit(ctx, "artifact")
		found[format] = data
	}
	for format, data := range found {
		out[format] = data
	}
	return true
}

func (r *Runner) store(ctx context.Context, c cache.Cache, keyType, key string, data []byte, ttl time.Duration) {
	if err := c.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

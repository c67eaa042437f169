// Package cache stores rendered donut frames and artifacts between runs.
//
// A [Cache] is a flat byte store with per-entry TTLs. Keys come from a
// [Keyer], which derives them from content hashes: the dataset bytes, the
// frame that the chart core produced for a viewport and settings, and the
// artifact options. The same dataset rendered twice with the same options
// therefore never reaches the renderer again.
//
// Backends:
//
//   - [FileCache] for the CLI, one JSON file per entry
//   - [RedisCache] and [MongoCache] for the HTTP service
//   - [NullCache] when caching is disabled
//
// [Open] picks a backend from a spec string such as "redis://localhost:6379/0".
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with expiring entries.
//
// Get reports a miss as (nil, false, nil). Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default TTLs per entry kind.
const (
	// TTLDataset applies to datasets fetched over HTTP.
	TTLDataset = time.Hour
	// TTLFrame applies to frames exported as JSON.
	TTLFrame = 7 * 24 * time.Hour
	// TTLArtifact applies to SVG, JSON, PNG and WebP outputs.
	TTLArtifact = 7 * 24 * time.Hour
)

// Keyer derives cache keys.
type Keyer interface {
	// DatasetKey names a fetched dataset by its source URL.
	DatasetKey(source string) string
	// FrameKey names the frame built from a dataset for a viewport and settings.
	FrameKey(datasetHash string, opts FrameKeyOpts) string
	// ArtifactKey names one rendered output of a frame.
	ArtifactKey(frameHash string, opts ArtifactKeyOpts) string
}

// FrameKeyOpts holds everything besides the dataset that changes a frame.
type FrameKeyOpts struct {
	Width        float64  `json:"width"`
	Height       float64  `json:"height"`
	SettingsHash string   `json:"settings_hash"`
	Selected     []string `json:"selected,omitempty"`
	Focus        int      `json:"focus,omitempty"`
}

// ArtifactKeyOpts holds the renderer options of one output format.
type ArtifactKeyOpts struct {
	Format      string `json:"format"`
	Background  string `json:"background,omitempty"`
	Supersample int    `json:"supersample,omitempty"`
	Legend      bool   `json:"legend"`
	Interaction bool   `json:"interaction,omitempty"`
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the keyer used when none is configured.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DatasetKey returns "dataset:<source>". The source is kept readable so
// entries can be found by URL when debugging.
func (DefaultKeyer) DatasetKey(source string) string {
	return "dataset:" + source
}

// FrameKey returns "frame:<hash>".
func (DefaultKeyer) FrameKey(datasetHash string, opts FrameKeyOpts) string {
	return hashKey("frame", datasetHash, opts)
}

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(frameHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", frameHash, opts)
}

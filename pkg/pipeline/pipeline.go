// Package pipeline runs the load → build → render pipeline for donut charts.
//
// The CLI and the HTTP service both go through a [Runner], so caching,
// defaults and validation behave the same everywhere.
//
// # Stages
//
//  1. Load: read a dataset from a file, an http(s) URL or memory
//  2. Build: convert, cull and lay out the data into a [visual.Frame],
//     applying the requested selection and rotation focus
//  3. Render: export the frame as SVG, JSON, PNG or WebP
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "sales.json",
//	    Formats: []string{"svg", "png"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/donut/pkg/cache"
	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/settings"
	"github.com/matzehuels/donut/pkg/donut/visual"
	"github.com/matzehuels/donut/pkg/errors"
)

const (
	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 400.0
	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = 400.0
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
	FormatPNG:  true,
	FormatWebP: true,
}

// ValidateFormat checks that format is supported. Names are case-sensitive.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, json, png, webp)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configures one pipeline run. It doubles as the request body of the
// HTTP render endpoint.
type Options struct {
	// Load
	Input   string           `json:"input,omitempty"` // file path or http(s) URL
	Dataset *dataview.Result `json:"-"`

	// Build
	Width        float64            `json:"width,omitempty"`
	Height       float64            `json:"height,omitempty"`
	Settings     *settings.Settings `json:"settings,omitempty"`
	SettingsPath string             `json:"-"`
	Pie          bool               `json:"pie,omitempty"`
	Interactive  bool               `json:"interactive,omitempty"`
	Selected     []string           `json:"selected,omitempty"` // slice identities
	Focus        int                `json:"focus,omitempty"`    // rotation steps from the first slice

	// Render
	Formats     []string `json:"formats,omitempty"`
	Background  string   `json:"background,omitempty"`
	Supersample int      `json:"supersample,omitempty"`
	NoLegend    bool     `json:"no_legend,omitempty"`
	Script      bool     `json:"script,omitempty"` // embed hover/click script in SVG

	// Runtime
	NoCache bool        `json:"-"`
	Logger  *log.Logger `json:"-"`

	resolved  settings.Settings
	validated bool
}

// Result holds the outputs of a run.
type Result struct {
	// Frame is the built frame. It is nil when every artifact came from
	// the cache.
	Frame *visual.Frame

	// DatasetHash is the content hash of the loaded dataset.
	DatasetHash string
	// FrameHash is the content hash of the frame's JSON export.
	FrameHash string

	Summary   Summary
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Summary describes the chart without the geometry. It is available on
// cache hits too.
type Summary struct {
	Slices    []donut.Slice   `json:"slices"`
	Warnings  []donut.Warning `json:"warnings"`
	Culled    bool            `json:"culled,omitempty"`
	Threshold float64         `json:"threshold"`
	Total     float64         `json:"total"`
}

// Stats records sizes and stage timings.
type Stats struct {
	Categories int
	Slices     int
	LoadTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	DatasetHit bool // remote dataset came from the cache
	FrameHit   bool // frame export came from the cache
	RenderHit  bool // every artifact came from the cache
}

// ValidateAndSetDefaults checks the options and fills in defaults. It reads
// the settings file if SettingsPath is set. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" && o.Dataset == nil {
		return errors.New(errors.ErrCodeInvalidInput, "input or dataset is required")
	}
	if o.Input != "" && !isRemote(o.Input) {
		if err := errors.ValidatePath(o.Input); err != nil {
			return err
		}
	}
	o.SetBuildDefaults()
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Background != "" {
		if err := errors.ValidateColor(o.Background); err != nil {
			return err
		}
	}
	for _, id := range o.Selected {
		if err := errors.ValidateIdentity(id); err != nil {
			return err
		}
	}

	s, err := o.loadSettings()
	if err != nil {
		return err
	}
	o.resolved = s
	o.validated = true
	return nil
}

// SetBuildDefaults fills in the viewport and logger.
func (o *Options) SetBuildDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// SetRenderDefaults fills in the formats and logger.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

func (o *Options) loadSettings() (settings.Settings, error) {
	var s settings.Settings
	switch {
	case o.Settings != nil:
		s = *o.Settings
	case o.SettingsPath != "":
		loaded, err := settings.Load(o.SettingsPath)
		if err != nil {
			return s, err
		}
		s = loaded
	default:
		s = settings.Default()
	}
	if o.Pie {
		s = s.Pie()
	}
	if o.Interactive {
		s.Chart.Interactive = true
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// ResolvedSettings returns the settings a validated run uses.
func (o *Options) ResolvedSettings() settings.Settings { return o.resolved }

// Viewport returns the requested drawing area.
func (o *Options) Viewport() donut.Viewport {
	return donut.Viewport{Width: o.Width, Height: o.Height}
}

// FrameKeyOpts returns the cache key options of the build stage.
func (o *Options) FrameKeyOpts() (cache.FrameKeyOpts, error) {
	h, err := cache.HashValue(o.resolved)
	if err != nil {
		return cache.FrameKeyOpts{}, err
	}
	sel := slices.Clone(o.Selected)
	slices.Sort(sel)
	return cache.FrameKeyOpts{
		Width:        o.Width,
		Height:       o.Height,
		SettingsHash: h,
		Selected:     sel,
		Focus:        o.Focus,
	}, nil
}

// ArtifactKeyOpts returns the cache key options of one output format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Background: o.Background, Legend: !o.NoLegend}
	switch format {
	case FormatPNG, FormatWebP:
		k.Supersample = o.Supersample
	case FormatSVG:
		k.Interaction = o.Script
	}
	return k
}

func isRemote(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

package pipeline

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/donut/pkg/cache"
	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut/settings"
	"github.com/matzehuels/donut/pkg/errors"
)

func sales() *dataview.Result {
	return dataview.Categorical("Region", []string{"North", "South", "East"}, "Sales", []float64{50, 30, 20}, nil)
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"json", false},
		{"png", false},
		{"webp", false},
		{"pdf", true},
		{"SVG", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Dataset: sales()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight {
		t.Errorf("viewport = %vx%v", opts.Width, opts.Height)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if opts.ResolvedSettings().Chart.ThicknessRatio != settings.DefaultThicknessRatio {
		t.Error("settings should default to settings.Default()")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no input", Options{}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Dataset: sales(), Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"negative width", Options{Dataset: sales(), Width: -1}, errors.ErrCodeInvalidViewport},
		{"bad background", Options{Dataset: sales(), Background: "white"}, errors.ErrCodeInvalidColor},
		{"empty selection", Options{Dataset: sales(), Selected: []string{""}}, errors.ErrCodeInvalidInput},
		{"missing settings", Options{Dataset: sales(), SettingsPath: "/does/not/exist.toml"}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestOptionsSettingsOverrides(t *testing.T) {
	opts := Options{Dataset: sales(), Pie: true, Interactive: true}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	s := opts.ResolvedSettings()
	if s.Chart.ThicknessRatio != 0 {
		t.Errorf("Pie should zero the thickness, got %v", s.Chart.ThicknessRatio)
	}
	if !s.Chart.Interactive {
		t.Error("Interactive should enable the rotating legend")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Dataset: sales(), Width: 300}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	opts.Width = -5
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op, got %v", err)
	}
}

func TestFrameKeyOpts(t *testing.T) {
	a := Options{Dataset: sales(), Selected: []string{"cat:South", "cat:North"}}
	b := Options{Dataset: sales(), Selected: []string{"cat:North", "cat:South"}}
	_ = a.ValidateAndSetDefaults()
	_ = b.ValidateAndSetDefaults()
	ka, _ := a.FrameKeyOpts()
	kb, _ := b.FrameKeyOpts()
	k := cache.NewDefaultKeyer()
	if k.FrameKey("h", ka) != k.FrameKey("h", kb) {
		t.Error("selection order should not change the frame key")
	}

	c := Options{Dataset: sales(), Pie: true}
	_ = c.ValidateAndSetDefaults()
	kc, _ := c.FrameKeyOpts()
	if k.FrameKey("h", ka) == k.FrameKey("h", kc) {
		t.Error("settings should change the frame key")
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	result, err := r.Execute(context.Background(), Options{
		Dataset:  sales(),
		Formats:  []string{FormatSVG, FormatJSON, FormatPNG},
		Selected: []string{"cat:South"},
		Width:    200,
		Height:   200,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, f := range []string{FormatSVG, FormatJSON, FormatPNG} {
		if len(result.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if result.Frame == nil {
		t.Fatal("Frame should be set on a cache miss")
	}
	if result.Stats.Categories != 3 || result.Stats.Slices != 3 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if !result.Summary.Slices[1].Selected || result.Summary.Slices[0].Selected {
		t.Error("only South should be selected")
	}
	if result.DatasetHash == "" || result.FrameHash == "" {
		t.Error("hashes should be set")
	}
	if !bytes.HasPrefix(result.Artifacts[FormatPNG], []byte("\x89PNG")) {
		t.Error("png artifact is not a PNG")
	}
}

func TestExecuteCache(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	opts := Options{Dataset: sales(), Formats: []string{FormatSVG, FormatJSON}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.FrameHit || first.CacheInfo.RenderHit {
		t.Error("first run should miss")
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.FrameHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit, got %+v", second.CacheInfo)
	}
	if second.Frame != nil {
		t.Error("nothing should be built on a full hit")
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs")
	}
	if second.FrameHash != first.FrameHash || len(second.Summary.Slices) != 3 {
		t.Errorf("summary not restored: %+v", second.Summary)
	}

	// a new format misses the artifact cache and rebuilds
	opts.Formats = []string{FormatSVG, FormatWebP}
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit || third.Frame == nil {
		t.Error("a new format should rebuild")
	}

	opts.NoCache = true
	fourth, _ := r.Execute(ctx, opts)
	if fourth.CacheInfo.FrameHit {
		t.Error("NoCache should bypass the cache")
	}
}

func TestExecuteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.toml")
	doc := `[category]
name = "Region"
members = [{ label = "North" }, { label = "South" }]

[[measures]]
name = "Sales"
values = [1.0, nan]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Input: path})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Summary.Warnings) == 0 || result.Summary.Warnings[0].Code != "NAN" {
		t.Errorf("warnings = %+v, want a NAN warning", result.Summary.Warnings)
	}

	_, err = NewRunner(nil, nil, nil).Execute(context.Background(), Options{Input: filepath.Join(dir, "missing.json")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestExecuteRemote(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/sales.json" {
			http.NotFound(w, r)
			return
		}
		_ = dataview.WriteJSON(sales(), w)
	}))
	defer srv.Close()

	fc, _ := cache.NewFileCache(t.TempDir())
	r := NewRunner(fc, nil, nil)
	ctx := context.Background()

	first, err := r.Execute(ctx, Options{Input: srv.URL + "/sales.json"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.DatasetHit {
		t.Error("first fetch should miss")
	}
	second, err := r.Execute(ctx, Options{Input: srv.URL + "/sales.json", Width: 300})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.DatasetHit {
		t.Error("second fetch should come from the cache")
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}

	_, err = r.Execute(ctx, Options{Input: srv.URL + "/missing.json"})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("404 error = %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("404 should wrap cache.ErrNotFound: %v", err)
	}
}

func TestRenderFormatUnsupported(t *testing.T) {
	opts := Options{Dataset: sales()}
	_ = opts.ValidateAndSetDefaults()
	f, err := NewRunner(nil, nil, nil).Build(context.Background(), sales(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := RenderFormat(f, "gif", opts); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}

func TestBuildFocus(t *testing.T) {
	opts := Options{Dataset: sales(), Interactive: true, Focus: 1}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	f, err := NewRunner(nil, nil, nil).Build(context.Background(), sales(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if f.Rotation == nil || f.Rotation.Current != 1 {
		t.Errorf("Rotation = %+v, want current slice 1", f.Rotation)
	}
}

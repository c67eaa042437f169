package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/donut/pkg/cache"
)

func TestCachePathCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	root := testCLI().RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.Join(xdg, appName) {
		t.Errorf("cache path = %q", got)
	}

	out.Reset()
	root = testCLI().RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path", "--cache", "redis://localhost:6379/0"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "redis://localhost:6379/0" {
		t.Errorf("cache path for a remote backend = %q", got)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := fc.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	root := testCLI().RootCommand()
	root.SetArgs([]string{"cache", "clear", "--cache", "file://" + dir})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if _, hit, _ := fc.Get(ctx, k); hit {
			t.Errorf("entry %q survived cache clear", k)
		}
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if !e.IsDir() {
			t.Errorf("leftover file %s", e.Name())
		}
	}
}

func TestCacheClearNullBackend(t *testing.T) {
	root := testCLI().RootCommand()
	root.SetArgs([]string{"cache", "clear", "--cache", "none"})
	if err := root.Execute(); err != nil {
		t.Errorf("clearing the null cache should succeed: %v", err)
	}
}

func TestRenderUsesCache(t *testing.T) {
	input := writeDataset(t)
	dir := t.TempDir()
	spec := "file://" + dir

	for i := 0; i < 2; i++ {
		root := testCLI().RootCommand()
		root.SetArgs([]string{"render", input, "--cache", spec})
		if err := root.Execute(); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	fc, _ := cache.NewFileCache(dir)
	n, err := fc.Clear(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Error("render should have populated the cache")
	}
}

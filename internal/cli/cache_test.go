package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pardetect/internal/config"
	"github.com/matzehuels/pardetect/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(home, ".cache", "pardetect")
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != filepath.Join(xdg, "pardetect") {
		t.Errorf("cacheDir() = %q, want under %q", dir, xdg)
	}
}

func testCLI(t *testing.T, cfg *config.Config) *CLI {
	t.Helper()
	c := New(io.Discard, LogInfo)
	c.cfg = cfg
	return c
}

func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	c := testCLI(t, &config.Config{Cache: config.CacheConfig{Backend: config.CacheFile, Dir: dir}})

	cmd := c.cachePathCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != dir {
		t.Errorf("cache path = %q, want %q", got, dir)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"report:a", "report:b", "artifact:c"} {
		if err := fc.Set(ctx, key, []byte("x"), 0); err != nil {
			t.Fatal(err)
		}
	}

	c := testCLI(t, &config.Config{Cache: config.CacheConfig{Backend: config.CacheFile, Dir: dir}})
	cmd := c.cacheClearCommand()
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	if _, hit, _ := fc.Get(ctx, "report:a"); hit {
		t.Error("entry survived cache clear")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache dir not empty after clear: %d entries", len(entries))
	}
}

func TestNewCacheBackends(t *testing.T) {
	ctx := context.Background()

	c := testCLI(t, &config.Config{Cache: config.CacheConfig{Backend: config.CacheNone}})
	cc, err := c.newCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(*cache.NullCache); !ok {
		t.Errorf("backend none: got %T", cc)
	}

	c = testCLI(t, &config.Config{Cache: config.CacheConfig{Backend: config.CacheFile, Dir: t.TempDir()}})
	cc, _ = c.newCache(ctx, true)
	if _, ok := cc.(*cache.NullCache); !ok {
		t.Errorf("--no-cache: got %T", cc)
	}
	cc, err = c.newCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(*cache.FileCache); !ok {
		t.Errorf("backend file: got %T", cc)
	}
}

func TestNewRunnerKeyPrefix(t *testing.T) {
	c := testCLI(t, &config.Config{Cache: config.CacheConfig{Backend: config.CacheNone, KeyPrefix: "ci:"}})
	runner, err := c.newRunner(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if key := runner.Keyer.ReportKey("abc", cache.ReportKeyOpts{}); !strings.HasPrefix(key, "ci:report:") {
		t.Errorf("ReportKey = %q, want ci: prefix", key)
	}
}

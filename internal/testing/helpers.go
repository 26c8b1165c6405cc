package testing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TB is the subset of testing.TB the fixture helpers need. Both *testing.T
// and GinkgoT() satisfy it.
type TB interface {
	Helper()
	TempDir() string
	Fatalf(format string, args ...any)
}

// AppDir creates a temporary application directory holding files, keyed by
// slash-separated relative path.
func AppDir(t TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// StaticSite creates an application directory with a built static export.
func StaticSite(t TB) string {
	t.Helper()
	return AppDir(t, map[string]string{
		"package.json":   `{"name":"my-app","scripts":{"build":"next build"}}`,
		"out/index.html": "<!doctype html><title>my-app</title>",
		"out/404.html":   "<!doctype html><title>not found</title>",
	})
}

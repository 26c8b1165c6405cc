package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/siteforge/internal/errdefs"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	dir := t.TempDir()
	var out strings.Builder
	r := NewRunner(WithEnv("SITEFORGE_TEST=hello"), WithOutput(&out))

	err := r.Run(context.Background(), dir, `echo "$SITEFORGE_TEST" > marker.txt && echo done`)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "marker.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
	assert.Equal(t, "done\n", out.String())
}

func TestRunner_RunFailure(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	r := NewRunner()
	err := r.Run(context.Background(), t.TempDir(), `for i in 1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16 17 18 19 20 21 22; do echo line$i; done; echo oops >&2; exit 3`)
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Contains(t, cmdErr.Output, "oops")
	assert.NotContains(t, cmdErr.Output, "line1\n", "output is trimmed to the tail")
	assert.Len(t, strings.Split(cmdErr.Output, "\n"), tailLines)
	assert.Contains(t, err.Error(), "exit code 3")
}

func TestRunner_RunCancelled(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewRunner().Run(ctx, t.TempDir(), "sleep 5")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunner_RunBadDir(t *testing.T) {
	t.Parallel()

	err := NewRunner().Run(context.Background(), filepath.Join(t.TempDir(), "missing"), "true")
	assert.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	err = NewRunner().Run(context.Background(), file, "true")
	assert.True(t, errdefs.IsValidation(err))
}

func TestRunner_Build(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	dir := t.TempDir()
	out, err := NewRunner().Build(context.Background(), dir, "mkdir -p dist && echo hi > dist/index.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dist"), out)

	_, err = NewRunner().Build(context.Background(), t.TempDir(), "true")
	assert.True(t, errdefs.IsNotFound(err))
}

func TestOutputDir_Order(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dirs []string
		want string
	}{
		{"static export first", []string{".next", "out", "dist"}, "out"},
		{"dist before build", []string{"build", "dist"}, "dist"},
		{"server build last", []string{".next"}, ".next"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := t.TempDir()
			for _, d := range tt.dirs {
				require.NoError(t, os.Mkdir(filepath.Join(app, d), 0o755))
			}
			got, err := OutputDir(app)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(app, tt.want), got)
		})
	}
}

func TestOutputDir_IgnoresFiles(t *testing.T) {
	t.Parallel()

	app := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(app, "out"), []byte("not a dir"), 0o644))

	_, err := OutputDir(app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out, dist, build, .next")
}

func TestCopyTo(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte("<html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "assets", "app.js"), []byte("1"), 0o644))

	dest := filepath.Join(t.TempDir(), "site")

	got, err := CopyTo(src, dest, CopyOptions{})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(got, "assets", "app.js"))

	_, err = CopyTo(src, dest, CopyOptions{})
	assert.True(t, errdefs.IsUnavailable(err), "existing destination without clean")

	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.txt"), nil, 0o644))
	_, err = CopyTo(src, dest, CopyOptions{Clean: true})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dest, "stale.txt"))

	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got, err = CopyTo(src, dest, CopyOptions{Timestamp: true, Now: func() time.Time { return fixed }})
	require.NoError(t, err)
	assert.Equal(t, dest+"_20260304_050607", got)
	assert.FileExists(t, filepath.Join(got, "index.html"))
}

package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imamik/siteforge/internal/errdefs"
)

// OutputCandidates are the directories checked for build output, in order.
// A static export (out) wins over a server build (.next).
var OutputCandidates = []string{"out", "dist", "build", ".next"}

// OutputDir returns the first existing build output directory of appDir.
func OutputDir(appDir string) (string, error) {
	for _, name := range OutputCandidates {
		candidate := filepath.Join(appDir, name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", errdefs.Newf(errdefs.KindNotFound, "build",
		"no build output folder found in %s (expected one of: %s)", appDir, strings.Join(OutputCandidates, ", "))
}

// CopyOptions tunes CopyTo.
type CopyOptions struct {
	// Clean removes an existing destination first. Without it an existing
	// destination is an error.
	Clean bool
	// Timestamp appends _YYYYMMDD_HHMMSS to the destination name.
	Timestamp bool
	// Now is used for the timestamp; defaults to time.Now.
	Now func() time.Time
}

// CopyTo copies the build output of src into dest and returns the final
// destination path.
func CopyTo(src, dest string, opts CopyOptions) (string, error) {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination: %w", err)
	}
	if opts.Timestamp {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		dest = dest + "_" + now().Format("20060102_150405")
	}

	if _, err := os.Stat(dest); err == nil {
		if !opts.Clean {
			return "", errdefs.Newf(errdefs.KindUnavailable, "copy", "destination %s already exists", dest)
		}
		if err := os.RemoveAll(dest); err != nil {
			return "", fmt.Errorf("failed to clean destination: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create destination parent: %w", err)
	}
	if err := os.CopyFS(dest, os.DirFS(src)); err != nil {
		return "", fmt.Errorf("failed to copy %s to %s: %w", src, dest, err)
	}
	return dest, nil
}

package docs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrFailedOutcome is returned by Write for a failed generation.
var ErrFailedOutcome = errors.New("docs: failed generation not written")

// Write stores a successful outcome under outDir and returns the file path.
// The file is replaced atomically, so a failed write leaves any previous
// version intact.
func Write(outDir string, o Outcome) (string, error) {
	if o.Result.Failed() {
		return "", fmt.Errorf("%w: %s", ErrFailedOutcome, o.Kind.Name)
	}

	path := filepath.Join(outDir, filepath.FromSlash(o.Kind.Path))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("docs: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".lightningmd-*.md")
	if err != nil {
		return "", fmt.Errorf("docs: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(o.Result.Text); err != nil {
		tmp.Close()
		return "", fmt.Errorf("docs: write %s: %w", o.Kind.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("docs: write %s: %w", o.Kind.Path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("docs: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("docs: replace %s: %w", o.Kind.Path, err)
	}
	return path, nil
}

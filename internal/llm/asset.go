package llm

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrModelUnavailable marks failures to get the model into a runnable state.
var ErrModelUnavailable = errors.New("model unavailable")

// Materialize copies the shipped model from bundlePath to destPath unless a
// non-empty file is already there. It reports whether a copy happened. The
// copy goes through a temp file and a rename, so an interrupted run never
// leaves a truncated model at destPath.
func Materialize(bundlePath, destPath string) (bool, error) {
	if destPath == "" {
		return false, fmt.Errorf("%w: no model path configured", ErrModelUnavailable)
	}
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		return false, nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("%w: checking %s: %v", ErrModelUnavailable, destPath, err)
	}

	if bundlePath == "" {
		return false, fmt.Errorf("%w: %s missing and no bundle configured", ErrModelUnavailable, destPath)
	}
	src, err := os.Open(bundlePath)
	if err != nil {
		return false, fmt.Errorf("%w: opening bundled model: %v", ErrModelUnavailable, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return false, fmt.Errorf("%w: creating model dir: %v", ErrModelUnavailable, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".model_copy_*")
	if err != nil {
		return false, fmt.Errorf("%w: creating temp file: %v", ErrModelUnavailable, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("%w: copying model: %v", ErrModelUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("%w: syncing model: %v", ErrModelUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("%w: closing model: %v", ErrModelUnavailable, err)
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		return false, fmt.Errorf("%w: installing model: %v", ErrModelUnavailable, err)
	}
	return true, nil
}

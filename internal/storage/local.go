package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalAdapter keeps the text library and the synthesized-audio cache
// in a directory tree on the local filesystem. Storage paths map
// directly onto file paths under the configured root. This is the
// backend for single-machine deployments.
type LocalAdapter struct {
	basePath string
}

// NewLocalAdapter roots an adapter at basePath, creating the directory
// when it does not exist yet
func NewLocalAdapter(basePath string) (*LocalAdapter, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalAdapter{basePath: basePath}, nil
}

// Put writes one file, creating intermediate directories as needed.
// Page documents and cached audio land here via the same call.
func (l *LocalAdapter) Put(ctx context.Context, path string, data io.Reader) error {
	fullPath := l.fullPath(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", path, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Get opens one file for reading. The caller owns the returned handle.
func (l *LocalAdapter) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(l.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return file, nil
}

// Delete removes one file. A missing file counts as already deleted.
func (l *LocalAdapter) Delete(ctx context.Context, path string) error {
	if err := os.Remove(l.fullPath(path)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a file is stored under the path. The audio
// cache probes with this before every synthesis.
func (l *LocalAdapter) Exists(ctx context.Context, path string) (bool, error) {
	if _, err := os.Stat(l.fullPath(path)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check %s: %w", path, err)
	}
	return true, nil
}

// List walks the tree and returns every storage path under the prefix.
// The library uses this to discover texts; directories themselves are
// not storage paths and are skipped.
func (l *LocalAdapter) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := l.fullPath(prefix)
	var paths []string

	err := filepath.WalkDir(l.basePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasPrefix(path, fullPrefix) {
			return nil
		}
		relPath, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		paths = append(paths, relPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	return paths, nil
}

// Close is a no-op; the adapter holds no open resources between calls
func (l *LocalAdapter) Close() error {
	return nil
}

func (l *LocalAdapter) fullPath(path string) string {
	return filepath.Join(l.basePath, path)
}

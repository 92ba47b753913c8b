package storage

import (
	"context"
	"io"
)

// Adapter abstracts the blob store backing the text library and the
// synthesized-audio cache. The library reads metadata.json and
// page-NNN.json documents through it; the playback controller writes
// cached audio next to them.
type Adapter interface {
	// Put stores data at the given path
	Put(ctx context.Context, path string, data io.Reader) error

	// Get retrieves data from the given path
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// List returns paths matching the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Close cleans up any resources
	Close() error
}

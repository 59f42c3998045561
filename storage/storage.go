// Package storage persists streamed API responses and hands back a handle
// to the stored object. Backends: local filesystem, Amazon S3 (and
// S3-compatible services) and an in-memory store.
package storage

import (
	"context"
	"io"
)

// Storage defines the object operations a Sink needs from a backend.
type Storage interface {
	// Upload writes data from reader to the given path.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download returns a reader for the object at the given path.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path.
	// Returns nil if the object does not exist.
	Delete(ctx context.Context, path string) error

	// URL returns a URL for accessing the object at the given path.
	URL(ctx context.Context, path string) (string, error)
}

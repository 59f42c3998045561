package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Handle references an object written by a Sink.
type Handle struct {
	// Path is the object key inside the backend.
	Path string `json:"path" yaml:"path"`
	// URI locates the object outside the process (file://, https://, mem://).
	URI string `json:"uri" yaml:"uri"`
}

// Sink writes streams to a Storage under unique keys.
// It satisfies httpclient.Sink[Handle].
type Sink struct {
	store  Storage
	prefix string
	ext    string
}

// NewSink creates a Sink that writes objects under prefix.
func NewSink(store Storage, prefix string) *Sink {
	return &Sink{store: store, prefix: strings.Trim(prefix, "/")}
}

// WithExtension returns a copy of the sink that appends ext to every key.
func (s *Sink) WithExtension(ext string) *Sink {
	cp := *s
	cp.ext = strings.TrimPrefix(ext, ".")
	return &cp
}

// Store writes r to a new object and returns its handle. An object whose
// URL cannot be resolved is removed again.
func (s *Sink) Store(ctx context.Context, r io.Reader) (Handle, error) {
	key := uuid.NewString()
	if s.ext != "" {
		key += "." + s.ext
	}
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}

	if err := s.store.Upload(ctx, key, r); err != nil {
		return Handle{}, err
	}
	uri, err := s.store.URL(ctx, key)
	if err != nil {
		err = fmt.Errorf("storage: resolve url for %s: %w", key, err)
		if derr := s.store.Delete(ctx, key); derr != nil {
			err = errors.Join(err, fmt.Errorf("storage: remove %s: %w", key, derr))
		}
		return Handle{}, err
	}
	return Handle{Path: key, URI: uri}, nil
}

// Open returns a reader for a stored object. The caller closes it.
func (s *Sink) Open(ctx context.Context, h Handle) (io.ReadCloser, error) {
	return s.store.Download(ctx, h.Path)
}

// Discard deletes a stored object.
func (s *Sink) Discard(ctx context.Context, h Handle) error {
	return s.store.Delete(ctx, h.Path)
}

// Package memory provides an in-process storage backend, mainly for tests
// and dry runs.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/kbukum/apifykit/logger"
	"github.com/kbukum/apifykit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderMemory, func(_ storage.Config, _ any, _ *logger.Logger) (storage.Storage, error) {
		return NewStorage(), nil
	})
}

// Storage keeps objects in a map guarded by a mutex.
type Storage struct {
	mu    sync.RWMutex
	files map[string][]byte

	// FailUpload, when set, is returned by every Upload after the reader
	// has been drained.
	FailUpload error
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{files: make(map[string][]byte)}
}

// Upload reads the whole stream into memory.
func (s *Storage) Upload(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("storage: read upload: %w", err)
	}
	if s.FailUpload != nil {
		return s.FailUpload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = data
	return nil
}

// Download returns a reader over a copy of the stored bytes.
func (s *Storage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("storage: file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Delete removes an object. Missing objects are ignored.
func (s *Storage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

// URL returns a mem:// URL for the object.
func (s *Storage) URL(_ context.Context, path string) (string, error) {
	return "mem://" + path, nil
}

// Paths returns the stored object keys in sorted order.
func (s *Storage) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Bytes returns the stored content of path.
func (s *Storage) Bytes(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path]
	return bytes.Clone(data), ok
}

var _ storage.Storage = (*Storage)(nil)

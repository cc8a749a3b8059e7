// Package inmemory provides a map-backed durable store driver for tests and
// local development.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the blob map
	mu sync.RWMutex

	blobs map[string][]byte
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		blobs: make(map[string][]byte),
	}
}

// Put stores a blob under key, replacing any previous value.
func (s *Driver) Put(_ context.Context, key string, data []byte) error {
	if key == "" {
		return errors.New("cannot store empty key")
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = buf
	return nil
}

// Get retrieves a blob by key.
func (s *Driver) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.NotFoundError{Key: key}
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Has checks whether a key exists.
func (s *Driver) Has(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blobs[key]
	return ok, nil
}

// Delete removes a blob if present.
func (s *Driver) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}

// Close is a no-op for the in-memory driver.
func (s *Driver) Close() error {
	return nil
}

var _ storage.Driver = (*Driver)(nil)

// Package storage provides the durable store-of-record interface. Keys are
// path-like strings (e.g. "conversations/{id}.json", "documents/{name}") and
// values are opaque blobs. The durable tier holds full, unbounded history;
// the fast tier in pkg/cache only ever holds a bounded hot window.
package storage

import "context"

// Driver defines the interface for persisting and retrieving blobs in a
// durable backend.
type Driver interface {
	// Put stores a blob under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves a blob by key. Absent keys return NotFoundError.
	Get(ctx context.Context, key string) ([]byte, error)

	// Has checks whether a key exists.
	Has(ctx context.Context, key string) (bool, error)

	// Delete removes a blob. Deleting an absent key is a no-op, not an
	// error.
	Delete(ctx context.Context, key string) error

	// Close closes the store and releases any resources.
	Close() error
}

// Package cache provides the fast-tier key-value store interface used for
// hot conversation context and embedding caching.
package cache

import (
	"context"
	"time"
)

// Driver handles TTL-bearing key-value storage. Entries past their TTL are
// logically absent; enforcement is the backend's native expiry where one
// exists, lazy expiry otherwise.
type Driver interface {
	// Get retrieves a value by key. The second return is false when the key
	// is absent or expired; absence is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value under key with the given TTL, replacing any
	// previous value. A zero TTL stores without expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is a no-op, not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the driver.
	Close() error
}

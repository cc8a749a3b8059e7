// Package inmemory provides a map-backed cache driver with lazy TTL expiry.
// It exists for tests and local development; expiry is checked on read
// against an injectable clock so TTL behavior is testable without sleeping.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cache"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Driver implements cache.Driver using an in-memory map.
type Driver struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewDriver creates an in-memory cache driver using the wall clock.
func NewDriver() *Driver {
	return NewDriverWithClock(time.Now)
}

// NewDriverWithClock creates an in-memory cache driver with an injected
// clock, so tests can advance time instead of waiting for TTLs.
func NewDriverWithClock(now func() time.Time) *Driver {
	return &Driver{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get retrieves a value by key. Expired entries are treated as absent and
// dropped lazily.
func (d *Driver) Get(_ context.Context, key string) (string, bool, error) {
	d.mu.RLock()
	e, ok := d.entries[key]
	d.mu.RUnlock()

	if !ok {
		return "", false, nil
	}

	if !e.expiresAt.IsZero() && !d.now().Before(e.expiresAt) {
		d.mu.Lock()
		delete(d.entries, key)
		d.mu.Unlock()
		return "", false, nil
	}

	return e.value, true, nil
}

// Set stores a value, replacing any previous entry. A zero TTL stores
// without expiry.
func (d *Driver) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = d.now().Add(ttl)
	}

	d.mu.Lock()
	d.entries[key] = entry{value: value, expiresAt: expiresAt}
	d.mu.Unlock()
	return nil
}

// Delete removes a key if present.
func (d *Driver) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	delete(d.entries, key)
	d.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// Len reports the number of physically present entries, expired or not.
// Used by tests to assert lazy-expiry behavior.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

var _ cache.Driver = (*Driver)(nil)

// Package ristretto provides an in-process fast cache driver backed by
// dgraph-io/ristretto, for single-node deployments that run without Redis.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cache"
)

const (
	defaultNumCounters = 1e6
	defaultMaxCost     = 64 << 20 // 64 MiB of cached values
)

// Driver implements cache.Driver on top of a ristretto cache. Admission is
// best-effort: ristretto may decline to keep an entry under memory pressure,
// which readers observe as an ordinary cache miss. The durable tier remains
// authoritative for every key this system caches.
type Driver struct {
	cache *ristretto.Cache
}

// Config holds configuration for the ristretto driver.
type Config struct {
	// MaxCost bounds the total size in bytes of cached values.
	// Defaults to 64 MiB when zero.
	MaxCost int64
}

// NewDriver creates an in-process ristretto cache driver.
func NewDriver(c Config) (*Driver, error) {
	maxCost := c.MaxCost
	if maxCost == 0 {
		maxCost = defaultMaxCost
	}

	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: defaultNumCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &Driver{cache: rc}, nil
}

// Get retrieves a value by key.
func (d *Driver) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := d.cache.Get(key)
	if !ok {
		return "", false, nil
	}

	s, ok := v.(string)
	if !ok {
		return "", false, nil
	}
	return s, true, nil
}

// Set stores a value with the given TTL. Writes are buffered; Wait flushes
// them so a subsequent Get observes the entry.
func (d *Driver) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	d.cache.SetWithTTL(key, value, int64(len(value)), ttl)
	d.cache.Wait()
	return nil
}

// Delete removes a key if present.
func (d *Driver) Delete(_ context.Context, key string) error {
	d.cache.Del(key)
	return nil
}

// Close releases the cache's internal goroutines.
func (d *Driver) Close() error {
	d.cache.Close()
	return nil
}

var _ cache.Driver = (*Driver)(nil)

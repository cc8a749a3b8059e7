package testutils

import (
	"context"
	"fmt"
	"time"
)

// MockCache is a test cache driver that records calls and can be made to
// fail per operation.
type MockCache struct {
	Entries map[string]string

	// SetTTLs remembers the last TTL passed for each key.
	SetTTLs map[string]time.Duration

	// DeletedKeys accumulates keys passed to Delete.
	DeletedKeys []string

	// FailGet, FailSet and FailDelete force the corresponding operation to
	// return an error.
	FailGet    bool
	FailSet    bool
	FailDelete bool
}

func NewMockCache() *MockCache {
	return &MockCache{
		Entries: make(map[string]string),
		SetTTLs: make(map[string]time.Duration),
	}
}

func (m *MockCache) Get(_ context.Context, key string) (string, bool, error) {
	if m.FailGet {
		return "", false, fmt.Errorf("mock cache get failure")
	}
	value, ok := m.Entries[key]
	return value, ok, nil
}

func (m *MockCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	if m.FailSet {
		return fmt.Errorf("mock cache set failure")
	}
	m.Entries[key] = value
	m.SetTTLs[key] = ttl
	return nil
}

func (m *MockCache) Delete(_ context.Context, key string) error {
	m.DeletedKeys = append(m.DeletedKeys, key)
	if m.FailDelete {
		return fmt.Errorf("mock cache delete failure")
	}
	delete(m.Entries, key)
	return nil
}

func (m *MockCache) Close() error {
	return nil
}

package testutils

import (
	"context"
	"fmt"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/storage"
)

// MockStore is a test storage driver that records calls and can be made to
// fail per operation.
type MockStore struct {
	Blobs map[string][]byte

	// DeletedKeys accumulates keys passed to Delete.
	DeletedKeys []string

	// FailGet, FailPut and FailDelete force the corresponding operation to
	// return an error.
	FailGet    bool
	FailPut    bool
	FailDelete bool
}

func NewMockStore() *MockStore {
	return &MockStore{
		Blobs: make(map[string][]byte),
	}
}

func (m *MockStore) Put(_ context.Context, key string, data []byte) error {
	if m.FailPut {
		return fmt.Errorf("mock store put failure")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.Blobs[key] = buf
	return nil
}

func (m *MockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.FailGet {
		return nil, fmt.Errorf("mock store get failure")
	}
	data, ok := m.Blobs[key]
	if !ok {
		return nil, storage.NotFoundError{Key: key}
	}
	return data, nil
}

func (m *MockStore) Has(_ context.Context, key string) (bool, error) {
	if m.FailGet {
		return false, fmt.Errorf("mock store get failure")
	}
	_, ok := m.Blobs[key]
	return ok, nil
}

func (m *MockStore) Delete(_ context.Context, key string) error {
	m.DeletedKeys = append(m.DeletedKeys, key)
	if m.FailDelete {
		return fmt.Errorf("mock store delete failure")
	}
	delete(m.Blobs, key)
	return nil
}

func (m *MockStore) Close() error {
	return nil
}

package testutils

import (
	"context"
	"fmt"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

// MockVectorDriver is a test vector driver that records calls and returns
// configurable results.
type MockVectorDriver struct {
	Records []vector.Record

	// SearchResults is returned by Search, capped at topK.
	SearchResults []vector.Result

	// DeletedDocuments accumulates document ids passed to DeleteDocument.
	DeletedDocuments []string

	// FailSearch causes Search to return an error.
	FailSearch bool

	// FailDelete causes DeleteDocument to return an error.
	FailDelete bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Records:       make([]vector.Record, 0),
		SearchResults: make([]vector.Result, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, recs []vector.Record) error {
	m.Records = append(m.Records, recs...)
	return nil
}

func (m *MockVectorDriver) Search(_ context.Context, _ []float32, _ vector.Scope, topK int) ([]vector.Result, error) {
	if m.FailSearch {
		return nil, fmt.Errorf("mock search failure")
	}
	if len(m.SearchResults) < topK {
		return m.SearchResults, nil
	}
	return m.SearchResults[:topK], nil
}

func (m *MockVectorDriver) DeleteDocument(_ context.Context, documentID string) error {
	m.DeletedDocuments = append(m.DeletedDocuments, documentID)
	if m.FailDelete {
		return fmt.Errorf("mock delete failure")
	}
	return nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	return len(m.Records), nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

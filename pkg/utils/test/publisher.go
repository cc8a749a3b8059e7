package testutils

import (
	"context"
	"fmt"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/eventstream"
)

// MockPublisher is a test eventstream publisher that captures events.
type MockPublisher struct {
	DocumentDeleted []*eventstream.DocumentDeletedEvent
	MessageHandled  []*eventstream.MessageHandledEvent

	// FailPublish causes both publish methods to return an error.
	FailPublish bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishDocumentDeleted(_ context.Context, event *eventstream.DocumentDeletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	if m.FailPublish {
		return fmt.Errorf("mock publish failure")
	}
	m.DocumentDeleted = append(m.DocumentDeleted, event)
	return nil
}

func (m *MockPublisher) PublishMessageHandled(_ context.Context, event *eventstream.MessageHandledEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	if m.FailPublish {
		return fmt.Errorf("mock publish failure")
	}
	m.MessageHandled = append(m.MessageHandled, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

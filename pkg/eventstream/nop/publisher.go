package nop

import (
	"context"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishDocumentDeleted validates input and otherwise does nothing.
func (p *Publisher) PublishDocumentDeleted(_ context.Context, event *eventstream.DocumentDeletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return nil
}

// PublishMessageHandled validates input and otherwise does nothing.
func (p *Publisher) PublishMessageHandled(_ context.Context, event *eventstream.MessageHandledEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

package eventstream

import "context"

// Publisher publishes lifecycle events to an event stream backend.
type Publisher interface {
	PublishDocumentDeleted(ctx context.Context, event *DocumentDeletedEvent) error
	PublishMessageHandled(ctx context.Context, event *MessageHandledEvent) error
	Close() error
}

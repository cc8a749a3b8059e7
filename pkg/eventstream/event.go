package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentDeleted is emitted after a document deletion fan-out
	// completes, regardless of per-backend outcome.
	EventTypeDocumentDeleted = "veaconnect.document.deleted"

	// EventTypeMessageHandled is emitted after an inbound message has been
	// answered and persisted.
	EventTypeMessageHandled = "veaconnect.message.handled"
)

// DocumentDeletedEvent is a transport-neutral record of a deletion fan-out.
type DocumentDeletedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	DocumentID string `json:"document_id,omitempty"`
	BlobKey    string `json:"blob_key,omitempty"`

	BlobDeleted       bool `json:"blob_deleted"`
	CacheDeleted      bool `json:"cache_deleted"`
	EmbeddingsDeleted bool `json:"embeddings_deleted"`

	// Errors holds one message per failed backend, empty on full success.
	Errors []string `json:"errors,omitempty"`
}

// MessageHandledEvent is a transport-neutral record of a handled turn.
type MessageHandledEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	ConversationID string `json:"conversation_id"`
	Channel        string `json:"channel,omitempty"`
	DurationMs     int64  `json:"duration_ms"`

	// RetrievedChunks counts knowledge chunks injected into the prompt.
	RetrievedChunks int `json:"retrieved_chunks"`

	// Degraded is true when retrieval failed and the turn was answered
	// from conversation history alone.
	Degraded bool `json:"degraded"`
}

// Package conversation owns per-conversation message history across the
// fast cache tier and the durable store of record.
//
// The fast tier holds at most the active window of recent messages under a
// refreshing TTL; the durable tier holds the full, unbounded history. Reads
// fall back fast tier -> durable tier -> empty, and a conversation with no
// history is a valid state, not an error.
package conversation

import "time"

// Source tags which tier a context was loaded from, so each fallback branch
// is independently testable.
type Source string

const (
	// FromCache means the context was served from the fast tier.
	FromCache Source = "cache"

	// FromStore means the fast tier missed and the context was
	// reconstructed from the durable tier.
	FromStore Source = "store"

	// Empty means neither tier had history for the conversation.
	Empty Source = "empty"
)

// Message is a single conversation message. Insertion order is significant.
type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is a conversation's hot state as seen by the chat path.
type Context struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
	LastUpdated    time.Time `json:"last_updated"`

	// Source records which tier served this context. Not persisted.
	Source Source `json:"-"`
}

// storedConversation is the JSON wire form shared by both tiers. The fast
// tier stores the bounded window; the durable tier stores full history.
type storedConversation struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
	LastUpdated    time.Time `json:"last_updated"`
}

package cache

import "fmt"

// Key namespaces shared by the conversation manager, retrieval engine and
// deletion orchestrator. Centralized so deletion can derive every key a
// document may have left behind.

// ContextKey is the fast-tier key for a conversation's active window.
func ContextKey(conversationID string) string {
	return fmt.Sprintf("context:%s", conversationID)
}

// StateKey is the fast-tier lifecycle marker for a conversation.
func StateKey(conversationID string) string {
	return fmt.Sprintf("state:%s", conversationID)
}

// EmbeddingKey is the cache key for an embedding vector. The id is either a
// normalized text hash (query embeddings) or a document id (document-level
// embeddings).
func EmbeddingKey(id string) string {
	return fmt.Sprintf("embedding:%s", id)
}

// DocMetaKey is the cache key for document metadata.
func DocMetaKey(documentID string) string {
	return fmt.Sprintf("docmeta:%s", documentID)
}

// DocChunksKey is the cache key for a document's chunk marker.
func DocChunksKey(documentID string) string {
	return fmt.Sprintf("docchunks:%s", documentID)
}

// DocumentKeys returns every cache key a document may own, in the order the
// deletion orchestrator attempts them.
func DocumentKeys(documentID string) []string {
	return []string{
		EmbeddingKey(documentID),
		DocMetaKey(documentID),
		DocChunksKey(documentID),
	}
}

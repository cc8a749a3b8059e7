// Package deletion removes a document from every backend that may hold a
// trace of it: the durable blob store, the fast cache tier, and the vector
// index. The fan-out is best effort per backend; the result reports exactly
// which backends succeeded and which failed.
package deletion

import "errors"

// Backend names as they appear in Result.Errors, in reporting order.
const (
	BackendBlob       = "blob"
	BackendCache      = "cache"
	BackendEmbeddings = "embeddings"
)

// ErrMissingIdentifiers is returned when a request names neither a document
// id nor a blob key. No backend is touched in that case.
var ErrMissingIdentifiers = errors.New("at least one of document id or blob key is required")

// Request identifies what to delete. Either field may be empty, but not
// both. A backend whose identifier is absent counts as trivially deleted.
type Request struct {
	// DocumentID drives the cache and vector index deletions.
	DocumentID string `json:"document_id"`

	// BlobKey drives the blob store deletion.
	BlobKey string `json:"blob_key"`
}

// BackendError describes one backend's failure during a fan-out.
type BackendError struct {
	Backend string `json:"backend"`
	Message string `json:"message"`
}

// Result reports the outcome of a deletion fan-out per backend.
type Result struct {
	BlobDeleted       bool `json:"blob_deleted"`
	CacheDeleted      bool `json:"cache_deleted"`
	EmbeddingsDeleted bool `json:"embeddings_deleted"`

	// Errors lists failed backends in blob, cache, embeddings order.
	Errors []BackendError `json:"errors,omitempty"`
}

// Success reports whether every backend completed.
func (r Result) Success() bool {
	return len(r.Errors) == 0
}

// ErrorMessages flattens Errors into one string per failed backend.
func (r Result) ErrorMessages() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		messages = append(messages, e.Backend+": "+e.Message)
	}
	return messages
}

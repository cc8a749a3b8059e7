// Package vector provides interfaces and implementations for storing and
// ranking embedding vectors over document chunks.
package vector

import (
	"context"
	"time"
)

// Record is a stored chunk embedding with its source text and metadata.
// DocumentID and ChunkID are unique together.
type Record struct {
	// DocumentID identifies the logical document the chunk belongs to.
	DocumentID string

	// ChunkID identifies the chunk within its document.
	ChunkID string

	// Embedding is the vector representation of the chunk text. Its length
	// is fixed per deployment.
	Embedding []float32

	// SourceText is the chunk's plain text, returned alongside search hits
	// so callers can assemble an enriched generation context.
	SourceText string

	// CreatedAt orders records for tie-breaking equal similarity scores.
	CreatedAt time.Time
}

// Result represents a search result with its similarity score.
type Result struct {
	Record

	// Score is the cosine similarity to the query vector
	// (higher = more similar).
	Score float64
}

// Scope restricts a search to a subset of the corpus. The zero value means
// the whole corpus.
type Scope struct {
	// DocumentID, when non-empty, restricts the search to one document's
	// chunks.
	DocumentID string
}

// Driver handles storage and retrieval of chunk embeddings.
type Driver interface {
	// Add stores records. A record with an existing (DocumentID, ChunkID)
	// pair replaces the stored one. Records whose embedding length does not
	// match the driver's configured dimensionality are rejected.
	Add(ctx context.Context, recs []Record) error

	// Search returns the topK records most similar to the query embedding
	// within scope, ordered by descending score. Fewer candidates than topK
	// returns all of them; an empty candidate set returns an empty slice,
	// not an error.
	Search(ctx context.Context, embedding []float32, scope Scope, topK int) ([]Result, error)

	// DeleteDocument removes every record belonging to documentID.
	// Deleting a document with no records succeeds.
	DeleteDocument(ctx context.Context, documentID string) error

	// Count reports the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}

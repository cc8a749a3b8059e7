// Package rag provides retrieval-augmented generation support: embedding
// text with a write-through embedding cache, and ranking cached knowledge
// chunks by cosine similarity to a query.
package rag

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cache"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/embeddings"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

const (
	// DefaultTopK is the result cap used when a query does not specify one.
	DefaultTopK = 5

	// DefaultEmbeddingTTL is how long computed embeddings stay cached. One
	// text always hashes to the same key, so entries are safe to share
	// across conversations.
	DefaultEmbeddingTTL = 24 * time.Hour
)

// Config holds tunables for the retrieval engine.
type Config struct {
	// TopK is the default result cap for searches.
	TopK int

	// EmbeddingTTL is the cache lifetime of computed embeddings.
	EmbeddingTTL time.Duration

	// Dimensions, when non-zero, is the expected embedding length. Provider
	// responses of any other length are rejected.
	Dimensions int
}

// Engine embeds queries and ranks stored chunks against them.
type Engine struct {
	embedder embeddings.Embedder
	vectors  vector.Driver
	cache    cache.Driver
	config   Config
	logger   *zap.Logger
}

// NewEngine creates a retrieval engine. Zero config fields fall back to the
// package defaults.
func NewEngine(embedder embeddings.Embedder, vectors vector.Driver, c cache.Driver, config Config, logger *zap.Logger) *Engine {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.EmbeddingTTL <= 0 {
		config.EmbeddingTTL = DefaultEmbeddingTTL
	}

	return &Engine{
		embedder: embedder,
		vectors:  vectors,
		cache:    c,
		config:   config,
		logger:   logger,
	}
}

// TextHash returns the cache key hash for a text: md5 over the trimmed,
// whitespace-collapsed form, so trivial formatting differences share one
// cache entry.
func TextHash(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Embed returns the embedding for text, serving from the fast tier when a
// previous call already computed it. Cache failures fall through to the
// provider; only provider failures surface as errors.
func (e *Engine) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingKey(TextHash(text))

	if cached, ok := e.getCached(ctx, key); ok {
		return cached, nil
	}

	embedding, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if e.config.Dimensions > 0 && len(embedding) != e.config.Dimensions {
		return nil, fmt.Errorf("%w: provider returned %d dimensions, expected %d",
			vector.ErrDimensionMismatch, len(embedding), e.config.Dimensions)
	}

	e.putCached(ctx, key, embedding)

	return embedding, nil
}

// Search ranks stored chunks against a precomputed query embedding. A
// non-positive topK falls back to the configured default.
func (e *Engine) Search(ctx context.Context, embedding []float32, scope vector.Scope, topK int) ([]vector.Result, error) {
	if topK <= 0 {
		topK = e.config.TopK
	}
	return e.vectors.Search(ctx, embedding, scope, topK)
}

// Retrieve embeds the query and returns the most similar stored chunks.
func (e *Engine) Retrieve(ctx context.Context, query string, scope vector.Scope, topK int) ([]vector.Result, error) {
	embedding, err := e.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.Search(ctx, embedding, scope, topK)
}

func (e *Engine) getCached(ctx context.Context, key string) ([]float32, bool) {
	raw, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("embedding cache read failed, computing fresh",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var embedding []float32
	if err := json.Unmarshal([]byte(raw), &embedding); err != nil {
		e.logger.Warn("corrupt cached embedding, computing fresh",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	if e.config.Dimensions > 0 && len(embedding) != e.config.Dimensions {
		return nil, false
	}

	return embedding, true
}

// putCached stores a computed embedding. Best effort.
func (e *Engine) putCached(ctx context.Context, key string, embedding []float32) {
	data, err := json.Marshal(embedding)
	if err != nil {
		return
	}

	if err := e.cache.Set(ctx, key, string(data), e.config.EmbeddingTTL); err != nil {
		e.logger.Debug("embedding cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

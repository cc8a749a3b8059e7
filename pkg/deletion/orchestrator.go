package deletion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cache"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/eventstream"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/storage"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

// DefaultBackendTimeout bounds each backend's deletion independently so one
// hung backend cannot stall the whole fan-out.
const DefaultBackendTimeout = 30 * time.Second

// Config holds tunables for the orchestrator.
type Config struct {
	// BackendTimeout bounds each backend deletion.
	BackendTimeout time.Duration
}

// Orchestrator fans a deletion out across the blob store, the cache tier
// and the vector index.
type Orchestrator struct {
	store     storage.Driver
	cache     cache.Driver
	vectors   vector.Driver
	publisher eventstream.Publisher
	config    Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrchestrator creates a deletion orchestrator.
func NewOrchestrator(store storage.Driver, c cache.Driver, vectors vector.Driver, publisher eventstream.Publisher, config Config, logger *zap.Logger) *Orchestrator {
	return NewOrchestratorWithClock(store, c, vectors, publisher, config, logger, time.Now)
}

// NewOrchestratorWithClock is NewOrchestrator with an injected clock for tests.
func NewOrchestratorWithClock(store storage.Driver, c cache.Driver, vectors vector.Driver, publisher eventstream.Publisher, config Config, logger *zap.Logger, now func() time.Time) *Orchestrator {
	if config.BackendTimeout <= 0 {
		config.BackendTimeout = DefaultBackendTimeout
	}

	return &Orchestrator{
		store:     store,
		cache:     c,
		vectors:   vectors,
		publisher: publisher,
		config:    config,
		logger:    logger,
		now:       now,
	}
}

// Delete removes the document from all three backends concurrently and
// reports per-backend outcomes. A backend whose identifier is absent from
// the request counts as trivially deleted. The returned error is non-nil
// only for invalid requests; partial failures live in the Result.
//
// Running Delete twice for the same request succeeds both times.
func (o *Orchestrator) Delete(ctx context.Context, req Request) (Result, error) {
	if req.DocumentID == "" && req.BlobKey == "" {
		return Result{}, ErrMissingIdentifiers
	}

	// Fixed slots keep error reporting order independent of goroutine
	// scheduling.
	var (
		wg   sync.WaitGroup
		errs [3]error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		errs[0] = o.withTimeout(ctx, o.deleteBlob(req.BlobKey))
	}()
	go func() {
		defer wg.Done()
		errs[1] = o.withTimeout(ctx, o.deleteCacheEntries(req.DocumentID))
	}()
	go func() {
		defer wg.Done()
		errs[2] = o.withTimeout(ctx, o.deleteEmbeddings(req.DocumentID))
	}()
	wg.Wait()

	result := Result{
		BlobDeleted:       errs[0] == nil,
		CacheDeleted:      errs[1] == nil,
		EmbeddingsDeleted: errs[2] == nil,
	}
	for i, backend := range []string{BackendBlob, BackendCache, BackendEmbeddings} {
		if errs[i] != nil {
			result.Errors = append(result.Errors, BackendError{
				Backend: backend,
				Message: errs[i].Error(),
			})
			o.logger.Error("backend deletion failed",
				zap.String("backend", backend),
				zap.String("document_id", req.DocumentID),
				zap.String("blob_key", req.BlobKey),
				zap.Error(errs[i]),
			)
		}
	}

	o.publishResult(ctx, req, result)

	return result, nil
}

func (o *Orchestrator) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.config.BackendTimeout)
	defer cancel()
	return fn(ctx)
}

func (o *Orchestrator) deleteBlob(blobKey string) func(context.Context) error {
	return func(ctx context.Context) error {
		if blobKey == "" {
			return nil
		}
		if err := o.store.Delete(ctx, blobKey); err != nil {
			return fmt.Errorf("deleting blob %q: %w", blobKey, err)
		}
		return nil
	}
}

func (o *Orchestrator) deleteCacheEntries(documentID string) func(context.Context) error {
	return func(ctx context.Context) error {
		if documentID == "" {
			return nil
		}
		for _, key := range cache.DocumentKeys(documentID) {
			if err := o.cache.Delete(ctx, key); err != nil {
				return fmt.Errorf("deleting cache key %q: %w", key, err)
			}
		}
		return nil
	}
}

func (o *Orchestrator) deleteEmbeddings(documentID string) func(context.Context) error {
	return func(ctx context.Context) error {
		if documentID == "" {
			return nil
		}
		if err := o.vectors.DeleteDocument(ctx, documentID); err != nil {
			return fmt.Errorf("deleting embeddings for %q: %w", documentID, err)
		}
		return nil
	}
}

// publishResult emits the fan-out record. Best effort; the deletion outcome
// does not depend on the event stream.
func (o *Orchestrator) publishResult(ctx context.Context, req Request, result Result) {
	event := &eventstream.DocumentDeletedEvent{
		SchemaVersion:     eventstream.SchemaVersionV1,
		EventType:         eventstream.EventTypeDocumentDeleted,
		EventID:           uuid.NewString(),
		EmittedAt:         o.now().UTC(),
		DocumentID:        req.DocumentID,
		BlobKey:           req.BlobKey,
		BlobDeleted:       result.BlobDeleted,
		CacheDeleted:      result.CacheDeleted,
		EmbeddingsDeleted: result.EmbeddingsDeleted,
		Errors:            result.ErrorMessages(),
	}

	if err := o.publisher.PublishDocumentDeleted(ctx, event); err != nil {
		o.logger.Warn("publishing deletion event failed",
			zap.String("document_id", req.DocumentID),
			zap.Error(err),
		)
	}
}

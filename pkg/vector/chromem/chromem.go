// Package chromem provides a vector driver backed by chromem-go, a pure Go
// embedded vector database with optional on-disk persistence.
package chromem

import (
	"context"
	"fmt"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for chunk embeddings.
	DefaultCollectionName = "veaconnect"

	metaDocumentID = "document_id"
	metaChunkID    = "chunk_id"
	metaCreatedAt  = "created_at"
)

// Driver implements vector.Driver using a single chromem collection with
// document ids carried in metadata.
type Driver struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimensions uint
	logger     *zap.Logger
}

// Config holds configuration for the chromem driver.
type Config struct {
	// Path is the on-disk persistence directory. Empty means in-memory only.
	Path string

	// CollectionName defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the expected embedding length; mismatched records are
	// rejected on Add.
	Dimensions uint
}

// NewDriver creates a chromem-backed vector driver.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	var db *chromem.DB
	var err error
	if c.Path != "" {
		db, err = chromem.NewPersistentDB(c.Path, false)
		if err != nil {
			return nil, fmt.Errorf("%w: opening chromem db: %v", vector.ErrConnection, err)
		}
	} else {
		db = chromem.NewDB()
	}

	name := c.CollectionName
	if name == "" {
		name = DefaultCollectionName
	}

	// Embeddings are always supplied by the caller, so no embedding
	// function is configured (chromem's default cosine distance applies).
	col, err := db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("getting or creating collection %q: %w", name, err)
	}

	logger.Info("chromem vector driver initialized",
		zap.String("collection", name),
		zap.String("path", c.Path),
	)

	return &Driver{
		db:         db,
		collection: col,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// Add stores records, keyed by "documentID/chunkID" so re-adding a chunk
// replaces it.
func (d *Driver) Add(ctx context.Context, recs []vector.Record) error {
	if len(recs) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(recs))
	for _, rec := range recs {
		if d.dimensions != 0 && uint(len(rec.Embedding)) != d.dimensions {
			return fmt.Errorf("%w: record %s/%s has %d dimensions, want %d",
				vector.ErrDimensionMismatch, rec.DocumentID, rec.ChunkID,
				len(rec.Embedding), d.dimensions)
		}

		docs = append(docs, chromem.Document{
			ID:        rec.DocumentID + "/" + rec.ChunkID,
			Content:   rec.SourceText,
			Embedding: rec.Embedding,
			Metadata: map[string]string{
				metaDocumentID: rec.DocumentID,
				metaChunkID:    rec.ChunkID,
				metaCreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339Nano),
			},
		})
	}

	if err := d.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	d.logger.Debug("added records to chromem",
		zap.Int("count", len(recs)),
	)

	return nil
}

// Search finds the topK most similar records within scope.
func (d *Driver) Search(ctx context.Context, embedding []float32, scope vector.Scope, topK int) ([]vector.Result, error) {
	if topK <= 0 {
		return []vector.Result{}, nil
	}

	// chromem requires nResults <= collection size.
	count := d.collection.Count()
	if count == 0 {
		return []vector.Result{}, nil
	}
	if topK > count {
		topK = count
	}

	var where map[string]string
	if scope.DocumentID != "" {
		where = map[string]string{metaDocumentID: scope.DocumentID}
	}

	hits, err := d.collection.QueryEmbedding(ctx, embedding, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("querying chromem: %w", err)
	}

	results := make([]vector.Result, 0, len(hits))
	for _, hit := range hits {
		createdAt, err := time.Parse(time.RFC3339Nano, hit.Metadata[metaCreatedAt])
		if err != nil {
			d.logger.Warn("skipping record with malformed created_at",
				zap.String("id", hit.ID),
			)
			continue
		}

		results = append(results, vector.Result{
			Record: vector.Record{
				DocumentID: hit.Metadata[metaDocumentID],
				ChunkID:    hit.Metadata[metaChunkID],
				Embedding:  hit.Embedding,
				SourceText: hit.Content,
				CreatedAt:  createdAt,
			},
			Score: float64(hit.Similarity),
		})
	}

	return results, nil
}

// DeleteDocument removes every record belonging to documentID.
func (d *Driver) DeleteDocument(ctx context.Context, documentID string) error {
	if d.collection.Count() == 0 {
		return nil
	}

	where := map[string]string{metaDocumentID: documentID}
	if err := d.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}

	d.logger.Debug("deleted document from chromem",
		zap.String("document_id", documentID),
	)

	return nil
}

// Count reports the number of stored records.
func (d *Driver) Count(_ context.Context) (int, error) {
	return d.collection.Count(), nil
}

// Close is a no-op; chromem persists on write when configured with a path.
func (d *Driver) Close() error {
	return nil
}

var _ vector.Driver = (*Driver)(nil)

// Package memory provides an in-process vector driver backed by a linear
// cosine-similarity scan. It is the reference implementation for the ranking
// semantics every driver must honor: zero vectors and dimension mismatches
// are excluded from ranking, results are ordered by descending score, and
// equal scores break ties by newest CreatedAt.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

// scoreTolerance is the floating-point tolerance within which two scores
// are considered equal for tie-breaking.
const scoreTolerance = 1e-6

// Driver implements vector.Driver with an in-memory linear scan.
type Driver struct {
	mu sync.RWMutex

	// records is keyed by "documentID/chunkID".
	records map[string]vector.Record

	// dimensions, when non-zero, rejects records of any other length.
	dimensions uint

	logger *zap.Logger
}

// Config holds configuration for the in-memory vector driver.
type Config struct {
	// Dimensions is the expected embedding length. Zero disables the
	// check on Add (mismatched candidates are still skipped at query time).
	Dimensions uint
}

// NewDriver creates an in-memory vector driver.
func NewDriver(c Config, logger *zap.Logger) *Driver {
	return &Driver{
		records:    make(map[string]vector.Record),
		dimensions: c.Dimensions,
		logger:     logger,
	}
}

func recordKey(documentID, chunkID string) string {
	return documentID + "/" + chunkID
}

// Add stores records, replacing any with the same (DocumentID, ChunkID).
func (d *Driver) Add(_ context.Context, recs []vector.Record) error {
	if len(recs) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, rec := range recs {
		if d.dimensions != 0 && uint(len(rec.Embedding)) != d.dimensions {
			return fmt.Errorf("%w: record %s/%s has %d dimensions, want %d",
				vector.ErrDimensionMismatch, rec.DocumentID, rec.ChunkID,
				len(rec.Embedding), d.dimensions)
		}

		d.records[recordKey(rec.DocumentID, rec.ChunkID)] = rec
	}

	d.logger.Debug("added records to in-memory index",
		zap.Int("count", len(recs)),
	)

	return nil
}

// Search ranks every in-scope candidate by cosine similarity to the query
// embedding and returns the topK. Candidates with a zero vector or a
// mismatched dimensionality are skipped rather than failing the search.
func (d *Driver) Search(_ context.Context, embedding []float32, scope vector.Scope, topK int) ([]vector.Result, error) {
	if topK <= 0 {
		return []vector.Result{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]vector.Result, 0, len(d.records))
	skipped := 0
	for _, rec := range d.records {
		if scope.DocumentID != "" && rec.DocumentID != scope.DocumentID {
			continue
		}

		score, ok := vector.Cosine(embedding, rec.Embedding)
		if !ok {
			skipped++
			continue
		}

		results = append(results, vector.Result{Record: rec, Score: score})
	}

	if skipped > 0 {
		d.logger.Debug("skipped unrankable candidates",
			zap.Int("skipped", skipped),
		)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if math.Abs(results[i].Score-results[j].Score) <= scoreTolerance {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// DeleteDocument removes every record belonging to documentID. Removing a
// document with no records succeeds.
func (d *Driver) DeleteDocument(_ context.Context, documentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for key, rec := range d.records {
		if rec.DocumentID == documentID {
			delete(d.records, key)
			removed++
		}
	}

	d.logger.Debug("deleted document from in-memory index",
		zap.String("document_id", documentID),
		zap.Int("records", removed),
	)

	return nil
}

// Count reports the number of stored records.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records), nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

var _ vector.Driver = (*Driver)(nil)

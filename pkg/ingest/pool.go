// Package ingest provides an asynchronous pipeline that turns uploaded
// documents into searchable knowledge: chunk the text, embed each chunk,
// index the embeddings, and mark the document in the cache tier.
//
// The pool decouples ingestion from the upload hot path; callers enqueue a
// document and move on.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cache"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/embeddings"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// DefaultDocTTL is the cache lifetime of document markers.
const DefaultDocTTL = 7 * 24 * time.Hour

// Job is one document to ingest.
type Job struct {
	// DocumentID identifies the document across cache, store and index.
	DocumentID string

	// BlobKey is where the raw upload lives in the blob store.
	BlobKey string

	// Text is the extracted plain text to chunk and embed.
	Text string
}

// DocMeta is the cached per-document ingestion record.
type DocMeta struct {
	DocumentID string    `json:"document_id"`
	BlobKey    string    `json:"blob_key,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Config is the configuration options for the ingest pool.
type Config struct {
	// Cache receives the document markers after indexing.
	Cache cache.Driver

	// Embedder generates chunk embeddings.
	Embedder embeddings.Embedder

	// Vectors is the index that makes chunks searchable.
	Vectors vector.Driver

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// ChunkSize and Overlap configure chunking, in words.
	ChunkSize int
	Overlap   int

	// DocTTL is the cache lifetime of document markers.
	DocTTL time.Duration

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool ingests documents asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
	now    func() time.Time
}

// NewPool creates a new ingest pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	return NewPoolWithClock(c, time.Now)
}

// NewPoolWithClock is NewPool with an injected clock for tests.
func NewPoolWithClock(c *Config, now func() time.Time) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.DocTTL <= 0 {
		c.DocTTL = DefaultDocTTL
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	p := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
		now:    now,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a document for ingestion.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("ingest job queued",
			zap.String("document_id", job.DocumentID),
		)
		return true
	default:
		p.logger.Error("ingest job not queued, queue full, job dropped",
			zap.String("document_id", job.DocumentID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the API server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("ingest worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("ingest worker stopped", zap.Uint("worker_id", id))
}

// processJob chunks, embeds and indexes one document, then marks it in the
// cache. A chunk whose embedding fails is skipped; the rest still index.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	now := p.now().UTC()

	chunks := Chunk(job.Text, p.config.ChunkSize, p.config.Overlap)
	if len(chunks) == 0 {
		p.logger.Warn("document has no text to ingest",
			zap.String("document_id", job.DocumentID),
		)
		return
	}

	records := make([]vector.Record, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := p.config.Embedder.Embed(ctx, chunk)
		if err != nil {
			p.logger.Warn("failed to embed chunk",
				zap.String("document_id", job.DocumentID),
				zap.Int("chunk", i),
				zap.Error(err),
			)
			continue
		}

		records = append(records, vector.Record{
			DocumentID: job.DocumentID,
			ChunkID:    strconv.Itoa(i),
			Embedding:  embedding,
			SourceText: chunk,
			CreatedAt:  now,
		})
	}

	if len(records) == 0 {
		p.logger.Error("no chunks could be embedded",
			zap.String("document_id", job.DocumentID),
		)
		return
	}

	if err := p.config.Vectors.Add(ctx, records); err != nil {
		p.logger.Error("indexing document failed",
			zap.String("document_id", job.DocumentID),
			zap.Error(err),
		)
		return
	}

	p.markDocument(ctx, job, len(records), now)

	p.logger.Info("document ingested",
		zap.String("document_id", job.DocumentID),
		zap.Int("chunks", len(records)),
	)
}

// markDocument writes the cache markers that deletion later sweeps.
// Errors are logged but not returned; the index is already authoritative.
func (p *Pool) markDocument(ctx context.Context, job Job, chunkCount int, now time.Time) {
	meta, err := json.Marshal(DocMeta{
		DocumentID: job.DocumentID,
		BlobKey:    job.BlobKey,
		ChunkCount: chunkCount,
		IngestedAt: now,
	})
	if err != nil {
		return
	}

	if err := p.config.Cache.Set(ctx, cache.DocMetaKey(job.DocumentID), string(meta), p.config.DocTTL); err != nil {
		p.logger.Warn("failed to cache document metadata",
			zap.String("document_id", job.DocumentID),
			zap.Error(err),
		)
	}

	if err := p.config.Cache.Set(ctx, cache.DocChunksKey(job.DocumentID), strconv.Itoa(chunkCount), p.config.DocTTL); err != nil {
		p.logger.Warn("failed to cache chunk marker",
			zap.String("document_id", job.DocumentID),
			zap.Error(err),
		)
	}
}

// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	// vec0 virtual tables use integer rowids, so chunk identity and
	// metadata live in a mapping table keyed to the same rowid.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL,
			chunk_id TEXT NOT NULL,
			source_text TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			UNIQUE(doc_id, chunk_id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	// distance_metric=cosine keeps KNN distances convertible to the cosine
	// scores the rest of the system ranks by (distance = 1 - similarity).
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{
		db:     db,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Add stores records. A record with an existing (DocumentID, ChunkID) pair
// replaces the stored one.
func (d *Driver) Add(ctx context.Context, recs []vector.Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		embBlob := serializeFloat32(rec.Embedding)

		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM vec_chunks WHERE doc_id = ? AND chunk_id = ?`,
			rec.DocumentID, rec.ChunkID,
		).Scan(&existingRowID)

		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE vec_chunks SET source_text = ?, created_at = ? WHERE rowid = ?`,
				rec.SourceText, rec.CreatedAt.UTC().Format(time.RFC3339Nano), existingRowID,
			); err != nil {
				return fmt.Errorf("updating chunk %s/%s: %w", rec.DocumentID, rec.ChunkID, err)
			}

			// Update embedding in vec0 table via DELETE + INSERT
			// (vec0 does not support UPDATE)
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_embeddings WHERE rowid = ?`, existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for chunk %s/%s: %w", rec.DocumentID, rec.ChunkID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
				existingRowID, embBlob,
			); err != nil {
				return fmt.Errorf("re-inserting embedding for chunk %s/%s: %w", rec.DocumentID, rec.ChunkID, err)
			}
		case sql.ErrNoRows:
			result, err := tx.ExecContext(ctx,
				`INSERT INTO vec_chunks(doc_id, chunk_id, source_text, created_at) VALUES (?, ?, ?, ?)`,
				rec.DocumentID, rec.ChunkID, rec.SourceText, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
			)
			if err != nil {
				return fmt.Errorf("inserting chunk %s/%s: %w", rec.DocumentID, rec.ChunkID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for chunk %s/%s: %w", rec.DocumentID, rec.ChunkID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
				rowID, embBlob,
			); err != nil {
				return fmt.Errorf("inserting embedding for chunk %s/%s: %w", rec.DocumentID, rec.ChunkID, err)
			}
		default:
			return fmt.Errorf("checking for existing chunk %s/%s: %w", rec.DocumentID, rec.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added records to sqlite-vec",
		zap.Int("count", len(recs)),
	)

	return nil
}

// Search finds the topK records most similar to the query embedding within
// scope, using vec0's KNN MATCH and joining back for chunk metadata.
func (d *Driver) Search(ctx context.Context, embedding []float32, scope vector.Scope, topK int) ([]vector.Result, error) {
	if topK <= 0 {
		return []vector.Result{}, nil
	}

	queryBlob := serializeFloat32(embedding)

	const selectClause = `
		SELECT
			c.doc_id,
			c.chunk_id,
			c.source_text,
			c.created_at,
			ve.embedding,
			ve.distance
		FROM vec_embeddings ve
		INNER JOIN vec_chunks c ON c.rowid = ve.rowid
	`

	// A document scope must constrain the KNN itself, not the join: vec0
	// pushes a rowid IN (...) constraint into the scan, so the k nearest
	// are taken among the scoped document's chunks. Filtering after MATCH
	// would return only the overlap with the global top-k.
	var (
		query string
		args  []any
	)
	if scope.DocumentID != "" {
		query = selectClause + `
		WHERE ve.embedding MATCH ?
			AND ve.rowid IN (SELECT rowid FROM vec_chunks WHERE doc_id = ?)
			AND ve.k = ?
		ORDER BY ve.distance`
		args = []any{queryBlob, scope.DocumentID, topK}
	} else {
		query = selectClause + `
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance`
		args = []any{queryBlob, topK}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.Result
	for rows.Next() {
		var docID, chunkID, sourceText, createdAt string
		var embBlob []byte
		var distance float64
		if err := rows.Scan(&docID, &chunkID, &sourceText, &createdAt, &embBlob, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			d.logger.Warn("skipping record with malformed created_at",
				zap.String("doc_id", docID),
				zap.String("chunk_id", chunkID),
			)
			continue
		}

		emb, err := deserializeFloat32(embBlob)
		if err != nil {
			d.logger.Warn("skipping record with malformed embedding",
				zap.String("doc_id", docID),
				zap.String("chunk_id", chunkID),
			)
			continue
		}

		results = append(results, vector.Result{
			Record: vector.Record{
				DocumentID: docID,
				ChunkID:    chunkID,
				Embedding:  emb,
				SourceText: sourceText,
				CreatedAt:  ts,
			},
			// cosine distance = 1 - cosine similarity
			Score: 1.0 - distance,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// DeleteDocument removes every record belonging to documentID. A document
// with no records deletes successfully.
func (d *Driver) DeleteDocument(ctx context.Context, documentID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT rowid FROM vec_chunks WHERE doc_id = ?`, documentID,
	)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vec_chunks WHERE doc_id = ?`, documentID,
	); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted document from sqlite-vec",
		zap.String("document_id", documentID),
		zap.Int("records", len(rowIDs)),
	)

	return nil
}

// Count reports the number of stored records.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vec_chunks`,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*Driver)(nil)

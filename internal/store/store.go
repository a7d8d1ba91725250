// Package store persists syncmind documents in PostgreSQL.
//
// The documents table is the durable side of the index/store pair: the
// identity `position` column fixes a stable enumeration order equal to
// insertion order, which is what lets an in-memory index position be
// resolved back to a row. Rows are never updated or deleted by the
// service itself.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/syncmind/syncmind/internal/log"
)

// Document is one indexed item: a short title mapped to external content.
// Embedding is produced once at ingest time from Title and stored
// verbatim; it is never recomputed.
type Document struct {
	ID        uuid.UUID
	Title     string
	Type      string
	Link      string
	OwnerID   uuid.UUID
	Embedding []float32
	CreatedAt time.Time
}

// IndexedEmbedding is one (id, embedding) pair from the ordered full
// scan used to rebuild the in-memory index.
type IndexedEmbedding struct {
	ID        uuid.UUID
	Embedding []float32
}

const documentCols = `id, title, doc_type, link, owner_id, created_at`

// Store provides access to the documents table.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool, logger log.Logger) (*Store, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Insert adds a document and returns its database-generated id.
func (s *Store) Insert(ctx context.Context, doc Document) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents (title, doc_type, link, owner_id, embedding)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		doc.Title, doc.Type, doc.Link, doc.OwnerID, pgvector.NewVector(doc.Embedding),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting document: %w", err)
	}

	s.logger.Debug("inserted document", "id", id, "title", doc.Title)
	return id, nil
}

// ScanEmbeddings returns every document's (id, embedding) pair in stable
// enumeration order (ascending position, equal to insertion order).
func (s *Store) ScanEmbeddings(ctx context.Context) ([]IndexedEmbedding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, embedding FROM documents ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("scanning embeddings: %w", err)
	}
	defer rows.Close()

	var out []IndexedEmbedding
	for rows.Next() {
		var (
			id  uuid.UUID
			vec pgvector.Vector
		)
		if err := rows.Scan(&id, &vec); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		out = append(out, IndexedEmbedding{ID: id, Embedding: vec.Slice()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embedding rows: %w", err)
	}

	return out, nil
}

// GetByPosition reads the document at the given ordinal position of the
// same stable enumeration ScanEmbeddings uses. Returns found=false when
// the position is beyond the current document count.
func (s *Store) GetByPosition(ctx context.Context, position int) (Document, bool, error) {
	if position < 0 {
		return Document{}, false, nil
	}

	var doc Document
	err := s.pool.QueryRow(ctx,
		`SELECT `+documentCols+` FROM documents ORDER BY position LIMIT 1 OFFSET $1`,
		position,
	).Scan(&doc.ID, &doc.Title, &doc.Type, &doc.Link, &doc.OwnerID, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("reading document at position %d: %w", position, err)
	}

	return doc, true, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

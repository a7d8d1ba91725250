package search

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/syncmind/syncmind/internal/index"
	"github.com/syncmind/syncmind/internal/log"
	"github.com/syncmind/syncmind/internal/store"
)

// DocumentStore defines the storage operations the search package
// needs. Interfaces are defined by the consumer; store.Store satisfies
// this one.
type DocumentStore interface {
	// Insert persists a document and returns its generated id.
	Insert(ctx context.Context, doc store.Document) (uuid.UUID, error)

	// ScanEmbeddings streams every stored embedding in insertion order.
	ScanEmbeddings(ctx context.Context) ([]store.IndexedEmbedding, error)

	// GetByPosition reads the document at the given insertion ordinal.
	// found is false when the ordinal is past the end of the table.
	GetByPosition(ctx context.Context, position int) (store.Document, bool, error)
}

// Synchronizer keeps the in-memory vector index consistent with the
// document store. Its single invariant: the vector at index position i
// always belongs to the i-th document in insertion order.
//
// Writers are serialized by a mutex so that a store insert and the
// matching index append happen as one step relative to other writers.
// Reads load the current index atomically and never wait on a writer.
type Synchronizer struct {
	store  DocumentStore
	logger log.Logger

	writeMu sync.Mutex
	idx     atomic.Pointer[index.Flat]
}

// NewSynchronizer creates a synchronizer over an empty index of the
// given dimension. Call Rebuild before serving queries.
func NewSynchronizer(docs DocumentStore, dimension int, logger log.Logger) (*Synchronizer, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	idx, err := index.New(dimension)
	if err != nil {
		return nil, err
	}
	s := &Synchronizer{store: docs, logger: logger}
	s.idx.Store(idx)
	return s, nil
}

// Rebuild replaces the index contents from the store, reading every
// embedding in insertion order. A stored embedding whose dimension does
// not match the index is a corrupt row: Rebuild logs which document is
// at fault and fails, leaving the previous index contents in place.
func (s *Synchronizer) Rebuild(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rows, err := s.store.ScanEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("scanning embeddings: %w", err)
	}

	fresh, err := index.New(s.idx.Load().Dimension())
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := fresh.Append(row.ID, row.Embedding); err != nil {
			s.logger.Warn("stored embedding has wrong dimension",
				"document_id", row.ID,
				"dimension", len(row.Embedding),
				"expected", fresh.Dimension())
			return fmt.Errorf("rebuilding index: document %s: %w", row.ID, err)
		}
	}

	s.idx.Store(fresh)
	s.logger.Info("index rebuilt", "documents", fresh.Len())
	return nil
}

// RecordInsert persists the document and appends its embedding to the
// index as one serialized write. The embedding dimension is checked
// before the store insert so a mismatch cannot leave the store ahead of
// the index.
func (s *Synchronizer) RecordInsert(ctx context.Context, doc store.Document) (uuid.UUID, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	idx := s.idx.Load()
	if len(doc.Embedding) != idx.Dimension() {
		return uuid.Nil, fmt.Errorf("embedding dimension %d: %w", len(doc.Embedding), index.ErrDimensionMismatch)
	}

	id, err := s.store.Insert(ctx, doc)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting document: %w", err)
	}
	if err := idx.Append(id, doc.Embedding); err != nil {
		// Unreachable after the pre-check, but a divergent index must
		// never be served silently.
		s.logger.Error("index append failed after store insert", "document_id", id, "error", err)
		return uuid.Nil, fmt.Errorf("appending to index: %w", err)
	}
	return id, nil
}

// Search runs a nearest-neighbor query against the current index.
func (s *Synchronizer) Search(query []float32, k int) ([]index.Match, error) {
	return s.idx.Load().Search(query, k)
}

// Len reports how many vectors the index currently holds.
func (s *Synchronizer) Len() int {
	return s.idx.Load().Len()
}

// Dimension reports the index vector dimension.
func (s *Synchronizer) Dimension() int {
	return s.idx.Load().Dimension()
}

// Package search implements the core document service: adding
// documents to the store and index as one synchronized write, and
// resolving nearest-neighbor queries back into stored documents.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/syncmind/syncmind/internal/enrich"
	"github.com/syncmind/syncmind/internal/log"
	"github.com/syncmind/syncmind/internal/store"
)

// DefaultTopK is how many nearest neighbors a search requests when the
// service is not configured otherwise.
const DefaultTopK = 1

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Enricher produces summaries for matched documents. Both methods
// always return a usable string; failures degrade inside the enricher.
type Enricher interface {
	Summary(ctx context.Context, link string) string
	SummaryFromText(ctx context.Context, text string) string
}

// Config configures the service.
type Config struct {
	// TopK is how many nearest neighbors to request per search.
	// DefaultTopK when zero.
	TopK int
}

// Service ties the synchronizer, store, embedder and enricher together
// behind the two operations the API exposes.
type Service struct {
	sync     *Synchronizer
	docs     DocumentStore
	embedder Embedder
	enricher Enricher
	topK     int
	logger   log.Logger
}

// New creates the document service.
func New(sync *Synchronizer, docs DocumentStore, embedder Embedder, enricher Enricher, cfg Config, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNop()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{
		sync:     sync,
		docs:     docs,
		embedder: embedder,
		enricher: enricher,
		topK:     topK,
		logger:   logger,
	}
}

// Add validates, embeds and stores a document. Validation happens
// before any external call, so a rejected request mutates nothing.
// The title is what gets embedded; it is the searchable surface of the
// document.
func (s *Service) Add(ctx context.Context, req AddRequest) (uuid.UUID, error) {
	if err := validateAdd(req); err != nil {
		return uuid.Nil, err
	}
	owner, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidOwnerID, req.OwnerID)
	}

	embedding, err := s.embedder.Embed(ctx, req.Title)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrEmbedderUnavailable, err)
	}

	id, err := s.sync.RecordInsert(ctx, store.Document{
		Title:     req.Title,
		Type:      req.Type,
		Link:      req.Link,
		OwnerID:   owner,
		Embedding: embedding,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	s.logger.Info("document added", "id", id, "title", req.Title, "type", req.Type)
	return id, nil
}

// Search resolves a free-text query to stored documents.
//
// A query containing a social-post link skips the index entirely: the
// raw query text is summarized and returned as the answer. Otherwise
// the query is embedded, the nearest neighbors are looked up, and each
// hit is resolved back to its document by insertion ordinal. A hit
// whose ordinal no longer resolves, or resolves to a different
// document, is discarded rather than patched. The best surviving match
// gets a live summary of its linked content.
func (s *Service) Search(ctx context.Context, query string) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}

	if enrich.ContainsSocialLink(query) {
		return Response{
			Social:  true,
			Summary: s.enricher.SummaryFromText(ctx, query),
		}, nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrEmbedderUnavailable, err)
	}

	if s.sync.Len() == 0 {
		return Response{}, ErrNoResults
	}

	matches, err := s.sync.Search(embedding, s.topK)
	if err != nil {
		return Response{}, fmt.Errorf("searching index: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, match := range matches {
		doc, found, err := s.docs.GetByPosition(ctx, match.Position)
		if err != nil {
			return Response{}, fmt.Errorf("%w: position %d: %v", ErrStoreRead, match.Position, err)
		}
		if !found {
			s.logger.Warn("index hit past end of store", "position", match.Position)
			continue
		}
		if doc.ID != match.ID {
			s.logger.Warn("index hit resolved to a different document",
				"position", match.Position,
				"index_id", match.ID,
				"store_id", doc.ID)
			continue
		}
		results = append(results, Result{
			ID:       doc.ID,
			Title:    doc.Title,
			Type:     doc.Type,
			Link:     doc.Link,
			OwnerID:  doc.OwnerID,
			Distance: match.Distance,
		})
	}
	if len(results) == 0 {
		return Response{}, ErrNoResults
	}

	// Enrichment runs after all index and store reads; only the best
	// match is worth a live fetch.
	results[0].Summary = s.enricher.Summary(ctx, results[0].Link)

	return Response{Results: results}, nil
}

func validateAdd(req AddRequest) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"title", req.Title},
		{"type", req.Type},
		{"link", req.Link},
		{"ownerId", req.OwnerID},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
	}
	return nil
}

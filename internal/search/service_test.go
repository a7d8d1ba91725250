package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/syncmind/syncmind/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testDimension = 4

// fakeStore is an in-memory DocumentStore with insertion-order
// positions, mirroring the real store's ordinal reads.
type fakeStore struct {
	mu        sync.Mutex
	docs      []store.Document
	insertErr error
	scanErr   error
	getErr    error
	inserts   int
}

func (f *fakeStore) Insert(_ context.Context, doc store.Document) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	f.inserts++
	doc.ID = uuid.New()
	f.docs = append(f.docs, doc)
	return doc.ID, nil
}

func (f *fakeStore) ScanEmbeddings(context.Context) ([]store.IndexedEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	rows := make([]store.IndexedEmbedding, len(f.docs))
	for i, doc := range f.docs {
		rows[i] = store.IndexedEmbedding{ID: doc.ID, Embedding: doc.Embedding}
	}
	return rows, nil
}

func (f *fakeStore) GetByPosition(_ context.Context, position int) (store.Document, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return store.Document{}, false, f.getErr
	}
	if position < 0 || position >= len(f.docs) {
		return store.Document{}, false, nil
	}
	return f.docs[position], true, nil
}

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   atomic.Int64
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 1, 1, 1}, nil
}

func (f *fakeEmbedder) Dimension() int { return testDimension }

type fakeEnricher struct {
	mu            sync.Mutex
	summaryCalls  int
	fromTextCalls int
	lastLink      string
	lastText      string
	summary       string
}

func (f *fakeEnricher) Summary(_ context.Context, link string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	f.lastLink = link
	if f.summary != "" {
		return f.summary
	}
	return "summary of " + link
}

func (f *fakeEnricher) SummaryFromText(_ context.Context, text string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fromTextCalls++
	f.lastText = text
	return "social summary"
}

func newTestService(t *testing.T, docs *fakeStore, embedder *fakeEmbedder, enricher *fakeEnricher, cfg Config) *Service {
	t.Helper()
	syn, err := NewSynchronizer(docs, testDimension, nil)
	if err != nil {
		t.Fatalf("NewSynchronizer: %v", err)
	}
	if err := syn.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return New(syn, docs, embedder, enricher, cfg, nil)
}

func addDoc(t *testing.T, svc *Service, title, link string) uuid.UUID {
	t.Helper()
	id, err := svc.Add(context.Background(), AddRequest{
		Title:   title,
		Type:    "article",
		Link:    link,
		OwnerID: uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("Add(%q): %v", title, err)
	}
	return id
}

func TestAddAndSearchRoundTrip(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"go concurrency patterns": {1, 0, 0, 0},
		"cooking pasta":           {0, 1, 0, 0},
	}}
	docs := &fakeStore{}
	enricher := &fakeEnricher{}
	svc := newTestService(t, docs, embedder, enricher, Config{})

	wantID := addDoc(t, svc, "go concurrency patterns", "https://example.com/go")
	addDoc(t, svc, "cooking pasta", "https://example.com/pasta")

	resp, err := svc.Search(context.Background(), "go concurrency patterns")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Social {
		t.Error("Social = true for a plain query")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}

	best := resp.Results[0]
	if best.ID != wantID {
		t.Errorf("best match id = %s, want %s", best.ID, wantID)
	}
	if best.Title != "go concurrency patterns" {
		t.Errorf("best match title = %q", best.Title)
	}
	if best.Distance != 0 {
		t.Errorf("exact match distance = %v, want 0", best.Distance)
	}
	if best.Summary != "summary of https://example.com/go" {
		t.Errorf("summary = %q", best.Summary)
	}
	if enricher.summaryCalls != 1 {
		t.Errorf("enricher called %d times, want 1", enricher.summaryCalls)
	}
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name string
		req  AddRequest
		want error
	}{
		{
			name: "missing title",
			req:  AddRequest{Type: "article", Link: "https://example.com", OwnerID: uuid.NewString()},
			want: ErrMissingField,
		},
		{
			name: "missing type",
			req:  AddRequest{Title: "t", Link: "https://example.com", OwnerID: uuid.NewString()},
			want: ErrMissingField,
		},
		{
			name: "missing link",
			req:  AddRequest{Title: "t", Type: "article", OwnerID: uuid.NewString()},
			want: ErrMissingField,
		},
		{
			name: "missing owner",
			req:  AddRequest{Title: "t", Type: "article", Link: "https://example.com"},
			want: ErrMissingField,
		},
		{
			name: "malformed owner",
			req:  AddRequest{Title: "t", Type: "article", Link: "https://example.com", OwnerID: "not-a-uuid"},
			want: ErrInvalidOwnerID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := &fakeEmbedder{}
			docs := &fakeStore{}
			svc := newTestService(t, docs, embedder, &fakeEnricher{}, Config{})

			_, err := svc.Add(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Add error = %v, want %v", err, tt.want)
			}
			if embedder.calls.Load() != 0 {
				t.Error("embedder was called for a rejected request")
			}
			if docs.inserts != 0 {
				t.Error("store was written for a rejected request")
			}
		})
	}
}

func TestAddEmbedderFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("backend down")}
	docs := &fakeStore{}
	svc := newTestService(t, docs, embedder, &fakeEnricher{}, Config{})

	_, err := svc.Add(context.Background(), AddRequest{
		Title: "t", Type: "article", Link: "https://example.com", OwnerID: uuid.NewString(),
	})
	if !errors.Is(err, ErrEmbedderUnavailable) {
		t.Fatalf("Add error = %v, want ErrEmbedderUnavailable", err)
	}
	if docs.inserts != 0 {
		t.Error("store was written after an embedding failure")
	}
	if svc.sync.Len() != 0 {
		t.Error("index grew after an embedding failure")
	}
}

func TestAddStoreFailure(t *testing.T) {
	docs := &fakeStore{insertErr: errors.New("connection lost")}
	svc := newTestService(t, docs, &fakeEmbedder{}, &fakeEnricher{}, Config{})

	_, err := svc.Add(context.Background(), AddRequest{
		Title: "t", Type: "article", Link: "https://example.com", OwnerID: uuid.NewString(),
	})
	if !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("Add error = %v, want ErrStoreWrite", err)
	}
	if svc.sync.Len() != 0 {
		t.Error("index grew after a store failure")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, &fakeEmbedder{}, &fakeEnricher{}, Config{})

	for _, query := range []string{"", "   ", "\t\n"} {
		if _, err := svc.Search(context.Background(), query); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("Search(%q) error = %v, want ErrInvalidQuery", query, err)
		}
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, &fakeEmbedder{}, &fakeEnricher{}, Config{})

	_, err := svc.Search(context.Background(), "anything")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("Search error = %v, want ErrNoResults", err)
	}
}

func TestSearchSocialShortcut(t *testing.T) {
	embedder := &fakeEmbedder{}
	enricher := &fakeEnricher{}
	svc := newTestService(t, &fakeStore{}, embedder, enricher, Config{})

	query := "what is this about https://x.com/user/status/123"
	resp, err := svc.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !resp.Social {
		t.Error("Social = false for a social-link query")
	}
	if resp.Summary != "social summary" {
		t.Errorf("Summary = %q", resp.Summary)
	}
	if len(resp.Results) != 0 {
		t.Errorf("got %d results, want 0", len(resp.Results))
	}
	if enricher.lastText != query {
		t.Errorf("summarized text = %q, want the raw query", enricher.lastText)
	}
	if embedder.calls.Load() != 0 {
		t.Error("embedder was called on the social shortcut")
	}
}

func TestSearchDiscardsMismatchedHit(t *testing.T) {
	docs := &fakeStore{}
	svc := newTestService(t, docs, &fakeEmbedder{}, &fakeEnricher{}, Config{})
	addDoc(t, svc, "only doc", "https://example.com")

	// Swap the stored document's id so the hit no longer resolves to
	// the document the index recorded.
	docs.mu.Lock()
	docs.docs[0].ID = uuid.New()
	docs.mu.Unlock()

	_, err := svc.Search(context.Background(), "only doc")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("Search error = %v, want ErrNoResults", err)
	}
}

func TestSearchStoreReadFailure(t *testing.T) {
	docs := &fakeStore{}
	svc := newTestService(t, docs, &fakeEmbedder{}, &fakeEnricher{}, Config{})
	addDoc(t, svc, "only doc", "https://example.com")

	docs.mu.Lock()
	docs.getErr = errors.New("connection lost")
	docs.mu.Unlock()

	_, err := svc.Search(context.Background(), "only doc")
	if !errors.Is(err, ErrStoreRead) {
		t.Fatalf("Search error = %v, want ErrStoreRead", err)
	}
}

func TestSearchDegradedSummaryStillSucceeds(t *testing.T) {
	enricher := &fakeEnricher{summary: "Failed to summarize: provider down"}
	svc := newTestService(t, &fakeStore{}, &fakeEmbedder{}, enricher, Config{})
	addDoc(t, svc, "only doc", "https://example.com")

	resp, err := svc.Search(context.Background(), "only doc")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Results[0].Summary != "Failed to summarize: provider down" {
		t.Errorf("summary = %q", resp.Results[0].Summary)
	}
}

func TestSearchTopK(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"near":  {1, 0, 0, 0},
		"far":   {0, 5, 0, 0},
		"query": {1, 0, 0, 0},
	}}
	enricher := &fakeEnricher{}
	svc := newTestService(t, &fakeStore{}, embedder, enricher, Config{TopK: 2})
	addDoc(t, svc, "far", "https://example.com/far")
	addDoc(t, svc, "near", "https://example.com/near")

	resp, err := svc.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].Title != "near" {
		t.Errorf("best match = %q, want %q", resp.Results[0].Title, "near")
	}
	if resp.Results[0].Summary == "" {
		t.Error("best match missing summary")
	}
	if resp.Results[1].Summary != "" {
		t.Error("non-best match carries a summary")
	}
	if enricher.summaryCalls != 1 {
		t.Errorf("enricher called %d times, want 1", enricher.summaryCalls)
	}
}

func TestRebuildRestoresIndexFromStore(t *testing.T) {
	docs := &fakeStore{}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"first":  {1, 0, 0, 0},
		"second": {0, 1, 0, 0},
	}}
	svc := newTestService(t, docs, embedder, &fakeEnricher{}, Config{})
	firstID := addDoc(t, svc, "first", "https://example.com/1")
	addDoc(t, svc, "second", "https://example.com/2")

	// A fresh synchronizer over the same store must resolve the same
	// documents after a rebuild.
	sync2, err := NewSynchronizer(docs, testDimension, nil)
	if err != nil {
		t.Fatalf("NewSynchronizer: %v", err)
	}
	if err := sync2.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if sync2.Len() != 2 {
		t.Fatalf("rebuilt index holds %d vectors, want 2", sync2.Len())
	}

	svc2 := New(sync2, docs, embedder, &fakeEnricher{}, Config{}, nil)
	resp, err := svc2.Search(context.Background(), "first")
	if err != nil {
		t.Fatalf("Search after rebuild: %v", err)
	}
	if resp.Results[0].ID != firstID {
		t.Errorf("best match id = %s, want %s", resp.Results[0].ID, firstID)
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	docs := &fakeStore{}
	svc := newTestService(t, docs, &fakeEmbedder{}, &fakeEnricher{}, Config{})
	addDoc(t, svc, "doc", "https://example.com")

	for range 3 {
		if err := svc.sync.Rebuild(context.Background()); err != nil {
			t.Fatalf("Rebuild: %v", err)
		}
		if svc.sync.Len() != 1 {
			t.Fatalf("index holds %d vectors after rebuild, want 1", svc.sync.Len())
		}
	}
}

func TestRebuildFailsOnCorruptEmbedding(t *testing.T) {
	docs := &fakeStore{}
	svc := newTestService(t, docs, &fakeEmbedder{}, &fakeEnricher{}, Config{})
	addDoc(t, svc, "good", "https://example.com")

	docs.mu.Lock()
	docs.docs = append(docs.docs, store.Document{
		ID:        uuid.New(),
		Title:     "corrupt",
		Embedding: []float32{1, 2}, // wrong dimension
	})
	docs.mu.Unlock()

	if err := svc.sync.Rebuild(context.Background()); err == nil {
		t.Fatal("Rebuild succeeded over a corrupt embedding")
	}
	// The previous index contents survive a failed rebuild.
	if svc.sync.Len() != 1 {
		t.Errorf("index holds %d vectors after failed rebuild, want 1", svc.sync.Len())
	}
}

func TestConcurrentAddAndSearch(t *testing.T) {
	docs := &fakeStore{}
	svc := newTestService(t, docs, &fakeEmbedder{}, &fakeEnricher{}, Config{})
	addDoc(t, svc, "seed", "https://example.com/seed")

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 25 {
				_, _ = svc.Add(context.Background(), AddRequest{
					Title: "doc", Type: "article", Link: "https://example.com", OwnerID: uuid.NewString(),
				})
			}
		}()
		go func() {
			defer wg.Done()
			for range 25 {
				if _, err := svc.Search(context.Background(), "doc"); err != nil && !errors.Is(err, ErrNoResults) {
					t.Errorf("Search: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if got, want := svc.sync.Len(), 1+4*25; got != want {
		t.Errorf("index holds %d vectors, want %d", got, want)
	}
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/syncmind/syncmind/internal/log"
	"github.com/syncmind/syncmind/internal/search"
)

func TestNewServer(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:      log.NewNop(),
		Service:     &fakeService{},
		CORSOrigins: []string{"http://localhost:4200"},
	})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	if srv.Handler() == nil {
		t.Fatal("NewServer().Handler() returned nil")
	}
}

func TestNewServer_MissingService(t *testing.T) {
	_, err := NewServer(ServerConfig{Logger: log.NewNop()})
	if err == nil {
		t.Fatal("NewServer(nil service) expected error, got nil")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestReadyEndpointWithoutPool(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ready", nil)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /ready status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

// panickingService triggers the recovery middleware.
type panickingService struct{}

func (panickingService) Add(context.Context, search.AddRequest) (uuid.UUID, error) {
	panic("add exploded")
}

func (panickingService) Search(context.Context, string) (search.Response, error) {
	panic("search exploded")
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := newTestServer(t, panickingService{})

	w := postJSON(t, srv, "/search", `{"query":"q"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:      log.NewNop(),
		Service:     &fakeService{},
		CORSOrigins: []string{"http://localhost:4200"},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	r := httptest.NewRequest(http.MethodOptions, "/add", nil)
	r.Header.Set("Origin", "http://localhost:4200")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:4200" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORSUnknownOrigin(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:      log.NewNop(),
		Service:     &fakeService{},
		CORSOrigins: []string{"http://localhost:4200"},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	r := httptest.NewRequest(http.MethodOptions, "/add", nil)
	r.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q for unknown origin", got)
	}
}

package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewHTTPValidation(t *testing.T) {
	if _, err := NewHTTP(HTTPConfig{BaseURL: "", Dimension: 4}); err == nil {
		t.Error("NewHTTP with empty base URL: expected error")
	}
	if _, err := NewHTTP(HTTPConfig{BaseURL: "http://localhost:5000", Dimension: 0}); err == nil {
		t.Error("NewHTTP with zero dimension: expected error")
	}
}

func TestHTTPClientEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Text != "hello world" {
			t.Errorf("text = %q, want %q", req.Text, "hello world")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	c, err := NewHTTP(HTTPConfig{BaseURL: srv.URL, Dimension: 3})
	if err != nil {
		t.Fatal(err)
	}

	vec, err := c.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("len(vec) = %d, want 3", len(vec))
	}
}

func TestHTTPClientEmbedDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2}})
	}))
	defer srv.Close()

	c, err := NewHTTP(HTTPConfig{BaseURL: srv.URL, Dimension: 3})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Embed(context.Background(), "text"); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestHTTPClientEmbedServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Text input is required"})
	}))
	defer srv.Close()

	c, err := NewHTTP(HTTPConfig{BaseURL: srv.URL, Dimension: 3})
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Embed(context.Background(), "")
	if err == nil {
		t.Fatal("expected error from service failure")
	}
	if !strings.Contains(err.Error(), "Text input is required") {
		t.Errorf("error %q does not carry the service message", err)
	}
}

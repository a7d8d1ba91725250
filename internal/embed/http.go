package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPTimeout bounds a single embedding request.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPClient is an Embedder backed by a sidecar embedding service
// speaking a minimal JSON contract:
//
//	POST <base URL>  {"text": "..."}  →  {"embedding": [ ... ]}
//
// Errors come back as {"error": "..."} with a non-2xx status.
type HTTPClient struct {
	baseURL   string
	dimension int
	client    *http.Client
}

// HTTPConfig configures the sidecar embedding client.
type HTTPConfig struct {
	BaseURL   string
	Dimension int
	Timeout   time.Duration // DefaultHTTPTimeout when zero
}

// NewHTTP creates an embedding client for the sidecar service.
func NewHTTP(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("embedder base URL is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension: %d", cfg.Dimension)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPClient{
		baseURL:   cfg.BaseURL,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Dimension returns the expected vector dimension.
func (c *HTTPClient) Dimension() int { return c.dimension }

// Embed requests an embedding for the given text. Single attempt; the
// caller decides how a failure degrades.
func (c *HTTPClient) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading embed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("embedding service: %s (%s)", apiErr.Error, resp.Status)
		}
		return nil, fmt.Errorf("embedding service: %s", resp.Status)
	}

	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("empty embedding response")
	}
	if len(out.Embedding) != c.dimension {
		return nil, fmt.Errorf("embedding service returned %d dimensions, want %d", len(out.Embedding), c.dimension)
	}

	return out.Embedding, nil
}

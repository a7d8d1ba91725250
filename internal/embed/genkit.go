package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"
)

// GenkitEmbedder adapts a Genkit ai.Embedder (Google AI provider) to the
// Embedder interface, requesting truncated output dimensionality so the
// model's native dimension does not leak into the index.
type GenkitEmbedder struct {
	embedder  ai.Embedder
	dimension int32
}

// NewGenkit wraps the given Genkit embedder.
func NewGenkit(embedder ai.Embedder, dimension int) (*GenkitEmbedder, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension: %d", dimension)
	}
	return &GenkitEmbedder{embedder: embedder, dimension: int32(dimension)}, nil
}

// Dimension returns the configured output dimension.
func (e *GenkitEmbedder) Dimension() int { return int(e.dimension) }

// Embed generates an embedding for the given text.
func (e *GenkitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := e.dimension
	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding response")
	}

	vec := resp.Embeddings[0].Embedding
	if len(vec) != int(e.dimension) {
		return nil, fmt.Errorf("embedder returned %d dimensions, want %d", len(vec), e.dimension)
	}
	return vec, nil
}

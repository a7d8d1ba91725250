// Package embed turns text into fixed-dimension embedding vectors via an
// external provider.
//
// Two providers are supported: the Google AI embedder through Genkit
// (default), and a plain HTTP sidecar speaking the minimal
// {"text"} → {"embedding"} contract. Both are treated as black boxes;
// the only invariant enforced here is the vector dimension, which must
// hold before anything downstream touches the store or the index.
package embed

import "context"

// Embedder produces a fixed-dimension embedding vector for a text.
type Embedder interface {
	// Embed returns the embedding for the given text. The returned
	// vector's length always equals Dimension; a provider response with
	// any other length is an error.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed vector dimension this embedder produces.
	Dimension() int
}

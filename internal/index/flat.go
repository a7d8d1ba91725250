// Package index provides an in-memory flat vector index for exact
// nearest-neighbor search over fixed-dimension embeddings.
//
// The index is append-only and intentionally brute-force: every search
// scans all stored vectors in O(N·D). The document set is small enough
// that exact results are worth more than sub-linear lookup, and the
// service's position-based resolution depends on the exact, ordered
// semantics an approximate index would not provide.
package index

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrInvalidDimension indicates the index was created with a
	// non-positive dimension.
	ErrInvalidDimension = errors.New("dimension must be positive")

	// ErrDimensionMismatch indicates a vector's length disagrees with the
	// index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Match is a single search hit. Position is the ordinal append position
// of the matched vector, which equals the document's ordinal position in
// the store's stable enumeration. ID is the document id recorded at
// append time, used to detect out-of-band store mutations at resolution.
type Match struct {
	Position int
	ID       uuid.UUID
	Distance float32
}

// Flat is an append-only flat index over vectors of a fixed dimension,
// searched by squared Euclidean distance.
//
// Appends are serialized; searches run concurrently with each other.
// Stored vectors are copied on append, so a search can never observe a
// torn or caller-mutated vector.
type Flat struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	ids       []uuid.UUID
}

// New creates an empty flat index for vectors of the given dimension.
func New(dimension int) (*Flat, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dimension)
	}
	return &Flat{dimension: dimension}, nil
}

// Dimension returns the fixed vector dimension of the index.
func (f *Flat) Dimension() int { return f.dimension }

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Append adds one vector at the next ordinal position, recording the
// document id beside it. Returns ErrDimensionMismatch if the vector's
// length disagrees with the index dimension.
func (f *Flat) Append(id uuid.UUID, vec []float32) error {
	if len(vec) != f.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), f.dimension)
	}

	cp := make([]float32, len(vec))
	copy(cp, vec)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = append(f.vectors, cp)
	f.ids = append(f.ids, id)
	return nil
}

// Search returns up to k nearest vectors in ascending distance order,
// ties broken by ascending position. Searching an empty index returns an
// empty result, not an error.
func (f *Flat) Search(query []float32, k int) ([]Match, error) {
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), f.dimension)
	}
	if k <= 0 {
		return []Match{}, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	matches := make([]Match, 0, k)
	for pos, vec := range f.vectors {
		d := squaredL2(query, vec)
		if len(matches) == k && d >= matches[k-1].Distance {
			continue
		}

		// Insert after any existing match with distance <= d, so equal
		// distances keep ascending position order.
		i := len(matches)
		for i > 0 && matches[i-1].Distance > d {
			i--
		}
		m := Match{Position: pos, ID: f.ids[pos], Distance: d}
		if len(matches) < k {
			matches = append(matches, Match{})
		}
		copy(matches[i+1:], matches[i:len(matches)-1])
		matches[i] = m
	}

	return matches, nil
}

// squaredL2 computes the squared Euclidean distance between two vectors
// of equal length.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

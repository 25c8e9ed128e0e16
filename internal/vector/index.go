// Package vector holds embedding matrices and the nearest-neighbor indexes built from them.
package vector

import "context"

// PaddingRow marks a neighbor slot with no match, as FAISS does when k exceeds the index size.
const PaddingRow = -1

// Index answers k-nearest-neighbor queries over a fixed set of rows. Row numbers are the
// positions of the vectors in the matrix the index was built from. Implementations are
// read-only after construction and safe for concurrent Search calls.
type Index interface {
	// Search returns exactly k neighbors ordered by descending similarity. Slots beyond the
	// index size carry Row == PaddingRow.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)
	Size() int
	Dimensions() int
	Type() string
	Save(path string) error
	Close() error
}

// Neighbor is a single search hit.
type Neighbor struct {
	Row   int
	Score float64 // Inner product; cosine similarity for normalized vectors
}

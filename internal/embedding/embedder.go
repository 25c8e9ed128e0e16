// Package embedding maps text to fixed-dimension vectors. Providers (mock, ONNX, OpenAI-compatible)
// sit behind the Embedder interface; caching, rate limiting and input prefixes are decorators.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Embedder produces vector embeddings for text. Dimensions is fixed for the lifetime of the embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}

// ErrDimensionMismatch is the sentinel wrapped by DimensionMismatchError.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// DimensionMismatchError reports a vector whose width differs from the configured dimension.
// Row is the corpus row being processed, or -1 when the mismatch is not tied to a row.
type DimensionMismatchError struct {
	Row      int
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
	}
	return fmt.Sprintf("embedding dimension mismatch at row %d: expected %d, got %d", e.Row, e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}

// CheckDimensions returns a *DimensionMismatchError when len(vec) != want.
func CheckDimensions(vec []float32, want, row int) error {
	if len(vec) != want {
		return &DimensionMismatchError{Row: row, Expected: want, Actual: len(vec)}
	}
	return nil
}

package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/precedent/internal/models"
)

// ErrKeyNotFound is returned by key-value stores when a key has no value.
var ErrKeyNotFound = errors.New("storage: key not found")

// MetadataStore persists the per-row metadata artifact that accompanies the vector array.
type MetadataStore interface {
	// Load returns the stored rows ordered by row index. An empty store yields an empty slice.
	Load(ctx context.Context) ([]models.RowMetadata, error)
	// Save replaces the stored rows with rows, atomically.
	Save(ctx context.Context, rows []models.RowMetadata) error
	Close() error
}

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

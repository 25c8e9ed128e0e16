package vector

import (
	"errors"
	"fmt"
	"os"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses exact in-memory search.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeFAISS uses a FAISS IndexFlatIP. Requires building with -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
)

// Build creates an index of the given type over m. Row i of m becomes row i of the index.
func Build(indexType string, m *Matrix) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(m)
	case IndexTypeFAISS:
		return NewFAISSIndex(m)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss)", indexType)
	}
}

// Open loads a saved index. A missing file returns an error wrapping os.ErrNotExist.
func Open(indexType, path string, dim int) (Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return LoadMemoryIndex(path, dim)
	case IndexTypeFAISS:
		return LoadFAISSIndex(path, dim)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss)", indexType)
	}
}

// IsNotBuilt reports whether err from Open means no index file exists yet.
func IsNotBuilt(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(NewMatrix(1, 1))
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}

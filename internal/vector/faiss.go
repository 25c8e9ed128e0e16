//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/index_io_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unsafe"
)

// FAISSIndex wraps a FAISS IndexFlatIP. Labels are sequential from 0, so a label is the matrix row.
type FAISSIndex struct {
	index      *C.FaissIndex
	dimensions int
	mu         sync.RWMutex
}

// NewFAISSIndex builds an IndexFlatIP over a normalized copy of m.
func NewFAISSIndex(m *Matrix) (*FAISSIndex, error) {
	if m == nil || m.Dim <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}

	var flat *C.FaissIndexFlatIP
	if err := faissCheck(C.faiss_IndexFlatIP_new_with(&flat, C.idx_t(m.Dim)), "create IndexFlatIP"); err != nil {
		return nil, err
	}
	f := &FAISSIndex{index: (*C.FaissIndex)(unsafe.Pointer(flat)), dimensions: m.Dim}
	if m.Rows == 0 {
		return f, nil
	}

	// Cosine similarity as inner product over unit rows.
	unit := m.Normalized()
	err := faissCheck(C.faiss_Index_add(f.index, C.idx_t(unit.Rows), (*C.float)(unsafe.Pointer(&unit.Data[0]))), "add")
	if err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// LoadFAISSIndex reads an index written by Save. dim, when positive, must match the file.
func LoadFAISSIndex(path string, dim int) (*FAISSIndex, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var index *C.FaissIndex
	if err := faissCheck(C.faiss_read_index_fname(cPath, 0, &index), "read "+path); err != nil {
		return nil, err
	}
	fileDim := int(C.faiss_Index_d(index))
	if dim > 0 && fileDim != dim {
		C.faiss_Index_free(index)
		return nil, fmt.Errorf("dimension mismatch: file has %d, index expects %d", fileDim, dim)
	}
	return &FAISSIndex{index: index, dimensions: fileDim}, nil
}

// faissCheck turns a nonzero FAISS return code into an error carrying the library message.
func faissCheck(ret C.int, op string) error {
	if ret == 0 {
		return nil
	}
	msg := "unknown error"
	if cErr := C.faiss_get_last_error(); cErr != nil {
		msg = C.GoString(cErr)
	}
	return fmt.Errorf("faiss %s: %s", op, msg)
}

// Search returns k neighbors by inner product. FAISS pads with label -1 when k exceeds the size.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), f.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.index == nil {
		return nil, fmt.Errorf("FAISS index is closed")
	}

	q := Normalized(query)
	distances := make([]float32, k)
	labels := make([]int64, k)
	err := faissCheck(C.faiss_Index_search(f.index, 1,
		(*C.float)(unsafe.Pointer(&q[0])),
		C.idx_t(k),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	), "search")
	if err != nil {
		return nil, err
	}

	results := make([]Neighbor, k)
	for i, label := range labels {
		if label < 0 {
			results[i] = Neighbor{Row: PaddingRow}
			continue
		}
		results[i] = Neighbor{Row: int(label), Score: float64(distances[i])}
	}
	return results, nil
}

// Save writes the index to a temp file beside path and renames it into place, so readers
// never open a partial index.
func (f *FAISSIndex) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.index == nil {
		return fmt.Errorf("FAISS index is closed")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := tmpFile.Name()
	_ = tmpFile.Close()

	cPath := C.CString(tmp)
	defer C.free(unsafe.Pointer(cPath))
	if err := faissCheck(C.faiss_write_index_fname(f.index, cPath), "write "+path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Size returns the number of vectors in the index.
func (f *FAISSIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.index == nil {
		return 0
	}
	return int(C.faiss_Index_ntotal(f.index))
}

// Dimensions returns the vector width.
func (f *FAISSIndex) Dimensions() int {
	return f.dimensions
}

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}

package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/hyperjump/precedent/pkg/utils"
)

// memoryMagic prefixes a saved MemoryIndex: magic, version, dim, rows, then rows*dim float32 LE,
// all inside one zstd frame.
const (
	memoryMagic   = "PRVX"
	memoryVersion = uint32(1)
)

// MemoryIndex is an exact inner-product index over an in-memory matrix.
// Vectors are L2-normalized on build so scores are cosine similarities.
type MemoryIndex struct {
	matrix *Matrix
}

// NewMemoryIndex builds an index over a normalized copy of m.
func NewMemoryIndex(m *Matrix) (*MemoryIndex, error) {
	if m == nil || m.Dim <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{matrix: m.Normalized()}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Search returns k neighbors by inner product. Ties keep the lower row first.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if len(query) != m.matrix.Dim {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.matrix.Dim)
	}
	if k <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := Normalized(query)
	scores := make([]Neighbor, m.matrix.Rows)
	for i := range scores {
		scores[i] = Neighbor{Row: i, Score: InnerProduct(q, m.matrix.Row(i))}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })

	result := make([]Neighbor, k)
	for i := range result {
		if i < len(scores) {
			result[i] = scores[i]
		} else {
			result[i] = Neighbor{Row: PaddingRow, Score: -math.MaxFloat32}
		}
	}
	return result, nil
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	return m.matrix.Rows
}

// Dimensions returns the vector width.
func (m *MemoryIndex) Dimensions() int {
	return m.matrix.Dim
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

// Save writes the index to path, replacing any previous file only once the write has succeeded.
func (m *MemoryIndex) Save(path string) error {
	return utils.WriteFileAtomic(path, m.encode)
}

func (m *MemoryIndex) encode(w io.Writer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	defer enc.Close()

	bw := bufio.NewWriter(enc)
	if _, err := bw.WriteString(memoryMagic); err != nil {
		return err
	}
	header := []uint32{memoryVersion, uint32(m.matrix.Dim), uint32(m.matrix.Rows)}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.matrix.Data); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

// LoadMemoryIndex reads an index written by Save. dim, when positive, must match the file.
func LoadMemoryIndex(path string, dim int) (*MemoryIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open zstd reader: %w", err)
	}
	defer dec.Close()
	r := bufio.NewReader(dec)

	magic := make([]byte, len(memoryMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != memoryMagic {
		return nil, errors.New("not a memory index file")
	}
	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != memoryVersion {
		return nil, fmt.Errorf("unsupported memory index version %d", header[0])
	}
	fileDim, rows := int(header[1]), int(header[2])
	if dim > 0 && fileDim != dim {
		return nil, fmt.Errorf("dimension mismatch: file has %d, index expects %d", fileDim, dim)
	}
	m := NewMatrix(rows, fileDim)
	if err := binary.Read(r, binary.LittleEndian, m.Data); err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	return &MemoryIndex{matrix: m}, nil
}

package vector

import "fmt"

// Matrix is a dense row-major float32 array of shape (Rows, Dim).
// Unfilled rows are all zeros.
type Matrix struct {
	Rows int
	Dim  int
	Data []float32
}

// NewMatrix allocates a zero matrix.
func NewMatrix(rows, dim int) *Matrix {
	if rows < 0 {
		rows = 0
	}
	if dim < 0 {
		dim = 0
	}
	return &Matrix{Rows: rows, Dim: dim, Data: make([]float32, rows*dim)}
}

// Row returns row i as a view into Data.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Dim : (i+1)*m.Dim]
}

// SetRow copies v into row i. Concurrent calls on distinct rows are safe.
func (m *Matrix) SetRow(i int, v []float32) error {
	if i < 0 || i >= m.Rows {
		return fmt.Errorf("row %d out of range [0,%d)", i, m.Rows)
	}
	if len(v) != m.Dim {
		return fmt.Errorf("row %d: vector width %d, matrix width %d", i, len(v), m.Dim)
	}
	copy(m.Row(i), v)
	return nil
}

// IsZeroRow reports whether every component of row i is zero.
func (m *Matrix) IsZeroRow(i int) bool {
	for _, v := range m.Row(i) {
		if v != 0 {
			return false
		}
	}
	return true
}

// NonZeroPrefix returns the number of leading rows that are not all zero.
func (m *Matrix) NonZeroPrefix() int {
	if m.Dim == 0 {
		return 0
	}
	for i := 0; i < m.Rows; i++ {
		if m.IsZeroRow(i) {
			return i
		}
	}
	return m.Rows
}

// NonZeroRows counts rows that are not all zero, wherever they are.
func (m *Matrix) NonZeroRows() int {
	n := 0
	for i := 0; i < m.Rows; i++ {
		if !m.IsZeroRow(i) {
			n++
		}
	}
	return n
}

// Resize returns a matrix with the given row count, copying the first min(m.Rows, rows) rows.
func (m *Matrix) Resize(rows int) *Matrix {
	out := NewMatrix(rows, m.Dim)
	n := min(m.Rows, rows)
	copy(out.Data, m.Data[:n*m.Dim])
	return out
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{Rows: m.Rows, Dim: m.Dim, Data: make([]float32, len(m.Data))}
	copy(out.Data, m.Data)
	return out
}

// Normalized returns a copy with every non-zero row scaled to unit L2 norm.
func (m *Matrix) Normalized() *Matrix {
	out := m.Clone()
	for i := 0; i < out.Rows; i++ {
		NormalizeInPlace(out.Row(i))
	}
	return out
}

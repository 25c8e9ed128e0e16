package artifact

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/sbinet/npyio"

	"github.com/hyperjump/precedent/internal/vector"
	"github.com/hyperjump/precedent/pkg/utils"
)

// ErrBadArray is returned when the vectors file is not a 2-D little-endian float32 .npy array.
var ErrBadArray = errors.New("artifact: unsupported array file")

var float32Type = reflect.TypeOf(float32(0))

// WriteMatrix stores m as a .npy file (dtype <f4, C order, shape (rows, dim)).
func WriteMatrix(path string, m *vector.Matrix) error {
	rows := matrixRows(m)
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriterSize(w, 1<<20)
		if err := npyio.Write(bw, rows); err != nil {
			return fmt.Errorf("encode vectors: %w", err)
		}
		return bw.Flush()
	})
}

// matrixRows views m as a [rows][dim]float32 value so the array keeps its 2-D shape on disk.
func matrixRows(m *vector.Matrix) interface{} {
	rt := reflect.SliceOf(reflect.ArrayOf(m.Dim, float32Type))
	rv := reflect.MakeSlice(rt, m.Rows, m.Rows)
	for i := 0; i < m.Rows; i++ {
		reflect.Copy(rv.Index(i).Slice(0, m.Dim), reflect.ValueOf(m.Row(i)))
	}
	return rv.Interface()
}

// ReadMatrix loads a .npy array written by WriteMatrix. A missing file returns (nil, nil).
func ReadMatrix(path string) (*vector.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open vectors: %w", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(bufio.NewReaderSize(f, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrBadArray, err)
	}
	rows, dim, err := arrayShape(r.Header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m := vector.NewMatrix(rows, dim)
	if len(m.Data) == 0 {
		return m, nil
	}
	if err := r.Read(&m.Data); err != nil {
		return nil, fmt.Errorf("%s: read array data: %w", path, err)
	}
	return m, nil
}

// arrayShape accepts (rows, dim) float32 arrays in C order, plus the (0,) shape of an empty array.
func arrayShape(h npyio.Header) (rows, dim int, err error) {
	if h.Descr.Type != "<f4" {
		return 0, 0, fmt.Errorf("%w: dtype %s, want <f4", ErrBadArray, h.Descr.Type)
	}
	if h.Descr.Fortran {
		return 0, 0, fmt.Errorf("%w: fortran order", ErrBadArray)
	}
	switch shape := h.Descr.Shape; {
	case len(shape) == 2:
		return shape[0], shape[1], nil
	case len(shape) == 1 && shape[0] == 0:
		return 0, 0, nil
	default:
		return 0, 0, fmt.Errorf("%w: expected 2-D shape, got %v", ErrBadArray, shape)
	}
}

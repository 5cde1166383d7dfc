// Package autograd implements a small reverse-mode automatic differentiation
// engine over dense float64 matrices. Operations are recorded on a tape by a
// Graph; calling Backward replays the tape in reverse, accumulating gradients
// into each matrix's DW buffer. The engine covers exactly the operations the
// bundled models need, nothing more.
package autograd

import "fmt"

// Mat is a dense row-major matrix carrying both values and accumulated
// gradients. The batch dimension is always rows: a batch of b examples with
// feature width f is a [b x f] Mat.
type Mat struct {
	Rows, Cols int
	W          []float64 // values, row-major
	DW         []float64 // gradient of the loss w.r.t. W, same layout
}

// NewMat returns a zero-valued rows x cols matrix with a zero gradient buffer.
func NewMat(rows, cols int) *Mat {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("autograd: invalid matrix shape %dx%d", rows, cols))
	}
	return &Mat{
		Rows: rows,
		Cols: cols,
		W:    make([]float64, rows*cols),
		DW:   make([]float64, rows*cols),
	}
}

// FromRows builds a matrix from a non-empty slice of equally sized rows,
// copying the data.
func FromRows(rows [][]float64) *Mat {
	if len(rows) == 0 || len(rows[0]) == 0 {
		panic("autograd: FromRows needs at least one non-empty row")
	}
	m := NewMat(len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != m.Cols {
			panic(fmt.Sprintf("autograd: ragged row %d: got %d values, want %d", i, len(r), m.Cols))
		}
		copy(m.W[i*m.Cols:(i+1)*m.Cols], r)
	}
	return m
}

// At returns the value at (r, c).
func (m *Mat) At(r, c int) float64 {
	return m.W[r*m.Cols+c]
}

// Set stores v at (r, c).
func (m *Mat) Set(r, c int, v float64) {
	m.W[r*m.Cols+c] = v
}

// Row returns the r-th row as a slice aliasing the underlying storage.
func (m *Mat) Row(r int) []float64 {
	return m.W[r*m.Cols : (r+1)*m.Cols]
}

// ZeroGrad resets the gradient buffer.
func (m *Mat) ZeroGrad() {
	for i := range m.DW {
		m.DW[i] = 0
	}
}

// Clone copies the values of m into a fresh matrix with a zero gradient.
func (m *Mat) Clone() *Mat {
	out := NewMat(m.Rows, m.Cols)
	copy(out.W, m.W)
	return out
}

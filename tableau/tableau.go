// Package tableau holds the dense simplex tableau: the constraint matrix with
// its slack columns and right-hand side, plus the objective row, in one
// contiguous float64 buffer.
package tableau

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Tableau is the combined constraint-and-objective matrix in standard form:
//
//	| A  slacks  b |
//	| -c    0    0 |
//
// The last row is the objective, the last column the right-hand side (and,
// in the objective row, the accumulated objective value). The matrix is
// mutated in place by the engine; no history is kept.
type Tableau struct {
	m    *mat.Dense
	rows int
	cols int
}

// New allocates a zeroed rows x cols tableau. The backing store is a single
// allocation with row-stride indexing.
func New(rows, cols int) *Tableau {
	return &Tableau{
		m:    mat.NewDense(rows, cols, nil),
		rows: rows,
		cols: cols,
	}
}

// NewFromData wraps a row-major data slice of length rows*cols.
func NewFromData(rows, cols int, data []float64) *Tableau {
	return &Tableau{
		m:    mat.NewDense(rows, cols, data),
		rows: rows,
		cols: cols,
	}
}

// Rows returns the total row count, objective row included.
func (t *Tableau) Rows() int { return t.rows }

// Cols returns the total column count, RHS column included.
func (t *Tableau) Cols() int { return t.cols }

// Constraints returns the number of constraint rows.
func (t *Tableau) Constraints() int { return t.rows - 1 }

// ObjectiveRow returns the index of the objective row (the last one).
func (t *Tableau) ObjectiveRow() int { return t.rows - 1 }

// RHSCol returns the index of the right-hand-side column (the last one).
func (t *Tableau) RHSCol() int { return t.cols - 1 }

// At returns the entry at (i, j).
func (t *Tableau) At(i, j int) float64 { return t.m.At(i, j) }

// Set writes the entry at (i, j).
func (t *Tableau) Set(i, j int, v float64) { t.m.Set(i, j, v) }

// RawRow returns row i backed by the tableau's own storage. Writes through
// the returned slice mutate the tableau; this is what the elimination hot
// loops use.
func (t *Tableau) RawRow(i int) []float64 {
	return t.m.RawRowView(i)
}

// SetRow copies src into row i.
func (t *Tableau) SetRow(i int, src []float64) {
	t.m.SetRow(i, src)
}

// ScaleRow multiplies every entry of row i by alpha in place.
func (t *Tableau) ScaleRow(i int, alpha float64) {
	floats.Scale(alpha, t.RawRow(i))
}

// AddScaledRow performs row_i += factor * row_j in place. i and j must
// differ.
func (t *Tableau) AddScaledRow(i, j int, factor float64) {
	floats.AddScaled(t.RawRow(i), factor, t.RawRow(j))
}

// ObjectiveValue returns the accumulated objective value, the bottom-right
// entry.
func (t *Tableau) ObjectiveValue() float64 {
	return t.m.At(t.rows-1, t.cols-1)
}

// Clone returns a deep copy.
func (t *Tableau) Clone() *Tableau {
	return &Tableau{
		m:    mat.DenseCopyOf(t.m),
		rows: t.rows,
		cols: t.cols,
	}
}

// String formats the tableau for diagnostics.
func (t *Tableau) String() string {
	f := mat.Formatted(t.m, mat.Prefix("    "), mat.Squeeze())
	return fmt.Sprintf("T = %v", f)
}

// Package model builds standard-form maximization models and assembles the
// tableau the engine pivots on. A model here is
//
//	maximize c'x  subject to  Ax <= b,  x >= 0,  b >= 0
//
// so that the slack basis is feasible from the start. Anything that would
// need artificial variables (equality rows, rows whose RHS stays negative
// after normalization) is rejected.
package model

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"q.log/parsimplex/tableau"
)

// ErrNeedsArtificial marks a model whose slack basis is infeasible: the
// engine has no Phase-1 handling, so such models cannot be solved here.
var ErrNeedsArtificial = errors.New("model: slack basis infeasible, model needs artificial variables")

// Model holds the objective coefficients, the constraint matrix and the
// right-hand side of a standard-form problem.
type Model struct {
	// C objective function coefficients, 1 x NumCols
	C *mat.Dense

	// A constraints matrix, NumRows x NumCols
	A *mat.Dense

	// B constraints rhs, NumRows x 1
	B *mat.Dense

	NumRows int
	NumCols int
}

func NewModel(numRows, numCols int) *Model {
	return &Model{
		C:       mat.NewDense(1, numCols, nil),
		A:       mat.NewDense(numRows, numCols, nil),
		B:       mat.NewDense(numRows, 1, nil),
		NumRows: numRows,
		NumCols: numCols,
	}
}

func (m *Model) SetC(cVec []float64) error {
	if len(cVec) != m.NumCols {
		return errors.New("model: mismatch number of variables")
	}

	m.C = mat.NewDense(1, m.NumCols, cVec)

	return nil
}

func (m *Model) SetA(aVec []float64) error {
	if len(aVec) != m.NumCols*m.NumRows {
		return errors.New("model: mismatch number of variables and/or constraints")
	}

	m.A = mat.NewDense(m.NumRows, m.NumCols, aVec)

	return nil
}

func (m *Model) SetB(bVec []float64) error {
	if len(bVec) != m.NumRows {
		return errors.New("model: mismatch number of constraints")
	}

	m.B = mat.NewDense(m.NumRows, 1, bVec)

	return nil
}

// AddRow appends a constraint row.
func (m *Model) AddRow(rVec []float64, rhs float64) error {
	if len(rVec) != m.NumCols {
		return errors.New("model: mismatch number of columns, i.e. wrong len of rVec")
	}

	m.A = mat.DenseCopyOf(m.A.Grow(1, 0))
	m.A.SetRow(m.NumRows, rVec)

	m.B = mat.DenseCopyOf(m.B.Grow(1, 0))
	m.B.Set(m.NumRows, 0, rhs)

	m.NumRows++
	return nil
}

// MultiplyConstraint scales constraint row and its rhs by mul; used to flip
// a >= row into <= form.
func (m *Model) MultiplyConstraint(row int, mul float64) error {
	if row < 0 || row >= m.NumRows {
		return errors.New("model: row does not exist")
	}

	for col := 0; col < m.NumCols; col++ {
		m.A.Set(row, col, m.A.At(row, col)*mul)
	}
	m.B.Set(row, 0, m.B.At(row, 0)*mul)
	return nil
}

// Tableau assembles the engine's input,
//
//	| A  I  b |
//	| -c 0  0 |
//
// with one slack column per constraint row. Returns ErrNeedsArtificial when
// some RHS entry is negative, since then the slack basis is not a basic
// feasible solution.
func (m *Model) Tableau() (*tableau.Tableau, error) {
	for r := 0; r < m.NumRows; r++ {
		if m.B.At(r, 0) < 0 {
			return nil, ErrNeedsArtificial
		}
	}

	rows := m.NumRows + 1
	cols := m.NumCols + m.NumRows + 1
	t := tableau.New(rows, cols)
	for r := 0; r < m.NumRows; r++ {
		row := t.RawRow(r)
		for c := 0; c < m.NumCols; c++ {
			row[c] = m.A.At(r, c)
		}
		row[m.NumCols+r] = 1
		row[cols-1] = m.B.At(r, 0)
	}
	obj := t.RawRow(rows - 1)
	for c := 0; c < m.NumCols; c++ {
		obj[c] = -m.C.At(0, c)
	}
	return t, nil
}

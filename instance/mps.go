package instance

import (
	"math"
	"runtime"

	"github.com/lukpank/go-glpk/glpk"
	"github.com/pkg/errors"

	"q.log/parsimplex/model"
	"q.log/parsimplex/tableau"
)

// MPSReader reads an MPS file through glpk and converts it to standard form.
// Only models whose slack basis is feasible are accepted: equality rows and
// rows whose RHS stays negative after sign normalization need artificial
// variables and are rejected with model.ErrNeedsArtificial.
type MPSReader struct {
	filename string
}

func NewMPSReader(filename string) *MPSReader {
	return &MPSReader{
		filename: filename,
	}
}

// ReadTableau loads the MPS file and assembles the standard-form tableau.
func (r *MPSReader) ReadTableau() (*tableau.Tableau, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	lp := glpk.New()
	defer lp.Delete()
	if err := lp.ReadMPS(glpk.MPS_FILE, nil, r.filename); err != nil {
		return nil, errors.Wrapf(err, "instance: reading MPS file %s", r.filename)
	}

	m := model.NewModel(lp.NumRows(), lp.NumCols())

	// objective: glpk numbers rows and columns from 1
	cVec := make([]float64, lp.NumCols())
	for c := range cVec {
		cVec[c] = lp.ObjCoef(c + 1)
	}
	if lp.ObjDir() == glpk.MIN {
		for c := range cVec {
			cVec[c] = -cVec[c]
		}
	}
	if err := m.SetC(cVec); err != nil {
		return nil, err
	}

	// constraint rows; track which ones arrived as >= so they can be
	// flipped into <= form afterwards
	aVec := make([]float64, 0, lp.NumRows()*lp.NumCols())
	bVec := make([]float64, 0, lp.NumRows())
	flip := make([]bool, 0, lp.NumRows())
	for row := 1; row <= lp.NumRows(); row++ {
		rowVec := make([]float64, lp.NumCols())
		idxs, vals := lp.MatRow(row)
		for i, idx := range idxs {
			if idx == 0 {
				continue
			}
			rowVec[idx-1] = vals[i]
		}
		lb, ub := lp.RowLB(row), lp.RowUB(row)
		switch {
		case lb == -math.MaxFloat64:
			bVec = append(bVec, ub)
			flip = append(flip, false)
		case ub == math.MaxFloat64:
			bVec = append(bVec, lb)
			flip = append(flip, true)
		default:
			// equality or range row
			return nil, errors.Wrapf(model.ErrNeedsArtificial, "instance: row %d", row)
		}
		aVec = append(aVec, rowVec...)
	}
	if err := m.SetA(aVec); err != nil {
		return nil, err
	}
	if err := m.SetB(bVec); err != nil {
		return nil, err
	}

	// finite non-default column bounds become extra constraint rows
	for c := range lp.NumCols() {
		lb, ub := lp.ColLB(c+1), lp.ColUB(c+1)
		if lb != -math.MaxFloat64 && lb != 0 {
			rowVec := make([]float64, lp.NumCols())
			rowVec[c] = 1
			if err := m.AddRow(rowVec, lb); err != nil {
				return nil, err
			}
			flip = append(flip, true)
		}
		if ub != math.MaxFloat64 && ub != 0 {
			rowVec := make([]float64, lp.NumCols())
			rowVec[c] = 1
			if err := m.AddRow(rowVec, ub); err != nil {
				return nil, err
			}
			flip = append(flip, false)
		}
	}

	for row, f := range flip {
		if f {
			if err := m.MultiplyConstraint(row, -1); err != nil {
				return nil, err
			}
		}
	}

	return m.Tableau()
}

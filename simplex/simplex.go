// Package simplex implements the tableau form of the simplex method for
// standard-form maximization problems (maximize c'x subject to Ax = b,
// x >= 0, slack basis feasible, no artificial variables), parallelized
// across a fixed team of workers.
//
// The team is formed once and cooperates on the shared tableau across every
// pivot; phases within an iteration (ratio test, pivot-row normalization,
// row elimination, objective elimination) partition their index ranges into
// chunks across the workers and meet at a reusable barrier between phases
// that have a data dependency. The entering-variable scan for the next
// iteration is fused into the objective elimination of the current one, so
// after the initial scan the objective row is only traversed once per pivot.
package simplex

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"gonum.org/v1/gonum/floats"

	"q.log/parsimplex/reduction"
	"q.log/parsimplex/tableau"
)

// ErrUnbounded is returned when the ratio test finds no constraint row with
// a positive entry in the pivot column: the objective can grow without limit
// along the chosen entering variable.
var ErrUnbounded = errors.New("simplex: problem is unbounded")

// Result reports a finished run.
type Result struct {
	// Objective is the optimal objective value, tableau bottom-right.
	Objective float64
	// Iterations is the number of pivots performed.
	Iterations int
}

type status int

const (
	statusRunning status = iota
	statusOptimal
	statusUnbounded
)

// partial is one worker's slot for a phase's reduction results. The padding
// keeps adjacent workers' slots on separate cache lines (cf. the runtime's
// parallel-for thread descriptors).
type partial struct {
	best  reduction.Candidate
	count int
	_     [40]byte
}

// iterState is the per-iteration scratch shared by the team. It is written
// only inside barrier actions or through each worker's own partial slot;
// between barriers every worker reads it freely.
type iterState struct {
	status     status
	pivotCol   int
	pivotRow   int
	pivotVal   float64
	objFactor  float64 // -objective[pivotCol], captured before normalization
	iterations int

	// entering collects the objective-scan candidates (and, during
	// elimination, the remaining-violation counts); ratios collects the
	// ratio-test candidates and ineligible-row counts.
	entering []partial
	ratios   []partial
}

type engine struct {
	t       *tableau.Tableau
	bar     *barrier
	workers int
	chunk   int
	log     *slog.Logger
	st      iterState
}

// Solve runs the parallel simplex loop on t, mutating it in place, and
// returns the optimal objective value and pivot count. The tableau must hold
// a feasible slack basis (all RHS entries non-negative). On an unbounded
// problem it returns ErrUnbounded.
//
// With a fixed input, worker count and chunk size do not affect the result:
// reductions break exact-value ties to the lowest index, so the pivot
// sequence is deterministic under any partitioning.
func Solve(t *tableau.Tableau, opts ...Option) (Result, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return Result{}, err
	}
	if t.Constraints() < 1 || t.Cols() < 2 {
		return Result{}, errors.Errorf("simplex: tableau too small: %dx%d", t.Rows(), t.Cols())
	}

	e := &engine{
		t:       t,
		bar:     newBarrier(o.workers),
		workers: o.workers,
		chunk:   o.chunk,
		log:     o.logger,
	}
	e.st.entering = make([]partial, o.workers)
	e.st.ratios = make([]partial, o.workers)
	for w := range e.st.ratios {
		e.st.entering[w].best = reduction.EmptyMax()
		e.st.ratios[w].best = reduction.EmptyMin()
	}

	e.log.Debug("simplex: starting",
		"constraints", t.Constraints(),
		"cols", t.Cols(),
		"workers", o.workers,
		"chunk", o.chunk)

	var wg conc.WaitGroup
	for w := 0; w < e.workers; w++ {
		w := w
		wg.Go(func() { e.run(w) })
	}
	wg.Wait()

	if e.st.status == statusUnbounded {
		e.log.Info("simplex: unbounded", "iterations", e.st.iterations)
		return Result{Iterations: e.st.iterations}, ErrUnbounded
	}
	e.log.Info("simplex: optimal",
		"objective", t.ObjectiveValue(),
		"iterations", e.st.iterations)
	return Result{Objective: t.ObjectiveValue(), Iterations: e.st.iterations}, nil
}

// run is one worker's life: the initial objective scan, then the pivot loop.
// Every worker executes the same phase sequence, so all of them reach each
// barrier exactly once per iteration.
func (e *engine) run(w int) {
	e.scanObjective(w)
	e.bar.await(e.beginLoop)
	for e.st.status == statusRunning {
		e.ratioTest(w)
		e.bar.await(e.selectPivot)
		if e.st.status != statusRunning {
			return
		}
		e.normalizePivotRow(w)
		e.bar.await(nil)
		e.eliminateRows(w)
		// No barrier here: row elimination and objective elimination touch
		// disjoint rows and both only read the (finalized) pivot row.
		e.eliminateObjective(w)
		e.bar.await(e.finishIteration)
	}
}

// forChunks invokes fn(lo, hi) for every chunk of [0, n) owned by worker w.
// Chunks are dealt round-robin so per-worker load stays balanced when cost
// varies along the index range.
func (e *engine) forChunks(w, n int, fn func(lo, hi int)) {
	step := e.workers * e.chunk
	for lo := w * e.chunk; lo < n; lo += step {
		hi := lo + e.chunk
		if hi > n {
			hi = n
		}
		fn(lo, hi)
	}
}

// scanObjective performs the initial entering-variable scan: each worker
// folds the most negative objective coefficient in its chunks into its
// partial slot. Only run once; later scans are fused into
// eliminateObjective.
func (e *engine) scanObjective(w int) {
	obj := e.t.RawRow(e.t.ObjectiveRow())
	best := reduction.EmptyMax()
	e.forChunks(w, e.t.RHSCol(), func(lo, hi int) {
		for j := lo; j < hi; j++ {
			if obj[j] < 0 {
				best = reduction.MaxOf(best, reduction.Candidate{Value: -obj[j], Index: j})
			}
		}
	})
	e.st.entering[w].best = best
}

// beginLoop folds the initial scan. An invalid candidate means no objective
// coefficient is negative and the starting basis is already optimal.
func (e *engine) beginLoop() {
	cand := e.foldEntering()
	if !cand.Valid() {
		e.st.status = statusOptimal
		return
	}
	e.st.pivotCol = cand.Index
	e.resetScratch()
}

// ratioTest computes RHS/entry for this worker's constraint rows with a
// strictly positive pivot-column entry, tracking the minimum ratio; rows
// with non-positive entries are counted as ineligible instead.
func (e *engine) ratioTest(w int) {
	col := e.st.pivotCol
	rhs := e.t.RHSCol()
	best := reduction.EmptyMin()
	ineligible := 0
	e.forChunks(w, e.t.Constraints(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			row := e.t.RawRow(i)
			if v := row[col]; v > 0 {
				best = reduction.MinOf(best, reduction.Candidate{Value: row[rhs] / v, Index: i})
			} else {
				ineligible++
			}
		}
	})
	e.st.ratios[w].best = best
	e.st.ratios[w].count = ineligible
}

// selectPivot folds the ratio test. If every constraint row was ineligible
// the problem is unbounded; otherwise the pivot row, pivot value and the
// objective-row factor are captured here, before normalization changes the
// pivot row.
func (e *engine) selectPivot() {
	ineligible := 0
	cands := make([]reduction.Candidate, e.workers)
	for w := range e.st.ratios {
		cands[w] = e.st.ratios[w].best
		ineligible += e.st.ratios[w].count
	}
	if ineligible == e.t.Constraints() {
		e.st.status = statusUnbounded
		return
	}
	min := reduction.FoldMin(cands)
	e.st.pivotRow = min.Index
	e.st.pivotVal = e.t.At(min.Index, e.st.pivotCol)
	e.st.objFactor = -e.t.At(e.t.ObjectiveRow(), e.st.pivotCol)
}

// normalizePivotRow divides the pivot row by the pivot value, columns
// partitioned across workers. True division, not multiplication by the
// reciprocal: the pivot entry must come out exactly 1 so that elimination
// zeroes the pivot column exactly.
func (e *engine) normalizePivotRow(w int) {
	row := e.t.RawRow(e.st.pivotRow)
	pv := e.st.pivotVal
	e.forChunks(w, e.t.Cols(), func(lo, hi int) {
		for j := lo; j < hi; j++ {
			row[j] /= pv
		}
	})
}

// eliminateRows clears the pivot column from this worker's constraint rows.
// Rows are disjoint across workers, so the writes need no synchronization.
func (e *engine) eliminateRows(w int) {
	col := e.st.pivotCol
	pivotRow := e.st.pivotRow
	pr := e.t.RawRow(pivotRow)
	e.forChunks(w, e.t.Constraints(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if i == pivotRow {
				continue
			}
			row := e.t.RawRow(i)
			if factor := -row[col]; factor != 0 {
				floats.AddScaled(row, factor, pr)
			}
		}
	})
}

// eliminateObjective applies the same elimination to the objective row,
// columns partitioned across workers, and fuses the next entering-variable
// scan into the pass: every updated coefficient that is still negative is a
// remaining violation and a candidate for the next pivot column.
func (e *engine) eliminateObjective(w int) {
	obj := e.t.RawRow(e.t.ObjectiveRow())
	pr := e.t.RawRow(e.st.pivotRow)
	factor := e.st.objFactor
	rhs := e.t.RHSCol()
	best := reduction.EmptyMax()
	violations := 0
	e.forChunks(w, e.t.Cols(), func(lo, hi int) {
		for j := lo; j < hi; j++ {
			obj[j] += factor * pr[j]
			if j < rhs && obj[j] < 0 {
				violations++
				best = reduction.MaxOf(best, reduction.Candidate{Value: -obj[j], Index: j})
			}
		}
	})
	e.st.entering[w].best = best
	e.st.entering[w].count = violations
}

// finishIteration is the serial bookkeeping between pivots: count the
// iteration, decide termination, install the next pivot column and reset the
// per-iteration scratch exactly once.
func (e *engine) finishIteration() {
	e.st.iterations++
	violations := 0
	for w := range e.st.entering {
		violations += e.st.entering[w].count
	}
	e.log.Debug("simplex: pivot",
		"iteration", e.st.iterations,
		"objective", e.t.ObjectiveValue(),
		"violations", violations)
	if violations == 0 {
		e.st.status = statusOptimal
		return
	}
	e.st.pivotCol = e.foldEntering().Index
	e.resetScratch()
}

func (e *engine) foldEntering() reduction.Candidate {
	cands := make([]reduction.Candidate, e.workers)
	for w := range e.st.entering {
		cands[w] = e.st.entering[w].best
	}
	return reduction.FoldMax(cands)
}

func (e *engine) resetScratch() {
	for w := range e.st.entering {
		e.st.entering[w].best = reduction.EmptyMax()
		e.st.entering[w].count = 0
		e.st.ratios[w].best = reduction.EmptyMin()
		e.st.ratios[w].count = 0
	}
}

package simplex_test

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"q.log/parsimplex/simplex"
	"q.log/parsimplex/tableau"
)

// scenarioTableau encodes
//
//	maximize 3x1 + 5x2
//	x1 <= 4, 2x2 <= 12, 3x1 + 2x2 <= 18, x >= 0
//
// whose optimum is 36, reached in exactly two pivots under the
// most-negative-coefficient rule.
func scenarioTableau() *tableau.Tableau {
	return tableau.NewFromData(4, 6, []float64{
		1, 0, 1, 0, 0, 4,
		0, 2, 0, 1, 0, 12,
		3, 2, 0, 0, 1, 18,
		-3, -5, 0, 0, 0, 0,
	})
}

// randomTableau builds a feasible, bounded standard-form instance: A is
// non-negative, b strictly positive and c positive, so the slack basis is
// feasible and every variable is bounded by some constraint.
func randomTableau(m, n int, seed int64) *tableau.Tableau {
	rng := rand.New(rand.NewSource(seed))
	rows := m + 1
	cols := n + m + 1
	t := tableau.New(rows, cols)
	for i := 0; i < m; i++ {
		row := t.RawRow(i)
		for j := 0; j < n; j++ {
			row[j] = rng.Float64()
		}
		row[n+i] = 1
		row[cols-1] = 1 + rng.Float64()
	}
	obj := t.RawRow(m)
	for j := 0; j < n; j++ {
		obj[j] = -(0.5 + rng.Float64())
	}
	return t
}

func checkInvariants(t *testing.T, tab *tableau.Tableau) {
	t.Helper()
	obj := tab.RawRow(tab.ObjectiveRow())
	for j := 0; j < tab.RHSCol(); j++ {
		assert.GreaterOrEqual(t, obj[j], 0.0, "objective coefficient %d still negative at optimum", j)
	}
	for i := 0; i < tab.Constraints(); i++ {
		assert.GreaterOrEqual(t, tab.At(i, tab.RHSCol()), 0.0, "RHS of row %d went negative", i)
	}
}

func TestSolveScenario(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 8} {
		for _, chunk := range []int{1, 2, 64} {
			t.Run(fmt.Sprintf("workers=%d/chunk=%d", workers, chunk), func(t *testing.T) {
				tab := scenarioTableau()
				res, err := simplex.Solve(tab,
					simplex.WithWorkers(workers),
					simplex.WithChunkSize(chunk))
				require.NoError(t, err)
				assert.Equal(t, 2, res.Iterations)
				assert.InDelta(t, 36.0, res.Objective, 1e-9)
				checkInvariants(t, tab)
			})
		}
	}
}

func TestSolveAlreadyOptimal(t *testing.T) {
	tab := tableau.NewFromData(2, 4, []float64{
		1, 2, 1, 5,
		3, 0, 0, 7,
	})
	res, err := simplex.Solve(tab, simplex.WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, 7.0, res.Objective)
}

func TestSolveUnbounded(t *testing.T) {
	// the only entering column has no positive constraint entry
	tab := tableau.NewFromData(2, 3, []float64{
		-1, 0, 5,
		-1, 0, 0,
	})
	res, err := simplex.Solve(tab, simplex.WithWorkers(3), simplex.WithChunkSize(1))
	require.ErrorIs(t, err, simplex.ErrUnbounded)
	assert.Equal(t, 0, res.Iterations)
}

func TestSolveUnboundedAfterPivot(t *testing.T) {
	// x2 enters first (coefficient -5); after that pivot x1 still improves
	// the objective but its column has no positive entry left.
	tab := tableau.NewFromData(2, 4, []float64{
		-1, 1, 1, 2,
		-3, -5, 0, 0,
	})
	_, err := simplex.Solve(tab, simplex.WithWorkers(2))
	require.ErrorIs(t, err, simplex.ErrUnbounded)
}

// Identical input must give an identical pivot sequence and objective no
// matter how the work is partitioned: every tableau entry is updated by the
// same expression regardless of which worker owns it, and reductions break
// value ties by lowest index.
func TestSolveDeterministic(t *testing.T) {
	base := randomTableau(40, 60, 7)

	type cfg struct{ workers, chunk int }
	cfgs := []cfg{{1, 64}, {2, 1}, {3, 13}, {8, 5}}

	ref, err := simplex.Solve(base.Clone(), simplex.WithWorkers(1), simplex.WithChunkSize(7))
	require.NoError(t, err)
	require.Greater(t, ref.Iterations, 0)

	for _, c := range cfgs {
		t.Run(fmt.Sprintf("workers=%d/chunk=%d", c.workers, c.chunk), func(t *testing.T) {
			res, err := simplex.Solve(base.Clone(),
				simplex.WithWorkers(c.workers),
				simplex.WithChunkSize(c.chunk))
			require.NoError(t, err)
			assert.Equal(t, ref.Iterations, res.Iterations)
			assert.Equal(t, ref.Objective, res.Objective, "bit-identical objective expected")
		})
	}
}

func TestSolveRandomInstances(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			tab := randomTableau(25, 30, seed)
			res, err := simplex.Solve(tab, simplex.WithWorkers(4), simplex.WithChunkSize(8))
			require.NoError(t, err)
			assert.Greater(t, res.Objective, 0.0)
			checkInvariants(t, tab)
		})
	}
}

// objRecorder collects the "objective" attribute of every pivot log record,
// which exposes the per-iteration objective value to the monotonicity check.
type objRecorder struct {
	mu   sync.Mutex
	vals []float64
}

func (r *objRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *objRecorder) Handle(_ context.Context, rec slog.Record) error {
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == "objective" {
			r.mu.Lock()
			r.vals = append(r.vals, a.Value.Float64())
			r.mu.Unlock()
		}
		return true
	})
	return nil
}

func (r *objRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *objRecorder) WithGroup(string) slog.Handler      { return r }

func TestObjectiveMonotone(t *testing.T) {
	rec := &objRecorder{}
	tab := randomTableau(30, 40, 11)
	res, err := simplex.Solve(tab,
		simplex.WithWorkers(4),
		simplex.WithLogger(slog.New(rec)))
	require.NoError(t, err)
	require.NotEmpty(t, rec.vals)

	prev := 0.0 // objective starts at zero for a slack basis
	for i, v := range rec.vals {
		assert.GreaterOrEqual(t, v, prev, "objective decreased at pivot %d", i+1)
		prev = v
	}
	assert.Equal(t, res.Objective, rec.vals[len(rec.vals)-1])
}

func TestSolveBadOptions(t *testing.T) {
	tab := scenarioTableau()

	_, err := simplex.Solve(tab, simplex.WithWorkers(0))
	assert.Error(t, err)

	_, err = simplex.Solve(tab, simplex.WithChunkSize(-1))
	assert.Error(t, err)
}

func TestSolveTooSmall(t *testing.T) {
	_, err := simplex.Solve(tableau.New(1, 3))
	assert.Error(t, err)
}

// More workers than rows or columns must still terminate: idle workers have
// no chunks in some phases but participate in every barrier.
func TestSolveMoreWorkersThanWork(t *testing.T) {
	tab := scenarioTableau()
	res, err := simplex.Solve(tab, simplex.WithWorkers(32), simplex.WithChunkSize(100))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Iterations)
	assert.InDelta(t, 36.0, res.Objective, 1e-9)
}

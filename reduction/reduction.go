// Package reduction implements the associative combine used by the parallel
// pivot searches: fold per-worker best (value, index) pairs into one global
// best, either maximizing or minimizing the value.
//
// Ties on exactly equal values resolve to the lower index. This makes both
// combines associative and commutative, so the global result does not depend
// on how the index range was partitioned across workers.
package reduction

import "math"

// Candidate pairs a reduction value with the tableau index it came from.
// Index is -1 while the candidate is still the empty sentinel.
type Candidate struct {
	Value float64
	Index int
}

// EmptyMax is the identity for MaxOf. Value 0 means only strictly positive
// values can win, which is what the entering-variable scan needs: it folds
// negated objective coefficients, so a coefficient must be strictly negative
// to produce a candidate.
func EmptyMax() Candidate {
	return Candidate{Value: 0, Index: -1}
}

// EmptyMin is the identity for MinOf.
func EmptyMin() Candidate {
	return Candidate{Value: math.Inf(1), Index: -1}
}

// Valid reports whether the candidate ever beat its empty sentinel.
func (c Candidate) Valid() bool {
	return c.Index >= 0
}

// MaxOf keeps the candidate with the larger value; on an exact tie the lower
// index wins.
func MaxOf(a, b Candidate) Candidate {
	return pick(a, b, b.Value > a.Value, a.Value > b.Value)
}

// MinOf keeps the candidate with the smaller value; on an exact tie the lower
// index wins.
func MinOf(a, b Candidate) Candidate {
	return pick(a, b, b.Value < a.Value, a.Value < b.Value)
}

func pick(a, b Candidate, bWins, aWins bool) Candidate {
	switch {
	case bWins:
		return b
	case aWins:
		return a
	case !a.Valid():
		return b
	case !b.Valid():
		return a
	case b.Index < a.Index:
		return b
	default:
		return a
	}
}

// FoldMax folds a slice of partial results with MaxOf.
func FoldMax(cands []Candidate) Candidate {
	best := EmptyMax()
	for _, c := range cands {
		best = MaxOf(best, c)
	}
	return best
}

// FoldMin folds a slice of partial results with MinOf.
func FoldMin(cands []Candidate) Candidate {
	best := EmptyMin()
	for _, c := range cands {
		best = MinOf(best, c)
	}
	return best
}

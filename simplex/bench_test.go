package simplex_test

import (
	"fmt"
	"testing"

	"q.log/parsimplex/simplex"
)

// BenchmarkSolve measures whole-run cost over instance sizes and team sizes.
// The instance is rebuilt outside the timer for every run since the engine
// mutates its input.
func BenchmarkSolve(b *testing.B) {
	cases := []struct {
		m, n int
		seed int64
	}{
		{50, 50, 42},
		{200, 200, 42},
		{500, 500, 42},
	}

	for _, tc := range cases {
		for _, workers := range []int{1, 2, 4, 8} {
			name := fmt.Sprintf("%dx%d/workers=%d", tc.m, tc.n, workers)
			b.Run(name, func(b *testing.B) {
				base := randomTableau(tc.m, tc.n, tc.seed)
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					b.StopTimer()
					tab := base.Clone()
					b.StartTimer()
					if _, err := simplex.Solve(tab,
						simplex.WithWorkers(workers),
						simplex.WithChunkSize(64)); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

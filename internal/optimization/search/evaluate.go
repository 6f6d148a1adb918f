package search

import (
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/localopt/internal/optimization"
)

// evaluate computes the objective at every row of candidates. With more
// than one worker the rows are evaluated concurrently; the returned slice
// is in row order either way.
func evaluate(f optimization.ObjectiveFunction, candidates *mat.Dense, workers int) ([]float64, error) {
	r, _ := candidates.Dims()
	values := make([]float64, r)

	if workers <= 1 || r == 1 {
		for i := 0; i < r; i++ {
			v, err := f(mat.Row(nil, i, candidates))
			if err != nil {
				return nil, optimization.WrapErrorf(err, "candidate %d", i)
			}
			values[i] = v
		}
		return values, nil
	}

	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for i := 0; i < r; i++ {
		i := i
		x := mat.Row(nil, i, candidates)
		p.Go(func() error {
			v, err := f(x)
			if err != nil {
				return optimization.WrapErrorf(err, "candidate %d", i)
			}
			values[i] = v
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

package optimization

import (
	"math"
	"sync/atomic"
	"time"
)

// Optimizer defines the interface for the local optimization drivers
type Optimizer interface {
	// Name returns the algorithm identifier used in logs, metrics and run specs
	Name() string

	// Optimize runs a fixed number of outer steps starting at x0.
	// Running out of steps is normal termination, not an error.
	Optimize(objective ObjectiveFunction, x0 []float64) (*OptimizationResult, error)
}

// ObjectiveFunction defines the function to be minimized. Implementations
// must not modify x.
type ObjectiveFunction func(x []float64) (float64, error)

// Solution represents a point in the search space together with its
// objective value
type Solution struct {
	Parameters []float64
	Value      float64
}

// Evaluation represents a single entry of the optimization history
type Evaluation struct {
	Iteration int
	Solution  *Solution
}

// OptimizationResult contains the result of an optimization run
type OptimizationResult struct {
	// Algorithm is the name of the driver that produced the result
	Algorithm string

	// FinalSolution is the state the driver ended in
	FinalSolution *Solution

	// History holds one entry per outer step plus the starting point
	History []Evaluation

	// Iterations is the number of outer steps performed
	Iterations int

	// Evaluations is the number of objective calls made by the driver
	Evaluations int64

	// Duration is the wall-clock time of the run
	Duration time.Duration
}

// Values returns the objective values recorded in the history
func (r *OptimizationResult) Values() []float64 {
	values := make([]float64, len(r.History))
	for i, eval := range r.History {
		values[i] = eval.Solution.Value
	}
	return values
}

// Best returns the lowest-valued solution of the history. For keep-best
// drivers this is the final solution; gradient descent may have passed
// through a better point.
func (r *OptimizationResult) Best() *Solution {
	var best *Solution
	for _, eval := range r.History {
		if eval.Solution == nil || math.IsNaN(eval.Solution.Value) {
			continue
		}
		if best == nil || eval.Solution.Value < best.Value {
			best = eval.Solution
		}
	}
	if best == nil {
		return r.FinalSolution
	}
	return best
}

// NewSolution copies params into a new Solution
func NewSolution(params []float64, value float64) *Solution {
	return &Solution{
		Parameters: append([]float64(nil), params...),
		Value:      value,
	}
}

// Trajectory records the history of a single run. It is owned by the
// running driver and is not safe for concurrent use.
type Trajectory struct {
	history []Evaluation
}

// NewTrajectory creates a trajectory seeded with the starting solution
func NewTrajectory(steps int, seed *Solution) *Trajectory {
	t := &Trajectory{
		history: make([]Evaluation, 0, steps+1),
	}
	t.history = append(t.history, Evaluation{Iteration: 0, Solution: seed})
	return t
}

// Record appends the state after an outer step
func (t *Trajectory) Record(s *Solution) {
	t.history = append(t.history, Evaluation{
		Iteration: len(t.history),
		Solution:  s,
	})
}

// History returns the recorded evaluations
func (t *Trajectory) History() []Evaluation {
	return t.history
}

// Counter counts objective evaluations. It is safe for concurrent use so
// batch evaluation may share it.
type Counter struct {
	n atomic.Int64
}

// Wrap returns an objective that increments the counter on every call
func (c *Counter) Wrap(f ObjectiveFunction) ObjectiveFunction {
	return func(x []float64) (float64, error) {
		c.n.Add(1)
		return f(x)
	}
}

// Count returns the number of evaluations so far
func (c *Counter) Count() int64 {
	return c.n.Load()
}

// CheckDimension wraps f so that calls with a point of the wrong length fail
// with ErrDimensionMismatch instead of producing a silently wrong value.
func CheckDimension(f ObjectiveFunction, dim int) ObjectiveFunction {
	return func(x []float64) (float64, error) {
		if len(x) != dim {
			return 0, DimensionMismatch("objective", dim, len(x))
		}
		return f(x)
	}
}

// ValidateStart checks that x0 is a usable starting point
func ValidateStart(x0 []float64) error {
	if len(x0) == 0 {
		return InvalidArgument("starting point must have at least one coordinate")
	}
	for i, v := range x0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return InvalidArgumentf("starting point coordinate %d is not finite: %v", i, v)
		}
	}
	return nil
}

// Package search implements the zero-order local search drivers: random
// search, coordinate search and shuffled coordinate descent.
package search

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/acceptance"
	"github.com/copyleftdev/localopt/internal/optimization/direction"
)

// Config contains the tuning parameters shared by the search drivers
type Config struct {
	// StepCount is the fixed number of outer steps
	StepCount int

	// StepSize is the base displacement magnitude
	StepSize float64

	// Diminishing divides the step size by (step+1)
	Diminishing bool

	// DirectionsCount is the number of random directions per step. Only
	// random search uses it.
	DirectionsCount int

	// RandomSeed seeds the run's random source. Nil selects a time-based
	// seed; zero is an ordinary seed.
	RandomSeed *int64

	// Rand overrides RandomSeed with an explicitly owned source
	Rand *rand.Rand

	// Workers evaluates a direction set concurrently when greater than one.
	// Shuffled coordinate descent ignores it.
	Workers int

	// Logger for debug tracing. Nil disables logging.
	Logger *zap.Logger
}

func (c Config) schedule() optimization.StepSchedule {
	return optimization.StepSchedule{Size: c.StepSize, Diminishing: c.Diminishing}
}

func (c Config) validate() error {
	if c.StepCount < 0 {
		return optimization.InvalidArgumentf("step count must not be negative, got %d", c.StepCount)
	}
	return c.schedule().Validate()
}

func (c Config) rng() *rand.Rand {
	if c.Rand != nil {
		return c.Rand
	}
	if c.RandomSeed == nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(*c.RandomSeed))
}

func (c Config) logger(name string) *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger.Named(name)
}

// generator produces the direction set of an outer step
type generator func(dst *mat.Dense, dim int, size float64) (*mat.Dense, error)

// run is the batch loop shared by random and coordinate search
type run struct {
	name     string
	rule     acceptance.Rule
	config   Config
	logger   *zap.Logger
	generate generator
	rows     func(dim int) int
}

// Rule returns the acceptance rule applied to each direction set
func (r *run) Rule() acceptance.Rule {
	return r.rule
}

func (r *run) optimize(f optimization.ObjectiveFunction, x0 []float64) (*optimization.OptimizationResult, error) {
	const op = "Optimize"

	if err := optimization.ValidateStart(x0); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, optimization.InvalidArgument("objective is required").WithComponent(r.name)
	}

	start := time.Now()
	dim := len(x0)
	schedule := r.config.schedule()

	var counter optimization.Counter
	objective := counter.Wrap(optimization.CheckDimension(f, dim))

	value, err := objective(x0)
	if err != nil {
		return nil, optimization.WrapError(err, "evaluating starting point").WithOperation(op).WithComponent(r.name)
	}
	current := optimization.NewSolution(x0, value)
	trajectory := optimization.NewTrajectory(r.config.StepCount, current)

	r.logger.Debug("Starting search",
		zap.Int("dim", dim),
		zap.Int("steps", r.config.StepCount),
		zap.Float64("step_size", r.config.StepSize),
		zap.Bool("diminishing", r.config.Diminishing),
		zap.Float64("value", value),
	)

	buffers := direction.NewPool()
	n := r.rows(dim)
	for step := 0; step < r.config.StepCount; step++ {
		size := schedule.At(step)

		dirs, err := r.generate(buffers.GetDense(n, dim), dim, size)
		if err != nil {
			return nil, optimization.WrapErrorf(err, "step %d", step).WithOperation(op).WithComponent(r.name)
		}
		candidates, err := direction.ApplyInto(buffers.GetDense(n, dim), current.Parameters, dirs)
		if err != nil {
			return nil, optimization.WrapErrorf(err, "step %d", step).WithOperation(op).WithComponent(r.name)
		}

		values, err := evaluate(objective, candidates, r.config.Workers)
		if err != nil {
			return nil, optimization.WrapErrorf(err, "step %d", step).WithOperation(op).WithComponent(r.name)
		}

		if pos := r.rule.Select(current.Value, values); pos >= 0 {
			current = optimization.NewSolution(candidates.RawRowView(pos), values[pos])
		}
		trajectory.Record(current)

		buffers.PutDense(dirs)
		buffers.PutDense(candidates)

		r.logger.Debug("Search step",
			zap.Int("step", step),
			zap.Float64("size", size),
			zap.Float64("value", current.Value),
		)
	}

	return &optimization.OptimizationResult{
		Algorithm:     r.name,
		FinalSolution: current,
		History:       trajectory.History(),
		Iterations:    r.config.StepCount,
		Evaluations:   counter.Count(),
		Duration:      time.Since(start),
	}, nil
}

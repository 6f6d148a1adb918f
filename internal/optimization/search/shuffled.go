package search

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/acceptance"
	"github.com/copyleftdev/localopt/internal/optimization/direction"
)

// CoordinateDescentName identifies the shuffled coordinate descent driver
const CoordinateDescentName = "coordinate_descent"

// CoordinateDescent scans the 2n axis-aligned moves in a freshly shuffled
// order every step and takes the first one that improves on the current
// value. The scan is sequential; Workers is ignored.
type CoordinateDescent struct {
	config Config
	logger *zap.Logger
	rng    *rand.Rand
}

// NewCoordinateDescent creates a shuffled coordinate descent driver
func NewCoordinateDescent(config Config) (*CoordinateDescent, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &CoordinateDescent{
		config: config,
		logger: config.logger(CoordinateDescentName),
		rng:    config.rng(),
	}, nil
}

// Name implements optimization.Optimizer
func (d *CoordinateDescent) Name() string {
	return CoordinateDescentName
}

// Rule returns acceptance.FirstImprovement
func (d *CoordinateDescent) Rule() acceptance.Rule {
	return acceptance.FirstImprovement
}

// Optimize implements optimization.Optimizer
func (d *CoordinateDescent) Optimize(f optimization.ObjectiveFunction, x0 []float64) (*optimization.OptimizationResult, error) {
	const op = "Optimize"

	if err := optimization.ValidateStart(x0); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, optimization.InvalidArgument("objective is required").WithComponent(CoordinateDescentName)
	}

	start := time.Now()
	dim := len(x0)
	schedule := d.config.schedule()

	var counter optimization.Counter
	objective := counter.Wrap(optimization.CheckDimension(f, dim))

	value, err := objective(x0)
	if err != nil {
		return nil, optimization.WrapError(err, "evaluating starting point").WithOperation(op).WithComponent(CoordinateDescentName)
	}
	current := optimization.NewSolution(x0, value)
	trajectory := optimization.NewTrajectory(d.config.StepCount, current)

	order := make([]int, 2*dim)
	for i := range order {
		order[i] = i
	}
	candidate := make([]float64, dim)
	dirs := direction.Axis(dim, 1)

	for step := 0; step < d.config.StepCount; step++ {
		dirs = direction.AxisInto(dirs, dim, schedule.At(step))
		d.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for _, k := range order {
			floats.AddTo(candidate, current.Parameters, dirs.RawRowView(k))
			v, err := objective(candidate)
			if err != nil {
				return nil, optimization.WrapErrorf(err, "step %d", step).WithOperation(op).WithComponent(CoordinateDescentName)
			}
			if d.Rule().Accept(current.Value, v) {
				current = optimization.NewSolution(candidate, v)
				break
			}
		}
		trajectory.Record(current)

		d.logger.Debug("Coordinate descent step",
			zap.Int("step", step),
			zap.Float64("value", current.Value),
		)
	}

	return &optimization.OptimizationResult{
		Algorithm:     CoordinateDescentName,
		FinalSolution: current,
		History:       trajectory.History(),
		Iterations:    d.config.StepCount,
		Evaluations:   counter.Count(),
		Duration:      time.Since(start),
	}, nil
}

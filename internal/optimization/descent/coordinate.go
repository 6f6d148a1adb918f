package descent

import (
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/acceptance"
	"github.com/copyleftdev/localopt/internal/optimization/gradient"
	"github.com/copyleftdev/localopt/internal/optimization/newton"
)

// CoordinateNewtonName identifies the root-finding coordinate descent driver
const CoordinateNewtonName = "coordinate_newton"

// CoordinateNewtonConfig configures coordinate descent by root finding
type CoordinateNewtonConfig struct {
	// StepCount is the number of outer steps. Coordinate i = step mod n is
	// updated at each step.
	StepCount int

	// Provider supplies the partial derivatives. Nil selects central
	// finite differences.
	Provider gradient.Provider

	// Newton configures the inner root finder. Nil selects the defaults.
	Newton *newton.Settings

	Logger *zap.Logger
}

// CoordinateNewton sets one coordinate per step to a root of the partial
// derivative along that axis, cycling round-robin over the coordinates.
type CoordinateNewton struct {
	config   CoordinateNewtonConfig
	provider gradient.Provider
	settings *newton.Settings
	logger   *zap.Logger
}

// NewCoordinateNewton creates a root-finding coordinate descent driver
func NewCoordinateNewton(config CoordinateNewtonConfig) (*CoordinateNewton, error) {
	if config.StepCount < 0 {
		return nil, optimization.InvalidArgumentf("step count must not be negative, got %d", config.StepCount).
			WithComponent(CoordinateNewtonName)
	}

	settings := config.Newton
	if settings == nil {
		settings = newton.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logger := loggerOrNop(config.Logger, CoordinateNewtonName)
	if settings.Logger == nil {
		s := *settings
		s.Logger = logger
		settings = &s
	}

	return &CoordinateNewton{
		config:   config,
		provider: providerOrDefault(config.Provider),
		settings: settings,
		logger:   logger,
	}, nil
}

// Name implements optimization.Optimizer
func (c *CoordinateNewton) Name() string {
	return CoordinateNewtonName
}

// Rule returns acceptance.AlwaysStep: the root is committed even when the
// objective gets worse
func (c *CoordinateNewton) Rule() acceptance.Rule {
	return acceptance.AlwaysStep
}

// Optimize implements optimization.Optimizer. A failure of the inner root
// finder aborts the run and is returned to the caller.
func (c *CoordinateNewton) Optimize(f optimization.ObjectiveFunction, x0 []float64) (*optimization.OptimizationResult, error) {
	const op = "Optimize"

	var counter optimization.Counter
	objective, err := prepare(CoordinateNewtonName, f, x0, c.provider, &counter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	dim := len(x0)

	value, err := objective(x0)
	if err != nil {
		return nil, optimization.WrapError(err, "evaluating starting point").WithOperation(op).WithComponent(CoordinateNewtonName)
	}
	w := append([]float64(nil), x0...)
	trajectory := optimization.NewTrajectory(c.config.StepCount, optimization.NewSolution(w, value))

	// Partials are taken of the unchecked objective so the counter reflects
	// the driver's own evaluations only.
	partials := make([]gradient.PartialFunc, dim)
	seconds := make([]gradient.PartialFunc, dim)
	for i := 0; i < dim; i++ {
		partials[i] = c.provider.Partial(f, i)
		seconds[i] = gradient.Second(c.provider, f, i)
	}

	next := make([]float64, dim)
	for step := 0; step < c.config.StepCount; step++ {
		index := step % dim

		res, err := c.solveAxis(w, index, partials[index], seconds[index])
		if err != nil {
			return nil, optimization.WrapErrorf(err, "step %d, coordinate %d", step, index).
				WithOperation(op).WithComponent(CoordinateNewtonName)
		}
		copy(next, w)
		next[index] = res.Root

		v, err := objective(next)
		if err != nil {
			return nil, optimization.WrapErrorf(err, "step %d", step).WithOperation(op).WithComponent(CoordinateNewtonName)
		}
		if c.Rule().Accept(value, v) {
			w, next = next, w
			value = v
		}
		trajectory.Record(optimization.NewSolution(w, value))

		c.logger.Debug("Coordinate step",
			zap.Int("step", step),
			zap.Int("coordinate", index),
			zap.Float64("root", res.Root),
			zap.Int("newton_iterations", res.Iterations),
			zap.Float64("value", value),
		)
	}

	return &optimization.OptimizationResult{
		Algorithm:     CoordinateNewtonName,
		FinalSolution: optimization.NewSolution(w, value),
		History:       trajectory.History(),
		Iterations:    c.config.StepCount,
		Evaluations:   counter.Count(),
		Duration:      time.Since(start),
	}, nil
}

// solveAxis runs Newton's method on t ↦ ∂f/∂x_i(w with w_i = t), seeded at
// the current w_i
func (c *CoordinateNewton) solveAxis(w []float64, index int, partial, second gradient.PartialFunc) (*newton.Result, error) {
	point := append([]float64(nil), w...)
	var evalErr error

	along := func(p gradient.PartialFunc) func(float64) float64 {
		return func(t float64) float64 {
			point[index] = t
			v, err := p(point)
			if err != nil && evalErr == nil {
				evalErr = err
			}
			return v
		}
	}

	res, err := newton.Solve(along(partial), along(second), w[index], c.settings)
	if evalErr != nil {
		return nil, evalErr
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

package descent

import (
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/acceptance"
	"github.com/copyleftdev/localopt/internal/optimization/direction"
	"github.com/copyleftdev/localopt/internal/optimization/gradient"
)

// GradientDescentName identifies the gradient descent driver
const GradientDescentName = "gradient_descent"

// GradientDescentConfig configures gradient descent
type GradientDescentConfig struct {
	StepCount int

	// StepSize rescales the step to this norm (after the decrement policy).
	// Zero steps by the raw, possibly blended, gradient.
	StepSize float64

	// Diminishing divides StepSize by (step+1)
	Diminishing bool

	// Momentum is the moving-average coefficient β in [0, 1). Zero is
	// plain gradient descent.
	Momentum float64

	// Provider supplies the partial derivatives. Nil selects central
	// finite differences.
	Provider gradient.Provider

	Logger *zap.Logger
}

// GradientDescent steps against the gradient every step without an
// acceptance test, so the objective may temporarily increase.
type GradientDescent struct {
	config   GradientDescentConfig
	provider gradient.Provider
	logger   *zap.Logger
}

// NewGradientDescent creates a gradient descent driver
func NewGradientDescent(config GradientDescentConfig) (*GradientDescent, error) {
	if config.StepCount < 0 {
		return nil, optimization.InvalidArgumentf("step count must not be negative, got %d", config.StepCount).
			WithComponent(GradientDescentName)
	}
	if config.StepSize < 0 {
		return nil, optimization.InvalidArgumentf("step size must not be negative, got %v", config.StepSize).
			WithComponent(GradientDescentName)
	}
	if !(config.Momentum >= 0 && config.Momentum < 1) {
		return nil, optimization.InvalidArgumentf("momentum must be in [0, 1), got %v", config.Momentum).
			WithComponent(GradientDescentName)
	}

	return &GradientDescent{
		config:   config,
		provider: providerOrDefault(config.Provider),
		logger:   loggerOrNop(config.Logger, GradientDescentName),
	}, nil
}

// Name implements optimization.Optimizer
func (g *GradientDescent) Name() string {
	return GradientDescentName
}

// Rule returns acceptance.AlwaysStep: every step is committed
func (g *GradientDescent) Rule() acceptance.Rule {
	return acceptance.AlwaysStep
}

// Optimize implements optimization.Optimizer
func (g *GradientDescent) Optimize(f optimization.ObjectiveFunction, x0 []float64) (*optimization.OptimizationResult, error) {
	const op = "Optimize"

	var counter optimization.Counter
	objective, err := prepare(GradientDescentName, f, x0, g.provider, &counter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	schedule := optimization.StepSchedule{Size: g.config.StepSize, Diminishing: g.config.Diminishing}

	value, err := objective(x0)
	if err != nil {
		return nil, optimization.WrapError(err, "evaluating starting point").WithOperation(op).WithComponent(GradientDescentName)
	}
	w := append([]float64(nil), x0...)
	trajectory := optimization.NewTrajectory(g.config.StepCount, optimization.NewSolution(w, value))

	var (
		grad []float64
		prev []float64
		next = make([]float64, len(w))
	)
	for step := 0; step < g.config.StepCount; step++ {
		grad, err = gradient.Gradient(grad, g.provider, f, w)
		if err != nil {
			return nil, optimization.WrapErrorf(err, "step %d", step).WithOperation(op).WithComponent(GradientDescentName)
		}

		// The moving average is seeded with the first raw gradient.
		if prev != nil && g.config.Momentum > 0 {
			floats.Scale(1-g.config.Momentum, grad)
			floats.AddScaled(grad, g.config.Momentum, prev)
		}
		prev = append(prev[:0], grad...)

		move := grad
		if g.config.StepSize > 0 {
			move = direction.Normalize(grad, schedule.At(step))
		}
		floats.SubTo(next, w, move)

		v, err := objective(next)
		if err != nil {
			return nil, optimization.WrapErrorf(err, "step %d", step).WithOperation(op).WithComponent(GradientDescentName)
		}
		if g.Rule().Accept(value, v) {
			w, next = next, w
			value = v
		}
		trajectory.Record(optimization.NewSolution(w, value))

		g.logger.Debug("Gradient step",
			zap.Int("step", step),
			zap.Float64("gradient_norm", floats.Norm(grad, 2)),
			zap.Float64("value", value),
		)
	}

	return &optimization.OptimizationResult{
		Algorithm:     GradientDescentName,
		FinalSolution: optimization.NewSolution(w, value),
		History:       trajectory.History(),
		Iterations:    g.config.StepCount,
		Evaluations:   counter.Count(),
		Duration:      time.Since(start),
	}, nil
}

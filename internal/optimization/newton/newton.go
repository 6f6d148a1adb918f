// Package newton solves scalar equations f(x) = 0 with Newton's method.
// The solver never differentiates: callers supply the derivative, usually
// obtained from a gradient.Provider.
package newton

import (
	"math"

	"go.uber.org/zap"

	"github.com/copyleftdev/localopt/internal/optimization"
)

const component = "newton"

// Policy selects what Solve does when the residual never drops below the
// tolerance.
type Policy int

const (
	// FailOnNonConvergence returns ErrConvergenceFailure.
	FailOnNonConvergence Policy = iota
	// BestEffort returns the last iterate with Converged set to false.
	BestEffort
)

// String returns the policy name
func (p Policy) String() string {
	switch p {
	case FailOnNonConvergence:
		return "fail"
	case BestEffort:
		return "best_effort"
	default:
		return "unknown"
	}
}

// Settings configures the solver
type Settings struct {
	// Tolerance on the residual |f(x)|
	Tolerance float64

	// MaxIterations bounds the number of Newton steps
	MaxIterations int

	// SingularThreshold is the derivative magnitude at or below which a
	// step is refused
	SingularThreshold float64

	Policy Policy

	// Logger receives a warning for best-effort results. Nil disables it.
	Logger *zap.Logger
}

// DefaultSettings returns the solver defaults
func DefaultSettings() *Settings {
	return &Settings{
		Tolerance:         1e-3,
		MaxIterations:     100,
		SingularThreshold: 1e-12,
		Policy:            FailOnNonConvergence,
	}
}

// Validate checks the settings
func (s *Settings) Validate() error {
	if !(s.Tolerance > 0) {
		return optimization.InvalidArgumentf("tolerance must be positive, got %v", s.Tolerance).WithComponent(component)
	}
	if s.MaxIterations < 1 {
		return optimization.InvalidArgumentf("max iterations must be positive, got %d", s.MaxIterations).WithComponent(component)
	}
	if s.SingularThreshold < 0 {
		return optimization.InvalidArgumentf("singular threshold must not be negative, got %v", s.SingularThreshold).WithComponent(component)
	}
	return nil
}

// Result is the outcome of a solve
type Result struct {
	Root       float64
	Residual   float64
	Iterations int
	Converged  bool
}

// Solve finds a root of f starting at x0 using the derivative df.
// Convergence is |f(x)| < Tolerance. A vanishing derivative fails with
// ErrSingularDerivative. Exhausting MaxIterations fails with
// ErrConvergenceFailure unless the policy is BestEffort.
func Solve(f, df func(float64) float64, x0 float64, settings *Settings) (*Result, error) {
	const op = "Solve"

	if settings == nil {
		settings = DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if f == nil || df == nil {
		return nil, optimization.InvalidArgument("function and derivative are required").
			WithOperation(op).WithComponent(component)
	}

	x := x0
	fx := f(x)
	for i := 0; ; i++ {
		if math.Abs(fx) < settings.Tolerance {
			return &Result{Root: x, Residual: fx, Iterations: i, Converged: true}, nil
		}
		if math.IsNaN(fx) || math.IsInf(x, 0) {
			return nil, optimization.WrapErrorf(optimization.ErrConvergenceFailure,
				"iterate diverged after %d iterations (x=%v, f(x)=%v)", i, x, fx).
				WithOperation(op).WithComponent(component)
		}
		if i == settings.MaxIterations {
			break
		}

		d := df(x)
		if math.IsNaN(d) || math.Abs(d) <= settings.SingularThreshold {
			return nil, optimization.WrapErrorf(optimization.ErrSingularDerivative,
				"derivative %v at x=%v after %d iterations", d, x, i).
				WithOperation(op).WithComponent(component)
		}
		x -= fx / d
		fx = f(x)
	}

	if settings.Policy == BestEffort {
		if settings.Logger != nil {
			settings.Logger.Warn("Root finder did not converge, returning best-effort iterate",
				zap.Float64("root", x),
				zap.Float64("residual", fx),
				zap.Int("iterations", settings.MaxIterations),
			)
		}
		return &Result{Root: x, Residual: fx, Iterations: settings.MaxIterations}, nil
	}
	return nil, optimization.WrapErrorf(optimization.ErrConvergenceFailure,
		"residual %v above tolerance %v after %d iterations", math.Abs(fx), settings.Tolerance, settings.MaxIterations).
		WithOperation(op).WithComponent(component)
}

// Package descent implements the first-order drivers: coordinate descent
// by root finding on partial derivatives, and gradient descent with
// optional momentum.
package descent

import (
	"go.uber.org/zap"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/gradient"
)

func loggerOrNop(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(name)
}

func providerOrDefault(p gradient.Provider) gradient.Provider {
	if p == nil {
		return gradient.NewFiniteDifference()
	}
	return p
}

// prepare validates the common inputs and returns the checked, counted
// objective
func prepare(name string, f optimization.ObjectiveFunction, x0 []float64, provider gradient.Provider, counter *optimization.Counter) (optimization.ObjectiveFunction, error) {
	if err := optimization.ValidateStart(x0); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, optimization.InvalidArgument("objective is required").WithComponent(name)
	}
	if err := gradient.CheckDimension(provider, len(x0)); err != nil {
		return nil, err
	}
	return counter.Wrap(optimization.CheckDimension(f, len(x0))), nil
}

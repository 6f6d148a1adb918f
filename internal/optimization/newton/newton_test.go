package newton

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/copyleftdev/localopt/internal/optimization"
)

func TestSolveSquareRootOfTwo(t *testing.T) {
	f := func(x float64) float64 { return x*x - 2 }
	df := func(x float64) float64 { return 2 * x }

	res, err := Solve(f, df, 1.0, nil)
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDelta(t, 1.41421356, res.Root, 1e-5)
	assert.Less(t, math.Abs(f(res.Root)), 1e-3)
	assert.Equal(t, f(res.Root), res.Residual)
	assert.Equal(t, 3, res.Iterations)
}

func TestSolveResidualNotArgument(t *testing.T) {
	// The root is far from zero; a stop rule on |x| would never trigger
	// and one on the argument would stop at the wrong place.
	f := func(x float64) float64 { return x - 1000 }
	df := func(float64) float64 { return 1 }

	res, err := Solve(f, df, 0, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1000, res.Root, 1e-9)
	assert.Equal(t, 1, res.Iterations)
}

func TestSolveAlreadyAtRoot(t *testing.T) {
	calls := 0
	f := func(x float64) float64 { return x }
	df := func(float64) float64 { calls++; return 1 }

	res, err := Solve(f, df, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, 0, calls)
}

func TestSolveSingularDerivative(t *testing.T) {
	f := func(x float64) float64 { return x*x - 2 }
	df := func(x float64) float64 { return 2 * x }

	_, err := Solve(f, df, 0, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, optimization.ErrSingularDerivative))
}

func TestSolveConvergenceFailure(t *testing.T) {
	// x^2 + 1 has no real root
	f := func(x float64) float64 { return x*x + 1 }
	df := func(x float64) float64 { return 2 * x }

	settings := DefaultSettings()
	settings.MaxIterations = 10

	_, err := Solve(f, df, 2.0, settings)
	require.Error(t, err)
	assert.True(t, errors.Is(err, optimization.ErrConvergenceFailure))
}

func TestSolveBestEffort(t *testing.T) {
	f := func(x float64) float64 { return x*x + 1 }
	df := func(x float64) float64 { return 2 * x }

	settings := DefaultSettings()
	settings.MaxIterations = 10
	settings.Policy = BestEffort
	settings.Logger = zap.NewNop()

	res, err := Solve(f, df, 2.0, settings)
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 10, res.Iterations)
	assert.Equal(t, f(res.Root), res.Residual)
}

func TestSolveInvalidArguments(t *testing.T) {
	f := func(x float64) float64 { return x }

	tests := []struct {
		name     string
		df       func(float64) float64
		settings *Settings
	}{
		{"missing derivative", nil, nil},
		{"zero tolerance", func(float64) float64 { return 1 }, &Settings{Tolerance: 0, MaxIterations: 1}},
		{"zero iterations", func(float64) float64 { return 1 }, &Settings{Tolerance: 1e-3, MaxIterations: 0}},
		{"negative threshold", func(float64) float64 { return 1 }, &Settings{Tolerance: 1e-3, MaxIterations: 1, SingularThreshold: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(f, tt.df, 1, tt.settings)
			require.Error(t, err)
			assert.True(t, errors.Is(err, optimization.ErrInvalidArgument))
		})
	}
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "fail", FailOnNonConvergence.String())
	assert.Equal(t, "best_effort", BestEffort.String())
	assert.Equal(t, "unknown", Policy(9).String())
}

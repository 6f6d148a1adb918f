package gradient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/copyleftdev/localopt/internal/optimization"
)

// f(x0, x1) = x0^2 + 3*x0*x1
func mixed(x []float64) (float64, error) {
	return x[0]*x[0] + 3*x[0]*x[1], nil
}

func mixedAnalytic() *Analytic {
	return &Analytic{
		Partials: []PartialFunc{
			func(x []float64) (float64, error) { return 2*x[0] + 3*x[1], nil },
			func(x []float64) (float64, error) { return 3 * x[0], nil },
		},
	}
}

func TestFiniteDifferencePartial(t *testing.T) {
	tests := []struct {
		name     string
		provider *FiniteDifference
	}{
		{"default central", &FiniteDifference{}},
		{"explicit central", NewFiniteDifference()},
		{"forward with step", &FiniteDifference{Formula: fd.Forward, Step: 1e-7}},
	}

	x := []float64{1, 2}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d0, err := tt.provider.Partial(mixed, 0)(x)
			require.NoError(t, err)
			assert.InDelta(t, 8.0, d0, 1e-5)

			d1, err := tt.provider.Partial(mixed, 1)(x)
			require.NoError(t, err)
			assert.InDelta(t, 3.0, d1, 1e-5)

			assert.Equal(t, []float64{1, 2}, x, "point must not be modified")
		})
	}
}

func TestFiniteDifferenceSecondPartial(t *testing.T) {
	p := NewFiniteDifference()
	d, err := p.SecondPartial(mixed, 0)([]float64{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, d, 1e-4)

	d, err = p.SecondPartial(mixed, 1)([]float64{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d, 1e-4)
}

func TestFiniteDifferencePropagatesObjectiveError(t *testing.T) {
	boom := errors.New("boom")
	f := func(x []float64) (float64, error) { return 0, boom }

	_, err := NewFiniteDifference().Partial(f, 0)([]float64{1})
	assert.ErrorIs(t, err, boom)
}

func TestFiniteDifferenceIndexOutOfRange(t *testing.T) {
	_, err := NewFiniteDifference().Partial(mixed, 5)([]float64{1, 2})
	assert.True(t, errors.Is(err, optimization.ErrDimensionMismatch))
}

func TestAnalytic(t *testing.T) {
	a := mixedAnalytic()
	assert.Equal(t, 2, a.Dim())

	g, err := Gradient(nil, a, mixed, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{8, 3}, g)

	_, err = a.Partial(mixed, 2)([]float64{1, 2})
	assert.True(t, errors.Is(err, optimization.ErrDimensionMismatch))
}

func TestAnalyticSecondFallsBackToFiniteDifference(t *testing.T) {
	a := mixedAnalytic()
	d, err := Second(a, mixed, 0)([]float64{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, d, 1e-4)

	a.Seconds = []PartialFunc{
		func([]float64) (float64, error) { return 2, nil },
		func([]float64) (float64, error) { return 0, nil },
	}
	d, err = Second(a, mixed, 0)([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, d)
}

// firstOnly hides the SecondPartialer implementation
type firstOnly struct{ Provider }

func TestSecondComposesFirstPartials(t *testing.T) {
	p := firstOnly{NewFiniteDifference()}
	d, err := Second(p, mixed, 0)([]float64{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, d, 1e-3)
}

func TestGradientFiniteDifference(t *testing.T) {
	g, err := Gradient(make([]float64, 2), NewFiniteDifference(), mixed, []float64{-1, 0.5})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-0.5, -3}, g, 1e-5)
}

func TestCheckDimension(t *testing.T) {
	assert.NoError(t, CheckDimension(NewFiniteDifference(), 7))
	assert.NoError(t, CheckDimension(mixedAnalytic(), 2))

	err := CheckDimension(mixedAnalytic(), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, optimization.ErrDimensionMismatch))
}

package direction

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/localopt/internal/optimization"
)

// constSource always returns the same value
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func TestRandom(t *testing.T) {
	tests := []struct {
		name  string
		dim   int
		count int
		size  float64
	}{
		{"one dimension", 1, 10, 0.1},
		{"two dimensions", 2, 1000, 1},
		{"ten dimensions", 10, 25, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Random(rand.New(rand.NewSource(42)), tt.dim, tt.count, tt.size)
			require.NoError(t, err)

			r, c := set.Dims()
			assert.Equal(t, tt.count, r)
			assert.Equal(t, tt.dim, c)
			for i := 0; i < r; i++ {
				assert.InDelta(t, tt.size, floats.Norm(set.RawRowView(i), 2), 1e-12, "row %d", i)
			}
		})
	}
}

func TestRandomReproducible(t *testing.T) {
	a, err := Random(rand.New(rand.NewSource(7)), 3, 5, 1)
	require.NoError(t, err)
	b, err := Random(rand.New(rand.NewSource(7)), 3, 5, 1)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestRandomDegenerate(t *testing.T) {
	// 0.5*2-1 == 0 for every component
	_, err := Random(constSource(0.5), 3, 2, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, optimization.ErrDegenerateDirection))
}

func TestRandomInvalid(t *testing.T) {
	_, err := Random(rand.New(rand.NewSource(1)), 0, 3, 1)
	assert.True(t, errors.Is(err, optimization.ErrInvalidArgument))
	_, err = Random(rand.New(rand.NewSource(1)), 2, 0, 1)
	assert.True(t, errors.Is(err, optimization.ErrInvalidArgument))
}

func TestAxis(t *testing.T) {
	set := Axis(2, 1)

	expected := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 1,
		-1, 0,
		0, -1,
	})
	assert.True(t, mat.Equal(expected, set), "got %v", mat.Formatted(set))
}

func TestAxisScaled(t *testing.T) {
	set := Axis(3, 0.25)
	r, c := set.Dims()
	require.Equal(t, 6, r)
	require.Equal(t, 3, c)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.25, set.At(i, i))
		assert.Equal(t, -0.25, set.At(3+i, i))
		assert.InDelta(t, 0.25, floats.Norm(set.RawRowView(i), 2), 1e-15)
	}
}

func TestAxisIntoReusesBuffer(t *testing.T) {
	dst := mat.NewDense(4, 2, []float64{9, 9, 9, 9, 9, 9, 9, 9})
	got := AxisInto(dst, 2, 1)
	assert.Same(t, dst, got)
	assert.Equal(t, 0.0, got.At(0, 1), "stale values must be cleared")
}

func TestApply(t *testing.T) {
	point := []float64{3, 4}
	set := Axis(2, 1)

	candidates, err := Apply(point, set)
	require.NoError(t, err)

	expected := mat.NewDense(4, 2, []float64{
		4, 4,
		3, 5,
		2, 4,
		3, 3,
	})
	assert.True(t, mat.Equal(expected, candidates))
	assert.Equal(t, []float64{3, 4}, point, "point must not be modified")
	assert.Equal(t, 1.0, set.At(0, 0), "set must not be modified")
}

func TestApplyDimensionMismatch(t *testing.T) {
	_, err := Apply([]float64{1, 2, 3}, Axis(2, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, optimization.ErrDimensionMismatch))
}

func TestNormalize(t *testing.T) {
	x := []float64{3, 4}
	got := Normalize(x, 10)
	assert.InDeltaSlice(t, []float64{6, 8}, got, 1e-12)
	assert.Equal(t, []float64{3, 4}, x)

	zero := Normalize([]float64{0, 0}, 1)
	assert.Equal(t, []float64{0, 0}, zero)
}

func TestPool(t *testing.T) {
	p := NewPool()
	m := p.GetDense(3, 2)
	require.NotNil(t, m)

	p.PutDense(m)
	other := p.GetDense(2, 2)
	assert.NotSame(t, m, other)

	again := p.GetDense(3, 2)
	assert.Same(t, m, again)

	fresh := p.GetDense(3, 2)
	assert.NotSame(t, m, fresh, "a taken matrix leaves the pool")

	p.PutDense(nil)
	assert.NotNil(t, p.GetDense(1, 1))
}

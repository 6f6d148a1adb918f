package objectives

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/descent"
)

func TestNewDatasetValidation(t *testing.T) {
	tests := []struct {
		name    string
		x       *mat.Dense
		y       []float64
		wantErr error
	}{
		{"row mismatch", mat.NewDense(3, 2, nil), []float64{1, 2}, optimization.ErrDimensionMismatch},
		{"no samples", &mat.Dense{}, nil, optimization.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDataset(tt.x, tt.y)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestDatasetDesign(t *testing.T) {
	d, err := NewDataset(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), []float64{5, 6})
	require.NoError(t, err)

	assert.Equal(t, 2, d.Samples())
	assert.Equal(t, 3, d.Dim())
	assert.Equal(t, []float64{1 + 2*1 + 3*2, 1 + 2*3 + 3*4}, d.Linear([]float64{1, 2, 3}))
}

func TestCrossEntropyRejectsLabels(t *testing.T) {
	d, err := NewDataset(mat.NewDense(2, 1, []float64{1, 2}), []float64{0, -1})
	require.NoError(t, err)

	_, err = CrossEntropy("bad_labels", d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, optimization.ErrInvalidArgument))
}

func TestSigmoid(t *testing.T) {
	tests := []struct {
		z    float64
		want float64
	}{
		{0, 0.5},
		{800, 1},
		{-800, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Sigmoid(tt.z), 1e-12, "z=%v", tt.z)
	}
	assert.InDelta(t, 1, Sigmoid(2)+Sigmoid(-2), 1e-15)
}

func TestGradientDescentRecoversRegression(t *testing.T) {
	o := LinearRegression()
	g, err := descent.NewGradientDescent(descent.GradientDescentConfig{
		StepCount: 60,
		Provider:  Provider(o, o.Dim()),
	})
	require.NoError(t, err)

	result, err := g.Optimize(Func(o), o.Start())
	require.NoError(t, err)

	for i, want := range RegressionCoefficients {
		assert.InDelta(t, want, result.FinalSolution.Parameters[i], 1e-9, "coefficient %d", i)
	}
	assert.InDelta(t, 0, result.FinalSolution.Value, 1e-15)
}

func TestGradientDescentFitsClassifier(t *testing.T) {
	o := LogisticClassification()

	// reference minimum from gonum's BFGS
	reference, err := optimize.Minimize(optimize.Problem{
		Func: o.Eval,
		Grad: func(grad, x []float64) {
			for i := range grad {
				grad[i] = o.Partial(x, i)
			}
		},
	}, o.Start(), nil, &optimize.BFGS{})
	require.NoError(t, err)

	// the dataset is symmetric under x -> -x, y -> 1-y
	assert.InDelta(t, 0, reference.X[0], 1e-4)

	g, err := descent.NewGradientDescent(descent.GradientDescentConfig{
		StepCount: 5000,
		Provider:  Provider(o, o.Dim()),
	})
	require.NoError(t, err)

	result, err := g.Optimize(Func(o), o.Start())
	require.NoError(t, err)

	assert.InDelta(t, reference.F, result.FinalSolution.Value, 1e-6)
	for i := range reference.X {
		assert.InDelta(t, reference.X[i], result.FinalSolution.Parameters[i], 1e-3, "weight %d", i)
	}

	// only the two points placed across the boundary are misclassified
	assert.InDelta(t, 12.0/14.0, accuracy(ClassificationData(), result.FinalSolution.Parameters), 1e-12)
}

func TestAbsoluteErrorPartials(t *testing.T) {
	o := LinearRegressionAbs()

	// far above the data every residual is positive, so the partials are
	// the column means of the design matrix
	w := []float64{100, 0, 0}
	assert.InDelta(t, 1, o.Partial(w, 0), 1e-12)
	assert.InDelta(t, 0, o.Partial(w, 1), 1e-12)
	assert.InDelta(t, 0, o.Partial(w, 2), 1e-12)
	assert.Equal(t, 0.0, o.SecondPartial(w, 0))
}

func accuracy(d *Dataset, w []float64) float64 {
	var correct int
	for k, z := range d.Linear(w) {
		predicted := 0.0
		if Sigmoid(z) >= 0.5 {
			predicted = 1
		}
		if predicted == d.Y[k] {
			correct++
		}
	}
	return float64(correct) / float64(d.Samples())
}

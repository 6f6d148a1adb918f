package objectives

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/localopt/internal/optimization"
)

// Dataset is a table of samples for model fitting. Row k of X holds the
// features of sample k and Y[k] its target.
type Dataset struct {
	X *mat.Dense
	Y []float64

	// design is X with a leading column of ones for the intercept
	design *mat.Dense
	cols   [][]float64
}

// NewDataset validates the shapes and builds the design matrix
func NewDataset(x *mat.Dense, y []float64) (*Dataset, error) {
	rows, features := x.Dims()
	if rows != len(y) {
		return nil, optimization.DimensionMismatch("dataset", rows, len(y)).WithOperation("NewDataset")
	}
	if rows == 0 {
		return nil, optimization.InvalidArgument("dataset has no samples").
			WithOperation("NewDataset").WithComponent("dataset")
	}

	design := mat.NewDense(rows, features+1, nil)
	for k := 0; k < rows; k++ {
		design.Set(k, 0, 1)
		for j := 0; j < features; j++ {
			design.Set(k, j+1, x.At(k, j))
		}
	}

	cols := make([][]float64, features+1)
	for j := range cols {
		cols[j] = mat.Col(nil, j, design)
	}
	return &Dataset{X: x, Y: append([]float64(nil), y...), design: design, cols: cols}, nil
}

// Samples returns the number of rows
func (d *Dataset) Samples() int {
	return len(d.Y)
}

// Dim is the number of model weights: one per feature plus the intercept w0
func (d *Dataset) Dim() int {
	return len(d.cols)
}

// Linear returns the scores X̃·w of every sample, X̃ being the design matrix
func (d *Dataset) Linear(w []float64) []float64 {
	var z mat.VecDense
	z.MulVec(d.design, mat.NewVecDense(len(w), w))
	return z.RawVector().Data
}

func (d *Dataset) ones() []float64 {
	start := make([]float64, d.Dim())
	for i := range start {
		start[i] = 1
	}
	return start
}

// residuals returns X̃·w − y
func (d *Dataset) residuals(w []float64) []float64 {
	r := d.Linear(w)
	floats.Sub(r, d.Y)
	return r
}

// LeastSquares fits a linear model by half the mean squared residual,
// (1/2m)·Σ (x̃_k·w − y_k)².
func LeastSquares(name string, d *Dataset) Objective {
	m := float64(d.Samples())
	curvature := make([]float64, d.Dim())
	for i, col := range d.cols {
		curvature[i] = floats.Dot(col, col) / m
	}

	return &definition{
		name:        name,
		description: fmt.Sprintf("mean (x.w - y)^2 / 2 over %d samples", d.Samples()),
		dim:         d.Dim(),
		start:       d.ones(),
		eval: func(w []float64) float64 {
			r := d.residuals(w)
			return floats.Dot(r, r) / (2 * m)
		},
		partial: func(w []float64, i int) float64 {
			return floats.Dot(d.cols[i], d.residuals(w)) / m
		},
		second: func(_ []float64, i int) float64 { return curvature[i] },
	}
}

// AbsoluteError fits a linear model by the mean absolute residual. It is
// not differentiable where a residual is zero; the partials use sign(0) = 0
// there.
func AbsoluteError(name string, d *Dataset) Objective {
	m := float64(d.Samples())
	return &definition{
		name:        name,
		description: fmt.Sprintf("mean |x.w - y| over %d samples", d.Samples()),
		dim:         d.Dim(),
		start:       d.ones(),
		eval: func(w []float64) float64 {
			return floats.Norm(d.residuals(w), 1) / m
		},
		partial: func(w []float64, i int) float64 {
			var sum float64
			for k, r := range d.residuals(w) {
				switch {
				case r > 0:
					sum += d.cols[i][k]
				case r < 0:
					sum -= d.cols[i][k]
				}
			}
			return sum / m
		},
		second: func([]float64, int) float64 { return 0 },
	}
}

// CrossEntropy fits a binary classifier p = σ(x̃·w) by the mean log loss.
// Labels must be 0 or 1.
func CrossEntropy(name string, d *Dataset) (Objective, error) {
	for k, y := range d.Y {
		if y != 0 && y != 1 {
			return nil, optimization.InvalidArgumentf("label %d is %v, want 0 or 1", k, y).
				WithOperation("CrossEntropy").WithComponent("dataset")
		}
	}

	m := float64(d.Samples())
	return &definition{
		name:        name,
		description: fmt.Sprintf("mean log loss of sigmoid(x.w) over %d samples", d.Samples()),
		dim:         d.Dim(),
		start:       d.ones(),
		eval: func(w []float64) float64 {
			var sum float64
			for k, z := range d.Linear(w) {
				// −y·log σ(z) − (1−y)·log(1−σ(z)) = softplus(z) − y·z
				sum += softplus(z) - d.Y[k]*z
			}
			return sum / m
		},
		partial: func(w []float64, i int) float64 {
			var sum float64
			for k, z := range d.Linear(w) {
				sum += (Sigmoid(z) - d.Y[k]) * d.cols[i][k]
			}
			return sum / m
		},
		second: func(w []float64, i int) float64 {
			var sum float64
			for k, z := range d.Linear(w) {
				p := Sigmoid(z)
				x := d.cols[i][k]
				sum += p * (1 - p) * x * x
			}
			return sum / m
		},
	}, nil
}

// Sigmoid is the logistic function 1 / (1 + e^−z)
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus is log(1 + e^z) without overflow for large z
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

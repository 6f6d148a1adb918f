package objectives

import (
	"gonum.org/v1/gonum/mat"
)

// RegressionCoefficients are the weights (intercept first) that generate
// the regression dataset exactly.
var RegressionCoefficients = []float64{1.7, 2.5, 3.5}

// RegressionData is a noise-free sample of y = 1.7 + 2.5·x0 + 3.5·x1 on a
// centered 5×3 grid.
func RegressionData() *Dataset {
	var (
		x []float64
		y []float64
	)
	for _, x0 := range []float64{-1, -0.5, 0, 0.5, 1} {
		for _, x1 := range []float64{-1, 0, 1} {
			x = append(x, x0, x1)
			y = append(y, affine(RegressionCoefficients, x0, x1))
		}
	}
	return mustDataset(mat.NewDense(len(y), 2, x), y)
}

// ClassificationData is a two-class sample that no line separates: every
// class 1 point mirrors a class 0 point through the origin, and one point of
// each class sits on the other side.
func ClassificationData() *Dataset {
	negatives := [][2]float64{
		{-1.5, -1}, {-1, -0.5}, {-0.5, -1.5}, {-1, -1}, {-2, -0.5}, {-0.5, 0},
		{0.5, 0.5},
	}

	var (
		x []float64
		y []float64
	)
	for _, p := range negatives {
		x = append(x, p[0], p[1])
		y = append(y, 0)
	}
	for _, p := range negatives {
		x = append(x, -p[0], -p[1])
		y = append(y, 1)
	}
	return mustDataset(mat.NewDense(len(y), 2, x), y)
}

// LinearRegression is the least squares fit of RegressionData
func LinearRegression() Objective {
	return LeastSquares("linear_regression", RegressionData())
}

// LinearRegressionAbs is the absolute error fit of RegressionData
func LinearRegressionAbs() Objective {
	return AbsoluteError("linear_regression_abs", RegressionData())
}

// LogisticClassification is the cross-entropy fit of ClassificationData
func LogisticClassification() Objective {
	o, err := CrossEntropy("logistic_classification", ClassificationData())
	if err != nil {
		panic(err)
	}
	return o
}

func affine(w []float64, x0, x1 float64) float64 {
	return w[0] + w[1]*x0 + w[2]*x1
}

func mustDataset(x *mat.Dense, y []float64) *Dataset {
	d, err := NewDataset(x, y)
	if err != nil {
		panic(err)
	}
	return d
}

// Package objectives provides named benchmark objectives with analytic
// partial derivatives and default starting points.
package objectives

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/gradient"
)

// Objective represents a differentiable benchmark function
type Objective interface {
	// Name returns the registry name
	Name() string

	// Description is a human-readable formula
	Description() string

	// Dim returns the required dimension, or 0 when any dimension works
	Dim() int

	// Eval computes the objective at x
	Eval(x []float64) float64

	// Partial computes ∂f/∂x_i at x
	Partial(x []float64, i int) float64

	// SecondPartial computes ∂²f/∂x_i² at x
	SecondPartial(x []float64, i int) float64

	// Start returns a copy of the default starting point
	Start() []float64
}

// Func adapts an objective to the driver signature. Fixed-dimension
// objectives reject points of any other length.
func Func(o Objective) optimization.ObjectiveFunction {
	f := func(x []float64) (float64, error) {
		return o.Eval(x), nil
	}
	if o.Dim() > 0 {
		return optimization.CheckDimension(f, o.Dim())
	}
	return f
}

// Provider returns the analytic partials of o for points of length dim
func Provider(o Objective, dim int) *gradient.Analytic {
	p := &gradient.Analytic{
		Partials: make([]gradient.PartialFunc, dim),
		Seconds:  make([]gradient.PartialFunc, dim),
	}
	for i := 0; i < dim; i++ {
		i := i
		p.Partials[i] = func(x []float64) (float64, error) {
			return o.Partial(x, i), nil
		}
		p.Seconds[i] = func(x []float64) (float64, error) {
			return o.SecondPartial(x, i), nil
		}
	}
	return p
}

// definition implements Objective from plain functions
type definition struct {
	name        string
	description string
	dim         int
	start       []float64
	eval        func(x []float64) float64
	partial     func(x []float64, i int) float64
	second      func(x []float64, i int) float64
}

func (d *definition) Name() string        { return d.name }
func (d *definition) Description() string { return d.description }
func (d *definition) Dim() int            { return d.dim }

func (d *definition) Eval(x []float64) float64 {
	return d.eval(x)
}

func (d *definition) Partial(x []float64, i int) float64 {
	return d.partial(x, i)
}

func (d *definition) SecondPartial(x []float64, i int) float64 {
	return d.second(x, i)
}

func (d *definition) Start() []float64 {
	return append([]float64(nil), d.start...)
}

// Sphere is Σ x_i², in any dimension
func Sphere() Objective {
	return &definition{
		name:        "sphere",
		description: "sum of w_i^2",
		start:       []float64{3, 4, 5},
		eval:        func(x []float64) float64 { return floats.Dot(x, x) },
		partial:     func(x []float64, i int) float64 { return 2 * x[i] },
		second:      func([]float64, int) float64 { return 2 },
	}
}

// ShiftedQuadratic is w0² + w1² + 2
func ShiftedQuadratic() Objective {
	return &definition{
		name:        "shifted_quadratic",
		description: "w0^2 + w1^2 + 2",
		dim:         2,
		start:       []float64{3, 4},
		eval:        func(x []float64) float64 { return x[0]*x[0] + x[1]*x[1] + 2 },
		partial:     func(x []float64, i int) float64 { return 2 * x[i] },
		second:      func([]float64, int) float64 { return 2 },
	}
}

// CoupledQuadratic is w0² + w1² + w0·w1 + 2
func CoupledQuadratic() Objective {
	return &definition{
		name:        "coupled_quadratic",
		description: "w0^2 + w1^2 + w0*w1 + 2",
		dim:         2,
		start:       []float64{3, 4},
		eval: func(x []float64) float64 {
			return x[0]*x[0] + x[1]*x[1] + x[0]*x[1] + 2
		},
		partial: func(x []float64, i int) float64 { return 2*x[i] + x[1-i] },
		second:  func([]float64, int) float64 { return 2 },
	}
}

// SkewedQuadratic is 0.26(w0² + w1²) − 0.48·w0·w1
func SkewedQuadratic() Objective {
	return &definition{
		name:        "skewed_quadratic",
		description: "0.26*(w0^2 + w1^2) - 0.48*w0*w1",
		dim:         2,
		start:       []float64{-1, 1},
		eval: func(x []float64) float64 {
			return 0.26*(x[0]*x[0]+x[1]*x[1]) - 0.48*x[0]*x[1]
		},
		partial: func(x []float64, i int) float64 { return 0.52*x[i] - 0.48*x[1-i] },
		second:  func([]float64, int) float64 { return 0.52 },
	}
}

// Elliptic is 0.5·w0² + 9.75·w1²
func Elliptic() Objective {
	coef := [2]float64{0.5, 9.75}
	return &definition{
		name:        "elliptic",
		description: "0.5*w0^2 + 9.75*w1^2",
		dim:         2,
		start:       []float64{10, 1},
		eval: func(x []float64) float64 {
			return coef[0]*x[0]*x[0] + coef[1]*x[1]*x[1]
		},
		partial: func(x []float64, i int) float64 { return 2 * coef[i] * x[i] },
		second:  func(_ []float64, i int) float64 { return 2 * coef[i] },
	}
}

// Rosenbrock is 100(w1 − w0²)² + (w0 − 1)²
func Rosenbrock() Objective {
	return &definition{
		name:        "rosenbrock",
		description: "100*(w1 - w0^2)^2 + (w0 - 1)^2",
		dim:         2,
		start:       []float64{-1.2, 1},
		eval: func(x []float64) float64 {
			a := x[1] - x[0]*x[0]
			b := x[0] - 1
			return 100*a*a + b*b
		},
		partial: func(x []float64, i int) float64 {
			a := x[1] - x[0]*x[0]
			if i == 0 {
				return -400*x[0]*a + 2*(x[0]-1)
			}
			return 200 * a
		},
		second: func(x []float64, i int) float64 {
			if i == 0 {
				return 1200*x[0]*x[0] - 400*x[1] + 2
			}
			return 200
		},
	}
}

// TanhRidge is tanh(4w0 + 4w1) + max(0.4·w0², 1) + 1
func TanhRidge() Objective {
	return &definition{
		name:        "tanh_ridge",
		description: "tanh(4*w0 + 4*w1) + max(0.4*w0^2, 1) + 1",
		dim:         2,
		start:       []float64{1, 1},
		eval: func(x []float64) float64 {
			return math.Tanh(4*x[0]+4*x[1]) + math.Max(0.4*x[0]*x[0], 1) + 1
		},
		partial: func(x []float64, i int) float64 {
			th := math.Tanh(4*x[0] + 4*x[1])
			d := 4 * (1 - th*th)
			if i == 0 && 0.4*x[0]*x[0] > 1 {
				d += 0.8 * x[0]
			}
			return d
		},
		second: func(x []float64, i int) float64 {
			th := math.Tanh(4*x[0] + 4*x[1])
			d := -32 * th * (1 - th*th)
			if i == 0 && 0.4*x[0]*x[0] > 1 {
				d += 0.8
			}
			return d
		},
	}
}

// SineQuadratic is sin(3w) + 0.3·w², one-dimensional
func SineQuadratic() Objective {
	return &definition{
		name:        "sine_quadratic",
		description: "sin(3*w) + 0.3*w^2",
		dim:         1,
		start:       []float64{4.5},
		eval:        func(x []float64) float64 { return math.Sin(3*x[0]) + 0.3*x[0]*x[0] },
		partial:     func(x []float64, _ int) float64 { return 3*math.Cos(3*x[0]) + 0.6*x[0] },
		second:      func(x []float64, _ int) float64 { return -9*math.Sin(3*x[0]) + 0.6 },
	}
}

// Quartic is (w⁴ + w² + 10w) / 50, one-dimensional
func Quartic() Objective {
	return &definition{
		name:        "quartic",
		description: "(w^4 + w^2 + 10*w) / 50",
		dim:         1,
		start:       []float64{5},
		eval: func(x []float64) float64 {
			w := x[0]
			return (w*w*w*w + w*w + 10*w) / 50
		},
		partial: func(x []float64, _ int) float64 {
			w := x[0]
			return (4*w*w*w + 2*w + 10) / 50
		},
		second: func(x []float64, _ int) float64 {
			w := x[0]
			return (12*w*w + 2) / 50
		},
	}
}

// Package gradient provides partial derivatives of objective functions.
// The drivers depend only on the Provider interface; FiniteDifference and
// Analytic are the two implementations shipped with the toolkit.
package gradient

import (
	"gonum.org/v1/gonum/diff/fd"

	"github.com/copyleftdev/localopt/internal/optimization"
)

const component = "gradient"

// PartialFunc evaluates a partial derivative at x
type PartialFunc func(x []float64) (float64, error)

// Provider returns, for an objective and a coordinate index, a function
// computing the partial derivative along that coordinate.
type Provider interface {
	Partial(f optimization.ObjectiveFunction, index int) PartialFunc
}

// SecondPartialer is implemented by providers that can compute the second
// derivative along a single coordinate directly.
type SecondPartialer interface {
	SecondPartial(f optimization.ObjectiveFunction, index int) PartialFunc
}

// Dimensioned is implemented by providers bound to a fixed dimension
type Dimensioned interface {
	Dim() int
}

// CheckDimension fails with ErrDimensionMismatch when p is bound to a
// dimension other than dim.
func CheckDimension(p Provider, dim int) error {
	if d, ok := p.(Dimensioned); ok && d.Dim() != dim {
		return optimization.DimensionMismatch(component, dim, d.Dim()).WithOperation("CheckDimension")
	}
	return nil
}

// Second returns the second derivative along index. Providers that do not
// implement SecondPartialer are applied to their own first partial.
func Second(p Provider, f optimization.ObjectiveFunction, index int) PartialFunc {
	if sp, ok := p.(SecondPartialer); ok {
		return sp.SecondPartial(f, index)
	}
	first := p.Partial(f, index)
	return p.Partial(optimization.ObjectiveFunction(first), index)
}

// Gradient evaluates every partial of f at x into dst and returns it. dst
// is allocated when nil or of the wrong length.
func Gradient(dst []float64, p Provider, f optimization.ObjectiveFunction, x []float64) ([]float64, error) {
	if len(dst) != len(x) {
		dst = make([]float64, len(x))
	}
	for i := range x {
		v, err := p.Partial(f, i)(x)
		if err != nil {
			return nil, optimization.WrapErrorf(err, "partial derivative %d", i).
				WithOperation("Gradient").WithComponent(component)
		}
		dst[i] = v
	}
	return dst, nil
}

// FiniteDifference approximates partial derivatives numerically with
// gonum's diff/fd package.
type FiniteDifference struct {
	// Formula for first derivatives. The zero value selects fd.Central.
	Formula fd.Formula

	// Step overrides the formula's default step when positive
	Step float64
}

// NewFiniteDifference returns a central-difference provider
func NewFiniteDifference() *FiniteDifference {
	return &FiniteDifference{Formula: fd.Central}
}

// Partial implements Provider
func (p *FiniteDifference) Partial(f optimization.ObjectiveFunction, index int) PartialFunc {
	formula := p.Formula
	if formula.Stencil == nil {
		formula = fd.Central
	}
	return p.derivative(f, index, formula)
}

// SecondPartial implements SecondPartialer with the fd.Central2nd formula
func (p *FiniteDifference) SecondPartial(f optimization.ObjectiveFunction, index int) PartialFunc {
	return p.derivative(f, index, fd.Central2nd)
}

func (p *FiniteDifference) derivative(f optimization.ObjectiveFunction, index int, formula fd.Formula) PartialFunc {
	return func(x []float64) (float64, error) {
		if index < 0 || index >= len(x) {
			return 0, optimization.WrapErrorf(optimization.ErrDimensionMismatch,
				"coordinate %d out of range for dimension %d", index, len(x)).WithComponent(component)
		}

		work := append([]float64(nil), x...)
		var evalErr error
		line := func(t float64) float64 {
			work[index] = t
			v, err := f(work)
			if err != nil && evalErr == nil {
				evalErr = err
			}
			return v
		}

		d := fd.Derivative(line, x[index], &fd.Settings{
			Formula: formula,
			Step:    p.Step,
		})
		if evalErr != nil {
			return 0, evalErr
		}
		return d, nil
	}
}

// Analytic serves caller-supplied partial derivatives. The objective passed
// to Partial is ignored.
type Analytic struct {
	// Partials holds one first partial per coordinate
	Partials []PartialFunc

	// Seconds optionally holds ∂²f/∂x_i² per coordinate
	Seconds []PartialFunc
}

// Dim implements Dimensioned
func (a *Analytic) Dim() int {
	return len(a.Partials)
}

// Partial implements Provider
func (a *Analytic) Partial(_ optimization.ObjectiveFunction, index int) PartialFunc {
	return pick(a.Partials, index)
}

// SecondPartial implements SecondPartialer. Without Seconds it falls back
// to a central second difference of the objective.
func (a *Analytic) SecondPartial(f optimization.ObjectiveFunction, index int) PartialFunc {
	if len(a.Seconds) == 0 {
		return NewFiniteDifference().SecondPartial(f, index)
	}
	return pick(a.Seconds, index)
}

func pick(partials []PartialFunc, index int) PartialFunc {
	if index < 0 || index >= len(partials) {
		return func(x []float64) (float64, error) {
			return 0, optimization.WrapErrorf(optimization.ErrDimensionMismatch,
				"no partial derivative for coordinate %d of %d", index, len(partials)).WithComponent(component)
		}
	}
	return partials[index]
}

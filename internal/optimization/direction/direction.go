// Package direction generates the candidate displacements evaluated by the
// search drivers. A direction set is a *mat.Dense holding one displacement
// per row.
package direction

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/localopt/internal/optimization"
)

const component = "direction"

// Source is the random source used to draw directions. *rand.Rand
// satisfies it.
type Source interface {
	Float64() float64
}

// Random draws count directions with components uniform in [-1, 1] and
// rescales each one to Euclidean norm size.
func Random(src Source, dim, count int, size float64) (*mat.Dense, error) {
	return RandomInto(nil, src, dim, count, size)
}

// RandomInto is Random writing into dst when dst has the right shape.
func RandomInto(dst *mat.Dense, src Source, dim, count int, size float64) (*mat.Dense, error) {
	const op = "Random"

	if dim < 1 || count < 1 {
		return nil, optimization.InvalidArgumentf("dim and count must be positive, got %d and %d", dim, count).
			WithOperation(op).WithComponent(component)
	}
	dst = reuse(dst, count, dim)

	for i := 0; i < count; i++ {
		row := dst.RawRowView(i)
		for j := range row {
			row[j] = src.Float64()*2 - 1
		}
		norm := floats.Norm(row, 2)
		if norm == 0 {
			return nil, optimization.WrapErrorf(optimization.ErrDegenerateDirection,
				"direction %d has zero norm", i).WithOperation(op).WithComponent(component)
		}
		floats.Scale(size/norm, row)
	}
	return dst, nil
}

// Axis returns the 2·dim displacements {+size·e_i} followed by {-size·e_i},
// in increasing index order.
func Axis(dim int, size float64) *mat.Dense {
	return AxisInto(nil, dim, size)
}

// AxisInto is Axis writing into dst when dst has the right shape.
func AxisInto(dst *mat.Dense, dim int, size float64) *mat.Dense {
	dst = reuse(dst, 2*dim, dim)
	dst.Zero()
	for i := 0; i < dim; i++ {
		dst.Set(i, i, size)
		dst.Set(dim+i, i, -size)
	}
	return dst
}

// Apply translates every displacement of set by point and returns the
// candidate points, one per row. Neither argument is modified.
func Apply(point []float64, set mat.Matrix) (*mat.Dense, error) {
	return ApplyInto(nil, point, set)
}

// ApplyInto is Apply writing into dst when dst has the right shape.
func ApplyInto(dst *mat.Dense, point []float64, set mat.Matrix) (*mat.Dense, error) {
	r, c := set.Dims()
	if c != len(point) {
		return nil, optimization.DimensionMismatch(component, len(point), c).WithOperation("Apply")
	}
	dst = reuse(dst, r, c)
	for i := 0; i < r; i++ {
		row := dst.RawRowView(i)
		for j := range row {
			row[j] = point[j] + set.At(i, j)
		}
	}
	return dst, nil
}

// Normalize returns a copy of x rescaled to Euclidean norm size. A zero
// vector is returned unchanged.
func Normalize(x []float64, size float64) []float64 {
	out := append([]float64(nil), x...)
	length := floats.Norm(out, 2)
	if length == 0 {
		return out
	}
	floats.Scale(size/length, out)
	return out
}

func reuse(dst *mat.Dense, r, c int) *mat.Dense {
	if dst != nil {
		if dr, dc := dst.Dims(); dr == r && dc == c {
			return dst
		}
	}
	return mat.NewDense(r, c, nil)
}

package direction

import "gonum.org/v1/gonum/mat"

// Pool provides reusable direction and candidate matrices so a driver does
// not allocate a new set every outer step. A Pool belongs to one run.
type Pool struct {
	dense []*mat.Dense
}

// NewPool creates a new Pool
func NewPool() *Pool {
	return &Pool{
		dense: make([]*mat.Dense, 0, 4),
	}
}

// GetDense returns an r×c matrix from the pool or creates a new one. The
// contents of a pooled matrix are unspecified.
func (p *Pool) GetDense(r, c int) *mat.Dense {
	for i := len(p.dense) - 1; i >= 0; i-- {
		m := p.dense[i]
		if mr, mc := m.Dims(); mr == r && mc == c {
			p.dense = append(p.dense[:i], p.dense[i+1:]...)
			return m
		}
	}
	return mat.NewDense(r, c, nil)
}

// PutDense returns a matrix to the pool
func (p *Pool) PutDense(m *mat.Dense) {
	if m == nil {
		return
	}
	p.dense = append(p.dense, m)
}

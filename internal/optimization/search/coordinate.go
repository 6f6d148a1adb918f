package search

import (
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/acceptance"
	"github.com/copyleftdev/localopt/internal/optimization/direction"
)

// CoordinateSearchName identifies the coordinate search driver
const CoordinateSearchName = "coordinate_search"

// CoordinateSearch evaluates the 2n axis-aligned moves every step and keeps
// the best one when it is strictly better.
type CoordinateSearch struct {
	run
}

// NewCoordinateSearch creates a coordinate search driver
func NewCoordinateSearch(config Config) (*CoordinateSearch, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &CoordinateSearch{
		run: run{
			name:   CoordinateSearchName,
			rule:   acceptance.KeepBest,
			config: config,
			logger: config.logger(CoordinateSearchName),
			rows:   func(dim int) int { return 2 * dim },
			generate: func(dst *mat.Dense, dim int, size float64) (*mat.Dense, error) {
				return direction.AxisInto(dst, dim, size), nil
			},
		},
	}, nil
}

// Name implements optimization.Optimizer
func (s *CoordinateSearch) Name() string {
	return CoordinateSearchName
}

// Optimize implements optimization.Optimizer
func (s *CoordinateSearch) Optimize(f optimization.ObjectiveFunction, x0 []float64) (*optimization.OptimizationResult, error) {
	return s.optimize(f, x0)
}

package search

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/acceptance"
	"github.com/copyleftdev/localopt/internal/optimization/direction"
)

// RandomSearchName identifies the random search driver
const RandomSearchName = "random_search"

// RandomSearch samples DirectionsCount random directions around the
// current point every step and keeps the best candidate when it is
// strictly better. It owns its random source and must not be shared
// between concurrent runs.
type RandomSearch struct {
	run
	rng *rand.Rand
}

// NewRandomSearch creates a random search driver
func NewRandomSearch(config Config) (*RandomSearch, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if config.DirectionsCount < 1 {
		return nil, optimization.InvalidArgumentf("directions count must be positive, got %d", config.DirectionsCount).
			WithComponent(RandomSearchName)
	}

	s := &RandomSearch{rng: config.rng()}
	s.run = run{
		name:   RandomSearchName,
		rule:   acceptance.KeepBest,
		config: config,
		logger: config.logger(RandomSearchName),
		rows:   func(int) int { return config.DirectionsCount },
		generate: func(dst *mat.Dense, dim int, size float64) (*mat.Dense, error) {
			return direction.RandomInto(dst, s.rng, dim, config.DirectionsCount, size)
		},
	}
	return s, nil
}

// Name implements optimization.Optimizer
func (s *RandomSearch) Name() string {
	return RandomSearchName
}

// Optimize implements optimization.Optimizer
func (s *RandomSearch) Optimize(f optimization.ObjectiveFunction, x0 []float64) (*optimization.OptimizationResult, error) {
	return s.optimize(f, x0)
}

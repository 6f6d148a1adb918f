package objectives

import (
	"sort"

	"github.com/copyleftdev/localopt/internal/optimization"
)

var registry = map[string]func() Objective{}

func init() {
	for _, ctor := range []func() Objective{
		Sphere,
		ShiftedQuadratic,
		CoupledQuadratic,
		SkewedQuadratic,
		Elliptic,
		Rosenbrock,
		TanhRidge,
		SineQuadratic,
		Quartic,
		LinearRegression,
		LinearRegressionAbs,
		LogisticClassification,
	} {
		registry[ctor().Name()] = ctor
	}
}

// Lookup returns a fresh instance of the named objective
func Lookup(name string) (Objective, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, optimization.InvalidArgumentf("unknown objective %q", name).
			WithOperation("Lookup").WithComponent("objectives")
	}
	return ctor(), nil
}

// Names returns the registered objective names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns one instance of every registered objective, sorted by name
func All() []Objective {
	names := Names()
	out := make([]Objective, len(names))
	for i, name := range names {
		out[i] = registry[name]()
	}
	return out
}

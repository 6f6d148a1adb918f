// Package runner turns a declarative run description into a configured
// driver and executes it.
package runner

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/acceptance"
	"github.com/copyleftdev/localopt/internal/optimization/descent"
	"github.com/copyleftdev/localopt/internal/optimization/objectives"
	"github.com/copyleftdev/localopt/internal/optimization/search"
)

const component = "runner"

// Gradient provider names
const (
	GradientAnalytic         = "analytic"
	GradientFiniteDifference = "finite_difference"
)

// Algorithms lists the driver names a RunSpec may select
func Algorithms() []string {
	return []string{
		search.RandomSearchName,
		search.CoordinateSearchName,
		search.CoordinateDescentName,
		descent.CoordinateNewtonName,
		descent.GradientDescentName,
	}
}

// AcceptanceRule returns the acceptance rule the algorithm's driver applies
func AcceptanceRule(algorithm string) (acceptance.Rule, bool) {
	switch algorithm {
	case search.RandomSearchName, search.CoordinateSearchName:
		return acceptance.KeepBest, true
	case search.CoordinateDescentName:
		return acceptance.FirstImprovement, true
	case descent.CoordinateNewtonName, descent.GradientDescentName:
		return acceptance.AlwaysStep, true
	}
	return 0, false
}

// RunSpec describes one optimization run
type RunSpec struct {
	// Name labels the run in reports
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Algorithm string `json:"algorithm" yaml:"algorithm"`
	Objective string `json:"objective" yaml:"objective"`

	// InitialPoint defaults to the objective's starting point
	InitialPoint []float64 `json:"initial_point,omitempty" yaml:"initial_point,omitempty"`

	// StepCount is filled from the defaults when absent; zero is a valid
	// run that only evaluates the starting point
	StepCount *int `json:"step_count,omitempty" yaml:"step_count,omitempty"`

	StepSize        float64 `json:"step_size,omitempty" yaml:"step_size,omitempty"`
	DecrementStep   bool    `json:"decrement_step,omitempty" yaml:"decrement_step,omitempty"`
	DirectionsCount int     `json:"directions_count,omitempty" yaml:"directions_count,omitempty"`
	Momentum        float64 `json:"momentum,omitempty" yaml:"momentum,omitempty"`
	Workers         int     `json:"workers,omitempty" yaml:"workers,omitempty"`

	// Seed fixes the random source of random_search and coordinate_descent.
	// Absent selects a time-based seed.
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Acceptance optionally names the expected acceptance rule
	// (keep_best, first_improvement, always_step). A rule the algorithm
	// does not apply is rejected.
	Acceptance string `json:"acceptance,omitempty" yaml:"acceptance,omitempty"`

	// Gradient selects the derivative provider: analytic (default) or
	// finite_difference
	Gradient string `json:"gradient,omitempty" yaml:"gradient,omitempty"`

	// Root finder settings for coordinate_newton
	Tolerance     float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	BestEffort    bool    `json:"best_effort,omitempty" yaml:"best_effort,omitempty"`
}

// Label returns the run name, or algorithm/objective when unnamed
func (s *RunSpec) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Algorithm + "/" + s.Objective
}

// Steps returns the step count, zero when unset
func (s *RunSpec) Steps() int {
	if s.StepCount == nil {
		return 0
	}
	return *s.StepCount
}

// Defaults fills unset tuning parameters
type Defaults struct {
	StepCount       int
	StepSize        float64
	DirectionsCount int
	Tolerance       float64
	MaxIterations   int
	Workers         int
}

// ApplyDefaults fills the unset fields of s from d. Gradient descent keeps
// a zero step size, which selects the unnormalized step.
func (s *RunSpec) ApplyDefaults(d Defaults) {
	if s.StepCount == nil {
		steps := d.StepCount
		s.StepCount = &steps
	}
	if s.StepSize == 0 && s.Algorithm != descent.GradientDescentName {
		s.StepSize = d.StepSize
	}
	if s.DirectionsCount == 0 && s.Algorithm == search.RandomSearchName {
		s.DirectionsCount = d.DirectionsCount
	}
	if s.Tolerance == 0 {
		s.Tolerance = d.Tolerance
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = d.MaxIterations
	}
	if s.Workers == 0 {
		s.Workers = d.Workers
	}
	if s.Gradient == "" {
		s.Gradient = GradientAnalytic
	}
	if s.Acceptance == "" {
		if rule, ok := AcceptanceRule(s.Algorithm); ok {
			s.Acceptance = rule.String()
		}
	}
}

// Validate checks the fields that do not depend on the driver. Driver
// tuning parameters are checked when the driver is built.
func (s *RunSpec) Validate() error {
	const op = "Validate"

	rule, known := AcceptanceRule(s.Algorithm)
	if !known {
		return optimization.InvalidArgumentf("unknown algorithm %q", s.Algorithm).WithOperation(op).WithComponent(component)
	}
	if s.Acceptance != "" {
		requested, err := acceptance.ParseRule(s.Acceptance)
		if err != nil {
			return optimization.InvalidArgument(err.Error()).WithOperation(op).WithComponent(component)
		}
		if requested != rule {
			return optimization.InvalidArgumentf("%s applies the %s acceptance rule, not %s", s.Algorithm, rule, requested).
				WithOperation(op).WithComponent(component)
		}
	}

	obj, err := objectives.Lookup(s.Objective)
	if err != nil {
		return err
	}
	if obj.Dim() > 0 && len(s.InitialPoint) > 0 && len(s.InitialPoint) != obj.Dim() {
		return optimization.DimensionMismatch(component, obj.Dim(), len(s.InitialPoint)).WithOperation(op)
	}

	if s.Steps() < 0 {
		return optimization.InvalidArgumentf("step count must not be negative, got %d", s.Steps()).WithOperation(op).WithComponent(component)
	}

	switch s.Gradient {
	case "", GradientAnalytic, GradientFiniteDifference:
	default:
		return optimization.InvalidArgumentf("unknown gradient provider %q", s.Gradient).WithOperation(op).WithComponent(component)
	}
	return nil
}

// ParseRunSpecYAML parses a RunSpec from YAML bytes and validates it.
func ParseRunSpecYAML(data []byte) (*RunSpec, error) {
	var spec RunSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse run spec yaml: %w", err)
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run spec: %w", err)
	}

	return &spec, nil
}

// runFile holds several runs under a top-level runs key
type runFile struct {
	Runs []RunSpec `yaml:"runs"`
}

// ParseRunFileYAML parses either a single RunSpec or a document with a
// top-level runs list, and validates every run.
func ParseRunFileYAML(data []byte) ([]RunSpec, error) {
	var file runFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse run file yaml: %w", err)
	}

	if len(file.Runs) == 0 {
		spec, err := ParseRunSpecYAML(data)
		if err != nil {
			return nil, err
		}
		return []RunSpec{*spec}, nil
	}

	for i := range file.Runs {
		if err := file.Runs[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid run %d (%s): %w", i, file.Runs[i].Label(), err)
		}
	}
	return file.Runs, nil
}

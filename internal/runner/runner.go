package runner

import (
	"go.uber.org/zap"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/optimization/descent"
	"github.com/copyleftdev/localopt/internal/optimization/gradient"
	"github.com/copyleftdev/localopt/internal/optimization/newton"
	"github.com/copyleftdev/localopt/internal/optimization/objectives"
	"github.com/copyleftdev/localopt/internal/optimization/search"
)

// Run is a validated spec bound to its driver and objective
type Run struct {
	Spec      RunSpec
	Optimizer optimization.Optimizer
	Objective objectives.Objective
	Start     []float64
}

// Option configures Build
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger passes a logger to the driver
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Build validates spec and constructs its driver. The spec is copied.
func Build(spec RunSpec, opts ...Option) (*Run, error) {
	const op = "Build"

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	rule, _ := AcceptanceRule(spec.Algorithm)
	spec.Acceptance = rule.String()

	obj, err := objectives.Lookup(spec.Objective)
	if err != nil {
		return nil, err
	}

	start := append([]float64(nil), spec.InitialPoint...)
	if len(start) == 0 {
		start = obj.Start()
	}

	var provider gradient.Provider
	switch spec.Gradient {
	case GradientFiniteDifference:
		provider = gradient.NewFiniteDifference()
	default:
		provider = objectives.Provider(obj, len(start))
	}

	searchConfig := search.Config{
		StepCount:       spec.Steps(),
		StepSize:        spec.StepSize,
		Diminishing:     spec.DecrementStep,
		DirectionsCount: spec.DirectionsCount,
		RandomSeed:      spec.Seed,
		Workers:         spec.Workers,
		Logger:          o.logger,
	}

	var driver optimization.Optimizer
	switch spec.Algorithm {
	case search.RandomSearchName:
		driver, err = search.NewRandomSearch(searchConfig)
	case search.CoordinateSearchName:
		driver, err = search.NewCoordinateSearch(searchConfig)
	case search.CoordinateDescentName:
		driver, err = search.NewCoordinateDescent(searchConfig)
	case descent.CoordinateNewtonName:
		settings := newton.DefaultSettings()
		if spec.Tolerance > 0 {
			settings.Tolerance = spec.Tolerance
		}
		if spec.MaxIterations > 0 {
			settings.MaxIterations = spec.MaxIterations
		}
		if spec.BestEffort {
			settings.Policy = newton.BestEffort
		}
		driver, err = descent.NewCoordinateNewton(descent.CoordinateNewtonConfig{
			StepCount: spec.Steps(),
			Provider:  provider,
			Newton:    settings,
			Logger:    o.logger,
		})
	case descent.GradientDescentName:
		driver, err = descent.NewGradientDescent(descent.GradientDescentConfig{
			StepCount:   spec.Steps(),
			StepSize:    spec.StepSize,
			Diminishing: spec.DecrementStep,
			Momentum:    spec.Momentum,
			Provider:    provider,
			Logger:      o.logger,
		})
	}
	if err != nil {
		return nil, optimization.WrapErrorf(err, "building %s", spec.Algorithm).WithOperation(op).WithComponent(component)
	}

	return &Run{
		Spec:      spec,
		Optimizer: driver,
		Objective: obj,
		Start:     start,
	}, nil
}

// Execute runs the driver from the start point
func (r *Run) Execute() (*optimization.OptimizationResult, error) {
	return r.Optimizer.Optimize(objectives.Func(r.Objective), r.Start)
}

// Execute builds and runs spec
func Execute(spec RunSpec, opts ...Option) (*optimization.OptimizationResult, error) {
	run, err := Build(spec, opts...)
	if err != nil {
		return nil, err
	}
	return run.Execute()
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/report"
	"github.com/copyleftdev/localopt/internal/runner"
)

var (
	runFile       string
	algorithm     string
	objective     string
	start         []float64
	steps         int
	stepSize      float64
	decrement     bool
	directions    int
	momentum      float64
	seed          int64
	gradientKind  string
	acceptRule    string
	tolerance     float64
	maxIterations int
	bestEffort    bool
	workers       int
	showHistory   bool
	plotOut       string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one optimization, or every run of a YAML file",
	Long: `Runs the selected algorithm on a named objective and prints a summary.
With --file, the runs described in the YAML file are executed instead of the
flag-defined run.`,
	Example: `  localopt run --algorithm coordinate_search --objective shifted_quadratic --start 3,4 --steps 7 --step-size 1
  localopt run --file runs.yaml --out history.png`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "YAML run file (single run or a runs list)")
	runCmd.Flags().StringVar(&algorithm, "algorithm", "coordinate_search", "Algorithm: "+fmt.Sprint(runner.Algorithms()))
	runCmd.Flags().StringVar(&objective, "objective", "sphere", "Named objective (see 'localopt objectives')")
	runCmd.Flags().Float64SliceVar(&start, "start", nil, "Starting point, comma separated (default: the objective's)")
	runCmd.Flags().IntVar(&steps, "steps", 0, "Number of outer steps, 0 evaluates the start only (default from OPT_DEFAULT_STEP_COUNT)")
	runCmd.Flags().Float64Var(&stepSize, "step-size", 0, "Base step size")
	runCmd.Flags().BoolVar(&decrement, "decrement", false, "Divide the step size by (step+1)")
	runCmd.Flags().IntVar(&directions, "directions", 0, "Random directions per step (random_search)")
	runCmd.Flags().Float64Var(&momentum, "momentum", 0, "Momentum coefficient in [0, 1) (gradient_descent)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (default: time-based)")
	runCmd.Flags().StringVar(&gradientKind, "gradient", runner.GradientAnalytic, "Derivative provider: analytic, finite_difference")
	runCmd.Flags().StringVar(&acceptRule, "acceptance", "", "Expected acceptance rule: keep_best, first_improvement, always_step (default: the algorithm's)")
	runCmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Newton residual tolerance (coordinate_newton)")
	runCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Newton iteration limit (coordinate_newton)")
	runCmd.Flags().BoolVar(&bestEffort, "best-effort", false, "Accept the last Newton iterate instead of failing")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Concurrent objective evaluations per step (search drivers)")
	runCmd.Flags().BoolVar(&showHistory, "history", false, "Print the per-step history")
	runCmd.Flags().StringVarP(&plotOut, "out", "o", "", "Also write a history plot to this file (.png, .svg, .pdf)")

	rootCmd.AddCommand(runCmd)
}

// flagSpec builds the run described by the command-line flags. Step count
// and seed are only set when given, so an explicit 0 is kept.
func flagSpec(cmd *cobra.Command) runner.RunSpec {
	spec := runner.RunSpec{
		Algorithm:       algorithm,
		Objective:       objective,
		InitialPoint:    start,
		StepSize:        stepSize,
		DecrementStep:   decrement,
		DirectionsCount: directions,
		Momentum:        momentum,
		Acceptance:      acceptRule,
		Gradient:        gradientKind,
		Tolerance:       tolerance,
		MaxIterations:   maxIterations,
		BestEffort:      bestEffort,
		Workers:         workers,
	}
	if cmd.Flags().Changed("steps") {
		n := steps
		spec.StepCount = &n
	}
	if cmd.Flags().Changed("seed") {
		v := seed
		spec.Seed = &v
	}
	return spec
}

func loadRunFile(path string) ([]runner.RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}
	return runner.ParseRunFileYAML(data)
}

// executeAll runs every spec with the configured defaults
func executeAll(specs []runner.RunSpec) ([]report.Series, error) {
	series := make([]report.Series, 0, len(specs))
	for _, spec := range specs {
		spec.ApplyDefaults(defaults)

		runLogger := logger.WithField("run", spec.Label())
		runLogger.Info("Starting run", map[string]interface{}{
			"algorithm":  spec.Algorithm,
			"objective":  spec.Objective,
			"acceptance": spec.Acceptance,
			"steps":      spec.Steps(),
		})

		result, err := runner.Execute(spec, runner.WithLogger(driverLogger))
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", spec.Label(), err)
		}

		runLogger.Info("Run complete", map[string]interface{}{
			"final_value": result.FinalSolution.Value,
			"evaluations": result.Evaluations,
			"elapsed":     result.Duration.String(),
		})
		series = append(series, report.Series{Label: spec.Label(), Result: result})
	}
	return series, nil
}

func runOptimization(cmd *cobra.Command, args []string) error {
	specs := []runner.RunSpec{flagSpec(cmd)}
	if runFile != "" {
		var err error
		if specs, err = loadRunFile(runFile); err != nil {
			return err
		}
	}

	series, err := executeAll(specs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := report.WriteSummary(out, series); err != nil {
		return err
	}
	if showHistory {
		for _, s := range series {
			writeHistory(out, s.Label, s.Result)
		}
	}

	if plotOut != "" {
		if err := report.SavePlot(plotOut, "objective value per step", series); err != nil {
			return fmt.Errorf("failed to write plot: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s\n", plotOut)
	}
	return nil
}

func writeHistory(w io.Writer, label string, r *optimization.OptimizationResult) {
	fmt.Fprintf(w, "\n%s\n", label)
	for _, eval := range r.History {
		fmt.Fprintf(w, "%6d  %-14.8g %v\n", eval.Iteration, eval.Solution.Value, eval.Solution.Parameters)
	}
}

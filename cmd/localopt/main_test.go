package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with fresh run flags
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	runFile, plotOut, showHistory, start = "", "", false, nil
	acceptRule = ""
	runCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestObjectivesCommand(t *testing.T) {
	out, err := executeCommand(t, "objectives")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	for _, name := range []string{"sphere", "shifted_quadratic", "rosenbrock", "sine_quadratic", "linear_regression", "logistic_classification"} {
		assert.Contains(t, out, name)
	}
}

func TestRunCommandFlags(t *testing.T) {
	out, err := executeCommand(t, "run",
		"--algorithm", "coordinate_search",
		"--objective", "shifted_quadratic",
		"--start", "3,4",
		"--steps", "7",
		"--step-size", "1",
		"--history",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "coordinate_search")
	assert.Contains(t, out, "BEST POINT")
	assert.Contains(t, out, "[3 4]")
}

func TestRunCommandExplicitZero(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "zero steps evaluates the start only",
			args: []string{"--algorithm", "gradient_descent", "--objective", "shifted_quadratic", "--start", "3,4", "--steps", "0", "--history"},
			want: "     0  27",
		},
		{
			name: "seed zero is accepted",
			args: []string{"--algorithm", "random_search", "--objective", "sphere", "--steps", "3", "--seed", "0"},
			want: "random_search",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(t, append([]string{"run"}, tt.args...)...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestRunCommandAcceptance(t *testing.T) {
	_, err := executeCommand(t, "run", "--algorithm", "gradient_descent", "--objective", "sphere",
		"--steps", "2", "--acceptance", "always_step")
	require.NoError(t, err)

	_, err = executeCommand(t, "run", "--algorithm", "gradient_descent", "--objective", "sphere",
		"--steps", "2", "--acceptance", "keep_best")
	assert.Error(t, err)

	_, err = executeCommand(t, "run", "--algorithm", "gradient_descent", "--objective", "sphere",
		"--acceptance", "greedy")
	assert.Error(t, err)
}

func TestRunCommandRejectsUnknownAlgorithm(t *testing.T) {
	_, err := executeCommand(t, "run", "--algorithm", "simulated_annealing", "--objective", "sphere")
	assert.Error(t, err)
}

func TestRunCommandFileAndPlot(t *testing.T) {
	dir := t.TempDir()
	runs := filepath.Join(dir, "runs.yaml")
	require.NoError(t, os.WriteFile(runs, []byte(`runs:
  - name: search
    algorithm: coordinate_search
    objective: sphere
    step_count: 10
  - name: descent
    algorithm: gradient_descent
    objective: sphere
    step_count: 10
    step_size: 0.5
    momentum: 0.5
`), 0o644))

	png := filepath.Join(dir, "history.png")
	out, err := executeCommand(t, "run", "--file", runs, "--out", png)
	require.NoError(t, err)

	assert.Contains(t, out, "search")
	assert.Contains(t, out, "descent")
	assert.FileExists(t, png)
}

func TestPlotCommand(t *testing.T) {
	dir := t.TempDir()
	runs := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(runs, []byte(`algorithm: random_search
objective: elliptic
step_count: 15
directions_count: 5
seed: 42
`), 0o644))

	svg := filepath.Join(dir, "history.svg")
	out, err := executeCommand(t, "plot", "--file", runs, "--out", svg, "--title", "elliptic")
	require.NoError(t, err)

	assert.Contains(t, out, "1 runs")
	info, err := os.Stat(svg)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPlotCommandMissingFile(t *testing.T) {
	_, err := executeCommand(t, "plot", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

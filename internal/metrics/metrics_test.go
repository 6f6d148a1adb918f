package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/localopt/internal/optimization"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestRunLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RunStarted("coordinate_search")
	m.RunStarted("gradient_descent")

	families := gather(t, reg)
	assert.Equal(t, 2.0, families["localopt_active_runs"].GetMetric()[0].GetGauge().GetValue())

	result := &optimization.OptimizationResult{
		Algorithm:     "coordinate_search",
		FinalSolution: optimization.NewSolution([]float64{0, 0}, 2),
		Evaluations:   29,
		Duration:      3 * time.Millisecond,
	}
	m.RunFinished("coordinate_search", "shifted_quadratic", StatusCompleted, result)
	m.RunFinished("gradient_descent", "sphere", StatusFailed, nil)

	families = gather(t, reg)
	assert.Equal(t, 0.0, families["localopt_active_runs"].GetMetric()[0].GetGauge().GetValue())

	finished := families["localopt_runs_finished_total"].GetMetric()
	require.Len(t, finished, 2)
	statuses := map[string]float64{}
	for _, metric := range finished {
		statuses[labelValue(metric, "algorithm")+"/"+labelValue(metric, "status")] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"coordinate_search/completed": 1,
		"gradient_descent/failed":     1,
	}, statuses)

	evals := families["localopt_objective_evaluations_total"].GetMetric()
	require.Len(t, evals, 1)
	assert.Equal(t, 29.0, evals[0].GetCounter().GetValue())

	hist := families["localopt_run_duration_seconds"].GetMetric()
	require.Len(t, hist, 1)
	assert.Equal(t, uint64(1), hist[0].GetHistogram().GetSampleCount())

	final := families["localopt_last_final_value"].GetMetric()
	require.Len(t, final, 1)
	assert.Equal(t, "shifted_quadratic", labelValue(final[0], "objective"))
	assert.Equal(t, 2.0, final[0].GetGauge().GetValue())
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}

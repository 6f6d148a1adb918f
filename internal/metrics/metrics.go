// Package metrics exposes Prometheus collectors for optimization runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/localopt/internal/optimization"
)

const namespace = "localopt"

// Run outcomes used as the status label
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Metrics holds the run collectors
type Metrics struct {
	runsStarted  *prometheus.CounterVec
	runsFinished *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	evaluations  *prometheus.CounterVec
	finalValue   *prometheus.GaugeVec
	active       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Optimization runs started, by algorithm.",
		}, []string{"algorithm"}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Optimization runs finished, by algorithm and status.",
		}, []string{"algorithm", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of completed runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"algorithm"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objective_evaluations_total",
			Help:      "Objective evaluations performed by completed runs.",
		}, []string{"algorithm"}),
		finalValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_final_value",
			Help:      "Final objective value of the most recent completed run.",
		}, []string{"algorithm", "objective"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Runs currently executing.",
		}),
	}

	reg.MustRegister(m.runsStarted, m.runsFinished, m.duration, m.evaluations, m.finalValue, m.active)
	return m
}

// RunStarted records the start of a run
func (m *Metrics) RunStarted(algorithm string) {
	m.runsStarted.WithLabelValues(algorithm).Inc()
	m.active.Inc()
}

// RunFinished records the outcome of a run. The result is only observed
// for completed runs.
func (m *Metrics) RunFinished(algorithm, objective, status string, result *optimization.OptimizationResult) {
	m.active.Dec()
	m.runsFinished.WithLabelValues(algorithm, status).Inc()

	if status != StatusCompleted || result == nil {
		return
	}
	m.duration.WithLabelValues(algorithm).Observe(result.Duration.Seconds())
	m.evaluations.WithLabelValues(algorithm).Add(float64(result.Evaluations))
	if result.FinalSolution != nil {
		m.finalValue.WithLabelValues(algorithm, objective).Set(result.FinalSolution.Value)
	}
}

package server

import (
	"math"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/copyleftdev/localopt/internal/errors"
	"github.com/copyleftdev/localopt/internal/metrics"
	"github.com/copyleftdev/localopt/internal/optimization"
	"github.com/copyleftdev/localopt/internal/runner"
)

// Job statuses
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = metrics.StatusCompleted
	StatusFailed    = metrics.StatusFailed
	StatusCancelled = metrics.StatusCancelled
)

func terminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// OptimizationState represents the state of an optimization job. Fields
// are guarded by the server's optimizationsMu.
type OptimizationState struct {
	ID          string
	Status      string
	Spec        runner.RunSpec
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time
	Result      *optimization.OptimizationResult
	Err         error
}

// jsonFloat encodes non-finite values as null
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(formatFloat(v)), nil
}

func jsonFloats(x []float64) []jsonFloat {
	out := make([]jsonFloat, len(x))
	for i, v := range x {
		out[i] = jsonFloat(v)
	}
	return out
}

type solutionJSON struct {
	Parameters []jsonFloat `json:"parameters"`
	Value      jsonFloat   `json:"value"`
}

func newSolutionJSON(s *optimization.Solution) *solutionJSON {
	if s == nil {
		return nil
	}
	return &solutionJSON{Parameters: jsonFloats(s.Parameters), Value: jsonFloat(s.Value)}
}

type historyJSON struct {
	Iteration  int         `json:"iteration"`
	Parameters []jsonFloat `json:"parameters"`
	Value      jsonFloat   `json:"value"`
}

// StatusResponse is the body of optimization.status
type StatusResponse struct {
	OptimizationID string        `json:"optimization_id"`
	Status         string        `json:"status"`
	Algorithm      string        `json:"algorithm"`
	Objective      string        `json:"objective"`
	Acceptance     string        `json:"acceptance"`
	StartTime      string        `json:"start_time"`
	LastUpdate     string        `json:"last_update"`
	EndTime        string        `json:"end_time,omitempty"`
	DurationMS     float64       `json:"duration_ms,omitempty"`
	Iterations     int           `json:"iterations,omitempty"`
	Evaluations    int64         `json:"evaluations,omitempty"`
	FinalSolution  *solutionJSON `json:"final_solution,omitempty"`
	BestSolution   *solutionJSON `json:"best_solution,omitempty"`
	History        []historyJSON `json:"history,omitempty"`
	Error          string        `json:"error,omitempty"`
}

func (st *OptimizationState) response(includeHistory bool) *StatusResponse {
	resp := &StatusResponse{
		OptimizationID: st.ID,
		Status:         st.Status,
		Algorithm:      st.Spec.Algorithm,
		Objective:      st.Spec.Objective,
		Acceptance:     st.Spec.Acceptance,
		StartTime:      st.StartTime.Format(time.RFC3339Nano),
		LastUpdate:     st.LastUpdated.Format(time.RFC3339Nano),
	}
	if st.EndTime != nil {
		resp.EndTime = st.EndTime.Format(time.RFC3339Nano)
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}

	r := st.Result
	if r == nil {
		return resp
	}
	resp.DurationMS = float64(r.Duration.Microseconds()) / 1000.0
	resp.Iterations = r.Iterations
	resp.Evaluations = r.Evaluations
	resp.FinalSolution = newSolutionJSON(r.FinalSolution)
	resp.BestSolution = newSolutionJSON(r.Best())
	if includeHistory {
		resp.History = make([]historyJSON, len(r.History))
		for i, eval := range r.History {
			resp.History[i] = historyJSON{
				Iteration:  eval.Iteration,
				Parameters: jsonFloats(eval.Solution.Parameters),
				Value:      jsonFloat(eval.Solution.Value),
			}
		}
	}
	return resp
}

// startOptimization validates spec, builds its driver and launches the run
func (s *Server) startOptimization(spec runner.RunSpec) (*OptimizationState, error) {
	const op = "startOptimization"

	spec.ApplyDefaults(s.cfg.RunDefaults())
	if limit := s.cfg.Optimization.MaxStepCount; spec.Steps() > limit {
		return nil, apperrors.Wrapf(apperrors.ErrBadRequest, "step_count %d exceeds the limit of %d", spec.Steps(), limit).
			WithOperation(op).WithComponent("server")
	}

	id := s.nextID()
	run, err := runner.Build(spec, runner.WithLogger(s.driverLogger.With(zap.String("optimization_id", id))))
	if err != nil {
		return nil, apperrors.Wrap(err, "invalid run").WithOperation(op).WithComponent("server")
	}

	now := time.Now()
	state := &OptimizationState{
		ID:          id,
		Status:      StatusPending,
		Spec:        run.Spec,
		StartTime:   now,
		LastUpdated: now,
	}

	s.optimizationsMu.Lock()
	s.pruneLocked(now)
	s.optimizations[id] = state
	s.optimizationsMu.Unlock()

	s.wg.Add(1)
	go s.runOptimization(state, run)

	s.logger.Info("Optimization started", map[string]interface{}{
		"optimization_id": id,
		"algorithm":       spec.Algorithm,
		"objective":       spec.Objective,
		"step_count":      spec.Steps(),
	})
	return state, nil
}

// runOptimization executes the run. Drivers have no cancellation point, so
// a job cancelled meanwhile runs to the end and its result is discarded.
func (s *Server) runOptimization(state *OptimizationState, run *runner.Run) {
	defer s.wg.Done()

	s.optimizationsMu.Lock()
	if state.Status == StatusCancelled {
		s.optimizationsMu.Unlock()
		return
	}
	state.Status = StatusRunning
	state.LastUpdated = time.Now()
	s.optimizationsMu.Unlock()

	algorithm := run.Optimizer.Name()
	s.metrics.RunStarted(algorithm)

	result, err := run.Execute()

	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	now := time.Now()
	state.LastUpdated = now

	switch {
	case state.Status == StatusCancelled:
		s.metrics.RunFinished(algorithm, state.Spec.Objective, StatusCancelled, nil)
		s.logger.Info("Discarded result of cancelled optimization", map[string]interface{}{
			"optimization_id": state.ID,
		})
		return
	case err != nil:
		state.Status = StatusFailed
		state.Err = err
		s.logger.Error("Optimization failed", map[string]interface{}{
			"optimization_id": state.ID,
			"error":           err.Error(),
		})
	default:
		state.Status = StatusCompleted
		state.Result = result
		s.logger.Info("Optimization completed", map[string]interface{}{
			"optimization_id": state.ID,
			"final_value":     formatFloat(result.FinalSolution.Value),
			"evaluations":     result.Evaluations,
			"duration_ms":     float64(result.Duration.Microseconds()) / 1000.0,
		})
	}
	state.EndTime = &now
	s.metrics.RunFinished(algorithm, state.Spec.Objective, state.Status, result)
}

func (s *Server) optimizationStatus(id string, includeHistory bool) (*StatusResponse, error) {
	s.optimizationsMu.RLock()
	defer s.optimizationsMu.RUnlock()

	state, ok := s.optimizations[id]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "optimization %s", id).WithOperation("status").WithComponent("server")
	}
	return state.response(includeHistory), nil
}

func (s *Server) cancelOptimization(id string) error {
	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	state, ok := s.optimizations[id]
	if !ok {
		return apperrors.Wrapf(apperrors.ErrNotFound, "optimization %s", id).WithOperation("cancel").WithComponent("server")
	}
	if terminal(state.Status) {
		return apperrors.Wrapf(apperrors.ErrConflict, "cannot cancel optimization with status %s", state.Status).
			WithOperation("cancel").WithComponent("server")
	}

	now := time.Now()
	state.Status = StatusCancelled
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})
	return nil
}

// pruneLocked drops terminal jobs that ended longer than the retention ago
func (s *Server) pruneLocked(now time.Time) {
	retention := s.cfg.Optimization.JobRetention
	if retention <= 0 {
		return
	}
	for id, state := range s.optimizations {
		if terminal(state.Status) && state.EndTime != nil && now.Sub(*state.EndTime) > retention {
			delete(s.optimizations, id)
		}
	}
}

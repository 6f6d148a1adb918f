package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/copyleftdev/localopt/internal/config"
	apperrors "github.com/copyleftdev/localopt/internal/errors"
	"github.com/copyleftdev/localopt/internal/logging"
	"github.com/copyleftdev/localopt/internal/metrics"
	"github.com/copyleftdev/localopt/internal/optimization/objectives"
	"github.com/copyleftdev/localopt/internal/runner"
)

// Logger defines the logging interface used by the server
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Server implements the HTTP and JSON-RPC server for the optimization service.
// It manages optimization jobs and provides endpoints to start, monitor, and cancel them.
type Server struct {
	cfg          *config.Config
	logger       Logger
	driverLogger *zap.Logger
	metrics      *metrics.Metrics

	optimizations   map[string]*OptimizationState
	optimizationsMu sync.RWMutex
	wg              sync.WaitGroup
	seq             atomic.Uint64
}

// Option configures a Server
type Option func(*Server)

// WithMetrics records run metrics into m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithDriverLogger sets the logger handed to the drivers
func WithDriverLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.driverLogger = logger
	}
}

// NewServer creates a new server instance with the given config and logger.
// Without WithMetrics the collectors go to a private registry.
func NewServer(cfg *config.Config, logger Logger, opts ...Option) *Server {
	s := &Server{
		cfg:           cfg,
		logger:        logger,
		driverLogger:  zap.NewNop(),
		optimizations: make(map[string]*OptimizationState),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics(prometheus.NewRegistry())
	}
	return s
}

func (s *Server) nextID() string {
	return fmt.Sprintf("opt_%d_%d", time.Now().UnixNano(), s.seq.Add(1))
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", apperrors.ErrorHandler(s.logger, s.handleOptimize))
		r.Get("/status/{id}", apperrors.ErrorHandler(s.logger, s.handleStatus))
		r.Delete("/optimization/{id}", apperrors.ErrorHandler(s.logger, s.handleCancel))
		r.Get("/objectives", apperrors.ErrorHandler(s.logger, s.handleObjectives))
		r.Get("/algorithms", apperrors.ErrorHandler(s.logger, s.handleAlgorithms))
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type idParams struct {
	OptimizationID string `json:"optimization_id"`
	History        *bool  `json:"history,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, apperrors.CodeParseError, "Parse error", nil)
		return
	}

	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, apperrors.CodeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var (
		result interface{}
		err    error
	)

	switch request.Method {
	case "optimization.start":
		var spec runner.RunSpec
		if err = decodeParams(request.Params, &spec); err == nil {
			result, err = s.rpcStart(spec)
		}
	case "optimization.status":
		var p idParams
		if err = decodeParams(request.Params, &p); err == nil {
			result, err = s.optimizationStatus(p.OptimizationID, p.History == nil || *p.History)
		}
	case "optimization.cancel":
		var p idParams
		if err = decodeParams(request.Params, &p); err == nil {
			if err = s.cancelOptimization(p.OptimizationID); err == nil {
				result = map[string]string{"optimization_id": p.OptimizationID, "status": StatusCancelled}
			}
		}
	case "optimization.algorithms":
		result = runner.Algorithms()
	case "objectives.list":
		result = listObjectives()
	default:
		s.respondWithError(w, apperrors.CodeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, apperrors.RPCCode(err), err.Error(), request.ID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: request.ID, Result: result})
}

// decodeParams accepts params as an object or as a one-element array
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return apperrors.Wrap(apperrors.ErrBadRequest, "missing required parameters")
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return apperrors.Wrap(apperrors.ErrBadRequest, "invalid parameter format, expected object")
		}
		raw = list[0]
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.Wrapf(apperrors.ErrBadRequest, "invalid parameters: %v", err)
	}
	return nil
}

func (s *Server) rpcStart(spec runner.RunSpec) (map[string]string, error) {
	state, err := s.startOptimization(spec)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"optimization_id": state.ID,
		"status":          StatusPending,
	}, nil
}

// ObjectiveInfo describes a named objective
type ObjectiveInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Dim         int       `json:"dim"`
	Start       []float64 `json:"start"`
}

func listObjectives() []ObjectiveInfo {
	all := objectives.All()
	out := make([]ObjectiveInfo, len(all))
	for i, o := range all {
		out[i] = ObjectiveInfo{
			Name:        o.Name(),
			Description: o.Description(),
			Dim:         o.Dim(),
			Start:       o.Start(),
		}
	}
	return out
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Debug("RPC error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}

// Close marks unfinished jobs cancelled and waits for their goroutines to
// return or for ctx to expire.
func (s *Server) Close(ctx context.Context) error {
	s.optimizationsMu.Lock()
	now := time.Now()
	for _, state := range s.optimizations {
		if !terminal(state.Status) {
			state.Status = StatusCancelled
			state.EndTime = &now
			state.LastUpdated = now
		}
	}
	s.optimizationsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// handleOptimize handles POST /api/v1/optimize
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) error {
	var spec runner.RunSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		return apperrors.Wrapf(apperrors.ErrBadRequest, "invalid request body: %v", err)
	}

	result, err := s.rpcStart(spec)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusAccepted, result)
}

// handleStatus handles GET /api/v1/status/{id}; ?history=false omits the history
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) error {
	includeHistory := true
	if v := r.URL.Query().Get("history"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apperrors.Wrapf(apperrors.ErrBadRequest, "invalid history flag %q", v)
		}
		includeHistory = b
	}

	resp, err := s.optimizationStatus(chi.URLParam(r, "id"), includeHistory)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

// handleCancel handles DELETE /api/v1/optimization/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if err := s.cancelOptimization(id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{
		"optimization_id": id,
		"status":          StatusCancelled,
	})
}

func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, listObjectives())
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, runner.Algorithms())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

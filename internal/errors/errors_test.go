package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/localopt/internal/logging"
	"github.com/copyleftdev/localopt/internal/optimization"
)

func TestErrorFormatting(t *testing.T) {
	err := Wrap(ErrNotFound, "optimization opt_1").WithOperation("status").WithComponent("server")
	assert.Equal(t, "optimization opt_1: operation=status, component=server: not found", err.Error())
	assert.NotEmpty(t, err.StackTrace())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %d", 1))
}

func TestWrapKeepsInnerMessage(t *testing.T) {
	inner := Wrap(ErrConflict, "inner")
	outer := Wrap(inner, "outer")

	assert.Equal(t, "inner", inner.Message)
	assert.Equal(t, "outer: inner: conflict", outer.Error())
	assert.True(t, Is(outer, ErrConflict))
}

func TestIsAndAs(t *testing.T) {
	wrapped := Wrapf(optimization.InvalidArgument("step size must be positive"), "starting %s", "random_search")

	assert.True(t, Is(wrapped, optimization.ErrInvalidArgument))
	assert.False(t, Is(wrapped, ErrNotFound))

	var optErr *optimization.Error
	require.True(t, As(wrapped, &optErr))
	assert.Equal(t, "step size must be positive", optErr.Message)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code int
	}{
		{"nil", nil, http.StatusOK, CodeServerError},
		{"not found", Wrap(ErrNotFound, "job"), http.StatusNotFound, CodeServerError},
		{"conflict", Wrap(ErrConflict, "job"), http.StatusConflict, CodeServerError},
		{"bad request", ErrBadRequest, http.StatusBadRequest, CodeInvalidParams},
		{"invalid argument", optimization.InvalidArgument("x"), http.StatusBadRequest, CodeInvalidParams},
		{"dimension", optimization.DimensionMismatch("objective", 2, 3), http.StatusBadRequest, CodeInvalidParams},
		{"other", stderrors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
			assert.Equal(t, tt.code, RPCCode(tt.err))
		})
	}
}

func TestErrorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.DebugLevel, &buf)

	h := ErrorHandler(logger, func(w http.ResponseWriter, r *http.Request) error {
		return Wrap(ErrNotFound, "optimization opt_9")
	})

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/api/v1/status/opt_9", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "not found")
	assert.Contains(t, buf.String(), "Request error")
}

func TestErrorHandlerSuccess(t *testing.T) {
	h := ErrorHandler(logging.New(logging.InfoLevel, &bytes.Buffer{}), func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	})

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.InfoLevel, &buf)

	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("objective exploded")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/rpc", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "Recovered from panic")
	assert.Contains(t, buf.String(), "objective exploded")
}

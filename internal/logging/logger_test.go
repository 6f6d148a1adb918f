package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf).WithField("service", "localopt")

	logger.Debug("hidden")
	logger.Info("run finished", map[string]interface{}{"steps": 7})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "run finished", entries[0]["message"])
	assert.Equal(t, "localopt", entries[0]["service"])
	assert.Equal(t, 7.0, entries[0]["steps"])
	assert.Contains(t, entries[0]["caller"], "logging/logger_test.go")
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&Config{Level: "debug", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	logger.output = &buf

	logger.WithFields(map[string]interface{}{"b": 2, "a": 1}).Debug("step")

	line := buf.String()
	assert.Contains(t, line, "DEBUG")
	assert.Contains(t, line, "step")
	assert.Less(t, strings.Index(line, "a=1"), strings.Index(line, "b=2"), "fields are sorted")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
		"verbose": InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(DebugLevel, &buf)
	_ = parent.WithField("child", true)

	parent.Info("parent")
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	_, ok := entries[0]["child"]
	assert.False(t, ok)
}

func TestZapLogger(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZapLogger(New(InfoLevel, &buf)).Named("coordinate_search")

	zl.Debug("hidden")
	zl.Info("step",
		zap.Int("step", 3),
		zap.Float64("value", 2.5),
		zap.Duration("elapsed", time.Second),
	)
	zl.With(zap.String("run", "r1")).Warn("best effort")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "step", entries[0]["message"])
	assert.Equal(t, 3.0, entries[0]["step"])
	assert.Equal(t, 2.5, entries[0]["value"])
	assert.Equal(t, "coordinate_search", entries[0]["logger"])

	assert.Equal(t, "WARN", entries[1]["level"])
	assert.Equal(t, "r1", entries[1]["run"])
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := (&CtxLogger{New(InfoLevel, &buf)}).WithContext(context.Background())

	FromContext(ctx).Info("from context")
	assert.Contains(t, buf.String(), "from context")

	assert.NotNil(t, FromContext(context.Background()))
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(InfoLevel, &buf)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(logger))
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("handler")
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	for _, path := range []string{"/ok", "/missing"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 3)
	assert.Equal(t, "handler", entries[0]["message"])
	assert.NotEmpty(t, entries[0]["request_id"], "handler logger carries the request id")
	assert.Equal(t, "Request completed", entries[1]["message"])
	assert.Equal(t, 200.0, entries[1]["status"])
	assert.Equal(t, "Request rejected", entries[2]["message"])
	assert.Equal(t, "WARN", entries[2]["level"])
}

func TestNewLoggerConfig(t *testing.T) {
	_, err := NewLogger(&Config{Format: "xml"})
	assert.Error(t, err)

	var buf bytes.Buffer
	logger, err := NewLogger(&Config{Level: "warn", Fields: map[string]interface{}{"service": "localopt"}})
	require.NoError(t, err)
	logger.output = &buf

	logger.Info("dropped")
	logger.Warn("kept")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["message"])
	assert.Equal(t, "localopt", entries[0]["service"])
}

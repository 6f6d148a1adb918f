package logging

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware logs each request on completion and stores a request-scoped
// logger in the request context. It must run after middleware.RequestID.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			requestLogger := logger.WithFields(map[string]interface{}{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			ctx := (&CtxLogger{requestLogger}).WithContext(r.Context())

			next.ServeHTTP(ww, r.WithContext(ctx))

			latency := time.Since(start)
			fields := map[string]interface{}{
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"latency_ms": float64(latency.Microseconds()) / 1000.0,
				"remote":     r.RemoteAddr,
			}

			switch status := ww.Status(); {
			case status >= 500:
				requestLogger.Error("Request failed", fields)
			case status >= 400:
				requestLogger.Warn("Request rejected", fields)
			default:
				requestLogger.Info("Request completed", fields)
			}
		})
	}
}

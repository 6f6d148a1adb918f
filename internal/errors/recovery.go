package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"runtime/debug"
)

// Logger is the subset of logging.Logger the middlewares need
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
}

// RecoveryMiddleware returns a middleware that recovers from panics.
func RecoveryMiddleware(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logger.Error("Recovered from panic", map[string]interface{}{
						"error":  rec,
						"stack":  string(debug.Stack()),
						"method": r.Method,
						"path":   r.URL.Path,
					})

					WriteJSON(w, stderrors.New("internal error"), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerFunc is an HTTP handler that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorHandler adapts h to an http.HandlerFunc. A returned error is logged
// and written as a JSON body with the status given by HTTPStatus.
func ErrorHandler(logger Logger, h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		status := HTTPStatus(err)
		fields := map[string]interface{}{
			"status": status,
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err.Error(),
		}
		if status >= http.StatusInternalServerError {
			var e *Error
			if As(err, &e) && len(e.Stack) > 0 {
				fields["stack"] = e.Stack[0]
			}
			logger.Error("Request error", fields)
		} else {
			logger.Debug("Request error", fields)
		}

		WriteJSON(w, err, status)
	}
}

// WriteJSON writes {"error": message} with the given status
func WriteJSON(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

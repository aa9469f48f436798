package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vitrine-io/vitrine/pkg/log"
)

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging logs every request at debug level, with its route template when one matched.
// Handlers find a logger carrying the method and path with log.FromContext.
func Logging(logger log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := NewStatusRecorder(w)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}
			reqLogger := logger.WithValues("method", r.Method, "path", path)

			next.ServeHTTP(rec, r.WithContext(log.NewContext(r.Context(), reqLogger)))

			reqLogger.Debug("HTTP request", "status", rec.Status, "duration", time.Since(start))
		})
	}
}

// Recover turns a handler panic into a 500 so one bad request cannot take the agent down.
func Recover(logger log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Warn("Recovered from handler panic", "path", r.URL.Path, "panic", rec)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

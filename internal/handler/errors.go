package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"tush00nka/filehub/internal/pkg/httputils"
)

func NotFound(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseError(w, r, http.StatusNotFound, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseError(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed", r.Method))
}

// Recoverer turns panics into a 500 with the standard error body.
func Recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.ErrorContext(r.Context(), "panic recovered", "panic", rec, "path", r.URL.Path, "stack", string(debug.Stack()))
				httputils.ResponseError(w, r, http.StatusInternalServerError, "Internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"tenantchat/internal/httputil"
)

// Recovery turns a handler panic into a 500 problem response and logs the
// stack. http.ErrAbortHandler is re-raised so net/http can abort the
// connection as intended.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"company", r.PathValue("company"),
					"stack", string(debug.Stack()),
				)

				p := httputil.NewProblem(http.StatusInternalServerError, "internal server error")
				p.Instance = r.URL.Path
				httputil.RespondProblem(w, p)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

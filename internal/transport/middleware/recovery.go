package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoveryMiddleware provides panic recovery with detailed logging. The
// gateway retries deliveries on anything it cannot parse, so recovered
// panics answer 200 with an empty body instead of an error page.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"method", r.Method,
						"url", r.URL.String(),
						"stack", string(debug.Stack()))

					w.WriteHeader(http.StatusOK)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

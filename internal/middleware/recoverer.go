package middleware

import (
	"net/http"

	"github.com/jonanatree/cardbinder/internal/web"
	"golang.org/x/exp/slog"
)

// Recoverer converts a handler panic into a 500 with a generic JSON body.
// The panic value is logged, never echoed to the client.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic handling request",
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
					)
					web.RespondError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

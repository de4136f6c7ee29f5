package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Vicae-a/Blog/internal/handler/dto"
)

// Recoverer recovers from panics, logs them and returns a 500 envelope.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				dto.WriteError(w, http.StatusInternalServerError, dto.MessageInternal)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

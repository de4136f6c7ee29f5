package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Vicae-a/Blog/internal/auth"
	"github.com/Vicae-a/Blog/internal/handler/dto"
	"github.com/Vicae-a/Blog/internal/model"
)

// Authenticator resolves a bearer token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Session, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return authenticate(cfg, true)
}

// OptionalAuth attaches the session when a valid token is sent and lets
// anonymous requests through unchanged.
func OptionalAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return authenticate(cfg, false)
}

func authenticate(cfg AuthConfig, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				if required {
					logAuthFailure(cfg.Logger, r, "missing_token")
					writeAuthError(w)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			session, err := cfg.Authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if required {
					logAuthFailure(cfg.Logger, r, "invalid_token")
					writeAuthError(w)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.ContextWithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken reads "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError uses the same message for all auth failures.
func writeAuthError(w http.ResponseWriter) {
	dto.WriteError(w, http.StatusUnauthorized, dto.MessageUnauthentic)
}

package auth

import (
	"context"

	"github.com/Vicae-a/Blog/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const sessionContextKey contextKey = "session"

// ContextWithSession adds the authenticated session to the context.
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext retrieves the session from the context.
// Returns nil if the request is anonymous.
func SessionFromContext(ctx context.Context) *model.Session {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok {
		return nil
	}
	return session
}

// UserIDFromContext returns the authenticated user id, or false for
// anonymous requests.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	session := SessionFromContext(ctx)
	if session == nil {
		return 0, false
	}
	return session.UserID, true
}

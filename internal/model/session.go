package model

import "time"

// Session identifies an authenticated caller for the lifetime of a token.
type Session struct {
	ID        string    `json:"sid"`
	UserID    int64     `json:"user_id"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

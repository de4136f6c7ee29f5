package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/Vicae-a/Blog/internal/model"
)

const (
	sessionPrefix     = "session:"
	userSessionPrefix = "user_sessions:"
)

// ErrSessionNotFound is returned for revoked, expired or unknown sessions.
var ErrSessionNotFound = errors.New("session not found")

func sessionKey(sessionID string) string {
	return sessionPrefix + sessionID
}

func userSessionsKey(userID int64) string {
	return userSessionPrefix + strconv.FormatInt(userID, 10)
}

// SaveSession records an active session until its expiry. It is indexed by
// user so all of a user's sessions can be revoked together.
func (c *Cache) SaveSession(ctx context.Context, session *model.Session) error {
	ttl := session.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, ttl)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.ID)
	pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

// GetSession returns the stored session or ErrSessionNotFound.
func (c *Cache) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// Corrupted entry - treat as revoked
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

// DeleteSession revokes a single session. Revoking a missing session is not
// an error.
func (c *Cache) DeleteSession(ctx context.Context, session *model.Session) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, sessionKey(session.ID))
	pipe.SRem(ctx, userSessionsKey(session.UserID), session.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RevokeUserSessions revokes every session of userID except keepSessionID.
// Returns the number of sessions revoked.
func (c *Cache) RevokeUserSessions(ctx context.Context, userID int64, keepSessionID string) (int, error) {
	ids, err := c.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}

	revoke := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != keepSessionID {
			revoke = append(revoke, id)
		}
	}
	if len(revoke) == 0 {
		return 0, nil
	}

	keys := make([]string, len(revoke))
	members := make([]any, len(revoke))
	for i, id := range revoke {
		keys[i] = sessionKey(id)
		members[i] = id
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, userSessionsKey(userID), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}

	return len(revoke), nil
}

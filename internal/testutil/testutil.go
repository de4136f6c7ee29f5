package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Vicae-a/Blog/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 510510

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops every table (down migrations, newest first) and
// recreates them (up migrations, oldest first).
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	downs, err := migrationFiles(".down.sql")
	if err != nil {
		return err
	}
	for i := len(downs) - 1; i >= 0; i-- {
		if err := execFile(ctx, pool, downs[i]); err != nil {
			return err
		}
	}

	ups, err := migrationFiles(".up.sql")
	if err != nil {
		return err
	}
	for _, path := range ups {
		if err := execFile(ctx, pool, path); err != nil {
			return err
		}
	}

	return nil
}

func migrationFiles(suffix string) ([]string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(root, "migrations"))
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, filepath.Join(root, "migrations", entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func execFile(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", filepath.Base(path), err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", filepath.Base(path), err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@example.test", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewTestUser creates an unsaved user with sensible defaults.
func NewTestUser(t testing.TB, name string) *model.User {
	t.Helper()
	return &model.User{
		Name:         name,
		Email:        UniqueEmail(strings.ToLower(name)),
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
	}
}

// NewTestPost creates an unsaved post owned by userID.
func NewTestPost(t testing.TB, userID int64, title string) *model.Post {
	t.Helper()
	return &model.Post{
		UserID:  userID,
		Title:   title,
		Content: "Content for " + title,
	}
}

// NewTestComment creates an unsaved comment on postID by userID.
func NewTestComment(t testing.TB, postID, userID int64, content string) *model.Comment {
	t.Helper()
	return &model.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

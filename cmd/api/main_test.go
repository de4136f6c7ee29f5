package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Vicae-a/Blog/internal/cache"
	"github.com/Vicae-a/Blog/internal/config"
	"github.com/Vicae-a/Blog/internal/handler"
	"github.com/Vicae-a/Blog/internal/metrics"
	"github.com/Vicae-a/Blog/internal/model"
)

type rejectAll struct{}

func (rejectAll) Authenticate(context.Context, string) (*model.Session, error) {
	return nil, errors.New("no")
}

type allowAll struct{}

func (allowAll) CheckIPRateLimit(context.Context, string, int, int) (*cache.RateLimitResult, error) {
	return &cache.RateLimitResult{Allowed: true}, nil
}

func (allowAll) CheckUserRateLimit(context.Context, int64, int, int) (*cache.RateLimitResult, error) {
	return &cache.RateLimitResult{Allowed: true}, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return setupRouter(routerDeps{
		cfg:      &config.Config{AppEnv: "development", MaxRequestBodySize: 1 << 20},
		logger:   logger,
		recorder: metrics.NewNoop(),
		limiter:  allowAll{},
		authn:    rejectAll{},
		health:   handler.NewHealthHandler(nil, nil, nil),
		metrics:  handler.NewMetricsHandler(nil),
		posts:    handler.NewPostHandler(nil, nil, logger),
		comments: handler.NewCommentHandler(nil, logger),
		users:    handler.NewUserHandler(nil, logger),
		storage:  handler.NewStorageHandler(nil, logger),
	})
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"liveness", http.MethodGet, "/healthz", http.StatusOK},
		{"metrics without exporter", http.MethodGet, "/metrics", http.StatusServiceUnavailable},
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound},
		{"create requires auth", http.MethodPost, "/posts", http.StatusUnauthorized},
		{"update requires auth", http.MethodPut, "/posts/1", http.StatusUnauthorized},
		{"spoofed update requires auth", http.MethodPost, "/posts/1?_method=PUT", http.StatusUnauthorized},
		{"delete comment requires auth", http.MethodDelete, "/comments/1", http.StatusUnauthorized},
		{"profile requires auth", http.MethodGet, "/user", http.StatusUnauthorized},
		{"wrong method", http.MethodPatch, "/posts/1", http.StatusMethodNotAllowed},
	}

	r := testRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://blog:hunter2@db:5432/blog"
	err := errors.New("dial " + dsn + " failed: password=hunter2 rejected")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "hunter2") {
		t.Errorf("secret leaked: %s", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty")
	}
}

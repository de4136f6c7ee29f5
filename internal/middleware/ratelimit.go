package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/Vicae-a/Blog/internal/auth"
	"github.com/Vicae-a/Blog/internal/cache"
	"github.com/Vicae-a/Blog/internal/handler/dto"
)

// RateLimiter consumes tokens from per-client buckets. *cache.Cache
// implements it.
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
	CheckUserRateLimit(ctx context.Context, userID int64, ratePerSecond, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Enabled bool
	RPS     int
	Burst   int
}

// RateLimit limits authenticated requests per user and anonymous ones per
// client IP. It must run after the auth middleware to see the session.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			var (
				result *cache.RateLimitResult
				err    error
				bucket string
			)
			if userID, ok := auth.UserIDFromContext(r.Context()); ok {
				bucket = "user"
				result, err = cfg.Limiter.CheckUserRateLimit(r.Context(), userID, cfg.RPS, cfg.Burst)
			} else {
				bucket = "ip"
				result, err = cfg.Limiter.CheckIPRateLimit(r.Context(), getClientIP(r), cfg.RPS, cfg.Burst)
			}
			if err != nil {
				// Fail open.
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("bucket", bucket),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result)

			if !result.Allowed {
				retryAfter := int(result.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("bucket", bucket),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int("retry_after_seconds", retryAfter),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				dto.WriteError(w, http.StatusTooManyRequests, dto.MessageRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, result *cache.RateLimitResult) {
	if result.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	}
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection address without its port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

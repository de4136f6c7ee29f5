// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor
// principles, with an optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Media backends.
const (
	MediaBackendLocal = "local"
	MediaBackendMinio = "minio"
)

// minProductionSecretLength is the shortest JWT secret accepted outside
// development.
const minProductionSecretLength = 32

// Config holds all application configuration.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis): sessions, rate limits and the image cleanup stream
	RedisURL string `env:"REDIS_URL,required"`

	// Tokens
	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"blog-api"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting, per user when authenticated and per IP otherwise
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"30"`

	// Comma-separated list of allowed origins
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Request body size limit in bytes. Must leave room for a full image
	// upload plus the other form fields.
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"4194304"`

	// Media
	MediaBackend       string `env:"MEDIA_BACKEND" envDefault:"local"`
	MediaLocalDir      string `env:"MEDIA_LOCAL_DIR" envDefault:"storage/app/public"`
	MediaPublicBaseURL string `env:"MEDIA_PUBLIC_BASE_URL"`
	MediaMaxBytes      int64  `env:"MEDIA_MAX_BYTES" envDefault:"2097152"`
	MediaResizeMaxEdge int    `env:"MEDIA_RESIZE_MAX_EDGE" envDefault:"1600"`

	// MinIO / S3 compatible object storage
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"blog-images"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	// Background worker retrying failed image deletions
	CleanupWorkerEnabled bool `env:"CLEANUP_WORKER_ENABLED" envDefault:"true"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins returns the configured origins without blanks.
func (c *Config) GetCORSAllowedOrigins() []string {
	result := make([]string, 0, len(c.CORSAllowedOrigins))
	for _, origin := range c.CORSAllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// Validate checks rules that span more than one variable.
func (c *Config) Validate() error {
	var errs []error

	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be between 1 and 65535, got %d", c.AppPort))
	}

	if !c.IsDevelopment() && len(c.JWTSecret) < minProductionSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes outside development", minProductionSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not one of json, text", c.LogFormat))
	}

	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled"))
	}

	if c.MediaMaxBytes <= 0 {
		errs = append(errs, errors.New("MEDIA_MAX_BYTES must be positive"))
	}
	if c.MaxRequestBodySize <= c.MediaMaxBytes {
		errs = append(errs, fmt.Errorf("MAX_REQUEST_BODY_SIZE (%d) must exceed MEDIA_MAX_BYTES (%d)", c.MaxRequestBodySize, c.MediaMaxBytes))
	}
	if c.MediaResizeMaxEdge < 0 {
		errs = append(errs, errors.New("MEDIA_RESIZE_MAX_EDGE must not be negative"))
	}

	switch c.MediaBackend {
	case MediaBackendLocal:
		if c.MediaLocalDir == "" {
			errs = append(errs, errors.New("MEDIA_LOCAL_DIR is required for the local media backend"))
		}
	case MediaBackendMinio:
		if c.MinioEndpoint == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "" || c.MinioBucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required for the minio media backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("MEDIA_BACKEND %q is not one of local, minio", c.MediaBackend))
	}

	return errors.Join(errs...)
}

// Load reads an optional .env file, parses environment variables and
// validates the result. Variables already set in the environment win over
// the file.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv paths. Missing files are skipped.
func LoadFiles(paths ...string) (*Config, error) {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Redacted returns a copy safe to log, with secrets and credentials masked.
func (c Config) Redacted() Config {
	c.DatabaseURL = redactURL(c.DatabaseURL)
	c.RedisURL = redactURL(c.RedisURL)
	if c.JWTSecret != "" {
		c.JWTSecret = "***"
	}
	if c.MinioSecretKey != "" {
		c.MinioSecretKey = "***"
	}
	return c
}

// redactURL masks the userinfo part of a connection string.
func redactURL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return raw
	}
	return scheme + "://***@" + rest[at+1:]
}

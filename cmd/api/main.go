// Package main is the entrypoint for the blog API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Vicae-a/Blog/internal/auth"
	"github.com/Vicae-a/Blog/internal/cache"
	"github.com/Vicae-a/Blog/internal/cleanup"
	"github.com/Vicae-a/Blog/internal/config"
	"github.com/Vicae-a/Blog/internal/handler"
	"github.com/Vicae-a/Blog/internal/media"
	"github.com/Vicae-a/Blog/internal/metrics"
	"github.com/Vicae-a/Blog/internal/repository"
	"github.com/Vicae-a/Blog/internal/server"
	"github.com/Vicae-a/Blog/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg)
	redacted := cfg.Redacted()

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redacted.DatabaseURL),
		)
		return errors.New("database unavailable")
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error("failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redacted.RedisURL),
		)
		return errors.New("redis unavailable")
	}
	logger.Info("connected to Redis")

	store, err := newMediaStore(ctx, cfg)
	if err != nil {
		repo.Close()
		_ = cacheClient.Close()
		return err
	}
	logger.Info("media store ready", "backend", cfg.MediaBackend)

	recorder := metrics.NewPrometheus()
	cleanupQueue := cleanup.NewQueue(cacheClient.Client(), logger, recorder)
	images := media.NewProcessor(store, media.Options{
		MaxBytes:      cfg.MediaMaxBytes,
		MaxEdge:       cfg.MediaResizeMaxEdge,
		PublicBaseURL: cfg.MediaPublicBaseURL,
	},
		media.WithCleanup(cleanupQueue),
		media.WithRecorder(recorder),
		media.WithLogger(logger),
	)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	postService := service.NewPostService(repo, repo, images, logger, recorder)
	commentService := service.NewCommentService(repo, logger, recorder)
	userService := service.NewUserService(repo, cacheClient, tokens, logger, recorder)

	r := setupRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		limiter:  cacheClient,
		authn:    userService,
		health:   handler.NewHealthHandler(repo, cacheClient, images),
		metrics:  handler.NewMetricsHandler(recorder.Handler()),
		posts:    handler.NewPostHandler(postService, images, logger),
		comments: handler.NewCommentHandler(commentService, logger),
		users:    handler.NewUserHandler(userService, logger),
		storage:  handler.NewStorageHandler(images, logger),
	})

	srv := server.New(r, server.Options{
		Addr:            server.PortAddr(cfg.AppPort),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered first so they close last, after the worker has drained.
	srv.OnShutdown("database", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	if cfg.CleanupWorkerEnabled {
		worker := cleanup.NewWorker(cacheClient.Client(), store, logger, cleanup.NewConsumerID(), recorder)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("cleanup worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("cleanup_worker", worker.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"media_backend", cfg.MediaBackend,
		"cleanup_worker", cfg.CleanupWorkerEnabled,
	)

	return srv.Run(ctx)
}

// newMediaStore builds the configured image backend.
func newMediaStore(ctx context.Context, cfg *config.Config) (media.Store, error) {
	if cfg.MediaBackend == config.MediaBackendMinio {
		return media.NewMinioStore(ctx, media.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	}
	return media.NewLocalStore(cfg.MediaLocalDir)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// sanitizeError strips connection strings out of driver error messages.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, "[redacted]")
	}
	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}

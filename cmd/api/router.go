package main

import (
	"log/slog"
	"regexp"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Vicae-a/Blog/internal/config"
	"github.com/Vicae-a/Blog/internal/handler"
	"github.com/Vicae-a/Blog/internal/metrics"
	"github.com/Vicae-a/Blog/internal/middleware"
)

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	limiter  middleware.RateLimiter
	authn    middleware.Authenticator

	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
	posts    *handler.PostHandler
	comments *handler.CommentHandler
	users    *handler.UserHandler
	storage  *handler.StorageHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Metrics(d.recorder))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	// Operational endpoints: no auth, no rate limit.
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", d.metrics.Metrics)

	authCfg := middleware.AuthConfig{Logger: d.logger, Authenticator: d.authn}
	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Logger:  d.logger,
		Limiter: d.limiter,
		Enabled: d.cfg.RateLimitEnabled,
		RPS:     d.cfg.RateLimitRPS,
		Burst:   d.cfg.RateLimitBurst,
	})

	r.Get("/storage/*", d.storage.Serve)

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

		// Public reads and identity entry points.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(authCfg))
			r.Use(rateLimit)

			r.Get("/posts", d.posts.List)
			r.Get("/posts/{id}", d.posts.Show)
			r.Post("/register", d.users.Register)
			r.Post("/login", d.users.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(authCfg))
			r.Use(rateLimit)

			r.Post("/posts", d.posts.Create)
			r.Put("/posts/{id}", d.posts.Update)
			// Multipart clients spoof PUT with _method=PUT.
			r.Post("/posts/{id}", d.posts.Update)
			r.Delete("/posts/{id}", d.posts.Delete)
			r.Post("/posts/{id}/comments", d.comments.Create)
			r.Delete("/comments/{id}", d.comments.Delete)

			r.Post("/logout", d.users.Logout)
			r.Get("/user", d.users.Me)
			r.Put("/user", d.users.UpdateProfile)
		})
	})

	return r
}

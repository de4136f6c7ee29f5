package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSConfig holds CORS configuration options.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to make cross-origin requests.
	// Entries may use a single wildcard such as "https://*.example.com".
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// DefaultCORSConfig returns defaults suited to a bearer-token API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			RequestIDHeader,
		},
		ExposedHeaders: []string{
			RequestIDHeader,
			"Retry-After",
			"X-RateLimit-Remaining",
		},
		MaxAge: 86400,
	}
}

// CORS handles Cross-Origin Resource Sharing. With no allowed origins no
// CORS headers are ever written. Tokens travel in the Authorization header,
// so credentials are never allowed.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		// go-chi/cors treats an empty list as "allow all".
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: false,
		MaxAge:           cfg.MaxAge,
	})
}

package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

const corsPreflightMaxAge = 600

// CORS admits browser calls from allowedOrigins. With no origins configured the
// handler is a pass-through. A "*" entry disables credentialed requests, since
// browsers refuse wildcard origins with credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	credentials := true
	for _, origin := range allowedOrigins {
		if origin == "*" {
			credentials = false
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", IdempotencyKeyHeader, RequestIDHeader},
		ExposedHeaders: []string{
			RequestIDHeader,
			"X-Audit-Status",
			IdempotencyReplayedHeader,
			"Retry-After",
		},
		AllowCredentials: credentials,
		MaxAge:           corsPreflightMaxAge,
	}).Handler
}

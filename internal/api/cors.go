// ABOUTME: CORS middleware for browser clients
// ABOUTME: Exposes the x-auth header so scripts can read issued session tokens

package api

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/2389/journal-gateway/internal/auth"
)

// CORS returns middleware that allows the listed origins. "*" allows any
// origin. Preflight requests are answered directly with 204.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", auth.HeaderAuth},
		ExposedHeaders: []string{auth.HeaderAuth},
		MaxAge:         600,
	}).Handler
}

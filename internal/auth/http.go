// ABOUTME: HTTP middleware for session token authentication on API endpoints
// ABOUTME: Reads the x-auth or Authorization header and adds the principal to context

package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// HeaderAuth is the header clients send session tokens in, and the header
// register and login responses return them in.
const HeaderAuth = "x-auth"

// extractToken pulls a session token from the request headers. x-auth wins
// over Authorization when both are present.
// Returns the token and a failure reason (empty if successful).
func extractToken(r *http.Request) (string, string) {
	if token := strings.TrimSpace(r.Header.Get(HeaderAuth)); token != "" {
		return token, ""
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "missing token"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// logAuthFailure logs authentication failures at WARN level for security monitoring.
func logAuthFailure(logger *slog.Logger, r *http.Request, reason string, attrs ...any) {
	if logger == nil {
		return
	}
	baseAttrs := []any{
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	}
	baseAttrs = append(baseAttrs, attrs...)
	logger.Warn("auth failure", baseAttrs...)
}

// HTTPAuthMiddleware creates an HTTP middleware that rejects requests without
// a valid session token. Rejections are a bare 401 with an empty body and the
// wrapped handler never runs.
func HTTPAuthMiddleware(resolver TokenResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, reason := extractToken(r)
			if reason != "" {
				logAuthFailure(logger, r, reason)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			authCtx, err := Authenticate(r.Context(), resolver, token)
			if err != nil {
				logAuthFailure(logger, r, "token rejected", "error", err)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

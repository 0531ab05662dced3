package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// Using a package-private type (instead of a bare string) means only this
// package can read or write the username value in a request context — no
// other package can collide with or shadow it.
type contextKey string

const usernameKey contextKey = "username"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header,
// validates it, and stores the proven username in the request context. If
// the header is missing or the token invalid, it returns 401 and stops the
// chain. Every failure mode (absent, malformed, expired, bad signature)
// produces the same response — the client learns nothing about why.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := extractUsername(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUsername(r.Context(), username)))
		})
	}
}

// ContextWithUsername returns a child context carrying an authenticated
// username. RequireAuth is the only production caller; tests use it to
// simulate a request that already passed authentication.
func ContextWithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// UsernameFromContext retrieves the authenticated username from the request
// context.
//
// Returns ("", false) if the request is anonymous. Handlers on routes
// behind RequireAuth can rely on ok being true.
func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok && name != ""
}

// extractUsername reads the bearer token from the Authorization header and
// validates it.
func extractUsername(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("auth: missing Authorization header")
	}

	// The scheme comparison is case-insensitive per RFC 7235.
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errors.New("auth: Authorization header is not a Bearer token")
	}

	return tokens.Validate(strings.TrimSpace(header[len(prefix):]))
}

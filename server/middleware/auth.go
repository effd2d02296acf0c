package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/kbukum/backendkit/errors"
)

// TokenAuthenticator verifies bearer tokens.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) error
}

// Auth returns middleware that requires a valid Bearer token. Paths with one
// of skipPaths as prefix bypass authentication.
func Auth(tokens TokenAuthenticator, skipPaths ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			token, ok := BearerToken(r)
			if !ok {
				writeError(w, apperrors.Unauthorized("Authorization header required"))
				return
			}
			if err := tokens.Authenticate(r.Context(), token); err != nil {
				if appErr, ok := apperrors.AsAppError(err); ok {
					writeError(w, appErr)
					return
				}
				writeError(w, apperrors.InvalidToken())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

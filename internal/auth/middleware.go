package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kyuho-lee/asset-manager-sub000/internal/models"
	pkghttp "github.com/kyuho-lee/asset-manager-sub000/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// PrincipalContextKey is the key for storing the principal in context
	PrincipalContextKey contextKey = "principal"
)

// Middleware verifies the bearer token on each request and injects the
// principal into the request context. A missing token yields 401; a
// malformed, tampered, or expired token yields 403.
func Middleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := BearerToken(r)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			principal, err := tm.Verify(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, models.ErrTokenMissing):
					pkghttp.WriteUnauthorized(w, "missing bearer token")
				case errors.Is(err, models.ErrTokenExpired):
					pkghttp.WriteForbidden(w, "token expired")
				default:
					pkghttp.WriteForbidden(w, "invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header. Returns
// ErrTokenMissing when no header is present or the scheme is not Bearer.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", models.ErrTokenMissing
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", models.ErrTokenMissing
	}

	return parts[1], nil
}

// PrincipalFromContext extracts the verified principal from the request
// context. The second return is false outside of Middleware.
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	principal, ok := ctx.Value(PrincipalContextKey).(models.Principal)
	return principal, ok
}

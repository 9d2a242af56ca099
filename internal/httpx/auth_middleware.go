package httpx

import (
	"net/http"
	"strings"

	"libraryapi/internal/authz"
	"libraryapi/internal/platform/crypto"
)

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func principalFromToken(secret, token string) (authz.Principal, bool) {
	claims, err := crypto.ParseToken(secret, token)
	if err != nil || claims.Sub == "" {
		return authz.Principal{}, false
	}
	role := authz.Role(claims.Role)
	if !role.Valid() {
		return authz.Principal{}, false
	}
	return authz.Principal{UserID: claims.Sub, Role: role}, true
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller principal in the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Access denied. No token provided.", nil)
				return
			}

			p, ok := principalFromToken(secret, token)
			if !ok {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", nil)
				return
			}

			recordUser(r, p.UserID)
			next.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuthMiddleware attaches the principal when a valid token is present
// and otherwise lets the request through anonymously.
func OptionalAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if p, ok := principalFromToken(secret, token); ok {
					recordUser(r, p.UserID)
					r = r.WithContext(authz.WithPrincipal(r.Context(), p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := authz.Require(r.Context(), roles...); err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

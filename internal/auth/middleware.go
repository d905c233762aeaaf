// backend/internal/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity set by JWTMiddleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// UserID is FromContext for callers that only need the id of the request's user.
func UserID(r *http.Request) (uint, bool) {
	id, ok := FromContext(r.Context())
	return id.UserID, ok
}

// JWTMiddleware requires a bearer token. WebSocket clients cannot set headers,
// so a "token" query parameter is accepted as well.
func JWTMiddleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.URL.Query().Get("token")
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				bearerToken := strings.Split(authHeader, " ")
				if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
					http.Error(w, "Invalid token format", http.StatusUnauthorized)
					return
				}
				raw = bearerToken[1]
			}
			if raw == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			id, err := service.ParseToken(raw)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

package httpserver

import (
	"context"
	"net/http"
	"strings"

	"ping-backend/internal/domain"
	"ping-backend/internal/service"
)

type contextKey string

const (
	userContextKey  contextKey = "currentUser"
	tokenContextKey contextKey = "sessionToken"
)

// WithUser returns a new context carrying the current user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// CurrentUser extracts the current user from context, if any.
func CurrentUser(r *http.Request) *domain.User {
	if v := r.Context().Value(userContextKey); v != nil {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// SessionToken extracts the raw bearer token from context, if any.
func SessionToken(r *http.Request) string {
	if v := r.Context().Value(tokenContextKey); v != nil {
		if t, ok := v.(string); ok {
			return t
		}
	}
	return ""
}

// AuthMiddleware resolves the Bearer session token and attaches the user to
// the context. Every failure is UNAUTHENTICATED, before any handler logic.
func AuthMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				writeError(w, domain.Unauthenticated("missing or invalid Authorization header"))
				return
			}
			token := strings.TrimSpace(authHeader[len("Bearer "):])

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

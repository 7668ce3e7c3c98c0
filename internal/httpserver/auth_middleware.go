package httpserver

import (
	"context"
	"net/http"
	"strings"

	"unimarket/internal/domain"
	"unimarket/internal/security"
)

type contextKey string

const userContextKey contextKey = "currentUser"

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

// requireUser returns the authenticated user or writes a 401 and returns
// nil. Handlers sit behind AuthMiddleware, but a misordered route must fail
// closed.
func requireUser(w http.ResponseWriter, r *http.Request) *domain.User {
	user := CurrentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return user
}

// AuthMiddleware verifies the Bearer token and attaches the user to the
// context. This is the real check; the unverified decode in the rate
// limiter never substitutes for it.
func AuthMiddleware(tokens *security.TokenService, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				writeError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}
			tokenStr := strings.TrimSpace(authHeader[len("Bearer "):])

			userID, err := tokens.Parse(tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil || user == nil {
				writeError(w, http.StatusUnauthorized, "user not found")
				return
			}

			ctx := WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

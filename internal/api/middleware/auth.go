package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pizza-backend/internal/auth"
	"pizza-backend/internal/models"
	"pizza-backend/internal/repository"
)

type contextKey struct{}

var userKey contextKey

// UserFromContext returns the authenticated user placed by Protect, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

type Auth struct {
	tokens *auth.TokenManager
	users  repository.UserRepository
}

func NewAuth(tokens *auth.TokenManager, users repository.UserRepository) *Auth {
	return &Auth{tokens: tokens, users: users}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}

// Protect rejects requests without a valid Bearer token and loads the token's
// user into the request context.
func (a *Auth) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "not authorized to access this route, please login")
			return
		}

		claims, err := a.tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			unauthorized(w, "invalid or expired token, please login again")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			unauthorized(w, "invalid or expired token, please login again")
			return
		}

		user, err := a.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				unauthorized(w, "user not found, please login again")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal_error","message":"something went wrong"}`))
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route on the authenticated user's role. Must run after
// Protect.
func (a *Auth) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				unauthorized(w, "user not authenticated")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden","message":"role '` + user.Role + `' is not authorized to access this route"}`))
		})
	}
}

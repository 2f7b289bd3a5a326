package middleware

import (
	"context"
	"net/http"
	"strings"

	"lancafe/internal/service"
)

type contextKey string

const (
	accountIDKey contextKey = "accountID"
	isAdminKey   contextKey = "isAdmin"
)

// TokenValidator decodes bearer tokens into claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// RequireAuth validates the bearer token and stores the account identity in
// the request context.
func RequireAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey, claims.AccountID)
			ctx = context.WithValue(ctx, isAdminKey, claims.IsAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose token lacks the admin flag. Must run
// after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdminFromContext(r.Context()) {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// AccountIDFromContext retrieves the authenticated account id.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	val := ctx.Value(accountIDKey)
	if val == nil {
		return 0, false
	}
	id, ok := val.(int64)
	return id, ok
}

// IsAdminFromContext reports whether the authenticated account is an admin.
func IsAdminFromContext(ctx context.Context) bool {
	val, ok := ctx.Value(isAdminKey).(bool)
	return ok && val
}

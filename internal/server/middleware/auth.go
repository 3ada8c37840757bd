// Package middleware provides HTTP middleware for resolving the caller's identity.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// userIDKey is the context key for storing the resolved user ID.
const userIDKey ContextKey = "userID"

// AnonymousUser is the identity used when a request carries none
const AnonymousUser = "anonymous"

// UserIDHeader names the caller when no bearer token is configured
const UserIDHeader = "X-User-ID"

var userIDRe = regexp.MustCompile(`^[A-Za-z0-9._@:-]{1,128}$`)

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (UserIDGetter, error)
}

// UserIDGetter is an interface for extracting user ID from token claims.
type UserIDGetter interface {
	GetUserID() string
}

// Identify resolves the user ID for each request and stores it in the
// request context. With a validator, a bearer token is required and its
// subject is the user. Without one, the X-User-ID header is trusted, and a
// request without it is anonymous.
func Identify(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := AnonymousUser

			if validator != nil {
				token, ok := bearerToken(r.Header.Get("Authorization"))
				if !ok {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				claims, err := validator.ValidateToken(token)
				if err != nil || claims.GetUserID() == "" {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				userID = claims.GetUserID()
			} else if header := strings.TrimSpace(r.Header.Get(UserIDHeader)); header != "" {
				if !userIDRe.MatchString(header) {
					http.Error(w, "Invalid "+UserIDHeader+" header", http.StatusBadRequest)
					return
				}
				userID = header
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken parses a case-insensitive "Bearer <token>" header
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// GetUserID returns the user ID resolved by Identify, or AnonymousUser when
// the request did not pass through it.
func GetUserID(r *http.Request) string {
	if userID, ok := r.Context().Value(userIDKey).(string); ok && userID != "" {
		return userID
	}
	return AnonymousUser
}

// WithUserID returns a context carrying userID, for tests and internal callers.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Package auth provides password hashing, identity tokens and request identity helpers.
package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// userIDContextKey is the context key for the authenticated user ID.
	userIDContextKey contextKey = "user_id"
)

// ContextWithUserID attaches the authenticated user ID to the context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user ID.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	id, ok := ctx.Value(userIDContextKey).(string)
	if !ok {
		return ""
	}
	return id
}

// MustUserIDFromContext returns the authenticated user ID.
// Panics if not present (use only behind the auth middleware).
func MustUserIDFromContext(ctx context.Context) string {
	id := UserIDFromContext(ctx)
	if id == "" {
		panic("user id not found in context - ensure auth middleware is applied")
	}
	return id
}

package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fkhayef/tripsplit/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the context key for the acting user ID
	UserIDKey ContextKey = "user_id"

	// UserIDHeader carries the actor resolved by the upstream gateway.
	UserIDHeader = "X-User-ID"
)

// ActorMiddleware reads the acting user from the X-User-ID header.
// Authentication happens upstream; requests without a valid id are rejected.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
		if err != nil || userID <= 0 {
			response.Unauthorized(w, "X-User-ID header required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID stores the acting user ID on ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user ID from the request context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// RequireUserID returns the acting user, writing 401 when there is none.
func RequireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok || userID <= 0 {
		response.Unauthorized(w, "X-User-ID header required")
		return 0, false
	}
	return userID, true
}

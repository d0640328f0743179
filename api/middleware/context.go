package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/ecommerce-backend/pkg/enums"
)

// Identity of the caller as established by Auth.
type (
	userIDKey   struct{}
	roleKey     struct{}
	accessIDKey struct{}
)

func fromContext[T any](ctx context.Context, key any) T {
	var zero T
	if ctx == nil {
		return zero
	}
	if v, ok := ctx.Value(key).(T); ok {
		return v
	}
	return zero
}

func withValue(ctx context.Context, key, value any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func UserIDFromContext(ctx context.Context) string {
	return fromContext[string](ctx, userIDKey{})
}

// UserUUIDFromContext is false for anonymous requests.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	return id, err == nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	return fromContext[enums.Role](ctx, roleKey{})
}

// AccessIDFromContext returns the jti of the token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	return fromContext[string](ctx, accessIDKey{})
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return withValue(ctx, userIDKey{}, userID)
}

func WithRole(ctx context.Context, role enums.Role) context.Context {
	return withValue(ctx, roleKey{}, role)
}

func WithAccessID(ctx context.Context, accessID string) context.Context {
	return withValue(ctx, accessIDKey{}, accessID)
}

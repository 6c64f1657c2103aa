package resolver

import "context"

type userKey struct{}

// WithUser tags ctx with the chat user the lookup is made for.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the user set by WithUser, or "" when none is set.
func UserFrom(ctx context.Context) string {
	if id, ok := ctx.Value(userKey{}).(string); ok {
		return id
	}
	return ""
}

package web

import "context"

type contextKey int

const userKey contextKey = iota

// User is the identity resolved from the session cookie for one request.
type User struct {
	Name          string
	Authenticated bool
}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func CurrentUser(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	return user, ok && user.Authenticated
}

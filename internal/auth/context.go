package auth

import (
	"context"

	"funding-hub/internal/users"
)

type ctxKey int

const (
	ctxUser ctxKey = iota
	ctxClaims
)

// WithUser attaches the freshly resolved user record to ctx.
func WithUser(ctx context.Context, u users.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

func UserFrom(ctx context.Context) (users.User, bool) {
	u, ok := ctx.Value(ctxUser).(users.User)
	return u, ok && u.ID != ""
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(Claims)
	return c, ok
}

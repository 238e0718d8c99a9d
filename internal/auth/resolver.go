package auth

import (
	"context"
	"errors"
	"fmt"

	"funding-hub/internal/users"
)

// Resolver maps validated claims onto the live user record.
type Resolver struct {
	store users.Store
}

func NewResolver(store users.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve re-reads the subject on every request. A deleted or deactivated
// account, or one whose stored role is not recognised, is refused even while
// its token is still within its lifetime.
func (r *Resolver) Resolve(ctx context.Context, c Claims) (users.User, error) {
	u, err := r.store.FindByID(ctx, c.SubjectID())
	switch {
	case errors.Is(err, users.ErrNotFound):
		return users.User{}, ErrUserNotFound
	case errors.Is(err, users.ErrInvalidRole):
		return users.User{}, ErrInvalidUserRole
	case err != nil:
		return users.User{}, fmt.Errorf("auth: resolve user: %w", err)
	}
	if !u.IsActive {
		return users.User{}, ErrUserNotFound
	}
	if !u.Role.Valid() {
		return users.User{}, ErrInvalidUserRole
	}
	return u, nil
}

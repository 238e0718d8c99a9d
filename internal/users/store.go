package users

import "context"

// Store is the persistence contract consumed by the auth core.
//
// FindByID and FindByEmail return ErrNotFound when no record exists and
// ErrInvalidRole when the stored role is outside the enumeration.
// Insert returns ErrEmailTaken on a duplicate email.
type Store interface {
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Insert(ctx context.Context, u NewUser) (User, error)
}

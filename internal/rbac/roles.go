// Package rbac holds the role gates evaluated after identity resolution.
package rbac

import (
	"context"
	"errors"

	"funding-hub/internal/auth"
	"funding-hub/internal/users"
)

var (
	// ErrUnauthenticated means no resolved user reached the gate. Seeing it
	// in production indicates a stage ordering bug.
	ErrUnauthenticated = errors.New("rbac: authentication required")
	ErrAdminRequired   = errors.New("rbac: admin access required")
	ErrSuperRequired   = errors.New("rbac: super admin access required")
)

// Gate authorizes the user attached to ctx.
type Gate struct {
	Min    users.Role
	Denied error
}

var (
	RequireAdmin      = Gate{Min: users.RoleAdmin, Denied: ErrAdminRequired}
	RequireSuperAdmin = Gate{Min: users.RoleSuperAdmin, Denied: ErrSuperRequired}
)

// RequireRole builds a gate for an arbitrary minimum role.
func RequireRole(min users.Role) Gate {
	switch min {
	case users.RoleAdmin:
		return RequireAdmin
	case users.RoleSuperAdmin:
		return RequireSuperAdmin
	default:
		return Gate{Min: min, Denied: ErrUnauthenticated}
	}
}

func (g Gate) Check(ctx context.Context) error {
	u, ok := auth.UserFrom(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if !u.Role.AtLeast(g.Min) {
		return g.Denied
	}
	return nil
}

func IsAdmin(r users.Role) bool      { return r.AtLeast(users.RoleAdmin) }
func IsSuperAdmin(r users.Role) bool { return r.AtLeast(users.RoleSuperAdmin) }

package users

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is a closed enumeration. Values only enter the program through
// ParseRole, so a Role held in memory is always one of the three below.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

var (
	ErrNotFound     = errors.New("users: not found")
	ErrEmailTaken   = errors.New("users: email already registered")
	ErrInvalidRole  = errors.New("users: invalid role")
	ErrInvalidInput = errors.New("users: invalid input")
)

// ParseRole is the deserialization boundary for roles read from storage or files.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

func (r Role) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether r is min or above it in superadmin > admin > user.
// The zero Role is below everything.
func (r Role) AtLeast(min Role) bool {
	return r.rank() > 0 && r.rank() >= min.rank()
}

func (r Role) Valid() bool { return r.rank() > 0 }

func (r Role) String() string { return string(r) }

// User is owned by storage; the security core only reads it.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUser holds the fields required to insert a user.
type NewUser struct {
	Email        string
	PasswordHash string
	Role         Role
}

// NormalizeEmail is applied on every write and lookup so the unique
// constraint is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (n NewUser) validate() error {
	if NormalizeEmail(n.Email) == "" {
		return fmt.Errorf("%w: email required", ErrInvalidInput)
	}
	if n.PasswordHash == "" {
		return fmt.Errorf("%w: password hash required", ErrInvalidInput)
	}
	if !n.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

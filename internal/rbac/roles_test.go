package rbac

import (
	"context"
	"errors"
	"testing"

	"funding-hub/internal/auth"
	"funding-hub/internal/users"
)

func ctxWithRole(r users.Role) context.Context {
	return auth.WithUser(context.Background(), users.User{ID: "u", Role: r})
}

func TestGates_RoleMonotonicity(t *testing.T) {
	cases := []struct {
		role         users.Role
		admin, super bool
	}{
		{users.RoleUser, false, false},
		{users.RoleAdmin, true, false},
		{users.RoleSuperAdmin, true, true},
	}
	for _, tc := range cases {
		ctx := ctxWithRole(tc.role)
		if got := RequireAdmin.Check(ctx) == nil; got != tc.admin {
			t.Fatalf("%s: RequireAdmin pass=%v, want %v", tc.role, got, tc.admin)
		}
		if got := RequireSuperAdmin.Check(ctx) == nil; got != tc.super {
			t.Fatalf("%s: RequireSuperAdmin pass=%v, want %v", tc.role, got, tc.super)
		}
		if IsAdmin(tc.role) != tc.admin || IsSuperAdmin(tc.role) != tc.super {
			t.Fatalf("%s: predicate mismatch", tc.role)
		}
	}
}

func TestGates_DenialErrors(t *testing.T) {
	if err := RequireAdmin.Check(ctxWithRole(users.RoleUser)); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
	if err := RequireSuperAdmin.Check(ctxWithRole(users.RoleAdmin)); !errors.Is(err, ErrSuperRequired) {
		t.Fatalf("expected ErrSuperRequired, got %v", err)
	}
}

func TestGates_NoUserIsUnauthenticated(t *testing.T) {
	for _, g := range []Gate{RequireAdmin, RequireSuperAdmin, RequireRole(users.RoleUser)} {
		if err := g.Check(context.Background()); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	}
}

func TestRequireRole(t *testing.T) {
	if RequireRole(users.RoleAdmin) != RequireAdmin || RequireRole(users.RoleSuperAdmin) != RequireSuperAdmin {
		t.Fatalf("expected canonical gates")
	}
	if err := RequireRole(users.RoleUser).Check(ctxWithRole(users.RoleUser)); err != nil {
		t.Fatalf("user gate should pass for user: %v", err)
	}
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"funding-hub/internal/users"

	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *users.MemoryRepo) {
	t.Helper()
	v, err := NewVerifier(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	repo := users.NewMemoryRepo()
	return NewService(repo, v, newTestManager(t)), repo
}

func TestService_SignUpThenSignIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.SignUp(ctx, "Dana@Example.com", "password-123")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if u.Role != users.RoleUser {
		t.Fatalf("expected default role user, got %q", u.Role)
	}

	got, tok, err := svc.SignIn(ctx, "dana@example.com", "password-123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if got.ID != u.ID || tok == "" {
		t.Fatalf("unexpected sign in result: %+v %q", got, tok)
	}
	claims, terr := svc.tokens.Validate(tok, time.Now())
	if terr != nil || claims.SubjectID() != u.ID {
		t.Fatalf("issued token invalid: %+v %v", claims, terr)
	}
}

func TestService_SignUpDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, "e@example.com", "password-123"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, err := svc.SignUp(ctx, "E@example.com", "password-456"); !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestService_SignInFailuresAreIndistinguishable(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	u, _ := svc.SignUp(ctx, "f@example.com", "password-123")

	inactive, _ := svc.SignUp(ctx, "g@example.com", "password-123")
	_ = repo.SetActive(inactive.ID, false)

	cases := []struct{ email, password string }{
		{"f@example.com", "wrong-password"},
		{"nobody@example.com", "password-123"},
		{"g@example.com", "password-123"},
	}
	for _, tc := range cases {
		if _, _, err := svc.SignIn(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", tc.email, err)
		}
	}
	_ = u
}

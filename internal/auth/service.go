package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funding-hub/internal/users"
)

// ErrInvalidCredentials covers unknown email, inactive account and wrong
// password alike, so callers cannot tell which one happened.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service implements sign-in and sign-up on top of a Store.
type Service struct {
	store    users.Store
	verifier *Verifier
	tokens   *Manager
	clock    func() time.Time
}

func NewService(store users.Store, verifier *Verifier, tokens *Manager) *Service {
	return &Service{store: store, verifier: verifier, tokens: tokens, clock: time.Now}
}

// SignIn checks credentials and returns the user and a fresh access token.
func (s *Service) SignIn(ctx context.Context, email, password string) (users.User, string, error) {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) || errors.Is(err, users.ErrInvalidRole) {
			s.verifier.VerifyDummy(password)
			return users.User{}, "", ErrInvalidCredentials
		}
		return users.User{}, "", fmt.Errorf("auth: sign in lookup: %w", err)
	}
	if !s.verifier.Verify(password, u.PasswordHash) || !u.IsActive {
		return users.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(s.clock(), u)
	if err != nil {
		return users.User{}, "", fmt.Errorf("auth: issue token: %w", err)
	}
	return u, token, nil
}

// SignUp registers a new account with the default role.
func (s *Service) SignUp(ctx context.Context, email, password string) (users.User, error) {
	hash, err := s.verifier.Hash(password)
	if err != nil {
		return users.User{}, err
	}
	return s.store.Insert(ctx, users.NewUser{Email: email, PasswordHash: hash, Role: users.RoleUser})
}

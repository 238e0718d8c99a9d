package auth

import (
	"errors"
	"fmt"
)

var (
	ErrSecretRequired  = errors.New("auth: signing secret is required")
	ErrUserNotFound    = errors.New("auth: user not found")
	ErrInvalidUserRole = errors.New("auth: invalid user role")
)

// TokenErrorKind classifies why a presented token was refused.
type TokenErrorKind int

const (
	TokenMissing TokenErrorKind = iota + 1
	TokenMalformed
	TokenExpired
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMissing:
		return "missing"
	case TokenMalformed:
		return "malformed"
	case TokenExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// TokenError is the failure side of Validate.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
	}
	return "token " + e.Kind.String()
}

func (e *TokenError) Unwrap() error { return e.Err }

func tokenErr(kind TokenErrorKind, err error) *TokenError {
	return &TokenError{Kind: kind, Err: err}
}

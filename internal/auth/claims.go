package auth

import (
	"funding-hub/internal/users"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the only supported JWT claims shape for this service.
// Subject carries the user id. Email and Role are a snapshot taken at issuance;
// authorization always uses the record re-read from storage.
type Claims struct {
	jwt.RegisteredClaims

	Email string     `json:"email"`
	Role  users.Role `json:"role"`
}

func (c Claims) SubjectID() string { return c.Subject }

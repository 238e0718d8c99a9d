package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"funding-hub/internal/config"
	"funding-hub/internal/users"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is fixed; it is not configurable.
const TokenTTL = 24 * time.Hour

const bearerPrefix = "Bearer "

type Manager struct {
	secret   []byte
	issuer   string
	audience string
	parser   *jwt.Parser
}

// NewManager fails on an empty secret so the process refuses to start
// rather than issue unsigned or weakly signed tokens.
func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, ErrSecretRequired
	}
	issuer := cfg.JWTIssuer
	if issuer == "" {
		issuer = config.DefaultJWTIssuer
	}
	audience := cfg.JWTAudience
	if audience == "" {
		audience = config.DefaultJWTAudience
	}

	return &Manager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   issuer,
		audience: audience,
		// Time-based claims are checked by Validate so that expiry can be told
		// apart from every other failure.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

/* ===================== ISSUE ===================== */

// Issue mints a session token for u valid for TokenTTL from now.
func (m *Manager) Issue(now time.Time, u users.User) (string, error) {
	if u.ID == "" {
		return "", errors.New("auth: cannot issue token without user id")
	}
	now = now.UTC().Truncate(time.Second)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			ID:        uuid.NewString(),
		},
		Email: u.Email,
		Role:  u.Role,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

/* ===================== VALIDATE ===================== */

// Validate classifies raw as Missing, Malformed, Expired or valid.
// An expired token is only reported as Expired when everything else about it
// checks out; any other defect makes it Malformed.
func (m *Manager) Validate(raw string, now time.Time) (Claims, *TokenError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, tokenErr(TokenMissing, nil)
	}

	var claims Claims
	if _, err := m.parser.ParseWithClaims(raw, &claims, m.key); err != nil {
		return Claims{}, tokenErr(TokenMalformed, err)
	}
	if err := m.checkStructure(claims); err != nil {
		return Claims{}, tokenErr(TokenMalformed, err)
	}
	if now.After(claims.ExpiresAt.Time) {
		return Claims{}, tokenErr(TokenExpired, jwt.ErrTokenExpired)
	}
	return claims, nil
}

// ValidateHeader extracts a bearer token from an Authorization header value.
// Anything that is not a bearer credential counts as no token at all.
func (m *Manager) ValidateHeader(header string, now time.Time) (Claims, *TokenError) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, bearerPrefix) {
		return Claims{}, tokenErr(TokenMissing, nil)
	}
	return m.Validate(strings.TrimPrefix(header, bearerPrefix), now)
}

func (m *Manager) key(t *jwt.Token) (any, error) {
	return m.secret, nil
}

func (m *Manager) checkStructure(c Claims) error {
	if c.Subject == "" {
		return errors.New("sub missing")
	}
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return errors.New("iat and exp are required")
	}
	if !c.ExpiresAt.After(c.IssuedAt.Time) {
		return errors.New("exp must be after iat")
	}
	if c.Issuer != m.issuer {
		return fmt.Errorf("%w: %q", jwt.ErrTokenInvalidIssuer, c.Issuer)
	}
	if !slices.Contains(c.Audience, m.audience) {
		return jwt.ErrTokenInvalidAudience
	}
	return nil
}

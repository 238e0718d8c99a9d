package auth

import (
	"errors"
	"testing"
	"time"

	"funding-hub/internal/config"
	"funding-hub/internal/users"

	"github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:   "secret",
		JWTIssuer:   "issuer",
		JWTAudience: "aud",
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func sign(t *testing.T, secret string, c Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims(now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "issuer",
			Audience:  jwt.ClaimStrings{"aud"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Email: "a@example.com",
		Role:  users.RoleUser,
	}
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager(config.AuthConfig{}); !errors.Is(err, ErrSecretRequired) {
		t.Fatalf("expected ErrSecretRequired, got %v", err)
	}
	if _, err := NewManager(config.AuthConfig{JWTSecret: "  "}); !errors.Is(err, ErrSecretRequired) {
		t.Fatalf("expected ErrSecretRequired for blank secret, got %v", err)
	}
}

func TestIssueAndValidate_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0).UTC()
	u := users.User{ID: "user-1", Email: "a@example.com", Role: users.RoleAdmin}

	tok, err := m.Issue(now, u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, terr := m.Validate(tok, now.Add(time.Minute))
	if terr != nil {
		t.Fatalf("validate: %v", terr)
	}
	if claims.SubjectID() != u.ID || claims.Email != u.Email || claims.Role != u.Role {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != TokenTTL {
		t.Fatalf("expected 24h lifetime, got %v", got)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti")
	}
}

func TestValidate_ExpiresAfterTTL(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0).UTC()
	tok, _ := m.Issue(now, users.User{ID: "u", Role: users.RoleUser})

	if _, terr := m.Validate(tok, now.Add(TokenTTL)); terr != nil {
		t.Fatalf("expected valid at exact expiry instant, got %v", terr)
	}
	for _, eps := range []time.Duration{time.Nanosecond, time.Second, time.Hour} {
		_, terr := m.Validate(tok, now.Add(TokenTTL+eps))
		if terr == nil || terr.Kind != TokenExpired {
			t.Fatalf("eps=%v: expected expired, got %v", eps, terr)
		}
	}
}

func TestValidate_Classification(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0).UTC()

	noSub := validClaims(now)
	noSub.Subject = ""

	wrongIss := validClaims(now)
	wrongIss.Issuer = "someone-else"

	wrongAud := validClaims(now)
	wrongAud.Audience = jwt.ClaimStrings{"other"}

	noExp := validClaims(now)
	noExp.ExpiresAt = nil

	expiredWrongIss := validClaims(now.Add(-48 * time.Hour))
	expiredWrongIss.Issuer = "someone-else"

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims(now)).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := []struct {
		name string
		raw  string
		want TokenErrorKind
	}{
		{"empty", "", TokenMissing},
		{"garbage", "not.a.jwt", TokenMalformed},
		{"wrong secret", sign(t, "other-secret", validClaims(now)), TokenMalformed},
		{"alg none", none, TokenMalformed},
		{"missing subject", sign(t, "secret", noSub), TokenMalformed},
		{"wrong issuer", sign(t, "secret", wrongIss), TokenMalformed},
		{"wrong audience", sign(t, "secret", wrongAud), TokenMalformed},
		{"missing exp", sign(t, "secret", noExp), TokenMalformed},
		{"expired and wrong issuer", sign(t, "secret", expiredWrongIss), TokenMalformed},
		{"expired", sign(t, "secret", validClaims(now.Add(-48*time.Hour))), TokenExpired},
	}
	for _, tc := range cases {
		_, terr := m.Validate(tc.raw, now)
		if terr == nil {
			t.Fatalf("%s: expected %v, got valid", tc.name, tc.want)
		}
		if terr.Kind != tc.want {
			t.Fatalf("%s: expected %v, got %v (%v)", tc.name, tc.want, terr.Kind, terr)
		}
	}
}

func TestValidateHeader(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()
	tok, _ := m.Issue(now, users.User{ID: "u", Role: users.RoleUser})

	if _, terr := m.ValidateHeader("Bearer "+tok, now); terr != nil {
		t.Fatalf("expected valid bearer, got %v", terr)
	}
	for _, h := range []string{"", "Basic abc", tok, "Bearer "} {
		if _, terr := m.ValidateHeader(h, now); terr == nil || terr.Kind != TokenMissing {
			t.Fatalf("header %q: expected missing, got %v", h, terr)
		}
	}
}

package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const dummyPassword = "funding-hub-timing-equalizer"

// Verifier checks passwords against bcrypt hashes. bcrypt re-derives the full
// digest and compares it in constant time, so a mismatch in the first byte
// costs the same as one in the last.
type Verifier struct {
	cost  int
	dummy []byte
}

func NewVerifier(cost int) (*Verifier, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, err
	}
	return &Verifier{cost: cost, dummy: dummy}, nil
}

// ErrPasswordTooLong is returned by Hash for inputs bcrypt would truncate.
var ErrPasswordTooLong = errors.New("auth: password exceeds 72 bytes")

func (v *Verifier) Hash(plain string) (string, error) {
	if len(plain) > 72 {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), v.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches storedHash. A malformed hash is
// simply a mismatch.
func (v *Verifier) Verify(plain, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plain)) == nil
}

// VerifyDummy spends the same work as Verify against a throwaway hash.
// Sign-in calls it for unknown emails so response time does not reveal
// whether an account exists.
func (v *Verifier) VerifyDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(v.dummy, []byte(plain))
}

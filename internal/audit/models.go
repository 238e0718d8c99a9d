package audit

import "time"

// Event is an immutable, append-only record of a security-relevant action.
//
// Invariants:
// - Events are never updated or deleted.
// - Type is required.
// - Actor and ip capture are best-effort; do not block auth flows on audit failures.
// - Events never carry passwords, tokens or hashes.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// UserID is the subject of the event when known.
	UserID string `json:"user_id,omitempty" db:"user_id"`
	// Email is the identifier presented by the client (sign-in, sign-up).
	Email string `json:"email,omitempty" db:"email"`

	// IPAddress is the resolved client IP.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventSignInSucceeded EventType = "signin_succeeded"
	EventSignInFailed    EventType = "signin_failed"
	EventSignUp          EventType = "signup"
	EventSignOut         EventType = "signout"
	EventRateLimited     EventType = "rate_limited"
)

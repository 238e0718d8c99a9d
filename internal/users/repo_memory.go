package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Store useful for tests and local runs.
// It is not intended for production use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
	clock   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    map[string]User{},
		byEmail: map[string]string{},
		clock:   time.Now,
	}
}

func (r *MemoryRepo) FindByID(ctx context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if !u.Role.Valid() {
		return User{}, ErrInvalidRole
	}
	return u, nil
}

func (r *MemoryRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[NormalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return User{}, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *MemoryRepo) Insert(ctx context.Context, n NewUser) (User, error) {
	if err := n.validate(); err != nil {
		return User{}, err
	}
	email := NormalizeEmail(n.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[email]; taken {
		return User{}, ErrEmailTaken
	}
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: n.PasswordHash,
		Role:         n.Role,
		IsActive:     true,
		CreatedAt:    r.clock().UTC(),
	}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID
	return u, nil
}

// SetRole overwrites a stored role without validation, simulating an
// out-of-band change (demotion, or a corrupt value written by another system).
func (r *MemoryRepo) SetRole(id string, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	r.byID[id] = u
	return nil
}

// SetActive toggles the account flag.
func (r *MemoryRepo) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	r.byID[id] = u
	return nil
}

// Delete removes a user, as an account deletion elsewhere in the system would.
func (r *MemoryRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.byID, id)
	}
}

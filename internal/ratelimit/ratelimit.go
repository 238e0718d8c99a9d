// Package ratelimit implements fixed-window request counting per client key.
//
// A window opens on the first request from a key and resets entirely once
// Window has elapsed since it opened. Within a window at most Limit requests
// are allowed; the rest are rejected until the window ends.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrBackendUnavailable = errors.New("ratelimit: backend unavailable")
	ErrUnknownBucket      = errors.New("ratelimit: unknown bucket")
)

// Policy is a request budget per window.
type Policy struct {
	Limit  int
	Window time.Duration
}

var (
	// StrictPolicy guards authentication endpoints.
	StrictPolicy = Policy{Limit: 5, Window: 15 * time.Minute}
	// GeneralPolicy guards everything else.
	GeneralPolicy = Policy{Limit: 100, Window: 15 * time.Minute}
)

func (p Policy) validate() error {
	if p.Limit <= 0 {
		return fmt.Errorf("ratelimit: limit must be > 0, got %d", p.Limit)
	}
	if p.Window <= 0 {
		return fmt.Errorf("ratelimit: window must be > 0, got %v", p.Window)
	}
	return nil
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	// RetryAfter is the time left in the current window when rejected.
	RetryAfter time.Duration
}

// Limiter counts requests for one policy.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Bucket selects one of the independent budgets.
type Bucket string

const (
	BucketAuth    Bucket = "auth"
	BucketGeneral Bucket = "general"
)

// Governor routes a request to the limiter of its bucket.
type Governor struct {
	limiters map[Bucket]Limiter
}

func NewGovernor(authLimiter, generalLimiter Limiter) *Governor {
	return &Governor{limiters: map[Bucket]Limiter{
		BucketAuth:    authLimiter,
		BucketGeneral: generalLimiter,
	}}
}

// Allow records one request from key against bucket.
func (g *Governor) Allow(ctx context.Context, key string, b Bucket) (Decision, error) {
	l, ok := g.limiters[b]
	if !ok || l == nil {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownBucket, b)
	}
	return l.Allow(ctx, key)
}

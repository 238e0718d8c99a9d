package pipeline

import (
	"time"

	"funding-hub/internal/audit"
	"funding-hub/internal/auth"
	"funding-hub/internal/ratelimit"
	"funding-hub/internal/rbac"
)

// Deps are the constructed collaborators shared by every route class.
type Deps struct {
	Governor *ratelimit.Governor
	Tokens   *auth.Manager
	Resolver *auth.Resolver
	Audit    *audit.Service
	Clock    func() time.Time
}

// Public routes only pass the general rate limit.
func Public(d Deps) Pipeline {
	return New(RateLimit(d.Governor, ratelimit.BucketGeneral, d.Audit))
}

// Credentials routes (sign-in, sign-up) pass the strict limit; input
// validation is appended per route with BindJSON.
func Credentials(d Deps) Pipeline {
	return New(RateLimit(d.Governor, ratelimit.BucketAuth, d.Audit))
}

// Protected routes require a valid token and a live identity, then every
// gate in order.
func Protected(d Deps, gates ...rbac.Gate) Pipeline {
	p := New(
		RateLimit(d.Governor, ratelimit.BucketGeneral, d.Audit),
		ValidateToken(d.Tokens, d.Clock),
		ResolveIdentity(d.Resolver),
	)
	for _, g := range gates {
		p = p.Then(Gate(g))
	}
	return p
}

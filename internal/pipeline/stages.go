package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"funding-hub/internal/apierr"
	"funding-hub/internal/audit"
	"funding-hub/internal/auth"
	"funding-hub/internal/ratelimit"
	"funding-hub/internal/rbac"
	"funding-hub/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	MessageTooManyAuth    = "Too many authentication attempts, please try again later."
	MessageTooManyGeneral = "Too many requests from this IP, please try again later."

	MessageTokenRequired = "Access token required"
	MessageInvalidToken  = "Invalid token"
	MessageTokenExpired  = "Token expired"

	MessageUserNotFound  = "User not found"
	MessageInvalidRole   = "Invalid user role"
	MessageAuthRequired  = "Authentication required"
	MessageAdminRequired = "Admin access required"
	MessageSuperRequired = "Super admin access required"
)

const (
	ginUserKey = "user"
	ginBodyKey = "body"
)

// RateLimit counts the request against bucket, keyed by client IP.
func RateLimit(gov *ratelimit.Governor, bucket ratelimit.Bucket, rec *audit.Service) Stage {
	msg := MessageTooManyGeneral
	if bucket == ratelimit.BucketAuth {
		msg = MessageTooManyAuth
	}
	return Stage{
		Name: "ratelimit:" + string(bucket),
		Run: func(c *gin.Context) error {
			ip := c.ClientIP()
			d, err := gov.Allow(c.Request.Context(), ip, bucket)
			if err != nil {
				return apierr.Internal(err)
			}
			if d.Allowed {
				return nil
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			logger.FromGin(c).Warn("rate limited", "bucket", bucket, "client_ip", ip)
			rec.Record(c.Request.Context(), audit.Event{
				Type:      audit.EventRateLimited,
				IPAddress: ip,
				Message:   fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path),
			})
			return apierr.TooManyRequests(msg)
		},
	}
}

// ValidateToken checks the bearer token and stores its claims on the request.
func ValidateToken(tokens *auth.Manager, clock func() time.Time) Stage {
	if clock == nil {
		clock = time.Now
	}
	return Stage{
		Name: "validate_token",
		Run: func(c *gin.Context) error {
			claims, terr := tokens.ValidateHeader(c.GetHeader("Authorization"), clock())
			if terr != nil {
				return tokenFailure(terr)
			}
			c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
			return nil
		},
	}
}

// ResolveIdentity loads the token subject from storage and attaches the
// fresh record. It must follow ValidateToken.
func ResolveIdentity(resolver *auth.Resolver) Stage {
	return Stage{
		Name: "resolve_identity",
		Run: func(c *gin.Context) error {
			claims, ok := auth.ClaimsFrom(c.Request.Context())
			if !ok {
				return apierr.Unauthorized(MessageAuthRequired)
			}
			u, err := resolver.Resolve(c.Request.Context(), claims)
			if err != nil {
				return identityFailure(err)
			}
			c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), u))
			c.Set(ginUserKey, u)
			return nil
		},
	}
}

// Gate applies a role gate. It must follow ResolveIdentity.
func Gate(g rbac.Gate) Stage {
	return Stage{
		Name: "require:" + g.Min.String(),
		Run: func(c *gin.Context) error {
			if err := g.Check(c.Request.Context()); err != nil {
				return gateFailure(err)
			}
			return nil
		},
	}
}

// BindJSON decodes and validates the body into T; handlers read it with Body.
func BindJSON[T any]() Stage {
	return Stage{
		Name: "validate_input",
		Run: func(c *gin.Context) error {
			var req T
			if err := c.ShouldBindJSON(&req); err != nil {
				return apierr.FromBind(err)
			}
			c.Set(ginBodyKey, req)
			return nil
		},
	}
}

// Body returns the value stored by BindJSON[T].
func Body[T any](c *gin.Context) (T, bool) {
	v, ok := c.Get(ginBodyKey)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func tokenFailure(terr *auth.TokenError) *apierr.Error {
	switch terr.Kind {
	case auth.TokenMissing:
		return apierr.Unauthorized(MessageTokenRequired)
	case auth.TokenExpired:
		return apierr.Forbidden(MessageTokenExpired)
	default:
		return apierr.Forbidden(MessageInvalidToken)
	}
}

func identityFailure(err error) *apierr.Error {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return apierr.Unauthorized(MessageUserNotFound)
	case errors.Is(err, auth.ErrInvalidUserRole):
		return apierr.Unauthorized(MessageInvalidRole)
	default:
		return apierr.Internal(err)
	}
}

func gateFailure(err error) *apierr.Error {
	switch {
	case errors.Is(err, rbac.ErrAdminRequired):
		return apierr.Forbidden(MessageAdminRequired)
	case errors.Is(err, rbac.ErrSuperRequired):
		return apierr.Forbidden(MessageSuperRequired)
	case errors.Is(err, rbac.ErrUnauthenticated):
		return apierr.Unauthorized(MessageAuthRequired)
	default:
		return apierr.Internal(err)
	}
}

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"funding-hub/internal/apierr"
	"funding-hub/internal/audit"
	"funding-hub/internal/auth"
	"funding-hub/internal/pipeline"
	"funding-hub/internal/rbac"
	"funding-hub/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: read the validated input, call internal services, return JSON.
// Rate limiting, token checks and role gates run before them in the pipeline.
type Handlers struct {
	Auth  *auth.Service
	Users users.Store
	Audit *audit.Service
	Env   string
	Clock func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// --- Auth ---

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=72"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// SignIn exchanges credentials for an access token.
func (h Handlers) SignIn(c *gin.Context) {
	req, ok := pipeline.Body[SignInRequest](c)
	if !ok {
		apierr.Write(c, apierr.Validation())
		return
	}
	ctx := c.Request.Context()
	ip := c.ClientIP()

	u, token, err := h.Auth.SignIn(ctx, req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.Audit.Record(ctx, audit.Event{Type: audit.EventSignInFailed, Email: users.NormalizeEmail(req.Email), IPAddress: ip})
		apierr.Write(c, apierr.Unauthorized("Invalid credentials"))
		return
	}
	if err != nil {
		apierr.Write(c, apierr.Internal(err))
		return
	}

	h.Audit.Record(ctx, audit.Event{Type: audit.EventSignInSucceeded, UserID: u.ID, Email: u.Email, IPAddress: ip})
	c.JSON(http.StatusOK, gin.H{
		"session": gin.H{
			"user":         u,
			"access_token": token,
		},
	})
}

// SignUp registers a new account with the user role.
func (h Handlers) SignUp(c *gin.Context) {
	req, ok := pipeline.Body[SignUpRequest](c)
	if !ok {
		apierr.Write(c, apierr.Validation())
		return
	}
	ctx := c.Request.Context()

	u, err := h.Auth.SignUp(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		apierr.Write(c, apierr.BadRequest("User already exists"))
		return
	case errors.Is(err, auth.ErrPasswordTooLong):
		apierr.Write(c, apierr.Validation(apierr.FieldError{Field: "password", Message: "must be at most 72 characters"}))
		return
	case errors.Is(err, users.ErrInvalidInput):
		apierr.Write(c, apierr.Validation(apierr.FieldError{Field: "email", Message: "is required"}))
		return
	case err != nil:
		apierr.Write(c, apierr.Internal(err))
		return
	}

	h.Audit.Record(ctx, audit.Event{Type: audit.EventSignUp, UserID: u.ID, Email: u.Email, IPAddress: c.ClientIP()})
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "userId": u.ID})
}

// SignOut acknowledges the sign-out. Tokens are stateless, so the client
// drops its copy; the event is kept for the audit trail.
func (h Handlers) SignOut(c *gin.Context) {
	u, _ := auth.UserFrom(c.Request.Context())
	h.Audit.Record(c.Request.Context(), audit.Event{Type: audit.EventSignOut, UserID: u.ID, Email: u.Email, IPAddress: c.ClientIP()})
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

// Me returns the caller's freshly loaded record.
func (h Handlers) Me(c *gin.Context) {
	u, ok := auth.UserFrom(c.Request.Context())
	if !ok {
		apierr.Write(c, apierr.Unauthorized(pipeline.MessageAuthRequired))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// --- Admin ---

// AdminCheck reports whether :userId holds admin rights.
// RBAC: admin or superadmin.
func (h Handlers) AdminCheck(c *gin.Context) {
	u, ok := h.lookupTarget(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAdmin": rbac.IsAdmin(u.Role)})
}

// SuperAdminCheck reports whether :userId is a superadmin.
// RBAC: superadmin.
func (h Handlers) SuperAdminCheck(c *gin.Context) {
	u, ok := h.lookupTarget(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"isSuperAdmin": rbac.IsSuperAdmin(u.Role)})
}

func (h Handlers) lookupTarget(c *gin.Context) (users.User, bool) {
	id := c.Param("userId")
	if _, err := uuid.Parse(id); err != nil {
		apierr.Write(c, apierr.Validation(apierr.FieldError{Field: "userId", Message: "must be a valid UUID"}))
		return users.User{}, false
	}

	u, err := h.Users.FindByID(c.Request.Context(), id)
	switch {
	case errors.Is(err, users.ErrNotFound):
		apierr.Write(c, apierr.NotFound("User not found"))
		return users.User{}, false
	case errors.Is(err, users.ErrInvalidRole):
		// A record with an unrecognised role holds no privileges.
		return users.User{ID: id}, true
	case err != nil:
		apierr.Write(c, apierr.Internal(err))
		return users.User{}, false
	}
	return u, true
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   h.now().UTC().Format(time.RFC3339),
		"environment": h.Env,
	})
}

package main

import (
	"log/slog"
	"time"

	"funding-hub/internal/apierr"
	"funding-hub/internal/config"
	"funding-hub/internal/httpapi"
	"funding-hub/internal/pipeline"
	"funding-hub/internal/rbac"
	"funding-hub/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// newRouter builds the engine with the ambient middleware and every route.
// Keep this file free of business logic; each route is a pipeline class plus
// a handler.
func newRouter(log *slog.Logger, cfg config.Config, d pipeline.Deps, h httpapi.Handlers) (*gin.Engine, error) {
	apierr.UseJSONFieldNames()

	r := gin.New()
	r.Use(logger.Middleware(log))
	r.Use(apierr.Recovery())

	// cors.New panics on an empty origin list; local setups simply skip it.
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
			ExposeHeaders:    []string{logger.RequestIDHeader, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Nil trusts no proxy: the rate-limit key is the socket peer address.
	if err := r.SetTrustedProxies(cfg.App.TrustedProxies); err != nil {
		return nil, err
	}

	registerPublicRoutes(r, d, h)
	registerAuthRoutes(r, d, h)
	registerAdminRoutes(r, d, h)
	r.NoRoute(apierr.NoRoute)
	return r, nil
}

func registerPublicRoutes(r *gin.Engine, d pipeline.Deps, h httpapi.Handlers) {
	r.GET("/api/health", pipeline.Public(d).Handle(h.Health))
}

func registerAuthRoutes(r *gin.Engine, d pipeline.Deps, h httpapi.Handlers) {
	creds := pipeline.Credentials(d)
	protected := pipeline.Protected(d)

	g := r.Group("/api/auth")
	g.POST("/signin", creds.Then(pipeline.BindJSON[httpapi.SignInRequest]()).Handle(h.SignIn))
	g.POST("/signup", creds.Then(pipeline.BindJSON[httpapi.SignUpRequest]()).Handle(h.SignUp))
	g.POST("/signout", protected.Handle(h.SignOut))
	g.GET("/me", protected.Handle(h.Me))
}

func registerAdminRoutes(r *gin.Engine, d pipeline.Deps, h httpapi.Handlers) {
	g := r.Group("/api/auth/admin")
	g.GET("/check/:userId", pipeline.Protected(d, rbac.RequireAdmin).Handle(h.AdminCheck))
	g.GET("/super/:userId", pipeline.Protected(d, rbac.RequireSuperAdmin).Handle(h.SuperAdminCheck))
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funding-hub/internal/audit"
	"funding-hub/internal/auth"
	"funding-hub/internal/config"
	"funding-hub/internal/httpapi"
	"funding-hub/internal/pipeline"
	"funding-hub/internal/ratelimit"
	"funding-hub/internal/users"
	"funding-hub/pkg/logger"
	"funding-hub/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("env file ignored", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}
	verifier, err := auth.NewVerifier(cfg.Auth.BcryptCost)
	if err != nil {
		log.Error("password verifier init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	userStore := users.NewPostgresRepo(db)
	if cfg.App.SeedUsersFile != "" {
		n, err := users.SeedFromFile(rootCtx, userStore, verifier, cfg.App.SeedUsersFile)
		if err != nil {
			log.Error("user seed failed", "err", err, "file", cfg.App.SeedUsersFile)
			os.Exit(1)
		}
		log.Info("users seeded", "created", n)
	}

	governor, closeLimiter, err := buildGovernor(rootCtx, log, cfg)
	if err != nil {
		log.Error("rate limiter init failed", "err", err, "backend", cfg.RateLimit.Backend)
		os.Exit(1)
	}
	defer closeLimiter()

	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	deps := pipeline.Deps{
		Governor: governor,
		Tokens:   tokens,
		Resolver: auth.NewResolver(userStore),
		Audit:    auditSvc,
		Clock:    time.Now,
	}
	handlers := httpapi.Handlers{
		Auth:  auth.NewService(userStore, verifier, tokens),
		Users: userStore,
		Audit: auditSvc,
		Env:   cfg.App.Env,
		Clock: time.Now,
	}

	r, err := newRouter(log, cfg, deps, handlers)
	if err != nil {
		log.Error("router init failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "rate_limit_backend", cfg.RateLimit.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// buildGovernor wires both buckets to the configured backend. The returned
// func releases backend resources.
func buildGovernor(ctx context.Context, log *slog.Logger, cfg config.Config) (*ratelimit.Governor, func(), error) {
	switch cfg.RateLimit.Backend {
	case config.RateLimitBackendRedis:
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return nil, nil, err
		}
		strict, err := ratelimit.NewRedisLimiter(rdb, ratelimit.StrictPolicy, "ratelimit:auth")
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		general, err := ratelimit.NewRedisLimiter(rdb, ratelimit.GeneralPolicy, "ratelimit:general")
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return ratelimit.NewGovernor(strict, general), func() { _ = rdb.Close() }, nil

	default:
		opts := ratelimit.MemoryOptions{MaxKeys: cfg.RateLimit.MaxKeys}
		strict, err := ratelimit.NewMemoryLimiter(ratelimit.StrictPolicy, opts)
		if err != nil {
			return nil, nil, err
		}
		general, err := ratelimit.NewMemoryLimiter(ratelimit.GeneralPolicy, opts)
		if err != nil {
			return nil, nil, err
		}
		go strict.RunJanitor(ctx, cfg.RateLimit.SweepInterval)
		go general.RunJanitor(ctx, cfg.RateLimit.SweepInterval)
		log.Debug("in-memory rate limiter started", "max_keys", opts.MaxKeys)
		return ratelimit.NewGovernor(strict, general), func() {}, nil
	}
}

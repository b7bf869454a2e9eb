// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinichub/platform/internal/admin"
	"github.com/clinichub/platform/internal/auth"
	"github.com/clinichub/platform/internal/config"
	"github.com/clinichub/platform/internal/core"
	"github.com/clinichub/platform/internal/guard"
	"github.com/clinichub/platform/internal/health"
	"github.com/clinichub/platform/internal/middleware"
	"github.com/clinichub/platform/internal/rbac"
	"github.com/clinichub/platform/internal/server"
	"github.com/clinichub/platform/internal/session"
	"github.com/clinichub/platform/internal/tenant"
	"github.com/clinichub/platform/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	production := cfg.App.Environment == "production"

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	resolver := tenant.NewResolver(cfg.Tenant.DefaultSlug, cfg.Tenant.Locales)

	tenantRepo := tenant.NewRepository(db.DB)
	tenantSvc := tenant.NewService(tenantRepo)
	tenantHandler := tenant.NewHandler(tenantSvc, resolver)

	roleRepo := rbac.NewRoleRepository(db.DB)
	permRepo := rbac.NewPermissionRepository(db.DB)
	engine := rbac.NewEngine(roleRepo, permRepo)
	rbacHandler := rbac.NewHandler(roleRepo, permRepo)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(db.DB, userRepo, roleRepo)
	userHandler := user.NewHandler(userSvc)

	sessions, err := session.NewManager(cfg.Session, production, userSvc, tenantSvc)
	if err != nil {
		return err
	}
	logger.Info("session manager initialized",
		"cookie", cfg.Session.CookieName,
		"ttl", cfg.Session.TTL,
	)

	g := guard.New(sessions, engine)

	limiter := auth.NewAttemptLimiter(
		redis.Client,
		cfg.Login.MaxAttempts,
		cfg.Login.LockoutWindow,
		logger,
	)
	authSvc := auth.NewService(userSvc, sessions, limiter, cfg.SuperAdmin, logger)
	authHandler := auth.NewHandler(authSvc, sessions)

	healthHandler := health.NewHandler(db, redis)
	healthHandler.SetSetupCheck(cfg.SetupComplete)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(production))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(tenant.Middleware(
		resolver,
		cfg.Session.TenantSlugCookie,
		production,
	))

	healthHandler.RegisterRoutes(router)

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, g)
		userHandler.RegisterRoutes(r, g)
		tenantHandler.RegisterRoutes(r, g.RequireSession, g.RequireSuperAdmin)
		rbacHandler.RegisterRoutes(r, g.RequireSession, g.RequireAdmin)
		adminHandler.RegisterRoutes(r, g.RequireSession, g.RequireSuperAdmin)
	})

	healthHandler.SetReady(true)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

// Command api is the entry point for the Lumera HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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

	"github.com/dovanminh/lumera/internal/admin"
	"github.com/dovanminh/lumera/internal/api"
	"github.com/dovanminh/lumera/internal/audit"
	"github.com/dovanminh/lumera/internal/auth"
	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/catalog"
	"github.com/dovanminh/lumera/internal/media"
	"github.com/dovanminh/lumera/internal/order"
	"github.com/dovanminh/lumera/internal/platform/config"
	"github.com/dovanminh/lumera/internal/platform/constants"
	"github.com/dovanminh/lumera/internal/platform/middleware"
	"github.com/dovanminh/lumera/internal/platform/migration"
	pgstore "github.com/dovanminh/lumera/internal/platform/postgres"
	redisstore "github.com/dovanminh/lumera/internal/platform/redis"
	"github.com/dovanminh/lumera/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "lumera"))
	slog.SetDefault(log)

	log.Info("[Lumera] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "lumera"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Client address resolution must be pinned down before any handler
	// runs; forwarded-for headers are only believed from these ranges.
	must(log, middleware.SetTrustedProxies(cfg.TrustedProxyRanges()), "configure trusted proxies")

	// Root context for the process; startup steps get a 30s deadline so
	// misconfiguration is caught quickly rather than hanging indefinitely.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	sessionRegistry := auth.NewSessionRegistry(rdb)
	evaluator := authz.NewEvaluator(sessionRegistry, userRepository)

	auditRepository := audit.NewPostgresRepository(pool)
	auditService := audit.NewService(auditRepository, log)
	auditHandler := audit.NewHandler(auditService, evaluator)

	authService := auth.NewService(userRepository, sessionRegistry, jwtSvc, auditService)
	authHandler := auth.NewHandler(authService, evaluator)

	categoryRepository := catalog.NewPostgresCategoryRepository(pool)
	productRepository := catalog.NewPostgresProductRepository(pool)
	catalogService := catalog.NewService(categoryRepository, productRepository, log)
	catalogHandler := catalog.NewHandler(catalogService, evaluator)

	orderRepository := order.NewPostgresRepository(pool)
	orderService := order.NewService(orderRepository, auditService, log)
	orderHandler := order.NewHandler(orderService, evaluator)

	adminRepository := admin.NewPostgresRepository(pool)
	adminService := admin.NewService(adminRepository, sessionRegistry, auditService, log)
	adminHandler := admin.NewHandler(adminService, evaluator)

	mediaStorage, err := media.NewDiskStorage(cfg.MediaRoot)
	must(log, err, "initialize media storage")
	mediaRepository := media.NewPostgresRepository(pool)
	mediaService := media.NewService(mediaRepository, mediaStorage, cfg.MediaBaseURL, log)
	mediaHandler := media.NewHandler(mediaService, evaluator)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Catalog:   catalogHandler,
		Order:     orderHandler,
		Admin:     adminHandler,
		Audit:     auditHandler,
		Media:     mediaHandler,
		MediaRoot: mediaStorage.Root(),
	}

	server := api.NewServer(rootCtx, cfg, log, jwtSvc, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

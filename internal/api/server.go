// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dovanminh/lumera/internal/admin"
	"github.com/dovanminh/lumera/internal/audit"
	"github.com/dovanminh/lumera/internal/auth"
	"github.com/dovanminh/lumera/internal/catalog"
	"github.com/dovanminh/lumera/internal/media"
	"github.com/dovanminh/lumera/internal/order"
	"github.com/dovanminh/lumera/internal/platform/config"
	"github.com/dovanminh/lumera/internal/platform/constants"
	"github.com/dovanminh/lumera/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles registration, login, refresh, and session management.
	Auth *auth.Handler

	// Catalog handles categories and products.
	Catalog *catalog.Handler

	// Order handles checkout and fulfilment.
	Order *order.Handler

	// Admin handles user administration.
	Admin *admin.Handler

	// Audit exposes the security logs.
	Audit *audit.Handler

	// Media handles catalogue image uploads.
	Media *media.Handler

	// MediaRoot is the directory uploaded files are served from.
	MediaRoot string
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups. ctx must outlive the server; it owns the
// rate limiter's cleanup goroutine.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Static Media
	// Uploaded catalogue images, served straight from disk.
	if h.MediaRoot != "" {
		fileServer := http.StripPrefix(cfg.MediaBaseURL, http.FileServer(http.Dir(h.MediaRoot)))
		r.Get(cfg.MediaBaseURL+"/*", fileServer.ServeHTTP)
	}

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		// The auth surface carries its own, much tighter bucket on top of
		// the global limiter to blunt credential stuffing.
		api.With(middleware.CredentialRateLimit(ctx)).Mount("/auth", h.Auth.Routes())
		api.Mount("/categories", h.Catalog.CategoryRoutes())
		api.Mount("/products", h.Catalog.ProductRoutes())
		api.Mount("/orders", h.Order.Routes())
		api.Mount("/fulfilment/orders", h.Order.FulfilmentRoutes())
		api.Mount("/admin/users", h.Admin.Routes())
		api.Mount("/security-logs", h.Audit.Routes())
		api.Mount("/media", h.Media.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

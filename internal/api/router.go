// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/auditus/internal/config"
)

// healthRateFactor loosens the data-group rate limit for probes.
const healthRateFactor = 10

// RouterConfig assembles the HTTP surface.
type RouterConfig struct {
	Handlers   *Handlers
	Middleware *ChiMiddleware

	// JWT enables bearer auth on the data group when non-nil.
	JWT *JWTManager
}

// NewRouterConfig derives router wiring from the application auth
// config. JWT is only constructed when mode is jwt.
func NewRouterConfig(handlers *Handlers, authCfg config.AuthConfig) (*RouterConfig, error) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins:   authCfg.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,

		RateLimitRequests: authCfg.RateLimitRequests,
		RateLimitWindow:   authCfg.RateLimitWindow,
		RateLimitDisabled: authCfg.RateLimitDisabled,
	})

	cfg := &RouterConfig{
		Handlers:   handlers,
		Middleware: mw,
	}

	if authCfg.Mode == "jwt" {
		manager, err := NewJWTManager(authCfg.JWTSecret, 0)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		cfg.JWT = manager
	}
	return cfg, nil
}

// NewRouter builds the chi mux: health group with a loose rate limit,
// versioned data group behind CORS, rate limiting, metrics and optional
// JWT, plus the Prometheus scrape endpoint outside both groups.
func NewRouter(cfg *RouterConfig) (*chi.Mux, error) {
	if cfg == nil || cfg.Handlers == nil {
		return nil, fmt.Errorf("api: router config and handlers are required")
	}
	mw := cfg.Middleware
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	h := cfg.Handlers

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(mw.RateLimitScaled(healthRateFactor))

		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(PrometheusMetrics)
		r.Use(Authenticate(cfg.JWT))

		r.Post("/ingest/snapshot", h.IngestSnapshot)
		r.Get("/users/{userID}/profile", h.Profile)
		r.Get("/users/{userID}/queue", h.Queue)
		r.Get("/users/{userID}/history", h.History)
		r.Get("/feed/live", h.LiveFeed)
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r, nil
}

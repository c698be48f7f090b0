// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package api provides HTTP routing using the Chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/gate"
	"github.com/gatewarden/gatewarden/internal/guard"
	"github.com/gatewarden/gatewarden/internal/middleware"
	"github.com/gatewarden/gatewarden/internal/models"
)

// Router assembles the HTTP surface: edge middleware, the security
// gate, guards, and handlers.
type Router struct {
	cfg     *config.Config
	handler *Handler
	gate    *gate.SecurityGate
	guard   *guard.Guard
}

// NewRouter creates a router.
func NewRouter(cfg *config.Config, handler *Handler, securityGate *gate.SecurityGate, g *guard.Guard) *Router {
	return &Router{
		cfg:     cfg,
		handler: handler,
		gate:    securityGate,
		guard:   g,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(securityHeaders)

	// Health endpoints: permissive edge limit for monitors, no gate.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Prometheus scrape endpoint, admin only.
	r.Group(func(r chi.Router) {
		r.Use(router.gate.Middleware)
		r.Use(router.guard.RequireAuthentication)
		r.Use(router.guard.RequireRole(models.RoleAdmin))
		r.Handle("/metrics", promhttp.Handler())
	})

	// Core API endpoints behind the security gate.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.gate.Middleware)

		r.With(router.guard.RequireAuthentication).
			Get("/files/{fileID}/access", router.handler.FileAccess)

		// Scanning carries its own tighter edge budget on top of the
		// gate's per-caller limiter.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(
				router.cfg.Scan.RateLimitReqs,
				router.cfg.Scan.RateLimitWindow,
			))
			r.Use(router.guard.RequireAuthentication)
			r.Use(router.guard.RequirePermission("scan", "entitlement"))
			r.Post("/scan-ticket/{documentID}", router.handler.ScanTicket)
		})
	})

	return r
}

// securityHeaders adds baseline security headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if r.Header.Get("X-Forwarded-Proto") == "https" || r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

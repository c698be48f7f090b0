// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package main is the entry point for the Gatewarden server.
//
// Gatewarden is the access control and entitlement core of a content
// platform: every inbound request passes the security gate (rate
// limiting, input validation, credential resolution), protected routes
// sit behind authorization guards, file reads consult the file access
// authorizer with its per-content-type strategies, and ticket scans go
// through the entitlement gatekeeper.
//
// Startup order:
//
//  1. Configuration: koanf v2 layered load (defaults, config.yaml,
//     environment), fail-fast validation.
//  2. Logging: zerolog global logger.
//  3. Store: BadgerDB document store (principals, files, entitlements,
//     products, events, memberships).
//  4. Authorization: Casbin enforcer with embedded RBAC model/policy.
//  5. Access strategy registry: course/event/community strategies,
//     duplicate registration aborts boot.
//  6. HTTP: chi router behind the security gate, supervised by a
//     suture tree together with store maintenance.
//
// The server shuts down gracefully on SIGINT/SIGTERM: the supervisor
// context is canceled, the HTTP server drains in-flight requests, and
// the store is closed last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gatewarden/gatewarden/internal/api"
	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/authz"
	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/entitlement"
	"github.com/gatewarden/gatewarden/internal/fileaccess"
	"github.com/gatewarden/gatewarden/internal/gate"
	"github.com/gatewarden/gatewarden/internal/guard"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/store"
	"github.com/gatewarden/gatewarden/internal/supervisor"
	"github.com/gatewarden/gatewarden/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("store_path", cfg.Store.Path).
		Bool("consume_on_scan", cfg.Scan.ConsumeOnScan).
		Msg("Starting Gatewarden")

	st, err := store.Open(&cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		ModelPath:    cfg.Security.Casbin.ModelPath,
		PolicyPath:   cfg.Security.Casbin.PolicyPath,
		DefaultRole:  cfg.Security.Casbin.DefaultRole,
		CacheEnabled: cfg.Security.Casbin.CacheEnabled,
		CacheTTL:     cfg.Security.Casbin.CacheTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}
	defer enforcer.Close()

	decisions, err := authz.NewService(enforcer)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization service")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	resolver := auth.NewResolver(jwtManager, st, cfg.Security.CookieName, cfg.Server.IsProduction())

	securityGate := gate.New(resolver,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)
	defer securityGate.Stop()

	// Duplicate strategy registration is a configuration error and
	// aborts boot.
	registry, err := fileaccess.NewDefaultRegistry(st)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build access strategy registry")
	}
	authorizer := fileaccess.NewAuthorizer(registry, cfg.FileAccess.StrictRegistryFallback)

	gatekeeper := entitlement.NewGatekeeper(st, st, st, cfg.Scan.ConsumeOnScan)

	handler := api.NewHandler(st, authorizer, gatekeeper)
	guards := guard.New(decisions)
	router := api.NewRouter(cfg, handler, securityGate, guards)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	treeConfig := supervisor.DefaultTreeConfig()
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeConfig)
	tree.AddAPIService(services.NewHTTPServerService(srv, treeConfig.ShutdownTimeout))
	tree.AddDataService(services.NewStoreGCService(st, cfg.Store.GCInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", srv.Addr).Msg("Listening")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}

	logging.Info().Msg("Shutdown complete")
}

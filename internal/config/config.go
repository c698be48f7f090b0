// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package config provides layered configuration via Koanf v2.
//
// Precedence (highest wins): environment variables > config file > defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Store      StoreConfig      `koanf:"store"`
	FileAccess FileAccessConfig `koanf:"file_access"`
	Scan       ScanConfig       `koanf:"scan"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// Environment selects the runtime profile: development or production.
	// The production profile sets Secure on the auth cookie.
	Environment string `koanf:"environment"`
}

// IsProduction reports whether the server runs under the production profile.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// SecurityConfig holds authentication, rate limiting, and authorization
// settings.
type SecurityConfig struct {
	// JWTSecret signs and verifies bearer credentials (HS256).
	// Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// SessionTimeout is the credential lifetime used when issuing tokens.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// CookieName is the fallback credential cookie. The resolver bridges it
	// into the Authorization header before any downstream check runs.
	CookieName string `koanf:"cookie_name"`

	// Per-caller request budget for the security gate.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`

	Casbin CasbinConfig `koanf:"casbin"`
}

// CasbinConfig holds authorization decision service settings.
type CasbinConfig struct {
	// ModelPath and PolicyPath override the embedded model/policy files.
	ModelPath  string `koanf:"model_path"`
	PolicyPath string `koanf:"policy_path"`

	// DefaultRole is assumed for principals without an explicit role.
	DefaultRole string `koanf:"default_role"`

	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// GCInterval is how often the value log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// FileAccessConfig holds file authorizer settings.
type FileAccessConfig struct {
	// StrictRegistryFallback tightens the missing-registry fallback from
	// allow to deny. The permissive default preserves legacy behavior for
	// deployments that never wire a registry.
	StrictRegistryFallback bool `koanf:"strict_registry_fallback"`
}

// ScanConfig holds entitlement gatekeeper settings.
type ScanConfig struct {
	// ConsumeOnScan persists the accepted state after a successful scan,
	// rejecting the same entitlement on re-scan. Off by default.
	ConsumeOnScan bool `koanf:"consume_on_scan"`

	// Per-scanner budget for the scan endpoint.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for defects that must fail startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}

	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
	}

	if c.Security.Casbin.DefaultRole == "" {
		return fmt.Errorf("security.casbin.default_role is required")
	}

	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}

	switch c.Server.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}

	return nil
}

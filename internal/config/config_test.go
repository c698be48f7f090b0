// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package config

import (
	"strings"
	"testing"
)

const validSecret = "a-jwt-secret-that-is-long-enough-to-pass"

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = validSecret
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults with secret pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "" },
			wantErr: "jwt_secret",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "too-short" },
			wantErr: "at least 32",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "rate limit budget must be positive",
			mutate:  func(c *Config) { c.Security.RateLimitReqs = 0 },
			wantErr: "rate_limit_reqs",
		},
		{
			name: "zero budget allowed when disabled",
			mutate: func(c *Config) {
				c.Security.RateLimitReqs = 0
				c.Security.RateLimitDisabled = true
			},
		},
		{
			name:    "missing default role",
			mutate:  func(c *Config) { c.Security.Casbin.DefaultRole = "" },
			wantErr: "default_role",
		},
		{
			name: "missing store path",
			mutate: func(c *Config) {
				c.Store.Path = ""
				c.Store.InMemory = false
			},
			wantErr: "store.path",
		},
		{
			name: "in-memory store needs no path",
			mutate: func(c *Config) {
				c.Store.Path = ""
				c.Store.InMemory = true
			},
		},
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.Server.Environment = "staging" },
			wantErr: "server.environment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	cfg := validConfig()
	if cfg.Server.IsProduction() {
		t.Error("Default environment should not be production")
	}
	cfg.Server.Environment = "production"
	if !cfg.Server.IsProduction() {
		t.Error("Production environment not detected")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_IN_MEMORY", "true")
	t.Setenv("STORE_PATH", "")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CONSUME_ON_SCAN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Store.InMemory {
		t.Error("STORE_IN_MEMORY not applied")
	}
	if !cfg.Scan.ConsumeOnScan {
		t.Error("CONSUME_ON_SCAN not applied")
	}
	if len(cfg.Security.CORSOrigins) != 2 ||
		cfg.Security.CORSOrigins[0] != "https://a.example" ||
		cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v, want the two origins split and trimmed", cfg.Security.CORSOrigins)
	}
}

func TestLoad_DefaultsApply(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)
	t.Setenv("STORE_IN_MEMORY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Security.CookieName != "jwt" {
		t.Errorf("CookieName = %s, want jwt", cfg.Security.CookieName)
	}
	if cfg.Security.Casbin.DefaultRole != "member" {
		t.Errorf("DefaultRole = %s, want member", cfg.Security.Casbin.DefaultRole)
	}
	if cfg.Security.RateLimitReqs != 100 {
		t.Errorf("RateLimitReqs = %d, want 100", cfg.Security.RateLimitReqs)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("STORE_IN_MEMORY", "true")

	if _, err := Load(); err == nil {
		t.Error("Expected Load to fail validation with a short secret")
	}
}

// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package guard provides post-gate authorization middleware. Guards
// are pure pass/fail gates with no side effects beyond logging; they
// assume the security gate and credential resolver have already run.
package guard

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
)

// DecisionService answers permission and role questions for an
// identity. Implemented by the authz service.
type DecisionService interface {
	CanAccess(ctx context.Context, identity *models.Identity, action, subject string) (bool, error)
	HasRole(ctx context.Context, identity *models.Identity, role string) (bool, error)
}

// Guard builds authorization middleware backed by a decision service.
type Guard struct {
	decisions DecisionService
}

// New creates a guard factory.
func New(decisions DecisionService) *Guard {
	return &Guard{decisions: decisions}
}

// RequireAuthentication rejects requests without a resolved identity
// with UNAUTHORIZED, and requests from blocked or unconfirmed
// identities with FORBIDDEN. The handler never runs on failure.
func (g *Guard) RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := auth.IdentityFromContext(r.Context())
		if identity == nil {
			writeGuardError(w, r, http.StatusUnauthorized, models.CodeUnauthorized,
				"Authentication required")
			return
		}
		if identity.Blocked || !identity.Confirmed {
			logging.Warn().
				Str("principal_id", identity.ID).
				Bool("blocked", identity.Blocked).
				Bool("confirmed", identity.Confirmed).
				Msg("Authenticated principal not in good standing")
			writeGuardError(w, r, http.StatusForbidden, models.CodeForbidden,
				"Account is not in good standing")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequirePermission enforces that the identity may perform action on
// subject. Missing action or subject is a configuration error reported
// as BAD_CONFIG before the identity is ever looked at.
func (g *Guard) RequirePermission(action, subject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if action == "" || subject == "" {
				logging.Error().
					Str("action", action).
					Str("subject", subject).
					Str("path", r.URL.Path).
					Msg("Permission guard mounted without action or subject")
				writeGuardError(w, r, http.StatusBadRequest, models.CodeBadConfig,
					"Permission guard is misconfigured")
				return
			}

			identity := auth.IdentityFromContext(r.Context())
			if identity == nil {
				writeGuardError(w, r, http.StatusUnauthorized, models.CodeUnauthorized,
					"Authentication required")
				return
			}

			allowed, err := g.decisions.CanAccess(r.Context(), identity, action, subject)
			if err != nil {
				logging.Error().Err(err).
					Str("action", action).
					Str("subject", subject).
					Msg("Permission decision failed")
				writeGuardError(w, r, http.StatusInternalServerError, models.CodeInternalError,
					"Authorization check failed")
				return
			}
			if !allowed {
				writeGuardError(w, r, http.StatusForbidden, models.CodeForbidden,
					"Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole enforces role membership, honoring the role hierarchy.
// An empty role name is a configuration error, mirroring
// RequirePermission.
func (g *Guard) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role == "" {
				logging.Error().
					Str("path", r.URL.Path).
					Msg("Role guard mounted without a role name")
				writeGuardError(w, r, http.StatusBadRequest, models.CodeBadConfig,
					"Role guard is misconfigured")
				return
			}

			identity := auth.IdentityFromContext(r.Context())
			if identity == nil {
				writeGuardError(w, r, http.StatusUnauthorized, models.CodeUnauthorized,
					"Authentication required")
				return
			}

			held, err := g.decisions.HasRole(r.Context(), identity, role)
			if err != nil {
				logging.Error().Err(err).
					Str("role", role).
					Msg("Role decision failed")
				writeGuardError(w, r, http.StatusInternalServerError, models.CodeInternalError,
					"Authorization check failed")
				return
			}
			if !held {
				writeGuardError(w, r, http.StatusForbidden, models.CodeForbidden,
					"Insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeGuardError writes an authorization failure in the standard
// envelope. Guards cannot import the api package's helpers without a
// cycle, so the envelope is produced locally.
func writeGuardError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
		Metadata: &models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode guard error")
	}
}

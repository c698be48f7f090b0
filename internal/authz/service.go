// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"context"
	"errors"
	"time"

	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
)

// Service errors
var (
	// ErrNilIdentity is returned when a decision is requested for a nil identity.
	ErrNilIdentity = errors.New("identity is nil")

	// ErrInvalidRole is returned when an unknown role is specified.
	ErrInvalidRole = errors.New("invalid role")
)

// Service answers ability questions for resolved identities by
// evaluating the identity's role against the Casbin policy.
type Service struct {
	enforcer *Enforcer
}

// NewService creates a new authorization service.
func NewService(enforcer *Enforcer) (*Service, error) {
	if enforcer == nil {
		return nil, errors.New("enforcer is required")
	}
	return &Service{enforcer: enforcer}, nil
}

// CanAccess reports whether the identity's role permits action on
// subject. Identities without a stored role evaluate under the
// configured default role.
func (s *Service) CanAccess(ctx context.Context, identity *models.Identity, action, subject string) (bool, error) {
	if identity == nil {
		return false, ErrNilIdentity
	}

	role := identity.Role
	if role == "" {
		role = s.enforcer.DefaultRole()
	}

	start := time.Now()
	allowed, err := s.enforcer.Enforce(role, subject, action)
	if err != nil {
		return false, err
	}
	RecordAuthzDecision(role, subject, action, allowed, time.Since(start))

	if !allowed {
		logging.Debug().
			Str("principal_id", identity.ID).
			Str("role", role).
			Str("subject", subject).
			Str("action", action).
			Msg("Authorization denied")
	}

	return allowed, nil
}

// HasRole reports whether the identity holds the role, directly or via
// the role hierarchy (admin inherits organizer inherits member).
func (s *Service) HasRole(ctx context.Context, identity *models.Identity, role string) (bool, error) {
	if identity == nil {
		return false, ErrNilIdentity
	}
	if !models.IsValidRole(role) {
		return false, ErrInvalidRole
	}

	held := identity.Role
	if held == "" {
		held = s.enforcer.DefaultRole()
	}

	return s.enforcer.HasRole(held, role)
}

// EffectiveRoles returns the identity's role plus every role it
// inherits through the hierarchy.
func (s *Service) EffectiveRoles(ctx context.Context, identity *models.Identity) ([]string, error) {
	if identity == nil {
		return nil, ErrNilIdentity
	}

	role := identity.Role
	if role == "" {
		role = s.enforcer.DefaultRole()
	}

	inherited, err := s.enforcer.GetRolesForUser(role)
	if err != nil {
		return nil, err
	}
	return append([]string{role}, inherited...), nil
}

// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package fileaccess decides protected file visibility by combining
// ownership with pluggable per-content-type access strategies.
package fileaccess

import (
	"context"
	"fmt"

	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
)

// Strategy is a per-content-type access decision. Implementations may
// perform I/O (membership lookups) but must be idempotent and free of
// side effects from the authorizer's perspective.
type Strategy interface {
	CanAccess(ctx context.Context, documentID, principalID string) (bool, error)
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(ctx context.Context, documentID, principalID string) (bool, error)

// CanAccess calls f.
func (f StrategyFunc) CanAccess(ctx context.Context, documentID, principalID string) (bool, error) {
	return f(ctx, documentID, principalID)
}

// Registry maps content-type identifiers to access strategies. It is
// populated once at startup and read-only thereafter, so lookups need
// no locking.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register binds a strategy to a content-type identifier. Registering
// the same identifier twice is a configuration error and should fail
// process startup.
func (r *Registry) Register(contentType string, strategy Strategy) error {
	if contentType == "" || strategy == nil {
		return fmt.Errorf("%w: content type and strategy are required", models.ErrConfiguration)
	}
	if _, exists := r.strategies[contentType]; exists {
		return fmt.Errorf("%w: strategy already registered for content type %q", models.ErrConfiguration, contentType)
	}
	r.strategies[contentType] = strategy
	return nil
}

// CanAccess consults the strategy registered for contentType. An
// unknown content type denies (fail closed), and a strategy error
// denies for that lookup.
func (r *Registry) CanAccess(ctx context.Context, contentType, documentID, principalID string) bool {
	strategy, ok := r.strategies[contentType]
	if !ok {
		logging.Debug().
			Str("content_type", contentType).
			Msg("No access strategy registered, denying")
		return false
	}

	allowed, err := strategy.CanAccess(ctx, documentID, principalID)
	if err != nil {
		logging.Error().Err(err).
			Str("content_type", contentType).
			Str("document_id", documentID).
			Msg("Access strategy failed, denying")
		return false
	}
	return allowed
}

// Has reports whether a strategy is registered for contentType.
func (r *Registry) Has(contentType string) bool {
	_, ok := r.strategies[contentType]
	return ok
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int {
	return len(r.strategies)
}

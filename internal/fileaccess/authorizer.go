// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package fileaccess

import (
	"context"

	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/models"
)

// Authorizer decides whether a principal may see a protected file.
// Decisions are deterministic and side-effect free.
type Authorizer struct {
	registry *Registry

	// strictFallback tightens the historical behavior of allowing
	// related-content checks when no registry is configured at all.
	// Off by default for compatibility with pre-registry deployments.
	strictFallback bool
}

// NewAuthorizer creates a file access authorizer. A nil registry is
// legal and, unless strictFallback is set, causes related-content
// checks to fall back to allow.
func NewAuthorizer(registry *Registry, strictFallback bool) *Authorizer {
	return &Authorizer{
		registry:       registry,
		strictFallback: strictFallback,
	}
}

// CanAccess reports whether the principal may access the file.
//
// Decision order, first match wins:
//  1. Owner matches the principal: allow.
//  2. File has no owner: allow. Ownerless files predate ownership
//     tracking and remain publicly readable.
//  3. Owned by someone else with no related content: deny.
//  4. Otherwise each related-content reference is checked against its
//     content type's strategy; any single allow wins. With no registry
//     configured the overall decision falls back to allow unless
//     strict fallback is enabled. An unregistered content type within
//     a configured registry always denies that reference.
func (a *Authorizer) CanAccess(ctx context.Context, file *models.ProtectedFile, principalID string) bool {
	allowed := a.decide(ctx, file, principalID)
	metrics.RecordFileAccessDecision(fileContentType(file), allowed)
	return allowed
}

func (a *Authorizer) decide(ctx context.Context, file *models.ProtectedFile, principalID string) bool {
	if file == nil {
		return false
	}

	if file.HasOwner() && file.OwnedBy(principalID) {
		return true
	}
	if !file.HasOwner() {
		return true
	}
	if len(file.Related) == 0 {
		return false
	}

	if a.registry == nil {
		return !a.strictFallback
	}

	for _, related := range file.Related {
		if a.registry.CanAccess(ctx, related.ContentType, related.DocumentID, principalID) {
			return true
		}
	}
	return false
}

// fileContentType picks a representative content type label for metrics.
func fileContentType(file *models.ProtectedFile) string {
	if file == nil || len(file.Related) == 0 {
		return "none"
	}
	return file.Related[0].ContentType
}

// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package auth

import (
	"context"

	"github.com/gatewarden/gatewarden/internal/models"
)

type contextKey string

// IdentityContextKey holds the resolved *models.Identity for the request.
const IdentityContextKey contextKey = "identity"

// ClaimsContextKey holds the raw *Claims the identity was resolved from.
const ClaimsContextKey contextKey = "claims"

// ContextWithIdentity returns a context carrying the resolved identity.
func ContextWithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityFromContext extracts the resolved identity, if any.
// A nil return means the request is anonymous.
func IdentityFromContext(ctx context.Context) *models.Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(*models.Identity); ok {
		return identity
	}
	return nil
}

// ContextWithClaims returns a context carrying the verified JWT claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext extracts the verified JWT claims, if any.
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(ClaimsContextKey).(*Claims); ok {
		return claims
	}
	return nil
}

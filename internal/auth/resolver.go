// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/models"
)

// PrincipalLoader loads the stored principal a verified credential
// points at. Implemented by the Badger-backed store.
type PrincipalLoader interface {
	GetPrincipal(ctx context.Context, id string) (*models.Principal, error)
}

// Resolver turns an incoming credential (Authorization header or
// session cookie) into a request identity.
//
// Resolution is strictly best-effort: a missing, malformed, expired or
// orphaned credential leaves the request anonymous and never rejects
// it. Enforcement is the guards' job, not the resolver's.
type Resolver struct {
	jwtManager *JWTManager
	principals PrincipalLoader
	cookieName string
	production bool
}

// NewResolver creates a credential resolver.
func NewResolver(jwtManager *JWTManager, principals PrincipalLoader, cookieName string, production bool) *Resolver {
	if cookieName == "" {
		cookieName = "jwt"
	}
	return &Resolver{
		jwtManager: jwtManager,
		principals: principals,
		cookieName: cookieName,
		production: production,
	}
}

// CookieName returns the session cookie name the resolver reads.
func (rs *Resolver) CookieName() string {
	return rs.cookieName
}

// Resolve is middleware that resolves the request credential into an
// identity on the request context.
//
// When the Authorization header is empty and the session cookie is
// present, the cookie value is bridged into the header as a Bearer
// token so every downstream consumer sees one credential shape. A
// credential that fails verification clears the session cookie; one
// that verifies but points at a missing or blocked principal is simply
// ignored. Either way the request proceeds anonymously.
func (rs *Resolver) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, fromCookie := rs.extractToken(r)
		if token == "" {
			metrics.RecordCredentialResolution("anonymous")
			next.ServeHTTP(w, r)
			return
		}

		claims, err := rs.jwtManager.ValidateToken(token)
		if err != nil {
			// Stale or forged token: clear the cookie so the client
			// does not retry it on every request.
			logging.Debug().Err(err).Msg("Credential verification failed, continuing anonymously")
			if fromCookie {
				rs.ClearSessionCookie(w)
			}
			metrics.RecordCredentialResolution("anonymous")
			next.ServeHTTP(w, r)
			return
		}

		identity, err := rs.loadIdentity(r.Context(), claims)
		if err != nil {
			logging.Debug().Err(err).Str("principal_id", claims.Subject).
				Msg("Credential verified but principal unusable, continuing anonymously")
			metrics.RecordCredentialResolution("anonymous")
			next.ServeHTTP(w, r)
			return
		}

		ctx := ContextWithIdentity(r.Context(), identity)
		ctx = ContextWithClaims(ctx, claims)
		metrics.RecordCredentialResolution("identity")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken pulls the raw token from the Authorization header,
// falling back to the session cookie. When the cookie is used its
// value is also written back into the Authorization header.
func (rs *Resolver) extractToken(r *http.Request) (token string, fromCookie bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie(rs.cookieName)
		if err != nil || cookie.Value == "" {
			return "", false
		}
		r.Header.Set("Authorization", "Bearer "+cookie.Value)
		return cookie.Value, true
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], false
}

// errPrincipalBlocked marks a verified credential whose principal has
// been blocked since issuance.
var errPrincipalBlocked = errors.New("principal is blocked")

// loadIdentity loads the principal a verified credential names.
// A missing or blocked principal leaves the request anonymous.
func (rs *Resolver) loadIdentity(ctx context.Context, claims *Claims) (*models.Identity, error) {
	principal, err := rs.principals.GetPrincipal(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if principal.Blocked {
		return nil, errPrincipalBlocked
	}

	return models.IdentityFromPrincipal(principal), nil
}

// ClearSessionCookie expires the session cookie on the client. Used
// when a presented credential turns out to be unusable, and by the
// logout handler.
func (rs *Resolver) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     rs.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   rs.production,
	})
}

// SetSessionCookie writes a freshly issued credential as the session
// cookie, mirroring the attributes ClearSessionCookie uses.
func (rs *Resolver) SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     rs.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   rs.production,
	})
}

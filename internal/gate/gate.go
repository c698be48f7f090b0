// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package gate implements the per-request security gate that runs
// before any protected handler: rate limiting, input validation, and
// credential resolution.
//
// Rate limiting and input validation are independent and are evaluated
// concurrently; both always run to completion and only the reporting
// order is biased, with rate-limit rejections taking priority over
// validation rejections. Credential resolution never rejects a request
// at the gate. A request without a usable credential proceeds
// anonymously and is caught later by a guard that requires
// authentication.
package gate

import (
	"bytes"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/models"
)

// maxBodyBytes bounds how much of a request body the gate will inspect.
const maxBodyBytes = 1 << 20 // 1 MiB

// SecurityGate composes the pre-handler checks for protected routes.
type SecurityGate struct {
	limiter           *RateLimiter
	rateLimitDisabled bool
	resolver          *auth.Resolver
}

// New creates a security gate.
func New(resolver *auth.Resolver, reqsPerWindow int, window time.Duration, rateLimitDisabled bool) *SecurityGate {
	return &SecurityGate{
		limiter:           NewRateLimiter(reqsPerWindow, window),
		rateLimitDisabled: rateLimitDisabled,
		resolver:          resolver,
	}
}

// Stop releases the gate's background resources.
func (g *SecurityGate) Stop() {
	g.limiter.Stop()
}

// Middleware returns the gate as chi-compatible middleware. Rate
// limiting and validation fan out concurrently and are joined before a
// decision; on pass, the credential resolver runs and the handler is
// invoked with the resolved (possibly anonymous) identity in context.
func (g *SecurityGate) Middleware(next http.Handler) http.Handler {
	resolved := g.resolver.Resolve(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			wg          sync.WaitGroup
			rateLimited bool
			validateErr error
		)

		wg.Add(2)
		go func() {
			defer wg.Done()
			rateLimited = !g.allowRate(r)
		}()
		go func() {
			defer wg.Done()
			validateErr = validateRequest(r)
		}()
		wg.Wait()

		// Rate limiting outranks validation when both fail.
		if rateLimited {
			metrics.RecordGateRejection("rate_limited")
			g.reject(w, r, http.StatusTooManyRequests, models.CodeRateLimited,
				"Too many requests, retry after a backoff")
			return
		}
		if validateErr != nil {
			metrics.RecordGateRejection("invalid_input")
			g.reject(w, r, http.StatusBadRequest, models.CodeInvalidInput,
				validateErr.Error())
			return
		}

		resolved.ServeHTTP(w, r)
	})
}

// allowRate checks the caller's request budget.
func (g *SecurityGate) allowRate(r *http.Request) bool {
	if g.rateLimitDisabled {
		return true
	}
	return g.limiter.Allow(clientIP(r))
}

// validateRequest checks structural well-formedness of the payload.
// Requests carrying a body must declare application/json and the body
// must parse as JSON. The body is restored for downstream handlers.
func validateRequest(r *http.Request) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if r.ContentLength > maxBodyBytes {
		return models.ErrInvalidInput
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return models.ErrInvalidInput
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return models.ErrInvalidInput
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) > maxBodyBytes || !json.Valid(body) {
		return models.ErrInvalidInput
	}
	return nil
}

// reject writes a typed gate rejection in the standard envelope.
func (g *SecurityGate) reject(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	logging.Warn().
		Str("code", code).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote", clientIP(r)).
		Msg("Request rejected by security gate")

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
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode gate rejection")
	}
}

// clientIP extracts the caller address used as the rate-limit key.
// chi's RealIP middleware has already folded trusted proxy headers
// into RemoteAddr by the time the gate runs.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

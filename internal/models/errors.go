// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package models

import "errors"

// Error taxonomy for the access control core.
//
// Every failure surfaced by the gate, guards, file authorizer, and entitlement
// gatekeeper wraps one of these sentinels so callers can classify failures
// with errors.Is without string matching.
var (
	// ErrRateLimited indicates the caller exceeded its request budget.
	// This is the only condition a client is expected to retry after backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidInput indicates a structurally malformed request payload.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated indicates no identity is attached to the request.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden indicates the identity exists but may not proceed
	// (blocked, unconfirmed, missing role, or permission denied).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates a referenced document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpiredOrWrongType indicates an entitlement that is past its
	// validity window or references a non-ticket product.
	ErrExpiredOrWrongType = errors.New("expired or wrong type")

	// ErrConfiguration indicates a static configuration defect (missing
	// guard config, duplicate registry key). Not recoverable at runtime.
	ErrConfiguration = errors.New("configuration error")

	// ErrInternal indicates an unexpected failure that must be surfaced
	// as a generic error without leaking internal detail.
	ErrInternal = errors.New("internal error")
)

// Machine-readable rejection codes used in HTTP responses.
const (
	CodeRateLimited     = "RATE_LIMITED"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeBadConfig       = "BAD_CONFIG"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
)

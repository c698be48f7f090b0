// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package models contains the shared domain types of the access control core.
//
// The package is dependency-free (standard library only for types) so that
// every other internal package can import it without cycles. It defines:
//
//   - Identity: the authenticated principal resolved per request
//   - ProtectedFile / RelatedContent: the file-access domain
//   - Entitlement / Product / Event: the ticket-scanning domain
//   - ScanOutcome: the structured result of a scan attempt
//   - APIResponse / APIError: the standardized HTTP response envelope
//   - The error taxonomy shared by the gate, guards, authorizer, and gatekeeper
package models

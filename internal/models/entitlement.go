// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package models

import "time"

// Entitlement lifecycle states.
//
// Scanning transitions an entitlement from issued/presented to a terminal
// decision. Whether a successful scan persists the accepted state is a
// deployment policy (scan.consume_on_scan), not a hard rule.
const (
	EntitlementIssued    = "issued"
	EntitlementPresented = "presented"
	EntitlementAccepted  = "accepted"
	EntitlementRejected  = "rejected"
)

// Product kinds. Only event tickets are scannable.
const (
	ProductKindEventTicket = "event_ticket"
	ProductKindCourse      = "course"
	ProductKindDownload    = "download"
)

// Entitlement is a ticket-like grant tying a holder to a product and event.
type Entitlement struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	EventID    string    `json:"event_id"`
	HolderID   string    `json:"holder_id"`
	HolderName string    `json:"holder_name,omitempty"`
	Status     string    `json:"status"`
	ValidUntil time.Time `json:"valid_until"`
}

// Expired reports whether the entitlement is past its validity window
// at the given instant. A zero ValidUntil never expires.
func (e *Entitlement) Expired(now time.Time) bool {
	return !e.ValidUntil.IsZero() && now.After(e.ValidUntil)
}

// Product is the purchasable item an entitlement references.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Event is the occasion an event-ticket entitlement admits to.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StartsAt    time.Time `json:"starts_at"`
	OrganizerID string    `json:"organizer_id"`
}

// Scan outcome codes, one per validation step of the gatekeeper chain.
const (
	ScanCodeTicketNotFound      = "TICKET_NOT_FOUND"
	ScanCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ScanCodeEventNotFound       = "EVENT_NOT_FOUND"
	ScanCodeNotEventTicket      = "NOT_EVENT_TICKET"
	ScanCodeTicketExpired       = "TICKET_EXPIRED"
	ScanCodeTicketAlreadyUsed   = "TICKET_ALREADY_USED"
	ScanCodeUnauthorizedScanner = "UNAUTHORIZED_SCANNER"
	ScanCodeValid               = "TICKET_VALID"
	ScanCodeInternalError       = "SCAN_ERROR"
)

// ScanOutcome is the structured result of one scan attempt.
// It is produced exactly once per attempt and never retried automatically.
type ScanOutcome struct {
	Success bool         `json:"success"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Data    *ScanPayload `json:"data,omitempty"`
}

// ScanPayload carries holder/event identifying data for the scanning UI.
type ScanPayload struct {
	EntitlementID string    `json:"entitlement_id"`
	HolderID      string    `json:"holder_id"`
	HolderName    string    `json:"holder_name,omitempty"`
	EventID       string    `json:"event_id"`
	EventName     string    `json:"event_name,omitempty"`
	ProductName   string    `json:"product_name,omitempty"`
	ScannedAt     time.Time `json:"scanned_at"`
}

// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package entitlement validates scannable ticket entitlements against
// event, product, and scanner-authorization rules.
package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/store"
)

// Gatekeeper runs the scan validation chain. Each step has a distinct
// outcome code and the chain short-circuits on the first failure.
type Gatekeeper struct {
	entitlements store.EntitlementStore
	products     store.ProductStore
	events       store.EventStore

	// consumeOnScan marks a successfully scanned ticket accepted and
	// rejects a second scan of the same ticket. Off by default to
	// match deployments where re-entry is legitimate.
	consumeOnScan bool
}

// NewGatekeeper creates an entitlement gatekeeper.
func NewGatekeeper(entitlements store.EntitlementStore, products store.ProductStore, events store.EventStore, consumeOnScan bool) *Gatekeeper {
	return &Gatekeeper{
		entitlements:  entitlements,
		products:      products,
		events:        events,
		consumeOnScan: consumeOnScan,
	}
}

// ValidateEventAccess validates the entitlement for admission and the
// scanner's authority over its event.
//
// Validation chain, first failure wins:
//  1. Entitlement exists.
//  2. Referenced product exists.
//  3. Referenced event exists.
//  4. Product is of the event-ticket kind.
//  5. Entitlement is within its validity window (and, with the
//     consume-on-scan policy, not already used).
//  6. Scanner holds staff/organizer authority for the event.
//
// Store failures other than not-found surface as a generic scan error;
// internal detail never leaks into the outcome message.
func (g *Gatekeeper) ValidateEventAccess(ctx context.Context, entitlementID, scannerID string) *models.ScanOutcome {
	start := time.Now()
	outcome := g.validate(ctx, entitlementID, scannerID)
	metrics.RecordScanOutcome(outcome.Code, time.Since(start))
	return outcome
}

func (g *Gatekeeper) validate(ctx context.Context, entitlementID, scannerID string) *models.ScanOutcome {
	ticket, err := g.entitlements.GetEntitlement(ctx, entitlementID)
	if errors.Is(err, models.ErrNotFound) {
		return failure(models.ScanCodeTicketNotFound, "Ticket not found")
	}
	if err != nil {
		return g.internalError(err, entitlementID)
	}

	product, err := g.products.GetProduct(ctx, ticket.ProductID)
	if errors.Is(err, models.ErrNotFound) {
		return failure(models.ScanCodeProductNotFound, "Ticket references an unknown product")
	}
	if err != nil {
		return g.internalError(err, entitlementID)
	}

	event, err := g.events.GetEvent(ctx, ticket.EventID)
	if errors.Is(err, models.ErrNotFound) {
		return failure(models.ScanCodeEventNotFound, "Ticket references an unknown event")
	}
	if err != nil {
		return g.internalError(err, entitlementID)
	}

	if product.Kind != models.ProductKindEventTicket {
		return failure(models.ScanCodeNotEventTicket, "Product is not an event ticket")
	}

	if ticket.Expired(time.Now()) {
		return failure(models.ScanCodeTicketExpired, "Ticket is past its validity window")
	}
	if g.consumeOnScan && ticket.Status == models.EntitlementAccepted {
		return failure(models.ScanCodeTicketAlreadyUsed, "Ticket has already been used")
	}

	authorized, err := g.events.IsEventStaff(ctx, event.ID, scannerID)
	if err != nil {
		return g.internalError(err, entitlementID)
	}
	if !authorized {
		return failure(models.ScanCodeUnauthorizedScanner, "Scanner is not authorized for this event")
	}

	scannedAt := time.Now().UTC()
	if g.consumeOnScan {
		ticket.Status = models.EntitlementAccepted
		if err := g.entitlements.PutEntitlement(ctx, ticket); err != nil {
			return g.internalError(err, entitlementID)
		}
	}

	return &models.ScanOutcome{
		Success: true,
		Code:    models.ScanCodeValid,
		Message: "Ticket is valid",
		Data: &models.ScanPayload{
			EntitlementID: ticket.ID,
			HolderID:      ticket.HolderID,
			HolderName:    ticket.HolderName,
			EventID:       event.ID,
			EventName:     event.Name,
			ProductName:   product.Name,
			ScannedAt:     scannedAt,
		},
	}
}

func (g *Gatekeeper) internalError(err error, entitlementID string) *models.ScanOutcome {
	logging.Error().Err(err).
		Str("entitlement_id", entitlementID).
		Msg("Entitlement scan failed unexpectedly")
	return failure(models.ScanCodeInternalError, "Scan could not be completed")
}

func failure(code, message string) *models.ScanOutcome {
	return &models.ScanOutcome{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

// Package store provides the BadgerDB-backed document store the
// authorization core reads: principals, protected files, entitlements,
// products, events, and the membership/staff relations consulted by
// access strategies and the entitlement gatekeeper.
package store

import (
	"context"

	"github.com/gatewarden/gatewarden/internal/models"
)

// PrincipalStore reads and writes principals.
type PrincipalStore interface {
	GetPrincipal(ctx context.Context, id string) (*models.Principal, error)
	PutPrincipal(ctx context.Context, principal *models.Principal) error
}

// FileStore reads and writes protected file records.
type FileStore interface {
	GetFile(ctx context.Context, id string) (*models.ProtectedFile, error)
	PutFile(ctx context.Context, file *models.ProtectedFile) error
}

// EntitlementStore reads and writes entitlements.
type EntitlementStore interface {
	GetEntitlement(ctx context.Context, id string) (*models.Entitlement, error)
	PutEntitlement(ctx context.Context, entitlement *models.Entitlement) error
}

// ProductStore reads and writes products.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	PutProduct(ctx context.Context, product *models.Product) error
}

// EventStore reads and writes events and the staff relation that
// grants scanning authority.
type EventStore interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	PutEvent(ctx context.Context, event *models.Event) error
	AddEventStaff(ctx context.Context, eventID, principalID string) error
	IsEventStaff(ctx context.Context, eventID, principalID string) (bool, error)
}

// MembershipStore answers the membership questions access strategies
// ask: course enrollment, community membership, event attendance.
type MembershipStore interface {
	AddCourseMember(ctx context.Context, courseID, principalID string) error
	IsCourseMember(ctx context.Context, courseID, principalID string) (bool, error)
	AddCommunityMember(ctx context.Context, communityID, principalID string) error
	IsCommunityMember(ctx context.Context, communityID, principalID string) (bool, error)
	AddEventAttendee(ctx context.Context, eventID, principalID string) error
	IsEventAttendee(ctx context.Context, eventID, principalID string) (bool, error)
}

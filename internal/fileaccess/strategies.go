// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package fileaccess

import (
	"context"
	"fmt"

	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/store"
)

// NewDefaultRegistry builds the registry with the store-backed
// strategies for the known content-type families. Called once at
// startup; a registration failure means a duplicated content type and
// should abort boot.
func NewDefaultRegistry(memberships store.MembershipStore) (*Registry, error) {
	registry := NewRegistry()

	register := func(contentType string, strategy Strategy) error {
		if err := registry.Register(contentType, strategy); err != nil {
			return fmt.Errorf("register %s strategy: %w", contentType, err)
		}
		return nil
	}

	if err := register(models.ContentTypeCourse, CourseStrategy(memberships)); err != nil {
		return nil, err
	}
	if err := register(models.ContentTypeEvent, EventStrategy(memberships)); err != nil {
		return nil, err
	}
	if err := register(models.ContentTypeCommunity, CommunityStrategy(memberships)); err != nil {
		return nil, err
	}

	return registry, nil
}

// CourseStrategy grants access to principals enrolled in the course.
func CourseStrategy(memberships store.MembershipStore) Strategy {
	return StrategyFunc(func(ctx context.Context, documentID, principalID string) (bool, error) {
		if principalID == "" {
			return false, nil
		}
		return memberships.IsCourseMember(ctx, documentID, principalID)
	})
}

// EventStrategy grants access to principals attending the event.
func EventStrategy(memberships store.MembershipStore) Strategy {
	return StrategyFunc(func(ctx context.Context, documentID, principalID string) (bool, error) {
		if principalID == "" {
			return false, nil
		}
		return memberships.IsEventAttendee(ctx, documentID, principalID)
	})
}

// CommunityStrategy grants access to principals belonging to the community.
func CommunityStrategy(memberships store.MembershipStore) Strategy {
	return StrategyFunc(func(ctx context.Context, documentID, principalID string) (bool, error) {
		if principalID == "" {
			return false, nil
		}
		return memberships.IsCommunityMember(ctx, documentID, principalID)
	})
}

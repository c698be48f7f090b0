// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gatewarden/gatewarden/internal/models"
)

func newTestService(t *testing.T, cacheEnabled bool) *Service {
	t.Helper()
	enforcer, err := NewEnforcer(&EnforcerConfig{
		DefaultRole:  models.RoleMember,
		CacheEnabled: cacheEnabled,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("NewEnforcer failed: %v", err)
	}
	t.Cleanup(enforcer.Close)

	svc, err := NewService(enforcer)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func identityWithRole(role string) *models.Identity {
	return &models.Identity{ID: "u1", Username: "dana", Role: role, Confirmed: true}
}

func TestService_CanAccess_PolicySemantics(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		action  string
		subject string
		want    bool
	}{
		{name: "member reads files", role: models.RoleMember, action: "read", subject: "file", want: true},
		{name: "member reads entitlements", role: models.RoleMember, action: "read", subject: "entitlement", want: true},
		{name: "member cannot scan", role: models.RoleMember, action: "scan", subject: "entitlement", want: false},
		{name: "member cannot manage events", role: models.RoleMember, action: "manage", subject: "event", want: false},
		{name: "organizer scans entitlements", role: models.RoleOrganizer, action: "scan", subject: "entitlement", want: true},
		{name: "organizer manages events", role: models.RoleOrganizer, action: "manage", subject: "event", want: true},
		{name: "organizer inherits member read", role: models.RoleOrganizer, action: "read", subject: "file", want: true},
		{name: "admin wildcard", role: models.RoleAdmin, action: "delete", subject: "anything", want: true},
		{name: "admin inherits scan", role: models.RoleAdmin, action: "scan", subject: "entitlement", want: true},
		{name: "empty role falls back to default", role: "", action: "read", subject: "file", want: true},
		{name: "default role cannot scan", role: "", action: "scan", subject: "entitlement", want: false},
	}

	svc := newTestService(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CanAccess(context.Background(), identityWithRole(tt.role), tt.action, tt.subject)
			if err != nil {
				t.Fatalf("CanAccess failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanAccess(%s, %s, %s) = %v, want %v", tt.role, tt.action, tt.subject, got, tt.want)
			}
		})
	}
}

func TestService_CanAccess_NilIdentity(t *testing.T) {
	svc := newTestService(t, false)

	_, err := svc.CanAccess(context.Background(), nil, "read", "file")
	if !errors.Is(err, ErrNilIdentity) {
		t.Errorf("Error = %v, want ErrNilIdentity", err)
	}
}

func TestService_CanAccess_CachedDecisionsAgree(t *testing.T) {
	svc := newTestService(t, true)
	identity := identityWithRole(models.RoleOrganizer)

	for i := 0; i < 3; i++ {
		allowed, err := svc.CanAccess(context.Background(), identity, "scan", "entitlement")
		if err != nil {
			t.Fatalf("CanAccess failed on pass %d: %v", i+1, err)
		}
		if !allowed {
			t.Fatalf("Pass %d denied a decision the policy allows", i+1)
		}
	}
}

func TestService_HasRole(t *testing.T) {
	tests := []struct {
		name string
		held string
		ask  string
		want bool
	}{
		{name: "direct role", held: models.RoleMember, ask: models.RoleMember, want: true},
		{name: "organizer inherits member", held: models.RoleOrganizer, ask: models.RoleMember, want: true},
		{name: "admin inherits organizer", held: models.RoleAdmin, ask: models.RoleOrganizer, want: true},
		{name: "admin inherits member transitively", held: models.RoleAdmin, ask: models.RoleMember, want: true},
		{name: "member is not organizer", held: models.RoleMember, ask: models.RoleOrganizer, want: false},
		{name: "organizer is not admin", held: models.RoleOrganizer, ask: models.RoleAdmin, want: false},
	}

	svc := newTestService(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.HasRole(context.Background(), identityWithRole(tt.held), tt.ask)
			if err != nil {
				t.Fatalf("HasRole failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasRole(%s, %s) = %v, want %v", tt.held, tt.ask, got, tt.want)
			}
		})
	}
}

func TestService_HasRole_RejectsUnknownRole(t *testing.T) {
	svc := newTestService(t, false)

	_, err := svc.HasRole(context.Background(), identityWithRole(models.RoleAdmin), "superuser")
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("Error = %v, want ErrInvalidRole", err)
	}
}

func TestService_HasRole_NilIdentity(t *testing.T) {
	svc := newTestService(t, false)

	_, err := svc.HasRole(context.Background(), nil, models.RoleMember)
	if !errors.Is(err, ErrNilIdentity) {
		t.Errorf("Error = %v, want ErrNilIdentity", err)
	}
}

func TestService_EffectiveRoles(t *testing.T) {
	svc := newTestService(t, false)

	roles, err := svc.EffectiveRoles(context.Background(), identityWithRole(models.RoleAdmin))
	if err != nil {
		t.Fatalf("EffectiveRoles failed: %v", err)
	}
	if len(roles) == 0 || roles[0] != models.RoleAdmin {
		t.Fatalf("Roles = %v, want admin first", roles)
	}

	// Admin inherits organizer directly and member transitively, and
	// both must surface.
	for _, want := range []string{models.RoleOrganizer, models.RoleMember} {
		found := false
		for _, r := range roles {
			if r == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Roles = %v, want inherited %s present", roles, want)
		}
	}
}

func TestEnforcer_RuntimePolicyChanges(t *testing.T) {
	enforcer, err := NewEnforcer(&EnforcerConfig{
		DefaultRole:  models.RoleMember,
		CacheEnabled: true,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("NewEnforcer failed: %v", err)
	}
	defer enforcer.Close()

	// Warm the cache with a denial, then add the permitting rule. The
	// cache must be dropped with the policy change.
	allowed, err := enforcer.Enforce(models.RoleMember, "report", "export")
	if err != nil {
		t.Fatalf("Enforce failed: %v", err)
	}
	if allowed {
		t.Fatal("Member should not export reports before the rule exists")
	}

	if _, err := enforcer.AddPolicy(models.RoleMember, "report", "export"); err != nil {
		t.Fatalf("AddPolicy failed: %v", err)
	}
	allowed, err = enforcer.Enforce(models.RoleMember, "report", "export")
	if err != nil {
		t.Fatalf("Enforce failed: %v", err)
	}
	if !allowed {
		t.Error("Added rule not visible, stale cached decision served")
	}

	if _, err := enforcer.RemovePolicy(models.RoleMember, "report", "export"); err != nil {
		t.Fatalf("RemovePolicy failed: %v", err)
	}
	allowed, err = enforcer.Enforce(models.RoleMember, "report", "export")
	if err != nil {
		t.Fatalf("Enforce failed: %v", err)
	}
	if allowed {
		t.Error("Removed rule still granting access")
	}
}

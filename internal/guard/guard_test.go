// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package guard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/models"
)

// fakeDecisions records the last question asked and returns canned answers.
type fakeDecisions struct {
	allow bool
	held  bool
	err   error

	lastAction  string
	lastSubject string
	lastRole    string
	calls       int
}

func (f *fakeDecisions) CanAccess(_ context.Context, _ *models.Identity, action, subject string) (bool, error) {
	f.calls++
	f.lastAction = action
	f.lastSubject = subject
	return f.allow, f.err
}

func (f *fakeDecisions) HasRole(_ context.Context, _ *models.Identity, role string) (bool, error) {
	f.calls++
	f.lastRole = role
	return f.held, f.err
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithIdentity(identity *models.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if identity != nil {
		req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
	}
	return req
}

func decodeError(t *testing.T, body string) *models.APIError {
	t.Helper()
	var resp models.APIResponse
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error envelope: %v", err)
	}
	if resp.Status != "error" {
		t.Errorf("Status = %s, want error", resp.Status)
	}
	if resp.Error == nil {
		t.Fatal("Expected error detail in envelope")
	}
	return resp.Error
}

func TestRequireAuthentication(t *testing.T) {
	tests := []struct {
		name       string
		identity   *models.Identity
		wantStatus int
		wantCode   string
	}{
		{
			name:       "anonymous rejected",
			identity:   nil,
			wantStatus: http.StatusUnauthorized,
			wantCode:   models.CodeUnauthorized,
		},
		{
			name:       "blocked rejected",
			identity:   &models.Identity{ID: "u1", Role: models.RoleMember, Blocked: true, Confirmed: true},
			wantStatus: http.StatusForbidden,
			wantCode:   models.CodeForbidden,
		},
		{
			name:       "unconfirmed rejected",
			identity:   &models.Identity{ID: "u1", Role: models.RoleMember, Confirmed: false},
			wantStatus: http.StatusForbidden,
			wantCode:   models.CodeForbidden,
		},
		{
			name:       "good standing passes",
			identity:   &models.Identity{ID: "u1", Role: models.RoleMember, Confirmed: true},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(&fakeDecisions{})
			called := false

			rec := httptest.NewRecorder()
			g.RequireAuthentication(okHandler(&called)).ServeHTTP(rec, requestWithIdentity(tt.identity))

			if rec.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", rec.Code, tt.wantStatus)
			}
			wantCalled := tt.wantStatus == http.StatusOK
			if called != wantCalled {
				t.Errorf("Handler called = %v, want %v", called, wantCalled)
			}
			if tt.wantCode != "" {
				if apiErr := decodeError(t, rec.Body.String()); apiErr.Code != tt.wantCode {
					t.Errorf("Error code = %s, want %s", apiErr.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	identity := &models.Identity{ID: "u1", Role: models.RoleOrganizer, Confirmed: true}

	tests := []struct {
		name       string
		decisions  *fakeDecisions
		identity   *models.Identity
		wantStatus int
		wantCode   string
	}{
		{
			name:       "anonymous rejected",
			decisions:  &fakeDecisions{allow: true},
			identity:   nil,
			wantStatus: http.StatusUnauthorized,
			wantCode:   models.CodeUnauthorized,
		},
		{
			name:       "denied",
			decisions:  &fakeDecisions{allow: false},
			identity:   identity,
			wantStatus: http.StatusForbidden,
			wantCode:   models.CodeForbidden,
		},
		{
			name:       "decision failure",
			decisions:  &fakeDecisions{err: errors.New("enforcer down")},
			identity:   identity,
			wantStatus: http.StatusInternalServerError,
			wantCode:   models.CodeInternalError,
		},
		{
			name:       "allowed",
			decisions:  &fakeDecisions{allow: true},
			identity:   identity,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.decisions)
			called := false

			rec := httptest.NewRecorder()
			g.RequirePermission("scan", "entitlement")(okHandler(&called)).
				ServeHTTP(rec, requestWithIdentity(tt.identity))

			if rec.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if apiErr := decodeError(t, rec.Body.String()); apiErr.Code != tt.wantCode {
					t.Errorf("Error code = %s, want %s", apiErr.Code, tt.wantCode)
				}
			}
			if tt.wantStatus == http.StatusOK {
				if !called {
					t.Error("Handler was not called on allow")
				}
				if tt.decisions.lastAction != "scan" || tt.decisions.lastSubject != "entitlement" {
					t.Errorf("Decision asked for %s/%s, want scan/entitlement",
						tt.decisions.lastAction, tt.decisions.lastSubject)
				}
			}
		})
	}
}

func TestRequirePermission_MisconfigurationBeforeIdentity(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		subject string
	}{
		{name: "empty action", action: "", subject: "entitlement"},
		{name: "empty subject", action: "scan", subject: ""},
		{name: "both empty", action: "", subject: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decisions := &fakeDecisions{allow: true}
			g := New(decisions)
			called := false

			// A fully valid identity must not rescue a misconfigured mount.
			identity := &models.Identity{ID: "u1", Role: models.RoleAdmin, Confirmed: true}
			rec := httptest.NewRecorder()
			g.RequirePermission(tt.action, tt.subject)(okHandler(&called)).
				ServeHTTP(rec, requestWithIdentity(identity))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if apiErr := decodeError(t, rec.Body.String()); apiErr.Code != models.CodeBadConfig {
				t.Errorf("Error code = %s, want %s", apiErr.Code, models.CodeBadConfig)
			}
			if decisions.calls != 0 {
				t.Error("Decision service must not be consulted for a misconfigured guard")
			}
			if called {
				t.Error("Handler must not run on misconfiguration")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	identity := &models.Identity{ID: "u1", Role: models.RoleMember, Confirmed: true}

	tests := []struct {
		name       string
		role       string
		decisions  *fakeDecisions
		identity   *models.Identity
		wantStatus int
		wantCode   string
	}{
		{
			name:       "empty role is misconfiguration",
			role:       "",
			decisions:  &fakeDecisions{held: true},
			identity:   identity,
			wantStatus: http.StatusBadRequest,
			wantCode:   models.CodeBadConfig,
		},
		{
			name:       "anonymous rejected",
			role:       models.RoleAdmin,
			decisions:  &fakeDecisions{held: true},
			identity:   nil,
			wantStatus: http.StatusUnauthorized,
			wantCode:   models.CodeUnauthorized,
		},
		{
			name:       "role not held",
			role:       models.RoleAdmin,
			decisions:  &fakeDecisions{held: false},
			identity:   identity,
			wantStatus: http.StatusForbidden,
			wantCode:   models.CodeForbidden,
		},
		{
			name:       "decision failure",
			role:       models.RoleAdmin,
			decisions:  &fakeDecisions{err: errors.New("enforcer down")},
			identity:   identity,
			wantStatus: http.StatusInternalServerError,
			wantCode:   models.CodeInternalError,
		},
		{
			name:       "role held",
			role:       models.RoleAdmin,
			decisions:  &fakeDecisions{held: true},
			identity:   identity,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.decisions)
			called := false

			rec := httptest.NewRecorder()
			g.RequireRole(tt.role)(okHandler(&called)).
				ServeHTTP(rec, requestWithIdentity(tt.identity))

			if rec.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if apiErr := decodeError(t, rec.Body.String()); apiErr.Code != tt.wantCode {
					t.Errorf("Error code = %s, want %s", apiErr.Code, tt.wantCode)
				}
			}
			if tt.wantStatus == http.StatusOK {
				if !called {
					t.Error("Handler was not called on allow")
				}
				if tt.decisions.lastRole != tt.role {
					t.Errorf("Decision asked for role %s, want %s", tt.decisions.lastRole, tt.role)
				}
			}
		})
	}
}

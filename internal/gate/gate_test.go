// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/models"
)

type staticPrincipals struct {
	principals map[string]*models.Principal
}

func (s *staticPrincipals) GetPrincipal(_ context.Context, id string) (*models.Principal, error) {
	p, ok := s.principals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func newTestGate(t *testing.T, reqsPerWindow int, disabled bool) (*SecurityGate, *auth.JWTManager) {
	t.Helper()
	jwtManager, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "test-secret-key-with-sufficient-length-for-hmac",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	resolver := auth.NewResolver(jwtManager, &staticPrincipals{
		principals: map[string]*models.Principal{
			"u1": {ID: "u1", Username: "dana", Role: models.RoleMember, Confirmed: true},
		},
	}, "jwt", false)

	g := New(resolver, reqsPerWindow, time.Minute, disabled)
	t.Cleanup(g.Stop)
	return g, jwtManager
}

func gateResponseCode(t *testing.T, body string) string {
	t.Helper()
	var resp models.APIResponse
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode rejection envelope: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("Expected error detail in rejection envelope")
	}
	return resp.Error.Code
}

func TestGate_PassesCleanRequest(t *testing.T) {
	g, _ := newTestGate(t, 100, false)
	called := false
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !called {
		t.Error("Handler was not called for a clean request")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestGate_RejectsMalformedJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
	}{
		{name: "invalid json", body: "{not json", contentType: "application/json"},
		{name: "wrong content type", body: `{"ok":true}`, contentType: "text/plain"},
		{name: "unparseable content type", body: `{"ok":true}`, contentType: ";;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGate(t, 100, false)
			h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("Handler must not run for a malformed request")
			}))

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if code := gateResponseCode(t, rec.Body.String()); code != models.CodeInvalidInput {
				t.Errorf("Error code = %s, want %s", code, models.CodeInvalidInput)
			}
		})
	}
}

func TestGate_RestoresBodyForDownstream(t *testing.T) {
	g, _ := newTestGate(t, 100, false)
	var seen string
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Downstream decode failed: %v", err)
		}
		if payload["ok"] {
			seen = "ok"
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ok":true}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "ok" {
		t.Error("Gate consumed the body without restoring it")
	}
}

func TestGate_RateLimitExhaustion(t *testing.T) {
	g, _ := newTestGate(t, 2, false)
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("Status = %d, want %d after budget exhaustion", last.Code, http.StatusTooManyRequests)
	}
	if code := gateResponseCode(t, last.Body.String()); code != models.CodeRateLimited {
		t.Errorf("Error code = %s, want %s", code, models.CodeRateLimited)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("Rate-limit rejection should carry Retry-After")
	}
}

func TestGate_RateLimitOutranksValidation(t *testing.T) {
	g, _ := newTestGate(t, 1, false)
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Burn the single-request budget.
	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "10.0.0.2:1234"
	h.ServeHTTP(httptest.NewRecorder(), first)

	// Over budget AND malformed: the rate-limit rejection must win.
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if code := gateResponseCode(t, rec.Body.String()); code != models.CodeRateLimited {
		t.Errorf("Error code = %s, want %s", code, models.CodeRateLimited)
	}
}

func TestGate_RateLimitIsPerCaller(t *testing.T) {
	g, _ := newTestGate(t, 1, false)
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "10.0.0.3:1234"
	h.ServeHTTP(httptest.NewRecorder(), first)

	// Different caller, fresh budget.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.4:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d for a different caller", rec.Code, http.StatusOK)
	}
}

func TestGate_DisabledRateLimitNeverRejects(t *testing.T) {
	g, _ := newTestGate(t, 1, true)
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.5:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Request %d: status = %d with rate limiting disabled", i+1, rec.Code)
		}
	}
}

func TestGate_BadCredentialStillProceedsAnonymously(t *testing.T) {
	g, _ := newTestGate(t, 100, false)
	var identity *models.Identity
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged.token.value")
	req.RemoteAddr = "10.0.0.6:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, a bad credential must not reject at the gate", rec.Code)
	}
	if identity != nil {
		t.Errorf("Identity = %+v, want anonymous", identity)
	}
}

func TestGate_ResolvesIdentityBehindGate(t *testing.T) {
	g, jwtManager := newTestGate(t, 100, false)
	token, err := jwtManager.GenerateToken("u1", "dana", models.RoleMember)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	var identity *models.Identity
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.RemoteAddr = "10.0.0.7:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if identity == nil || identity.ID != "u1" {
		t.Errorf("Identity = %+v, want u1", identity)
	}
}

func TestGate_ZeroBudgetWithLimitingDisabled(t *testing.T) {
	// Config validation admits a zero budget when rate limiting is
	// disabled, so construction must tolerate it.
	g, _ := newTestGate(t, 0, true)
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.8:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	if !rl.Allow("k") || !rl.Allow("k") {
		t.Fatal("Budget of 2 should admit the first two requests")
	}
	if rl.Allow("k") {
		t.Error("Third request should exceed the budget")
	}
	if !rl.Allow("other") {
		t.Error("A different key has its own budget")
	}
}

func TestRateLimiter_ClampsNonPositiveBudget(t *testing.T) {
	for _, reqs := range []int{0, -5} {
		rl := NewRateLimiter(reqs, time.Minute)
		if !rl.Allow("k") {
			t.Errorf("Budget %d: clamped limiter should admit the first request", reqs)
		}
		if rl.Allow("k") {
			t.Errorf("Budget %d: clamped limiter should act as a budget of 1", reqs)
		}
		rl.Stop()
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	rl.Stop()
}

// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/entitlement"
	"github.com/gatewarden/gatewarden/internal/fileaccess"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/store"
)

// Handler holds the dependencies for the HTTP handlers.
type Handler struct {
	files      store.FileStore
	authorizer *fileaccess.Authorizer
	gatekeeper *entitlement.Gatekeeper
}

// NewHandler creates the API handler set.
func NewHandler(files store.FileStore, authorizer *fileaccess.Authorizer, gatekeeper *entitlement.Gatekeeper) *Handler {
	return &Handler{
		files:      files,
		authorizer: authorizer,
		gatekeeper: gatekeeper,
	}
}

// ScanRequest is the optional context a scanner app sends with a scan.
type ScanRequest struct {
	Gate   string `json:"gate" validate:"omitempty,max=64"`
	Device string `json:"device" validate:"omitempty,max=128"`
}

// ScanTicket handles POST /api/v1/scan-ticket/{documentID}.
//
// The authenticated caller is the scanner; the path parameter is the
// entitlement being presented. The gatekeeper's outcome code selects
// the HTTP status: not-found codes map to 404, expiry and kind
// mismatches to 400, scanner authorization to 403. A panic anywhere in
// the scan path surfaces as a generic 500 with no internal detail.
func (h *Handler) ScanTicket(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().
				Interface("panic", rec).
				Str("path", r.URL.Path).
				Msg("Panic during ticket scan")
			respondError(w, r, http.StatusInternalServerError,
				models.CodeInternalError, "Scan could not be completed", nil)
		}
	}()

	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		// RequireAuthentication runs ahead of this handler; reaching
		// here anonymously means a wiring mistake.
		respondError(w, r, http.StatusUnauthorized,
			models.CodeUnauthorized, "Authentication required", nil)
		return
	}

	entitlementID := chi.URLParam(r, "documentID")
	if entitlementID == "" {
		respondError(w, r, http.StatusBadRequest,
			models.CodeInvalidInput, "Entitlement ID is required", nil)
		return
	}

	// Optional scan context sent by the scanner app.
	var scanReq ScanRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&scanReq); err != nil {
			respondError(w, r, http.StatusBadRequest,
				models.CodeInvalidInput, "Malformed scan request body", nil)
			return
		}
		if apiErr := validateRequest(&scanReq); apiErr != nil {
			respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
			return
		}
	}

	logging.Info().
		Str("entitlement_id", entitlementID).
		Str("scanner_id", identity.ID).
		Str("gate", scanReq.Gate).
		Msg("Ticket scan")

	outcome := h.gatekeeper.ValidateEventAccess(r.Context(), entitlementID, identity.ID)
	if !outcome.Success {
		respondError(w, r, scanStatusCode(outcome.Code), outcome.Code, outcome.Message, nil)
		return
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   outcome,
	})
}

// scanStatusCode maps a scan outcome code to an HTTP status.
func scanStatusCode(code string) int {
	switch code {
	case models.ScanCodeTicketNotFound,
		models.ScanCodeProductNotFound,
		models.ScanCodeEventNotFound:
		return http.StatusNotFound
	case models.ScanCodeUnauthorizedScanner:
		return http.StatusForbidden
	case models.ScanCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// fileAccessResult is the response body for file access checks.
type fileAccessResult struct {
	FileID  string `json:"file_id"`
	Allowed bool   `json:"allowed"`
}

// FileAccess handles GET /api/v1/files/{fileID}/access.
//
// Reports whether the requesting principal may access the file. The
// authorizer itself tolerates an empty principal (ownerless legacy
// files are publicly visible), so the handler does not insist on one.
func (h *Handler) FileAccess(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if fileID == "" {
		respondError(w, r, http.StatusBadRequest,
			models.CodeInvalidInput, "File ID is required", nil)
		return
	}

	file, err := h.files.GetFile(r.Context(), fileID)
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, r, http.StatusNotFound,
			models.CodeNotFound, "File not found", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError,
			models.CodeInternalError, "File lookup failed", err)
		return
	}

	var principalID string
	if identity := auth.IdentityFromContext(r.Context()); identity != nil {
		principalID = identity.ID
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: fileAccessResult{
			FileID:  file.ID,
			Allowed: h.authorizer.CanAccess(r.Context(), file, principalID),
		},
	})
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   map[string]string{"status": "alive"},
	})
}

// HealthReady handles GET /api/v1/health/ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   map[string]string{"status": "ready"},
	})
}

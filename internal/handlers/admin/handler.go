package admin

import (
	"errors"
	"net/http"
	"strconv"

	"cmms/internal/audit"
	"cmms/internal/auth"
	"cmms/internal/response"
	"cmms/internal/store"
	"cmms/internal/validation"
	"cmms/internal/websocket"
)

// Handler holds dependencies for admin handlers.
type Handler struct {
	Store *store.Store
	Hub   *websocket.Hub
}

// CreateAPIKeyRequest represents an API key creation request.
type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

// ListAPIKeys handles GET /api/v1/apikeys.
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Store.ListAPIKeys(r.Context())
	if err != nil {
		response.Err(w, "Failed to fetch API keys. Please try again.", 500)
		return
	}
	response.JSON(w, keys)
}

// CreateAPIKey handles POST /api/v1/apikeys. The plaintext key is returned
// once and never stored.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "Invalid request body", 400)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "name", req.Name)
	validation.ValidateMaxLength(ve, "name", req.Name, validation.MaxTitleLength)
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}

	key, err := auth.GenerateAPIKey()
	if err != nil {
		response.Err(w, "Failed to generate key", 500)
		return
	}
	hash, err := auth.HashAPIKey(key)
	if err != nil {
		response.Err(w, "Failed to generate key", 500)
		return
	}

	rec, err := h.Store.CreateAPIKey(r.Context(), req.Name, auth.LookupPrefix(key), hash, audit.GetUsername(r))
	if err != nil {
		response.Err(w, "Failed to create API key. Please try again.", 500)
		return
	}
	rec.Key = key
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionCreate, "api_key", strconv.Itoa(rec.ID), "Created API key "+req.Name)
	response.Created(w, rec)
}

func parseKeyID(w http.ResponseWriter, idStr string) (int, bool) {
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		response.Err(w, "invalid API key id", 400)
		return 0, false
	}
	return id, true
}

// DeleteAPIKey handles DELETE /api/v1/apikeys/:id.
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseKeyID(w, idStr)
	if !ok {
		return
	}
	if err := h.Store.DeleteAPIKey(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Err(w, "API key not found", 404)
			return
		}
		response.Err(w, "Failed to delete API key. Please try again.", 500)
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionDelete, "api_key", idStr, "Revoked API key")
	response.JSON(w, map[string]string{"status": "revoked"})
}

// ToggleAPIKey handles PUT /api/v1/apikeys/:id with {"enabled": bool}.
func (h *Handler) ToggleAPIKey(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseKeyID(w, idStr)
	if !ok {
		return
	}
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := response.DecodeBody(r, &body); err != nil || body.Enabled == nil {
		response.Err(w, "Invalid body: enabled is required", 400)
		return
	}
	if err := h.Store.SetAPIKeyEnabled(r.Context(), id, *body.Enabled); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Err(w, "API key not found", 404)
			return
		}
		response.Err(w, "Failed to update API key. Please try again.", 500)
		return
	}
	summary := "API key disabled"
	if *body.Enabled {
		summary = "API key enabled"
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionToggle, "api_key", idStr, summary)
	response.JSON(w, map[string]string{"status": "updated"})
}

// ListAudit handles GET /api/v1/audit?module=&limit=.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := audit.Recent(r.Context(), h.Store.DB, r.URL.Query().Get("module"), limit)
	if err != nil {
		response.Err(w, "Failed to fetch audit log", 500)
		return
	}
	response.JSON(w, entries)
}

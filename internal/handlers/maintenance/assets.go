package maintenance

import (
	"net/http"

	"cmms/internal/audit"
	"cmms/internal/models"
	"cmms/internal/response"
	"cmms/internal/validation"
)

func validateAsset(a *models.Asset) *validation.ValidationErrors {
	ve := &validation.ValidationErrors{}
	validation.ValidateID(ve, "id", a.ID)
	validation.RequireField(ve, "name", a.Name)
	validation.ValidateMaxLength(ve, "name", a.Name, validation.MaxTitleLength)
	validation.ValidateEnum(ve, "status", a.Status, validation.ValidAssetStatuses)
	validation.ValidateDate(ve, "install_date", a.InstallDate)
	if a.LastMaintenance != nil {
		validation.ValidateDate(ve, "last_maintenance", *a.LastMaintenance)
	}
	if a.NextMaintenance != nil {
		validation.ValidateDate(ve, "next_maintenance", *a.NextMaintenance)
	}
	return ve
}

// ListAssets handles GET /api/v1/assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListAssets(r.Context())
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSONMeta(w, items, len(items), 1, len(items))
}

// GetAsset handles GET /api/v1/assets/:id.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.Store.GetAsset(r.Context(), id)
	if err != nil {
		storeErr(w, err, "asset")
		return
	}
	response.JSON(w, a)
}

// CreateAsset handles POST /api/v1/assets.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var a models.Asset
	if err := response.DecodeBody(r, &a); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	if ve := validateAsset(&a); ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	if err := h.Store.CreateAsset(r.Context(), &a); err != nil {
		storeErr(w, err, "asset")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionCreate, "asset", a.ID, "Created asset "+a.ID)
	response.Created(w, a)
}

// UpdateAsset handles PUT /api/v1/assets/:id.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request, id string) {
	var a models.Asset
	if err := response.DecodeBody(r, &a); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	a.ID = id
	if ve := validateAsset(&a); ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	if a.Status == "" {
		a.Status = "online"
	}
	if err := h.Store.UpdateAsset(r.Context(), a); err != nil {
		storeErr(w, err, "asset")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionUpdate, "asset", id, "Updated asset "+id)
	response.JSON(w, a)
}

// DeleteAsset handles DELETE /api/v1/assets/:id.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Store.DeleteAsset(r.Context(), id); err != nil {
		storeErr(w, err, "asset")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionDelete, "asset", id, "Deleted asset "+id)
	response.JSON(w, map[string]string{"status": "deleted"})
}

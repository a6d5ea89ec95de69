package maintenance

import (
	"fmt"
	"net/http"

	"cmms/internal/audit"
	"cmms/internal/models"
	"cmms/internal/response"
	"cmms/internal/validation"
)

func validatePolicy(p *models.TBMPolicy) *validation.ValidationErrors {
	ve := &validation.ValidationErrors{}
	validation.ValidateID(ve, "id", p.ID)
	validation.RequireField(ve, "asset_id", p.AssetID)
	validation.ValidateID(ve, "asset_id", p.AssetID)
	validation.ValidateIntRange(ve, "interval_days", p.IntervalDays, 1, validation.MaxTBMIntervalDays)
	validation.RequireField(ve, "next_due_date", p.NextDueDate)
	validation.ValidateDate(ve, "next_due_date", p.NextDueDate)
	if p.LastExecuted != nil {
		validation.ValidateDate(ve, "last_executed", *p.LastExecuted)
	}
	if len(p.Checklist) > validation.MaxChecklistItems {
		ve.Add("checklist", fmt.Sprintf("must have at most %d items", validation.MaxChecklistItems))
	}
	return ve
}

// ListPolicies handles GET /api/v1/policies/tbm.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSONMeta(w, items, len(items), 1, len(items))
}

// GetPolicy handles GET /api/v1/policies/tbm/:id.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.Store.GetPolicy(r.Context(), id)
	if err != nil {
		storeErr(w, err, "policy")
		return
	}
	response.JSON(w, p)
}

// CreatePolicy handles POST /api/v1/policies/tbm. Policies start active
// unless is_active is sent as false.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	p := models.TBMPolicy{IsActive: true}
	if err := response.DecodeBody(r, &p); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	if ve := validatePolicy(&p); ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	if _, err := h.Store.GetAsset(r.Context(), p.AssetID); err != nil {
		ve := &validation.ValidationErrors{}
		ve.Add("asset_id", "unknown asset")
		response.Invalid(w, ve)
		return
	}
	if err := h.Store.CreatePolicy(r.Context(), &p); err != nil {
		storeErr(w, err, "policy")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionCreate, "policy", p.ID,
		fmt.Sprintf("Created policy %s every %d days for %s", p.ID, p.IntervalDays, p.AssetID))
	response.Created(w, p)
}

// UpdatePolicy handles PUT /api/v1/policies/tbm/:id.
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.Store.GetPolicy(r.Context(), id)
	if err != nil {
		storeErr(w, err, "policy")
		return
	}
	if err := response.DecodeBody(r, &p); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	p.ID = id
	if ve := validatePolicy(&p); ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	if err := h.Store.UpdatePolicy(r.Context(), p); err != nil {
		storeErr(w, err, "policy")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionUpdate, "policy", id, "Updated policy "+id)
	response.JSON(w, p)
}

// TogglePolicy handles POST /api/v1/policies/tbm/:id/toggle.
func (h *Handler) TogglePolicy(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.Store.TogglePolicy(r.Context(), id)
	if err != nil {
		storeErr(w, err, "policy")
		return
	}
	state := "paused"
	if p.IsActive {
		state = "activated"
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionToggle, "policy", id, "Policy "+id+" "+state)
	response.JSON(w, p)
}

// DeletePolicy handles DELETE /api/v1/policies/tbm/:id.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Store.DeletePolicy(r.Context(), id); err != nil {
		storeErr(w, err, "policy")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionDelete, "policy", id, "Deleted policy "+id)
	response.JSON(w, map[string]string{"status": "deleted"})
}

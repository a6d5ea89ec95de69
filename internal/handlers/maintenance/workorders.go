package maintenance

import (
	"errors"
	"net/http"

	"cmms/internal/audit"
	"cmms/internal/models"
	"cmms/internal/response"
	"cmms/internal/store"
	"cmms/internal/validation"
)

func validateWorkOrder(wo *models.WorkOrder) *validation.ValidationErrors {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "title", wo.Title)
	validation.ValidateMaxLength(ve, "title", wo.Title, validation.MaxTitleLength)
	validation.RequireField(ve, "source", wo.Source)
	validation.ValidateEnum(ve, "source", wo.Source, validation.ValidWOSources)
	validation.ValidateEnum(ve, "status", wo.Status, validation.ValidWOStatuses)
	validation.ValidateEnum(ve, "priority", wo.Priority, validation.ValidWOPriorities)
	validation.RequireField(ve, "due_date", wo.DueDate)
	validation.ValidateDateOrTimestamp(ve, "due_date", wo.DueDate)
	validation.ValidateID(ve, "asset_id", wo.AssetID)
	validation.ValidateID(ve, "policy_id", wo.PolicyID)
	if wo.PolicyID != "" && wo.Source != "TBM" {
		ve.Add("policy_id", "only TBM work orders can reference a policy")
	}
	validation.ValidateMaxLength(ve, "notes", wo.Notes, validation.MaxNotesLength)
	validation.ValidateMaxLength(ve, "findings", wo.Findings, validation.MaxNotesLength)
	return ve
}

// checkPolicy writes a 400 and returns false when wo names a policy that
// does not exist.
func (h *Handler) checkPolicy(w http.ResponseWriter, r *http.Request, wo models.WorkOrder) bool {
	if wo.PolicyID == "" {
		return true
	}
	if _, err := h.Store.GetPolicy(r.Context(), wo.PolicyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Err(w, "policy not found", http.StatusBadRequest)
		} else {
			response.Err(w, err.Error(), 500)
		}
		return false
	}
	return true
}

// ListWorkOrders handles GET /api/v1/workorders[?status=&source=].
func (h *Handler) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	f := store.WorkOrderFilter{
		Status: r.URL.Query().Get("status"),
		Source: r.URL.Query().Get("source"),
	}
	ve := &validation.ValidationErrors{}
	validation.ValidateEnum(ve, "status", f.Status, validation.ValidWOStatuses)
	validation.ValidateEnum(ve, "source", f.Source, validation.ValidWOSources)
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	items, err := h.Store.ListWorkOrders(r.Context(), f)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSONMeta(w, items, len(items), 1, len(items))
}

// GetWorkOrder handles GET /api/v1/workorders/:id.
func (h *Handler) GetWorkOrder(w http.ResponseWriter, r *http.Request, id string) {
	wo, err := h.Store.GetWorkOrder(r.Context(), id)
	if err != nil {
		storeErr(w, err, "work order")
		return
	}
	response.JSON(w, wo)
}

// CreateWorkOrder handles POST /api/v1/workorders.
func (h *Handler) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var wo models.WorkOrder
	if err := response.DecodeBody(r, &wo); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	if ve := validateWorkOrder(&wo); ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	if !h.checkPolicy(w, r, wo) {
		return
	}
	wo.StartedAt, wo.CompletedAt = nil, nil
	if err := h.Store.CreateWorkOrder(r.Context(), &wo); err != nil {
		storeErr(w, err, "work order")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionCreate, "workorder", wo.ID, "Created work order "+wo.ID)
	response.Created(w, wo)
}

// UpdateWorkOrder handles PUT /api/v1/workorders/:id.
func (h *Handler) UpdateWorkOrder(w http.ResponseWriter, r *http.Request, id string) {
	existing, err := h.Store.GetWorkOrder(r.Context(), id)
	if err != nil {
		storeErr(w, err, "work order")
		return
	}
	wo := existing
	if err := response.DecodeBody(r, &wo); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	wo.ID, wo.CreatedAt, wo.StartedAt, wo.CompletedAt = id, existing.CreatedAt, existing.StartedAt, existing.CompletedAt
	if ve := validateWorkOrder(&wo); ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	if wo.PolicyID != existing.PolicyID && !h.checkPolicy(w, r, wo) {
		return
	}
	if wo.AssetID != existing.AssetID {
		wo.AssetName = ""
		if a, err := h.Store.GetAsset(r.Context(), wo.AssetID); err == nil {
			wo.AssetName = a.Name
		}
	}
	if err := h.Store.UpdateWorkOrder(r.Context(), wo); err != nil {
		storeErr(w, err, "work order")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionUpdate, "workorder", id, "Updated work order "+id)
	response.JSON(w, wo)
}

// DeleteWorkOrder handles DELETE /api/v1/workorders/:id.
func (h *Handler) DeleteWorkOrder(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Store.DeleteWorkOrder(r.Context(), id); err != nil {
		storeErr(w, err, "work order")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionDelete, "workorder", id, "Deleted work order "+id)
	response.JSON(w, map[string]string{"status": "deleted"})
}

// StartWorkOrder handles POST /api/v1/workorders/:id/start with {"assignee": "..."}.
func (h *Handler) StartWorkOrder(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Assignee string `json:"assignee"`
	}
	if err := response.DecodeBody(r, &body); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "assignee", body.Assignee)
	validation.ValidateMaxLength(ve, "assignee", body.Assignee, validation.MaxTitleLength)
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	wo, err := h.Store.StartWorkOrder(r.Context(), id, body.Assignee)
	if err != nil {
		storeErr(w, err, "work order")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionStart, "workorder", id, "Started work order "+id+" by "+body.Assignee)
	response.JSON(w, wo)
}

// CompleteWorkOrder handles POST /api/v1/workorders/:id/complete with an
// optional {"findings": "..."} body.
func (h *Handler) CompleteWorkOrder(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Findings string `json:"findings"`
	}
	if r.ContentLength != 0 {
		if err := response.DecodeBody(r, &body); err != nil {
			response.Err(w, "invalid body", 400)
			return
		}
	}
	ve := &validation.ValidationErrors{}
	validation.ValidateMaxLength(ve, "findings", body.Findings, validation.MaxNotesLength)
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	wo, err := h.Store.CompleteWorkOrder(r.Context(), id, body.Findings)
	if err != nil {
		storeErr(w, err, "work order")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionComplete, "workorder", id, "Completed work order "+id)
	response.JSON(w, wo)
}

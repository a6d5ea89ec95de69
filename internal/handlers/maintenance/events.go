package maintenance

import (
	"net/http"
	"strconv"

	"cmms/internal/audit"
	"cmms/internal/models"
	"cmms/internal/response"
	"cmms/internal/validation"
)

// ListEvents handles GET /api/v1/events[?from=&to=].
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	ve := &validation.ValidationErrors{}
	validation.ValidateDate(ve, "from", from)
	validation.ValidateDate(ve, "to", to)
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	items, err := h.Store.ListEvents(r.Context(), from, to)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSONMeta(w, items, len(items), 1, len(items))
}

// CreateEvent handles POST /api/v1/events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var e models.ScheduledEvent
	if err := response.DecodeBody(r, &e); err != nil {
		response.Err(w, "invalid body", 400)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "date", e.Date)
	validation.ValidateDateOrTimestamp(ve, "date", e.Date)
	validation.RequireField(ve, "title", e.Title)
	validation.ValidateMaxLength(ve, "title", e.Title, validation.MaxTitleLength)
	validation.RequireField(ve, "type", e.Type)
	validation.ValidateEnum(ve, "type", e.Type, validation.ValidEventTypes)
	validation.ValidateID(ve, "asset_id", e.AssetID)
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	e.ID = 0
	if err := h.Store.CreateEvent(r.Context(), &e); err != nil {
		storeErr(w, err, "event")
		return
	}
	id := strconv.FormatInt(e.ID, 10)
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionCreate, "event", id, "Scheduled "+e.Title+" on "+e.Date)
	response.Created(w, e)
}

// DeleteEvent handles DELETE /api/v1/events/:id.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		response.Err(w, "invalid event id", 400)
		return
	}
	if err := h.Store.DeleteEvent(r.Context(), id); err != nil {
		storeErr(w, err, "event")
		return
	}
	audit.LogSimpleAudit(h.Store.DB, h.Hub, r, audit.ActionDelete, "event", idStr, "Deleted event "+idStr)
	response.JSON(w, map[string]string{"status": "deleted"})
}

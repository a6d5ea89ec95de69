// Package export serves the maintenance plan and work order spreadsheets.
package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"cmms/internal/archive"
	"cmms/internal/audit"
	"cmms/internal/models"
	"cmms/internal/planning"
	"cmms/internal/response"
	"cmms/internal/store"
	"cmms/internal/validation"
	"cmms/internal/websocket"
)

// Handler holds dependencies for export handlers. Archive may be nil.
type Handler struct {
	Store    *store.Store
	Hub      *websocket.Hub
	Archive  archive.Archiver
	Locale   planning.Locale
	Location *time.Location
	Now      func() time.Time
}

// PlanRequest selects the period of a maintenance plan.
type PlanRequest struct {
	Kind   planning.PeriodKind
	Offset int
	// Date is the anchor before Offset is applied. Zero means now.
	Date   time.Time
	Locale planning.Locale
}

func (h *Handler) now() time.Time {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return now().In(h.location())
}

func (h *Handler) location() *time.Location {
	if h.Location == nil {
		return time.Local
	}
	return h.Location
}

// locale resolves the locale query parameter, falling back to the handler
// default when it is empty.
func (h *Handler) locale(ve *validation.ValidationErrors, param string) planning.Locale {
	if param == "" && h.Locale != "" {
		return h.Locale
	}
	validation.ValidateEnum(ve, "locale", strings.ToLower(strings.TrimSpace(param)), validation.ValidLocales)
	loc, err := planning.ParseLocale(param)
	if err != nil {
		return planning.LocaleEN
	}
	return loc
}

// BuildPlan snapshots the store and renders the plan for req.
func (h *Handler) BuildPlan(ctx context.Context, req PlanRequest) (*planning.PlanResult, error) {
	now := h.now()
	ref := req.Date
	if ref.IsZero() {
		ref = now
	}
	ref = planning.Advance(ref, req.Kind, req.Offset)

	snap, err := h.Store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return planning.ExportPlan(planning.PlanInput{
		Kind:       req.Kind,
		Reference:  ref,
		Locale:     req.Locale,
		WorkOrders: snap.WorkOrders,
		Events:     snap.Events,
		Policies:   snap.Policies,
		Assets:     snap.Assets,
		Exported:   now,
	})
}

// Save archives doc when an archiver is configured and records it in the
// export history. An archive failure is logged and the export is still
// recorded, without a location.
func (h *Handler) Save(ctx context.Context, kind, reference, label string, doc *planning.Document, createdBy string) (models.PlanExport, error) {
	rec := models.PlanExport{
		Kind:          kind,
		ReferenceDate: reference,
		Label:         label,
		Filename:      doc.Filename,
		RowCount:      doc.Rows,
		CreatedBy:     createdBy,
	}
	if h.Archive != nil {
		where, err := h.Archive.Store(ctx, doc.Filename, doc.ContentType, doc.Data)
		if err != nil {
			log.WithError(err).WithField("filename", doc.Filename).Error("archive export")
		} else {
			rec.Location = where
		}
	}
	if err := h.Store.RecordExport(ctx, &rec); err != nil {
		return rec, fmt.Errorf("record export: %w", err)
	}
	return rec, nil
}

// IsBuildError reports whether err came from malformed input data rather
// than from storage.
func IsBuildError(err error) bool {
	var de *planning.DateError
	if errors.As(err, &de) {
		return true
	}
	for _, target := range []error{
		planning.ErrUnknownPeriodKind,
		planning.ErrUnknownSource,
		planning.ErrUnknownStatus,
		planning.ErrUnknownPriority,
		planning.ErrUnknownEventType,
		planning.ErrInvalidInterval,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (h *Handler) parsePlanRequest(r *http.Request) (PlanRequest, *validation.ValidationErrors) {
	q := r.URL.Query()
	ve := &validation.ValidationErrors{}
	req := PlanRequest{Kind: planning.PeriodMonth}

	if v := q.Get("period"); v != "" {
		validation.ValidateEnum(ve, "period", v, validation.ValidPeriodKinds)
		if kind, err := planning.ParsePeriodKind(v); err == nil {
			req.Kind = kind
		}
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			ve.Add("offset", "must be an integer")
		} else {
			validation.ValidateIntRange(ve, "offset", n, -validation.MaxPeriodOffset, validation.MaxPeriodOffset)
		}
		req.Offset = n
	}
	if v := q.Get("date"); v != "" {
		d, err := time.ParseInLocation(planning.ISODateLayout, v, h.location())
		if err != nil {
			ve.Add("date", "must be YYYY-MM-DD format")
		}
		req.Date = d
	}
	req.Locale = h.locale(ve, q.Get("locale"))
	return req, ve
}

type planPreview struct {
	Period   planning.Period `json:"period"`
	Filename string          `json:"filename"`
	Rows     []planning.Row  `json:"rows"`
}

// ListPeriods handles GET /api/v1/exports/periods.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	ve := &validation.ValidationErrors{}
	loc := h.locale(ve, r.URL.Query().Get("locale"))
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	response.JSON(w, planning.PeriodOptions(h.now(), loc))
}

// MaintenancePlan handles GET /api/v1/exports/maintenance-plan. With
// preview=1 the rows are returned as JSON instead of a workbook.
func (h *Handler) MaintenancePlan(w http.ResponseWriter, r *http.Request) {
	req, ve := h.parsePlanRequest(r)
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}

	res, err := h.BuildPlan(r.Context(), req)
	if err != nil {
		if IsBuildError(err) {
			log.WithError(err).WithField("period", req.Kind).Warn("maintenance plan rejected")
			response.Err(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		response.Err(w, err.Error(), 500)
		return
	}
	doc := res.Document

	if r.URL.Query().Get("preview") == "1" {
		response.JSON(w, planPreview{Period: res.Period, Filename: doc.Filename, Rows: res.Rows})
		return
	}

	username := audit.GetUsername(r)
	rec, err := h.Save(r.Context(), string(req.Kind), res.Period.Reference.Format(planning.ISODateLayout), res.Period.Label, doc, username)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogDataExport(h.Store.DB, h.Hub, r, "maintenance_plan", doc.Filename, doc.Rows)
	log.WithFields(log.Fields{
		"period":   res.Period.Label,
		"rows":     doc.Rows,
		"filename": doc.Filename,
		"location": rec.Location,
	}).Info("maintenance plan exported")

	writeDocument(w, doc)
}

// WorkOrders handles GET /api/v1/exports/workorders.
func (h *Handler) WorkOrders(w http.ResponseWriter, r *http.Request) {
	ve := &validation.ValidationErrors{}
	loc := h.locale(ve, r.URL.Query().Get("locale"))
	if ve.HasErrors() {
		response.Invalid(w, ve)
		return
	}
	ctx := r.Context()
	snap, err := h.Store.Snapshot(ctx)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}

	now := h.now()
	doc, err := planning.RenderWorkOrderSummary(snap.WorkOrders, snap.Assets, now, loc)
	if err != nil {
		if IsBuildError(err) {
			response.Err(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		response.Err(w, err.Error(), 500)
		return
	}

	if _, err := h.Save(ctx, "workorders", now.Format(planning.ISODateLayout), planning.LabelsFor(loc).SummarySheet, doc, audit.GetUsername(r)); err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	audit.LogDataExport(h.Store.DB, h.Hub, r, "workorder", doc.Filename, doc.Rows)
	log.WithFields(log.Fields{"rows": doc.Rows, "filename": doc.Filename}).Info("work order summary exported")

	writeDocument(w, doc)
}

// History handles GET /api/v1/exports/history[?limit=].
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		ve := &validation.ValidationErrors{}
		n, err := strconv.Atoi(v)
		if err != nil {
			ve.Add("limit", "must be a positive integer")
		} else {
			validation.ValidatePositiveInt(ve, "limit", n)
		}
		if ve.HasErrors() {
			response.Invalid(w, ve)
			return
		}
		limit = n
	}
	items, err := h.Store.ListExports(r.Context(), limit)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSONMeta(w, items, len(items), 1, len(items))
}

func writeDocument(w http.ResponseWriter, doc *planning.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("X-Export-Rows", strconv.Itoa(doc.Rows))
	w.Write(doc.Data)
}

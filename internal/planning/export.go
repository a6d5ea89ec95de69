package planning

import (
	"fmt"
	"time"

	"cmms/internal/models"
)

// PlanInput is everything needed to produce one maintenance plan document.
// Slices are read, never modified.
type PlanInput struct {
	Kind       PeriodKind
	Reference  time.Time
	Locale     Locale
	WorkOrders []models.WorkOrder
	Events     []models.ScheduledEvent
	Policies   []models.TBMPolicy
	Assets     []models.Asset
	// Exported stamps the subtitle row. Zero means Reference.
	Exported time.Time
}

type PlanResult struct {
	Period   Period
	Rows     []Row
	Document *Document
}

// ExportPlan resolves the period, expands TBM policies into scheduled
// events, builds the rows and renders the workbook. Nothing is returned on
// failure.
func ExportPlan(in PlanInput) (*PlanResult, error) {
	p, err := ResolvePeriod(in.Kind, in.Reference, in.Locale)
	if err != nil {
		return nil, err
	}

	expanded, err := ExpandPolicies(in.Policies, in.Assets, p)
	if err != nil {
		return nil, fmt.Errorf("expand policies: %w", err)
	}
	events := make([]models.ScheduledEvent, 0, len(in.Events)+len(expanded))
	events = append(events, in.Events...)
	events = append(events, expanded...)

	rows, err := BuildReport(in.WorkOrders, events, in.Assets, p)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	exported := in.Exported
	if exported.IsZero() {
		exported = in.Reference
	}
	doc, err := RenderReportDocument(rows, p, exported, in.Locale)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return &PlanResult{Period: p, Rows: rows, Document: doc}, nil
}

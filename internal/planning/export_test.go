package planning_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmms/internal/models"
	"cmms/internal/planning"
)

func TestExportPlan(t *testing.T) {
	in := planning.PlanInput{
		Kind:      planning.PeriodMonth,
		Reference: day("2026-01-10"),
		Locale:    planning.LocaleEN,
		WorkOrders: []models.WorkOrder{
			workOrder("WO-1", "A1", "2026-01-12"),
		},
		Events: []models.ScheduledEvent{
			{Date: "2026-01-20", AssetID: "A2", Type: "CBM", Title: "Check A2"},
		},
		Policies: []models.TBMPolicy{
			// Jan 5, 12 (covered by WO-1), 19, 26.
			{ID: "TBM-1", AssetID: "A1", IntervalDays: 7, NextDueDate: "2026-01-05", IsActive: true},
		},
		Assets: testAssets(),
	}

	res, err := planning.ExportPlan(in)
	require.NoError(t, err)
	assert.Equal(t, day("2026-01-01"), res.Period.Start)
	require.Len(t, res.Rows, 5)
	assert.Equal(t, 5, res.Document.Rows)
	assert.Equal(t, "MaintenancePlan_Month_2026-01-10.xlsx", res.Document.Filename)

	var origins []planning.RowOrigin
	for _, r := range res.Rows {
		origins = append(origins, r.Origin)
	}
	assert.Equal(t, []planning.RowOrigin{
		planning.OriginEvent, planning.OriginWorkOrder, planning.OriginEvent,
		planning.OriginEvent, planning.OriginEvent,
	}, origins)

	f := openDocument(t, res.Document)
	// Exported defaults to the reference date.
	assert.Equal(t, "Exported: 10/01/2026 00:00", cell(t, f, "Maintenance Plan", "A2"))
}

func TestExportPlanFailsWithoutDocument(t *testing.T) {
	in := planning.PlanInput{
		Kind:       planning.PeriodWeek,
		Reference:  day("2026-01-10"),
		WorkOrders: []models.WorkOrder{workOrder("WO-1", "A1", "not a date")},
	}
	res, err := planning.ExportPlan(in)
	assert.Nil(t, res)
	var de *planning.DateError
	assert.ErrorAs(t, err, &de)

	in.Kind = "decade"
	res, err = planning.ExportPlan(in)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, planning.ErrUnknownPeriodKind)

	in.Kind = planning.PeriodMonth
	in.WorkOrders = nil
	in.Policies = []models.TBMPolicy{{ID: "TBM-1", IntervalDays: 0, NextDueDate: "2026-01-01", IsActive: true}}
	res, err = planning.ExportPlan(in)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, planning.ErrInvalidInterval)
}

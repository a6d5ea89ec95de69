package planning_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cmms/internal/models"
	"cmms/internal/planning"
)

func openDocument(t *testing.T, doc *planning.Document) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func scenarioRows(t *testing.T) ([]planning.Row, planning.Period) {
	p := mustPeriod(t, planning.PeriodMonth, "2026-01-10")
	wo := workOrder("WO-1", "A1", "2026-01-15")
	wo.Priority = "critical"
	events := []models.ScheduledEvent{{Date: "2026-01-20", AssetID: "A2", Type: "CBM", Title: "Check A2"}}
	rows, err := planning.BuildReport([]models.WorkOrder{wo}, events, testAssets(), p)
	require.NoError(t, err)
	return rows, p
}

var exportedAt = time.Date(2026, 1, 10, 8, 30, 0, 0, time.UTC)

func TestRenderReportDocumentLayout(t *testing.T) {
	rows, p := scenarioRows(t)
	doc, err := planning.RenderReportDocument(rows, p, exportedAt, planning.LocaleEN)
	require.NoError(t, err)

	assert.Equal(t, "MaintenancePlan_Month_2026-01-10.xlsx", doc.Filename)
	assert.Equal(t, planning.XLSXContentType, doc.ContentType)
	assert.Equal(t, 2, doc.Rows)

	f := openDocument(t, doc)
	sheet := "Maintenance Plan"
	assert.Equal(t, []string{sheet}, f.GetSheetList())

	assert.Equal(t, "MAINTENANCE PLAN — MONTH 01/2026", cell(t, f, sheet, "A1"))
	assert.Equal(t, "Exported: 10/01/2026 08:30", cell(t, f, sheet, "A2"))
	assert.Empty(t, cell(t, f, sheet, "A3"))

	wantHeader := []string{
		"Sequence No.", "Asset Code", "Asset Name", "Location", "Maintenance Type",
		"Due Date", "Work Description", "Assignee", "Priority", "Status",
	}
	for i, h := range wantHeader {
		col, _ := excelize.ColumnNumberToName(i + 1)
		assert.Equal(t, h, cell(t, f, sheet, col+"4"))
	}

	wantRow5 := []string{"1", "A1", "Air Compressor", "Building A", "TBM (Periodic)", "15/01/2026", "Service A1", "Unassigned", "Critical", "Open"}
	wantRow6 := []string{"2", "A2", "Conveyor Belt", "Line 2", "CBM (Condition-based)", "20/01/2026", "Check A2", "Unassigned", "Medium", "Planned"}
	for i := range wantRow5 {
		col, _ := excelize.ColumnNumberToName(i + 1)
		assert.Equal(t, wantRow5[i], cell(t, f, sheet, col+"5"), col+"5")
		assert.Equal(t, wantRow6[i], cell(t, f, sheet, col+"6"), col+"6")
	}

	merges, err := f.GetMergeCells(sheet)
	require.NoError(t, err)
	var refs []string
	for _, m := range merges {
		refs = append(refs, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.ElementsMatch(t, []string{"A1:J1", "A2:J2"}, refs)

	width, err := f.GetColWidth(sheet, "G")
	require.NoError(t, err)
	assert.Equal(t, 35.0, width)
	width, err = f.GetColWidth(sheet, "A")
	require.NoError(t, err)
	assert.Equal(t, 5.0, width)

	assert.Equal(t, "'Maintenance Plan'!A4:J6", filterRange(f))

	panes, err := f.GetPanes(sheet)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, "A5", panes.TopLeftCell)
}

func filterRange(f *excelize.File) string {
	for _, dn := range f.GetDefinedName() {
		if dn.Name == "_xlnm._FilterDatabase" {
			return strings.ReplaceAll(dn.RefersTo, "$", "")
		}
	}
	return ""
}

func TestRenderReportDocumentColouring(t *testing.T) {
	rows, p := scenarioRows(t)
	doc, err := planning.RenderReportDocument(rows, p, exportedAt, planning.LocaleEN)
	require.NoError(t, err)

	f := openDocument(t, doc)
	formats, err := f.GetConditionalFormats("Maintenance Plan")
	require.NoError(t, err)
	require.Contains(t, formats, "I5:I6")
	require.Contains(t, formats, "J5:J6")

	values := func(opts []excelize.ConditionalFormatOptions) []string {
		var out []string
		for _, o := range opts {
			assert.Equal(t, "text", o.Type)
			assert.Equal(t, "containing", o.Criteria)
			out = append(out, o.Value)
		}
		return out
	}
	assert.Equal(t, []string{"Critical", "High", "Medium", "Low", "urgent"}, values(formats["I5:I6"]))
	assert.Equal(t, []string{"Overdue", "In progress", "Open", "Done", "Planned", "completed"}, values(formats["J5:J6"]))
}

func TestRenderReportDocumentEmpty(t *testing.T) {
	p := mustPeriod(t, planning.PeriodWeek, "2026-01-15")
	doc, err := planning.RenderReportDocument([]planning.Row{}, p, exportedAt, planning.LocaleEN)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Rows)
	assert.Equal(t, "MaintenancePlan_Week_2026-01-15.xlsx", doc.Filename)

	f := openDocument(t, doc)
	assert.Equal(t, "Sequence No.", cell(t, f, "Maintenance Plan", "A4"))
	assert.Empty(t, cell(t, f, "Maintenance Plan", "A5"))
	assert.Equal(t, "'Maintenance Plan'!A4:J4", filterRange(f))

	formats, err := f.GetConditionalFormats("Maintenance Plan")
	require.NoError(t, err)
	assert.Empty(t, formats)
}

func TestRenderReportDocumentVietnamese(t *testing.T) {
	rows, _ := scenarioRows(t)
	p, err := planning.ResolvePeriod(planning.PeriodQuarter, day("2026-01-10"), planning.LocaleVI)
	require.NoError(t, err)

	doc, err := planning.RenderReportDocument(rows, p, exportedAt, planning.LocaleVI)
	require.NoError(t, err)
	assert.Equal(t, "MaintenancePlan_Quarter_2026-01-10.xlsx", doc.Filename)

	f := openDocument(t, doc)
	sheet := "Kế hoạch bảo trì"
	assert.Equal(t, strings.ToUpper("Kế hoạch bảo trì - Quý 1/2026"), cell(t, f, sheet, "A1"))
	assert.Equal(t, "Chưa phân công", cell(t, f, sheet, "H5"))
	assert.Equal(t, "Khẩn cấp", cell(t, f, sheet, "I5"))
	assert.Equal(t, "Kế hoạch", cell(t, f, sheet, "J6"))
	assert.Equal(t, "TBM (Định kỳ)", cell(t, f, sheet, "E5"))
}

func TestRenderKeepsAssignee(t *testing.T) {
	rows, p := scenarioRows(t)
	rows[0].Assignee = "Nguyen Van A"
	doc, err := planning.RenderReportDocument(rows, p, exportedAt, planning.LocaleEN)
	require.NoError(t, err)

	f := openDocument(t, doc)
	assert.Equal(t, "Nguyen Van A", cell(t, f, "Maintenance Plan", "H5"))
}

package planning

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"cmms/internal/models"
)

var summaryColumnWidths = [12]float64{5, 15, 35, 12, 25, 8, 12, 12, 18, 12, 12, 12}

// SummaryFilename returns WorkOrderSummary_<yyyy-MM-dd>.xlsx.
func SummaryFilename(now time.Time) string {
	return "WorkOrderSummary_" + now.Format(ISODateLayout) + ".xlsx"
}

// RenderWorkOrderSummary lists every work order, in the given order, on a
// plain sheet with a bold header row. Unlike the plan export it applies no
// period filter.
func RenderWorkOrderSummary(workOrders []models.WorkOrder, assets []models.Asset, now time.Time, loc Locale) (*Document, error) {
	labels := LabelsFor(loc)
	tz := now.Location()
	byID := make(map[string]models.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := labels.SummarySheet
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	header := make([]interface{}, len(labels.SummaryHeaders))
	for i, h := range labels.SummaryHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "L1", headerStyle); err != nil {
		return nil, err
	}

	for i, wo := range workOrders {
		created, err := formatDay(wo.CreatedAt, tz)
		if err != nil {
			return nil, &DateError{Record: "work order " + wo.ID, Field: "created_at", Value: wo.CreatedAt, Err: err}
		}
		due, err := formatDay(wo.DueDate, tz)
		if err != nil {
			return nil, &DateError{Record: "work order " + wo.ID, Field: "due_date", Value: wo.DueDate, Err: err}
		}
		completed := placeholder
		if wo.CompletedAt != nil && *wo.CompletedAt != "" {
			if completed, err = formatDay(*wo.CompletedAt, tz); err != nil {
				return nil, &DateError{Record: "work order " + wo.ID, Field: "completed_at", Value: *wo.CompletedAt, Err: err}
			}
		}
		status, err := ParseStatus(wo.Status)
		if err != nil {
			return nil, fmt.Errorf("work order %s: %w", wo.ID, err)
		}
		prio, err := ParsePriority(wo.Priority)
		if err != nil {
			return nil, fmt.Errorf("work order %s: %w", wo.ID, err)
		}
		name, _ := resolveAsset(byID, wo.AssetID, wo.AssetName)
		assignee := wo.Assignee
		if assignee == "" {
			assignee = labels.Unassigned
		}

		values := []interface{}{
			i + 1, wo.ID, wo.Title, wo.AssetID, name, wo.Source,
			StatusLabel(loc, status), PriorityLabel(loc, prio), assignee,
			created, due, completed,
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return nil, err
		}
	}

	for i, w := range summaryColumnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &Document{
		Filename:    SummaryFilename(now),
		ContentType: XLSXContentType,
		Data:        buf.Bytes(),
		Rows:        len(workOrders),
	}, nil
}

func formatDay(s string, tz *time.Location) (string, error) {
	d, err := ParseDay(s, tz)
	if err != nil {
		return "", err
	}
	return d.Format(DisplayDateLayout), nil
}

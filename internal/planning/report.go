package planning

import (
	"fmt"
	"sort"
	"time"

	"cmms/internal/models"
)

// RowOrigin tells which input produced a plan row.
type RowOrigin string

const (
	OriginWorkOrder RowOrigin = "work_order"
	OriginEvent     RowOrigin = "scheduled_event"
)

// Row is one line of a maintenance plan. It carries enums only; display
// labels are chosen by the renderer.
type Row struct {
	Seq         int             `json:"seq"`
	AssetCode   string          `json:"asset_code"`
	AssetName   string          `json:"asset_name"`
	Location    string          `json:"location"`
	Type        MaintenanceType `json:"type"`
	DueDate     time.Time       `json:"due_date"`
	Description string          `json:"description"`
	Assignee    string          `json:"assignee"`
	Priority    Priority        `json:"priority"`
	Status      Status          `json:"status"`
	Origin      RowOrigin       `json:"origin"`
	WorkOrderID string          `json:"work_order_id,omitempty"`
}

const placeholder = "-"

type dedupKey struct {
	day     time.Time
	assetID string
}

// BuildReport merges work orders and scheduled events due inside p into a
// plan sorted by due day and numbered 1..N.
//
// A scheduled event is dropped when a row for the same asset on the same day
// already exists, so a TBM reminder that has become a work order is listed
// once. Events without an asset id are never deduplicated.
//
// Malformed dates and unknown enum values abort the build with an error.
func BuildReport(workOrders []models.WorkOrder, events []models.ScheduledEvent, assets []models.Asset, p Period) ([]Row, error) {
	loc := p.Start.Location()
	byID := make(map[string]models.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}

	rows := []Row{}
	seen := map[dedupKey]bool{}

	for _, wo := range workOrders {
		due, err := ParseDay(wo.DueDate, loc)
		if err != nil {
			return nil, &DateError{Record: "work order " + wo.ID, Field: "due_date", Value: wo.DueDate, Err: err}
		}
		src, err := ParseSource(wo.Source)
		if err != nil {
			return nil, fmt.Errorf("work order %s: %w", wo.ID, err)
		}
		status, err := ParseStatus(wo.Status)
		if err != nil {
			return nil, fmt.Errorf("work order %s: %w", wo.ID, err)
		}
		prio, err := ParsePriority(wo.Priority)
		if err != nil {
			return nil, fmt.Errorf("work order %s: %w", wo.ID, err)
		}
		if !p.Contains(due) {
			continue
		}

		name, location := resolveAsset(byID, wo.AssetID, wo.AssetName)
		rows = append(rows, Row{
			AssetCode:   assetCode(wo.AssetID),
			AssetName:   name,
			Location:    location,
			Type:        typeForSource(src),
			DueDate:     due,
			Description: wo.Title,
			Assignee:    wo.Assignee,
			Priority:    prio,
			Status:      status,
			Origin:      OriginWorkOrder,
			WorkOrderID: wo.ID,
		})
		seen[dedupKey{due, wo.AssetID}] = true
	}

	for i, ev := range events {
		day, err := ParseDay(ev.Date, loc)
		if err != nil {
			return nil, &DateError{Record: fmt.Sprintf("event %d (%s)", i+1, ev.Title), Field: "date", Value: ev.Date, Err: err}
		}
		typ, err := ParseEventType(ev.Type)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", ev.Title, err)
		}
		if !p.Contains(day) {
			continue
		}
		if ev.AssetID != "" {
			key := dedupKey{day, ev.AssetID}
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		name, location := resolveAsset(byID, ev.AssetID, ev.AssetName)
		rows = append(rows, Row{
			AssetCode:   assetCode(ev.AssetID),
			AssetName:   name,
			Location:    location,
			Type:        typ,
			DueDate:     day,
			Description: ev.Title,
			Priority:    PriorityMedium,
			Status:      StatusPlanned,
			Origin:      OriginEvent,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DueDate.Before(rows[j].DueDate)
	})
	for i := range rows {
		rows[i].Seq = i + 1
	}
	return rows, nil
}

func assetCode(id string) string {
	if id == "" {
		return placeholder
	}
	return id
}

// resolveAsset prefers the asset registry and falls back to the
// denormalized name carried by the record.
func resolveAsset(byID map[string]models.Asset, id, fallbackName string) (name, location string) {
	name, location = fallbackName, placeholder
	if a, ok := byID[id]; ok && id != "" {
		if a.Name != "" {
			name = a.Name
		}
		if a.Location != "" {
			location = a.Location
		}
	}
	if name == "" {
		name = placeholder
	}
	return name, location
}

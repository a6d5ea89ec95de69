package planning

import (
	"errors"
	"fmt"

	"cmms/internal/models"
)

var ErrInvalidInterval = errors.New("interval_days must be positive")

// ExpandPolicies turns active TBM policies into one scheduled event per
// occurrence inside p. Occurrences start at NextDueDate and repeat every
// IntervalDays; dates before NextDueDate are never produced.
func ExpandPolicies(policies []models.TBMPolicy, assets []models.Asset, p Period) ([]models.ScheduledEvent, error) {
	loc := p.Start.Location()
	names := make(map[string]string, len(assets))
	for _, a := range assets {
		names[a.ID] = a.Name
	}

	var events []models.ScheduledEvent
	for _, pol := range policies {
		if !pol.IsActive {
			continue
		}
		if pol.IntervalDays <= 0 {
			return nil, fmt.Errorf("policy %s: %w", pol.ID, ErrInvalidInterval)
		}
		next, err := ParseDay(pol.NextDueDate, loc)
		if err != nil {
			return nil, &DateError{Record: "policy " + pol.ID, Field: "next_due_date", Value: pol.NextDueDate, Err: err}
		}

		// Jump straight to the first occurrence not before the window.
		if next.Before(p.Start) {
			gap := int(p.Start.Sub(next).Hours()/24) / pol.IntervalDays
			next = next.AddDate(0, 0, gap*pol.IntervalDays)
			for next.Before(p.Start) {
				next = next.AddDate(0, 0, pol.IntervalDays)
			}
		}

		name := names[pol.AssetID]
		title := fmt.Sprintf("%s periodic maintenance (every %d days)", displayName(name, pol.AssetID), pol.IntervalDays)
		for d := next; !d.After(p.End); d = d.AddDate(0, 0, pol.IntervalDays) {
			events = append(events, models.ScheduledEvent{
				Date:      d.Format(ISODateLayout),
				Title:     title,
				Type:      string(TypeTBM),
				AssetID:   pol.AssetID,
				AssetName: name,
				PolicyID:  pol.ID,
			})
		}
	}
	return events, nil
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

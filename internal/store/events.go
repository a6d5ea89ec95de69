package store

import (
	"context"
	"strings"

	"cmms/internal/models"
)

// ListEvents returns calendar events ordered by date. from and to are
// inclusive ISO dates; either may be empty.
func (s *Store) ListEvents(ctx context.Context, from, to string) ([]models.ScheduledEvent, error) {
	return listEvents(ctx, s.DB, from, to)
}

func listEvents(ctx context.Context, q querier, from, to string) ([]models.ScheduledEvent, error) {
	var where []string
	var args []any
	if from != "" {
		where = append(where, "date >= ?")
		args = append(args, from)
	}
	if to != "" {
		where = append(where, "substr(date,1,10) <= ?")
		args = append(args, to)
	}
	query := "SELECT id, date, title, type, COALESCE(asset_id,''), COALESCE(asset_name,''), COALESCE(policy_id,'') FROM calendar_events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.ScheduledEvent{}
	for rows.Next() {
		var e models.ScheduledEvent
		if err := rows.Scan(&e.ID, &e.Date, &e.Title, &e.Type, &e.AssetID, &e.AssetName, &e.PolicyID); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (s *Store) CreateEvent(ctx context.Context, e *models.ScheduledEvent) error {
	if e.AssetID != "" && e.AssetName == "" {
		if a, err := s.GetAsset(ctx, e.AssetID); err == nil {
			e.AssetName = a.Name
		}
	}
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO calendar_events (date, title, type, asset_id, asset_name, policy_id) VALUES (?,?,?,?,?,?)",
		e.Date, e.Title, e.Type, e.AssetID, e.AssetName, e.PolicyID)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	return checkAffected(s.DB.ExecContext(ctx, "DELETE FROM calendar_events WHERE id=?", id))
}

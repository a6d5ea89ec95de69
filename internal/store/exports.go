package store

import (
	"context"

	"github.com/google/uuid"

	"cmms/internal/models"
)

// RecordExport stores one export in the history, filling ID and CreatedAt.
func (s *Store) RecordExport(ctx context.Context, e *models.PlanExport) error {
	e.ID = uuid.NewString()
	e.CreatedAt = s.timestamp()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO plan_exports
		(id, kind, reference_date, label, filename, row_count, location, created_by, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Kind, e.ReferenceDate, e.Label, e.Filename, e.RowCount, e.Location, e.CreatedBy, e.CreatedAt)
	return err
}

// ListExports returns the most recent exports first. limit <= 0 means 50.
func (s *Store) ListExports(ctx context.Context, limit int) ([]models.PlanExport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT id, kind, reference_date, label, filename, row_count,
		COALESCE(location,''), COALESCE(created_by,''), created_at
		FROM plan_exports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.PlanExport{}
	for rows.Next() {
		var e models.PlanExport
		if err := rows.Scan(&e.ID, &e.Kind, &e.ReferenceDate, &e.Label, &e.Filename, &e.RowCount,
			&e.Location, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

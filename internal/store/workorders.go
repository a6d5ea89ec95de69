package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cmms/internal/models"
)

const workOrderColumns = `id, title, COALESCE(asset_id,''), COALESCE(asset_name,''), source, status, priority,
	created_at, due_date, started_at, completed_at, COALESCE(assignee,''), COALESCE(notes,''), COALESCE(findings,''),
	COALESCE(policy_id,'')`

func scanWorkOrder(row scanner) (models.WorkOrder, error) {
	var wo models.WorkOrder
	var started, completed sql.NullString
	err := row.Scan(&wo.ID, &wo.Title, &wo.AssetID, &wo.AssetName, &wo.Source, &wo.Status, &wo.Priority,
		&wo.CreatedAt, &wo.DueDate, &started, &completed, &wo.Assignee, &wo.Notes, &wo.Findings, &wo.PolicyID)
	wo.StartedAt, wo.CompletedAt = sp(started), sp(completed)
	return wo, err
}

// WorkOrderFilter narrows ListWorkOrders. Empty fields match everything.
type WorkOrderFilter struct {
	Status string
	Source string
}

func (s *Store) ListWorkOrders(ctx context.Context, f WorkOrderFilter) ([]models.WorkOrder, error) {
	return listWorkOrders(ctx, s.DB, f)
}

func listWorkOrders(ctx context.Context, q querier, f WorkOrderFilter) ([]models.WorkOrder, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	if f.Source != "" {
		where = append(where, "source=?")
		args = append(args, f.Source)
	}
	query := "SELECT " + workOrderColumns + " FROM work_orders"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.WorkOrder{}
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, wo)
	}
	return items, rows.Err()
}

func (s *Store) GetWorkOrder(ctx context.Context, id string) (models.WorkOrder, error) {
	wo, err := scanWorkOrder(s.DB.QueryRowContext(ctx, "SELECT "+workOrderColumns+" FROM work_orders WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return wo, ErrNotFound
	}
	return wo, err
}

// CreateWorkOrder assigns a WO-YYYY-NNN id and created_at, defaults status
// and priority, and copies the asset name from the registry when known.
func (s *Store) CreateWorkOrder(ctx context.Context, wo *models.WorkOrder) error {
	id, err := s.nextID(ctx, "WO", "work_orders", 3)
	if err != nil {
		return err
	}
	wo.ID = id
	wo.CreatedAt = s.timestamp()
	if wo.Status == "" {
		wo.Status = "open"
	}
	if wo.Priority == "" {
		wo.Priority = "medium"
	}
	if wo.AssetID != "" {
		if a, err := s.GetAsset(ctx, wo.AssetID); err == nil {
			wo.AssetName = a.Name
		}
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO work_orders
		(id, title, asset_id, asset_name, source, status, priority, created_at, due_date, started_at, completed_at, assignee, notes, findings, policy_id)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		wo.ID, wo.Title, wo.AssetID, wo.AssetName, wo.Source, wo.Status, wo.Priority, wo.CreatedAt, wo.DueDate,
		ns(wo.StartedAt), ns(wo.CompletedAt), wo.Assignee, wo.Notes, wo.Findings, wo.PolicyID)
	return err
}

// UpdateWorkOrder overwrites the editable fields of an existing order.
// created_at and the lifecycle timestamps are kept.
func (s *Store) UpdateWorkOrder(ctx context.Context, wo models.WorkOrder) error {
	return checkAffected(s.DB.ExecContext(ctx, `UPDATE work_orders SET
		title=?, asset_id=?, asset_name=?, source=?, status=?, priority=?, due_date=?, assignee=?, notes=?, findings=?, policy_id=?
		WHERE id=?`,
		wo.Title, wo.AssetID, wo.AssetName, wo.Source, wo.Status, wo.Priority, wo.DueDate, wo.Assignee, wo.Notes, wo.Findings, wo.PolicyID, wo.ID))
}

func (s *Store) DeleteWorkOrder(ctx context.Context, id string) error {
	return checkAffected(s.DB.ExecContext(ctx, "DELETE FROM work_orders WHERE id=?", id))
}

// StartWorkOrder assigns the order and moves it to in_progress. Only open
// or overdue orders can be started.
func (s *Store) StartWorkOrder(ctx context.Context, id, assignee string) (models.WorkOrder, error) {
	wo, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return wo, err
	}
	if wo.Status != "open" && wo.Status != "overdue" {
		return wo, fmt.Errorf("%w: %s to in_progress", ErrInvalidTransition, wo.Status)
	}
	now := s.timestamp()
	_, err = s.DB.ExecContext(ctx, "UPDATE work_orders SET status='in_progress', assignee=?, started_at=? WHERE id=?", assignee, now, id)
	if err != nil {
		return wo, err
	}
	wo.Status, wo.Assignee, wo.StartedAt = "in_progress", assignee, &now
	return wo, nil
}

// CompleteWorkOrder marks the order done and stamps completed_at. When the
// order was generated from a TBM policy, that policy's last_executed and
// next_due_date roll forward in the same transaction. Other policies on the
// asset are left alone.
func (s *Store) CompleteWorkOrder(ctx context.Context, id, findings string) (models.WorkOrder, error) {
	wo, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return wo, err
	}
	if wo.Status == "done" {
		return wo, fmt.Errorf("%w: already done", ErrInvalidTransition)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return wo, err
	}
	defer tx.Rollback()

	now := s.now()
	stamp := now.Format(timestampLayout)
	if findings == "" {
		findings = wo.Findings
	}
	if _, err := tx.ExecContext(ctx, "UPDATE work_orders SET status='done', completed_at=?, findings=? WHERE id=?", stamp, findings, id); err != nil {
		return wo, err
	}
	if wo.PolicyID != "" {
		today := now.Format("2006-01-02")
		_, err := tx.ExecContext(ctx, `UPDATE tbm_policies
			SET last_executed=?, next_due_date=date(?, '+' || interval_days || ' days')
			WHERE id=? AND is_active=1`, today, today, wo.PolicyID)
		if err != nil {
			return wo, err
		}
	}
	if err := tx.Commit(); err != nil {
		return wo, err
	}
	wo.Status, wo.CompletedAt, wo.Findings = "done", &stamp, findings
	return wo, nil
}

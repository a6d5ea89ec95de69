package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"cmms/internal/models"
)

const policyColumns = "id, asset_id, interval_days, next_due_date, last_executed, is_active, COALESCE(checklist,'[]')"

func scanPolicy(row scanner) (models.TBMPolicy, error) {
	var p models.TBMPolicy
	var last sql.NullString
	var checklist string
	if err := row.Scan(&p.ID, &p.AssetID, &p.IntervalDays, &p.NextDueDate, &last, &p.IsActive, &checklist); err != nil {
		return p, err
	}
	p.LastExecuted = sp(last)
	_ = json.Unmarshal([]byte(checklist), &p.Checklist)
	return p, nil
}

func (s *Store) ListPolicies(ctx context.Context) ([]models.TBMPolicy, error) {
	return listPolicies(ctx, s.DB)
}

func listPolicies(ctx context.Context, q querier) ([]models.TBMPolicy, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+policyColumns+" FROM tbm_policies ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.TBMPolicy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (s *Store) GetPolicy(ctx context.Context, id string) (models.TBMPolicy, error) {
	p, err := scanPolicy(s.DB.QueryRowContext(ctx, "SELECT "+policyColumns+" FROM tbm_policies WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// CreatePolicy inserts p, assigning the next TBM-NNN id when p.ID is empty.
func (s *Store) CreatePolicy(ctx context.Context, p *models.TBMPolicy) error {
	if p.ID == "" {
		id, err := s.nextSerial(ctx, "TBM", "tbm_policies")
		if err != nil {
			return err
		}
		p.ID = id
	}
	checklist, err := json.Marshal(p.Checklist)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO tbm_policies
		(id, asset_id, interval_days, next_due_date, last_executed, is_active, checklist) VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.AssetID, p.IntervalDays, p.NextDueDate, ns(p.LastExecuted), p.IsActive, string(checklist))
	return err
}

func (s *Store) UpdatePolicy(ctx context.Context, p models.TBMPolicy) error {
	checklist, err := json.Marshal(p.Checklist)
	if err != nil {
		return err
	}
	return checkAffected(s.DB.ExecContext(ctx, `UPDATE tbm_policies SET
		asset_id=?, interval_days=?, next_due_date=?, last_executed=?, is_active=?, checklist=? WHERE id=?`,
		p.AssetID, p.IntervalDays, p.NextDueDate, ns(p.LastExecuted), p.IsActive, string(checklist), p.ID))
}

// TogglePolicy flips is_active and returns the updated policy.
func (s *Store) TogglePolicy(ctx context.Context, id string) (models.TBMPolicy, error) {
	if err := checkAffected(s.DB.ExecContext(ctx, "UPDATE tbm_policies SET is_active = 1 - is_active WHERE id=?", id)); err != nil {
		return models.TBMPolicy{}, err
	}
	return s.GetPolicy(ctx, id)
}

func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	return checkAffected(s.DB.ExecContext(ctx, "DELETE FROM tbm_policies WHERE id=?", id))
}

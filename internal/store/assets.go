package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"cmms/internal/models"
)

const assetColumns = `id, name, COALESCE(type,''), COALESCE(location,''), COALESCE(status,'online'),
	COALESCE(manufacturer,''), COALESCE(model,''), COALESCE(install_date,''),
	last_maintenance, next_maintenance, COALESCE(specifications,'{}')`

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (models.Asset, error) {
	var a models.Asset
	var last, next sql.NullString
	var specs string
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Location, &a.Status,
		&a.Manufacturer, &a.Model, &a.InstallDate, &last, &next, &specs)
	if err != nil {
		return a, err
	}
	a.LastMaintenance, a.NextMaintenance = sp(last), sp(next)
	if specs != "" && specs != "{}" {
		_ = json.Unmarshal([]byte(specs), &a.Specifications)
	}
	return a, nil
}

func (s *Store) ListAssets(ctx context.Context) ([]models.Asset, error) {
	return listAssets(ctx, s.DB)
}

func listAssets(ctx context.Context, q querier) ([]models.Asset, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+assetColumns+" FROM assets ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (s *Store) GetAsset(ctx context.Context, id string) (models.Asset, error) {
	a, err := scanAsset(s.DB.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM assets WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// CreateAsset inserts a, assigning the next AST-NNN id when a.ID is empty.
func (s *Store) CreateAsset(ctx context.Context, a *models.Asset) error {
	if a.ID == "" {
		id, err := s.nextSerial(ctx, "AST", "assets")
		if err != nil {
			return err
		}
		a.ID = id
	}
	if a.Status == "" {
		a.Status = "online"
	}
	specs, err := json.Marshal(a.Specifications)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO assets
		(id, name, type, location, status, manufacturer, model, install_date, last_maintenance, next_maintenance, specifications)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.Name, a.Type, a.Location, a.Status, a.Manufacturer, a.Model, a.InstallDate,
		ns(a.LastMaintenance), ns(a.NextMaintenance), string(specs))
	return err
}

func (s *Store) UpdateAsset(ctx context.Context, a models.Asset) error {
	specs, err := json.Marshal(a.Specifications)
	if err != nil {
		return err
	}
	return checkAffected(s.DB.ExecContext(ctx, `UPDATE assets SET
		name=?, type=?, location=?, status=?, manufacturer=?, model=?, install_date=?,
		last_maintenance=?, next_maintenance=?, specifications=? WHERE id=?`,
		a.Name, a.Type, a.Location, a.Status, a.Manufacturer, a.Model, a.InstallDate,
		ns(a.LastMaintenance), ns(a.NextMaintenance), string(specs), a.ID))
}

func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	return checkAffected(s.DB.ExecContext(ctx, "DELETE FROM assets WHERE id=?", id))
}

package store

import (
	"context"
	"database/sql"

	"cmms/internal/models"
)

// Snapshot is a consistent copy of everything an export reads.
type Snapshot struct {
	Assets     []models.Asset
	WorkOrders []models.WorkOrder
	Events     []models.ScheduledEvent
	Policies   []models.TBMPolicy
}

// Snapshot reads all export inputs inside one read-only transaction.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	snap := &Snapshot{}
	if snap.Assets, err = listAssets(ctx, tx); err != nil {
		return nil, err
	}
	if snap.WorkOrders, err = listWorkOrders(ctx, tx, WorkOrderFilter{}); err != nil {
		return nil, err
	}
	if snap.Events, err = listEvents(ctx, tx, "", ""); err != nil {
		return nil, err
	}
	if snap.Policies, err = listPolicies(ctx, tx); err != nil {
		return nil, err
	}
	return snap, tx.Commit()
}

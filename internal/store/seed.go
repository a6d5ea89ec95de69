package store

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"cmms/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

type seedAsset struct {
	ID              string            `yaml:"id"`
	Name            string            `yaml:"name"`
	Type            string            `yaml:"type"`
	Location        string            `yaml:"location"`
	Status          string            `yaml:"status"`
	Manufacturer    string            `yaml:"manufacturer"`
	Model           string            `yaml:"model"`
	InstallDate     string            `yaml:"install_date"`
	LastMaintenance string            `yaml:"last_maintenance"`
	NextMaintenance string            `yaml:"next_maintenance"`
	Specifications  map[string]string `yaml:"specifications"`
}

type seedWorkOrder struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	AssetID     string `yaml:"asset_id"`
	AssetName   string `yaml:"asset_name"`
	Source      string `yaml:"source"`
	Status      string `yaml:"status"`
	Priority    string `yaml:"priority"`
	CreatedAt   string `yaml:"created_at"`
	DueDate     string `yaml:"due_date"`
	CompletedAt string `yaml:"completed_at"`
	Assignee    string `yaml:"assignee"`
	Notes       string `yaml:"notes"`
	PolicyID    string `yaml:"policy_id"`
}

type seedEvent struct {
	Date      string `yaml:"date"`
	Title     string `yaml:"title"`
	Type      string `yaml:"type"`
	AssetID   string `yaml:"asset_id"`
	AssetName string `yaml:"asset_name"`
}

type seedPolicy struct {
	ID           string   `yaml:"id"`
	AssetID      string   `yaml:"asset_id"`
	IntervalDays int      `yaml:"interval_days"`
	NextDueDate  string   `yaml:"next_due_date"`
	LastExecuted string   `yaml:"last_executed"`
	IsActive     bool     `yaml:"is_active"`
	Checklist    []string `yaml:"checklist"`
}

type seedData struct {
	Assets     []seedAsset     `yaml:"assets"`
	WorkOrders []seedWorkOrder `yaml:"work_orders"`
	Events     []seedEvent     `yaml:"calendar_events"`
	Policies   []seedPolicy    `yaml:"tbm_policies"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Seed loads the demo registry into an empty database. It is a no-op once
// any asset exists.
func (s *Store) Seed(ctx context.Context) error {
	var n int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var data seedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		return fmt.Errorf("parse seed data: %w", err)
	}

	for _, a := range data.Assets {
		asset := models.Asset{
			ID: a.ID, Name: a.Name, Type: a.Type, Location: a.Location, Status: a.Status,
			Manufacturer: a.Manufacturer, Model: a.Model, InstallDate: a.InstallDate,
			LastMaintenance: optional(a.LastMaintenance), NextMaintenance: optional(a.NextMaintenance),
			Specifications: a.Specifications,
		}
		if err := s.CreateAsset(ctx, &asset); err != nil {
			return fmt.Errorf("seed asset %s: %w", a.ID, err)
		}
	}
	for _, w := range data.WorkOrders {
		_, err := s.DB.ExecContext(ctx, `INSERT INTO work_orders
			(id, title, asset_id, asset_name, source, status, priority, created_at, due_date, completed_at, assignee, notes, policy_id)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			w.ID, w.Title, w.AssetID, w.AssetName, w.Source, w.Status, w.Priority, w.CreatedAt, w.DueDate,
			ns(optional(w.CompletedAt)), w.Assignee, w.Notes, w.PolicyID)
		if err != nil {
			return fmt.Errorf("seed work order %s: %w", w.ID, err)
		}
	}
	for _, e := range data.Events {
		ev := models.ScheduledEvent{Date: e.Date, Title: e.Title, Type: e.Type, AssetID: e.AssetID, AssetName: e.AssetName}
		if err := s.CreateEvent(ctx, &ev); err != nil {
			return fmt.Errorf("seed event %q: %w", e.Title, err)
		}
	}
	for _, p := range data.Policies {
		pol := models.TBMPolicy{
			ID: p.ID, AssetID: p.AssetID, IntervalDays: p.IntervalDays, NextDueDate: p.NextDueDate,
			LastExecuted: optional(p.LastExecuted), IsActive: p.IsActive, Checklist: p.Checklist,
		}
		if err := s.CreatePolicy(ctx, &pol); err != nil {
			return fmt.Errorf("seed policy %s: %w", p.ID, err)
		}
	}
	return nil
}

package store

import (
	"fmt"
	"strings"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT DEFAULT '',
		location TEXT DEFAULT '',
		status TEXT DEFAULT 'online' CHECK(status IN ('online','warning','critical','offline')),
		manufacturer TEXT DEFAULT '',
		model TEXT DEFAULT '',
		install_date TEXT DEFAULT '',
		last_maintenance TEXT,
		next_maintenance TEXT,
		specifications TEXT DEFAULT '{}',
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS work_orders (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		asset_id TEXT DEFAULT '',
		asset_name TEXT DEFAULT '',
		source TEXT NOT NULL CHECK(source IN ('TBM','CBM','Manual')),
		status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open','in_progress','done','overdue')),
		priority TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low','medium','high','critical')),
		created_at TEXT NOT NULL,
		due_date TEXT NOT NULL,
		started_at TEXT,
		completed_at TEXT,
		assignee TEXT DEFAULT '',
		notes TEXT DEFAULT '',
		findings TEXT DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_due ON work_orders(due_date)`,
	`CREATE TABLE IF NOT EXISTS calendar_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		title TEXT NOT NULL,
		type TEXT NOT NULL CHECK(type IN ('TBM','CBM')),
		asset_id TEXT DEFAULT '',
		asset_name TEXT DEFAULT '',
		policy_id TEXT DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_events_date ON calendar_events(date)`,
	`CREATE TABLE IF NOT EXISTS tbm_policies (
		id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL,
		interval_days INTEGER NOT NULL CHECK(interval_days > 0),
		next_due_date TEXT NOT NULL,
		last_executed TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		checklist TEXT DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS plan_exports (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		reference_date TEXT NOT NULL,
		label TEXT NOT NULL,
		filename TEXT NOT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		location TEXT DEFAULT '',
		created_by TEXT DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		key_hash TEXT NOT NULL,
		key_prefix TEXT NOT NULL UNIQUE,
		created_by TEXT DEFAULT '',
		created_at TEXT DEFAULT CURRENT_TIMESTAMP,
		last_used TEXT,
		enabled INTEGER DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT DEFAULT 'system',
		action TEXT NOT NULL,
		module TEXT NOT NULL,
		record_id TEXT DEFAULT '',
		summary TEXT DEFAULT '',
		ip_address TEXT DEFAULT '',
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_module ON audit_log(module, record_id)`,
}

// columnMigrations add columns to tables created by earlier releases.
var columnMigrations = []string{
	`ALTER TABLE work_orders ADD COLUMN policy_id TEXT DEFAULT ''`,
}

func (s *Store) migrate() error {
	for i, m := range migrations {
		if _, err := s.DB.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	for _, m := range columnMigrations {
		if _, err := s.DB.Exec(m); err != nil {
			// Column already exists
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("column migration %q: %w", m, err)
			}
		}
	}
	return nil
}

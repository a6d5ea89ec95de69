package audit

import (
	"context"
	"net/http/httptest"
	"testing"

	"cmms/internal/server"
	"cmms/internal/store"
)

func setupDB(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLogSimpleAudit(t *testing.T) {
	s := setupDB(t)
	req := httptest.NewRequest("POST", "/api/v1/assets", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 10.0.0.1")
	req = req.WithContext(context.WithValue(req.Context(), server.CtxUsername, "apikey:cmms_1a2b3c4d"))

	LogSimpleAudit(s.DB, nil, req, ActionCreate, "asset", "AST-006", "Created asset AST-006")
	LogAudit(s.DB, nil, "system", ActionUpdate, "policy", "TBM-001", "Rolled forward")

	entries, err := Recent(context.Background(), s.DB, "", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries want 2", len(entries))
	}
	if entries[0].Module != "policy" {
		t.Errorf("newest first: got %q", entries[0].Module)
	}
	e := entries[1]
	if e.Username != "apikey:cmms_1a2b3c4d" || e.IPAddress != "10.0.0.7" || e.RecordID != "AST-006" {
		t.Errorf("got %+v", e)
	}

	only, err := Recent(context.Background(), s.DB, "asset", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(only) != 1 || only[0].Action != ActionCreate {
		t.Errorf("module filter: got %+v", only)
	}
}

func TestLogDataExport(t *testing.T) {
	s := setupDB(t)
	req := httptest.NewRequest("GET", "/api/v1/exports/maintenance-plan", nil)
	LogDataExport(s.DB, nil, req, "maintenance_plan", "MaintenancePlan_Month_2026-01.xlsx", 5)

	entries, err := Recent(context.Background(), s.DB, "maintenance_plan", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Username != "system" || entries[0].Summary != "Exported 5 rows to MaintenancePlan_Month_2026-01.xlsx" {
		t.Errorf("got %+v", entries[0])
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "9.9.9.9:1234", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": " 4.3.2.1 "}, "9.9.9.9:1234", "4.3.2.1"},
		{"remote", nil, "9.9.9.9:1234", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestCleanupOldAuditLogs(t *testing.T) {
	s := setupDB(t)
	if _, err := s.DB.Exec(`INSERT INTO audit_log (action, module, created_at) VALUES ('create','asset','2020-01-01T00:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	LogAudit(s.DB, nil, "system", ActionCreate, "asset", "AST-001", "")

	n, err := CleanupOldAuditLogs(context.Background(), s.DB, 30)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("got %d deleted want 1", n)
	}
}

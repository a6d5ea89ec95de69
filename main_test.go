package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cmms/internal/auth"
	"cmms/internal/config"
	"cmms/internal/handlers/export"
	"cmms/internal/planning"
	"cmms/internal/server"
	"cmms/internal/testutil"
	"cmms/internal/websocket"
)

func init() {
	auth.HashCost = bcrypt.MinCost
}

func setupTestApp(t *testing.T) (*server.App, *export.Handler) {
	t.Helper()
	s := testutil.SetupTestStore(t, true)
	app := &server.App{
		Store:     s,
		Hub:       websocket.NewHub(),
		Validator: &auth.Validator{Store: s},
		Config:    config.Default(),
	}
	exp := &export.Handler{
		Store:    s,
		Hub:      app.Hub,
		Locale:   planning.LocaleEN,
		Location: time.UTC,
		Now:      func() time.Time { return testutil.Now },
	}
	return app, exp
}

func TestRouter(t *testing.T) {
	app, exp := setupTestApp(t)
	h := newHandler(app, exp, server.NewRateLimiter())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/api/v1/health", 200},
		{"GET", "/api/v1/assets", 200},
		{"GET", "/api/v1/assets/AST-001", 200},
		{"GET", "/api/v1/assets/AST-999", 404},
		{"GET", "/api/v1/workorders?status=open", 200},
		{"GET", "/api/v1/workorders/WO-2026-001", 200},
		{"GET", "/api/v1/events?from=2026-01-01&to=2026-01-31", 200},
		{"GET", "/api/v1/policies/tbm", 200},
		{"GET", "/api/v1/policies/tbm/TBM-001", 200},
		{"GET", "/api/v1/exports/periods", 200},
		{"GET", "/api/v1/exports/maintenance-plan?period=week&preview=1", 200},
		{"GET", "/api/v1/exports/maintenance-plan?period=decade", 400},
		{"GET", "/api/v1/exports/history", 200},
		{"GET", "/api/v1/apikeys", 200},
		{"GET", "/api/v1/audit", 200},
		{"GET", "/api/v1/nothing", 404},
		{"PATCH", "/api/v1/assets", 404},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			testutil.AssertStatus(t, w, tt.status)
		})
	}
}

func TestRouterRequiresKeyOnceIssued(t *testing.T) {
	app, exp := setupTestApp(t)
	h := newHandler(app, exp, server.NewRateLimiter())

	key, err := auth.GenerateAPIKey()
	if err != nil {
		t.Fatal(err)
	}
	hash, err := auth.HashAPIKey(key)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := app.Store.CreateAPIKey(context.Background(), "ci", auth.LookupPrefix(key), hash, "test"); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/assets", nil))
	testutil.AssertStatus(t, w, 401)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, testutil.AuthedRequest("GET", "/api/v1/assets", nil, key))
	testutil.AssertStatus(t, w, 200)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", nil))
	testutil.AssertStatus(t, w, 200)

	// The export is attributed to the key.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, testutil.AuthedRequest("GET", "/api/v1/exports/maintenance-plan?period=month", nil, key))
	testutil.AssertStatus(t, w, 200)
	history, err := app.Store.ListExports(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].CreatedBy != "apikey:"+auth.LookupPrefix(key) {
		t.Errorf("Expected export attributed to the key, got %+v", history)
	}
}

func TestRouterHeaders(t *testing.T) {
	app, exp := setupTestApp(t)
	h := newHandler(app, exp, server.NewRateLimiter())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/assets", nil))
	if w.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("Expected rate limit headers")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected security headers")
	}
}

func TestRunExport(t *testing.T) {
	_, exp := setupTestApp(t)
	dir := filepath.Join(t.TempDir(), "out")
	ctx := context.Background()

	path, err := runExport(ctx, exp, "month", 0, "2026-01-15", dir)
	if err != nil {
		t.Fatalf("runExport: %v", err)
	}
	if filepath.Base(path) != "MaintenancePlan_Month_2026-01-15.xlsx" {
		t.Errorf("Unexpected path %q", path)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("Expected a written workbook at %s: %v", path, err)
	}

	path, err = runExport(ctx, exp, "workorders", 0, "", dir)
	if err != nil {
		t.Fatalf("runExport workorders: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "WorkOrderSummary_") {
		t.Errorf("Unexpected path %q", path)
	}

	history, err := exp.Store.ListExports(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].CreatedBy != "cli" {
		t.Errorf("Expected two cli exports, got %+v", history)
	}

	if _, err := runExport(ctx, exp, "year", 0, "", dir); err == nil {
		t.Error("Expected error for unknown period kind")
	}
	if _, err := runExport(ctx, exp, "week", 0, "15/01/2026", dir); err == nil {
		t.Error("Expected error for bad date")
	}
}

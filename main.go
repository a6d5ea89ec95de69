package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"cmms/internal/archive"
	"cmms/internal/audit"
	"cmms/internal/auth"
	"cmms/internal/config"
	"cmms/internal/handlers/admin"
	"cmms/internal/handlers/export"
	"cmms/internal/handlers/maintenance"
	"cmms/internal/planning"
	"cmms/internal/response"
	"cmms/internal/server"
	"cmms/internal/store"
	"cmms/internal/websocket"
)

const (
	requestsPerMinute = 300
	exportsPerMinute  = 20
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	locale := flag.String("locale", "", "Report locale: en or vi (overrides config)")
	exportKind := flag.String("export", "", "Write one document and exit: week, month, quarter or workorders")
	offset := flag.Int("offset", 0, "Period offset for -export")
	date := flag.String("date", "", "Reference date for -export (YYYY-MM-DD, default today)")
	outDir := flag.String("out", ".", "Output directory for -export")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *locale != "" {
		cfg.Locale = *locale
	}
	setupLogging(cfg)

	app, err := newApp(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Store.Close()

	exp, err := newExportHandler(app)
	if err != nil {
		log.Fatal(err)
	}

	if *exportKind != "" {
		path, err := runExport(context.Background(), exp, *exportKind, *offset, *date, *outDir)
		if err != nil {
			log.Errorf("export failed: %v", err)
			os.Exit(1)
		}
		fmt.Println(path)
		return
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(app, exp, server.NewRateLimiter()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("CMMS server starting on http://localhost%s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

func setupLogging(cfg config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// newApp opens the database, seeds it when enabled, prunes the audit log
// and builds the shared dependencies.
func newApp(ctx context.Context, cfg config.Config) (*server.App, error) {
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("DB init failed: %w", err)
	}
	if cfg.Seed {
		if err := s.Seed(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	if cfg.AuditRetentionDays > 0 {
		n, err := audit.CleanupOldAuditLogs(ctx, s.DB, cfg.AuditRetentionDays)
		if err != nil {
			log.WithError(err).Warn("audit cleanup")
		} else if n > 0 {
			log.WithField("deleted", n).Info("pruned audit log")
		}
	}

	arch, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		s.Close()
		return nil, err
	}

	return &server.App{
		Store:     s,
		Hub:       websocket.NewHub(),
		Validator: &auth.Validator{Store: s},
		Archive:   arch,
		Config:    cfg,
	}, nil
}

func newExportHandler(app *server.App) (*export.Handler, error) {
	loc, err := app.Config.Location()
	if err != nil {
		return nil, err
	}
	locale, err := planning.ParseLocale(app.Config.Locale)
	if err != nil {
		return nil, err
	}
	return &export.Handler{
		Store:    app.Store,
		Hub:      app.Hub,
		Archive:  app.Archive,
		Locale:   locale,
		Location: loc,
	}, nil
}

// newHandler wires the router and the middleware chain.
func newHandler(app *server.App, exp *export.Handler, rl *server.RateLimiter) http.Handler {
	maint := &maintenance.Handler{Store: app.Store, Hub: app.Hub}
	adm := &admin.Handler{Store: app.Store, Hub: app.Hub}

	mux := http.NewServeMux()
	mux.Handle("/ws", app.Hub)

	// API routes - using a simple router
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")

		switch {
		case path == "health" && r.Method == "GET":
			response.JSON(w, map[string]string{"status": "ok"})

		// Assets
		case parts[0] == "assets" && len(parts) == 1 && r.Method == "GET":
			maint.ListAssets(w, r)
		case parts[0] == "assets" && len(parts) == 1 && r.Method == "POST":
			maint.CreateAsset(w, r)
		case parts[0] == "assets" && len(parts) == 2 && r.Method == "GET":
			maint.GetAsset(w, r, parts[1])
		case parts[0] == "assets" && len(parts) == 2 && r.Method == "PUT":
			maint.UpdateAsset(w, r, parts[1])
		case parts[0] == "assets" && len(parts) == 2 && r.Method == "DELETE":
			maint.DeleteAsset(w, r, parts[1])

		// Work Orders
		case parts[0] == "workorders" && len(parts) == 1 && r.Method == "GET":
			maint.ListWorkOrders(w, r)
		case parts[0] == "workorders" && len(parts) == 1 && r.Method == "POST":
			maint.CreateWorkOrder(w, r)
		case parts[0] == "workorders" && len(parts) == 2 && r.Method == "GET":
			maint.GetWorkOrder(w, r, parts[1])
		case parts[0] == "workorders" && len(parts) == 2 && r.Method == "PUT":
			maint.UpdateWorkOrder(w, r, parts[1])
		case parts[0] == "workorders" && len(parts) == 2 && r.Method == "DELETE":
			maint.DeleteWorkOrder(w, r, parts[1])
		case parts[0] == "workorders" && len(parts) == 3 && parts[2] == "start" && r.Method == "POST":
			maint.StartWorkOrder(w, r, parts[1])
		case parts[0] == "workorders" && len(parts) == 3 && parts[2] == "complete" && r.Method == "POST":
			maint.CompleteWorkOrder(w, r, parts[1])

		// Calendar events
		case parts[0] == "events" && len(parts) == 1 && r.Method == "GET":
			maint.ListEvents(w, r)
		case parts[0] == "events" && len(parts) == 1 && r.Method == "POST":
			maint.CreateEvent(w, r)
		case parts[0] == "events" && len(parts) == 2 && r.Method == "DELETE":
			maint.DeleteEvent(w, r, parts[1])

		// TBM policies
		case path == "policies/tbm" && r.Method == "GET":
			maint.ListPolicies(w, r)
		case path == "policies/tbm" && r.Method == "POST":
			maint.CreatePolicy(w, r)
		case parts[0] == "policies" && len(parts) == 3 && parts[1] == "tbm" && r.Method == "GET":
			maint.GetPolicy(w, r, parts[2])
		case parts[0] == "policies" && len(parts) == 3 && parts[1] == "tbm" && r.Method == "PUT":
			maint.UpdatePolicy(w, r, parts[2])
		case parts[0] == "policies" && len(parts) == 3 && parts[1] == "tbm" && r.Method == "DELETE":
			maint.DeletePolicy(w, r, parts[2])
		case parts[0] == "policies" && len(parts) == 4 && parts[1] == "tbm" && parts[3] == "toggle" && r.Method == "POST":
			maint.TogglePolicy(w, r, parts[2])

		// Exports
		case path == "exports/periods" && r.Method == "GET":
			exp.ListPeriods(w, r)
		case path == "exports/maintenance-plan" && r.Method == "GET":
			exp.MaintenancePlan(w, r)
		case path == "exports/workorders" && r.Method == "GET":
			exp.WorkOrders(w, r)
		case path == "exports/history" && r.Method == "GET":
			exp.History(w, r)

		// API Keys
		case parts[0] == "apikeys" && len(parts) == 1 && r.Method == "GET":
			adm.ListAPIKeys(w, r)
		case parts[0] == "apikeys" && len(parts) == 1 && r.Method == "POST":
			adm.CreateAPIKey(w, r)
		case parts[0] == "apikeys" && len(parts) == 2 && r.Method == "DELETE":
			adm.DeleteAPIKey(w, r, parts[1])
		case parts[0] == "apikeys" && len(parts) == 2 && r.Method == "PUT":
			adm.ToggleAPIKey(w, r, parts[1])

		// Audit
		case path == "audit" && r.Method == "GET":
			adm.ListAudit(w, r)

		default:
			response.Err(w, "not found", http.StatusNotFound)
		}
	})

	open := func(ctx context.Context) bool {
		n, err := app.Store.CountAPIKeys(ctx)
		return err == nil && n == 0
	}

	var h http.Handler = mux
	h = server.GzipMiddleware(h)
	h = server.RequireAPIKey(app.Validator, open)(h)
	h = server.RateLimitMiddleware(rl, requestsPerMinute, exportsPerMinute)(h)
	h = server.SecurityHeaders(h)
	return server.LoggingMiddleware(h)
}

// runExport writes one document into outDir, records it and returns its path.
func runExport(ctx context.Context, exp *export.Handler, kind string, offset int, date, outDir string) (string, error) {
	out, err := archive.NewLocal(outDir)
	if err != nil {
		return "", err
	}

	var (
		doc              *planning.Document
		reference, label string
	)
	if kind == "workorders" {
		snap, err := exp.Store.Snapshot(ctx)
		if err != nil {
			return "", err
		}
		now := time.Now().In(exp.Location)
		doc, err = planning.RenderWorkOrderSummary(snap.WorkOrders, snap.Assets, now, exp.Locale)
		if err != nil {
			return "", err
		}
		reference, label = now.Format(planning.ISODateLayout), planning.LabelsFor(exp.Locale).SummarySheet
	} else {
		req := export.PlanRequest{Offset: offset, Locale: exp.Locale}
		if req.Kind, err = planning.ParsePeriodKind(kind); err != nil {
			return "", err
		}
		if date != "" {
			if req.Date, err = time.ParseInLocation(planning.ISODateLayout, date, exp.Location); err != nil {
				return "", fmt.Errorf("invalid -date: %w", err)
			}
		}
		res, err := exp.BuildPlan(ctx, req)
		if err != nil {
			return "", err
		}
		doc = res.Document
		reference, label = res.Period.Reference.Format(planning.ISODateLayout), res.Period.Label
	}

	path, err := out.Store(ctx, doc.Filename, doc.ContentType, doc.Data)
	if err != nil {
		return "", err
	}
	if _, err := exp.Save(ctx, kind, reference, label, doc, "cli"); err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"rows": doc.Rows, "path": path}).Info("export written")
	return path, nil
}

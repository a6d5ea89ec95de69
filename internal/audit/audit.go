package audit

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"cmms/internal/models"
	"cmms/internal/server"
	"cmms/internal/websocket"
)

// Action constants.
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionStart    = "start"
	ActionComplete = "complete"
	ActionToggle   = "toggle"
	ActionExport   = "export"
)

// LogAudit records an action and broadcasts it to websocket clients as
// "<module>_<action>d".
func LogAudit(db *sql.DB, hub *websocket.Hub, username, action, module, recordID, summary string) {
	logAudit(context.Background(), db, hub, username, "", action, module, recordID, summary)
}

func logAudit(ctx context.Context, db *sql.DB, hub *websocket.Hub, username, ip, action, module, recordID, summary string) {
	_, err := db.ExecContext(ctx, `INSERT INTO audit_log (username, action, module, record_id, summary, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		username, action, module, recordID, summary, ip, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"module": module, "record_id": recordID}).Error("audit log")
	}
	if hub != nil {
		hub.BroadcastChange(module, action, recordID)
	}
}

// LogSimpleAudit logs an audit entry using the request's caller and address.
func LogSimpleAudit(db *sql.DB, hub *websocket.Hub, r *http.Request, action, module, recordID, summary string) {
	logAudit(r.Context(), db, hub, GetUsername(r), GetClientIP(r), action, module, recordID, summary)
}

// LogDataExport logs a generated document.
func LogDataExport(db *sql.DB, hub *websocket.Hub, r *http.Request, module, filename string, recordCount int) {
	summary := fmt.Sprintf("Exported %d rows to %s", recordCount, filename)
	LogSimpleAudit(db, hub, r, ActionExport, module, filename, summary)
}

// GetUsername returns the caller recorded by the auth middleware, or
// "system" for keyless access.
func GetUsername(r *http.Request) string {
	if u, ok := r.Context().Value(server.CtxUsername).(string); ok && u != "" {
		return u
	}
	return "system"
}

// GetClientIP extracts the real client IP from the request (handles proxies).
func GetClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Recent lists audit entries newest first, optionally for one module.
func Recent(ctx context.Context, db *sql.DB, module string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id, COALESCE(username,''), action, module, COALESCE(record_id,''), COALESCE(summary,''),
		COALESCE(ip_address,''), COALESCE(created_at,'') FROM audit_log`
	var args []interface{}
	if module != "" {
		query += " WHERE module = ?"
		args = append(args, module)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &e.Module, &e.RecordID, &e.Summary, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CleanupOldAuditLogs deletes audit log entries older than retentionDays.
func CleanupOldAuditLogs(ctx context.Context, db *sql.DB, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339)
	result, err := db.ExecContext(ctx, "DELETE FROM audit_log WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

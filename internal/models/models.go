package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// Asset is a physical piece of equipment under maintenance.
type Asset struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Type            string            `json:"type"`
	Location        string            `json:"location"`
	Status          string            `json:"status"`
	Manufacturer    string            `json:"manufacturer,omitempty"`
	Model           string            `json:"model,omitempty"`
	InstallDate     string            `json:"install_date,omitempty"`
	LastMaintenance *string           `json:"last_maintenance,omitempty"`
	NextMaintenance *string           `json:"next_maintenance,omitempty"`
	Specifications  map[string]string `json:"specifications,omitempty"`
}

// WorkOrder is a unit of maintenance work. Dates are ISO strings
// ("2006-01-02" or RFC 3339); DueDate is the field plan exports filter on.
type WorkOrder struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	AssetID     string  `json:"asset_id"`
	AssetName   string  `json:"asset_name"`
	Source      string  `json:"source"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	CreatedAt   string  `json:"created_at"`
	DueDate     string  `json:"due_date"`
	StartedAt   *string `json:"started_at"`
	CompletedAt *string `json:"completed_at"`
	Assignee    string  `json:"assignee,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	Findings    string  `json:"findings,omitempty"`
	PolicyID    string  `json:"policy_id,omitempty"`
}

// ScheduledEvent is a calendar-anchored maintenance occurrence that has not
// necessarily been materialized into a work order.
type ScheduledEvent struct {
	ID        int64  `json:"id,omitempty"`
	Date      string `json:"date"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	AssetID   string `json:"asset_id,omitempty"`
	AssetName string `json:"asset_name,omitempty"`
	PolicyID  string `json:"policy_id,omitempty"`
}

// TBMPolicy schedules time-based maintenance for an asset every IntervalDays
// starting at NextDueDate.
type TBMPolicy struct {
	ID           string   `json:"id"`
	AssetID      string   `json:"asset_id"`
	IntervalDays int      `json:"interval_days"`
	NextDueDate  string   `json:"next_due_date"`
	LastExecuted *string  `json:"last_executed,omitempty"`
	IsActive     bool     `json:"is_active"`
	Checklist    []string `json:"checklist,omitempty"`
}

// PlanExport is one recorded maintenance-plan export.
type PlanExport struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	ReferenceDate string `json:"reference_date"`
	Label         string `json:"label"`
	Filename      string `json:"filename"`
	RowCount      int    `json:"row_count"`
	Location      string `json:"location,omitempty"`
	CreatedBy     string `json:"created_by"`
	CreatedAt     string `json:"created_at"`
}

// APIKey is an API key record; the plaintext key is only ever returned once,
// in Key, right after creation.
type APIKey struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	KeyPrefix string  `json:"key_prefix"`
	Key       string  `json:"key,omitempty"`
	Enabled   bool    `json:"enabled"`
	CreatedAt string  `json:"created_at"`
	LastUsed  *string `json:"last_used"`
}

// AuditEntry is one row of the audit log.
type AuditEntry struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Module    string `json:"module"`
	RecordID  string `json:"record_id"`
	Summary   string `json:"summary"`
	IPAddress string `json:"ip_address"`
	CreatedAt string `json:"created_at"`
}

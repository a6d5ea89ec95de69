package planning

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPeriodKind = errors.New("unknown period kind")
	ErrUnknownSource     = errors.New("unknown work order source")
	ErrUnknownStatus     = errors.New("unknown work order status")
	ErrUnknownPriority   = errors.New("unknown priority")
	ErrUnknownEventType  = errors.New("unknown event type")
	ErrUnknownLocale     = errors.New("unknown locale")
)

// Source is where a work order came from.
type Source string

const (
	SourceTBM    Source = "TBM"
	SourceCBM    Source = "CBM"
	SourceManual Source = "Manual"
)

// Status is the lifecycle state shown in an export row. StatusPlanned only
// exists on rows produced from scheduled events.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusOverdue    Status = "overdue"
	StatusPlanned    Status = "planned"
)

// Priority of a work order.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// MaintenanceType is the maintenance-type column of a plan row.
type MaintenanceType string

const (
	TypeTBM    MaintenanceType = "TBM"
	TypeCBM    MaintenanceType = "CBM"
	TypeManual MaintenanceType = "Manual"
)

func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceTBM, SourceCBM, SourceManual:
		return Source(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// ParseStatus accepts the work order statuses. "planned" is not a work order
// status and is rejected.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusInProgress, StatusDone, StatusOverdue:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPriority, s)
}

// ParseEventType accepts the scheduled event types (TBM, CBM).
func ParseEventType(s string) (MaintenanceType, error) {
	switch MaintenanceType(s) {
	case TypeTBM, TypeCBM:
		return MaintenanceType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEventType, s)
}

func typeForSource(s Source) MaintenanceType {
	switch s {
	case SourceTBM:
		return TypeTBM
	case SourceCBM:
		return TypeCBM
	default:
		return TypeManual
	}
}

// Locale selects the label set used when a report is rendered.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleVI Locale = "vi"
)

// ParseLocale maps "" to English.
func ParseLocale(s string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en":
		return LocaleEN, nil
	case "vi":
		return LocaleVI, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLocale, s)
}

// Labels is the display text for one locale. Every decision (dedup, colouring)
// is made on the enums; labels are applied only when a document is written.
type Labels struct {
	SheetName      string
	Title          string
	ExportedPrefix string
	Unassigned     string
	Headers        [10]string

	WeekLabel    string // fmt verb receives the dd/mm/yyyy reference date
	MonthLabel   string // fmt verb receives MM/yyyy
	QuarterLabel func(q, year int, first, last string) string

	Types      map[MaintenanceType]string
	Statuses   map[Status]string
	Priorities map[Priority]string

	SummarySheet   string
	SummaryHeaders [12]string
}

var labelSets = map[Locale]*Labels{
	LocaleEN: {
		SheetName:      "Maintenance Plan",
		Title:          "Maintenance Plan — %s",
		ExportedPrefix: "Exported: ",
		Unassigned:     "Unassigned",
		Headers: [10]string{
			"Sequence No.", "Asset Code", "Asset Name", "Location", "Maintenance Type",
			"Due Date", "Work Description", "Assignee", "Priority", "Status",
		},
		WeekLabel:  "Week, day %s",
		MonthLabel: "Month %s",
		QuarterLabel: func(_, _ int, first, last string) string {
			return first + " - " + last
		},
		Types: map[MaintenanceType]string{
			TypeTBM:    "TBM (Periodic)",
			TypeCBM:    "CBM (Condition-based)",
			TypeManual: "Manual",
		},
		Statuses: map[Status]string{
			StatusOpen:       "Open",
			StatusInProgress: "In progress",
			StatusDone:       "Done",
			StatusOverdue:    "Overdue",
			StatusPlanned:    "Planned",
		},
		Priorities: map[Priority]string{
			PriorityLow:      "Low",
			PriorityMedium:   "Medium",
			PriorityHigh:     "High",
			PriorityCritical: "Critical",
		},
		SummarySheet: "Work Orders",
		SummaryHeaders: [12]string{
			"No.", "WO ID", "Title", "Asset Code", "Asset Name", "Source",
			"Status", "Priority", "Assignee", "Created", "Due", "Completed",
		},
	},
	LocaleVI: {
		SheetName:      "Kế hoạch bảo trì",
		Title:          "Kế hoạch bảo trì - %s",
		ExportedPrefix: "Ngày xuất: ",
		Unassigned:     "Chưa phân công",
		Headers: [10]string{
			"STT", "Mã thiết bị", "Tên thiết bị", "Vị trí", "Loại bảo trì",
			"Ngày dự kiến", "Mô tả công việc", "Người phụ trách", "Độ ưu tiên", "Trạng thái",
		},
		WeekLabel:  "Tuần ngày %s",
		MonthLabel: "Tháng %s",
		QuarterLabel: func(q, year int, _, _ string) string {
			return fmt.Sprintf("Quý %d/%d", q, year)
		},
		Types: map[MaintenanceType]string{
			TypeTBM:    "TBM (Định kỳ)",
			TypeCBM:    "CBM (Theo tình trạng)",
			TypeManual: "Thủ công",
		},
		Statuses: map[Status]string{
			StatusOpen:       "Đang mở",
			StatusInProgress: "Đang xử lý",
			StatusDone:       "Hoàn thành",
			StatusOverdue:    "Quá hạn",
			StatusPlanned:    "Kế hoạch",
		},
		Priorities: map[Priority]string{
			PriorityLow:      "Thấp",
			PriorityMedium:   "Trung bình",
			PriorityHigh:     "Cao",
			PriorityCritical: "Khẩn cấp",
		},
		SummarySheet: "Danh sách WO",
		SummaryHeaders: [12]string{
			"STT", "Mã WO", "Tiêu đề", "Mã thiết bị", "Tên thiết bị", "Nguồn",
			"Trạng thái", "Độ ưu tiên", "Người phụ trách", "Ngày tạo", "Hạn hoàn thành", "Ngày hoàn thành",
		},
	},
}

// LabelsFor returns the label set for loc, falling back to English.
func LabelsFor(loc Locale) *Labels {
	if l, ok := labelSets[loc]; ok {
		return l
	}
	return labelSets[LocaleEN]
}

// StatusLabel returns the display text for s in loc.
func StatusLabel(loc Locale, s Status) string {
	return LabelsFor(loc).Statuses[s]
}

// PriorityLabel returns the display text for p in loc.
func PriorityLabel(loc Locale, p Priority) string {
	return LabelsFor(loc).Priorities[p]
}

// TypeLabel returns the display text for t in loc.
func TypeLabel(loc Locale, t MaintenanceType) string {
	return LabelsFor(loc).Types[t]
}

package validation

// Enum values accepted by the API. These MUST match the CHECK constraints in
// the store migrations.
var (
	ValidAssetStatuses = []string{"online", "warning", "critical", "offline"}
	ValidWOSources     = []string{"TBM", "CBM", "Manual"}
	ValidWOStatuses    = []string{"open", "in_progress", "done", "overdue"}
	ValidWOPriorities  = []string{"low", "medium", "high", "critical"}
	ValidEventTypes    = []string{"TBM", "CBM"}
	ValidPeriodKinds   = []string{"week", "month", "quarter"}
	ValidLocales       = []string{"en", "vi"}
)

const (
	MaxPeriodOffset    = 24
	MaxTBMIntervalDays = 3650
	MaxTitleLength     = 200
	MaxNotesLength     = 10000
	MaxChecklistItems  = 50
)

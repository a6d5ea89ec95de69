package validation

import "testing"

func TestValidationErrors(t *testing.T) {
	ve := &ValidationErrors{}
	RequireField(ve, "title", "  ")
	ValidateEnum(ve, "status", "closed", ValidWOStatuses)
	ValidateEnum(ve, "priority", "", ValidWOPriorities)
	ValidateDate(ve, "date", "2026-02-30")
	ValidateDateOrTimestamp(ve, "due_date", "2026-01-15T09:00:00Z")
	ValidateDateOrTimestamp(ve, "created_at", "15/01/2026")
	ValidatePositiveInt(ve, "interval_days", 0)
	ValidateIntRange(ve, "offset", MaxPeriodOffset+1, -MaxPeriodOffset, MaxPeriodOffset)
	ValidateMaxLength(ve, "notes", "abcdef", 5)
	ValidateID(ve, "asset_id", "AST/001")
	ValidateID(ve, "id", "WO-2026-001")

	want := []string{"title", "status", "date", "created_at", "interval_days", "offset", "notes", "asset_id"}
	if !ve.HasErrors() {
		t.Fatal("expected errors")
	}
	if len(ve.Errors) != len(want) {
		t.Fatalf("got %d errors (%s), want %d", len(ve.Errors), ve.Error(), len(want))
	}
	for i, f := range want {
		if ve.Errors[i].Field != f {
			t.Errorf("error %d: got field %q want %q", i, ve.Errors[i].Field, f)
		}
	}
}

func TestValidateEnumAcceptsKnownValues(t *testing.T) {
	ve := &ValidationErrors{}
	for _, s := range ValidAssetStatuses {
		ValidateEnum(ve, "status", s, ValidAssetStatuses)
	}
	for _, s := range ValidEventTypes {
		ValidateEnum(ve, "type", s, ValidEventTypes)
	}
	ValidateDate(ve, "date", "2024-02-29")
	if ve.HasErrors() {
		t.Errorf("unexpected errors: %s", ve.Error())
	}
}

package planning

import (
	"fmt"
	"time"
)

// PeriodKind is the reporting window size.
type PeriodKind string

const (
	PeriodWeek    PeriodKind = "week"
	PeriodMonth   PeriodKind = "month"
	PeriodQuarter PeriodKind = "quarter"
)

// PeriodKinds lists the kinds in menu order.
var PeriodKinds = []PeriodKind{PeriodWeek, PeriodMonth, PeriodQuarter}

func ParsePeriodKind(s string) (PeriodKind, error) {
	switch PeriodKind(s) {
	case PeriodWeek, PeriodMonth, PeriodQuarter:
		return PeriodKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriodKind, s)
}

// Period is a resolved reporting window. Start and End are midnight of the
// first and last day, both inclusive, in the reference date's location.
type Period struct {
	Kind      PeriodKind `json:"kind"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Label     string     `json:"label"`
	Reference time.Time  `json:"reference"`
}

// Contains reports whether t falls on a day inside the window. Time of day
// is ignored.
func (p Period) Contains(t time.Time) bool {
	d := startOfDay(t.In(p.Start.Location()))
	return !d.Before(p.Start) && !d.After(p.End)
}

// Tag is the period name used in export filenames.
func (p Period) Tag() string {
	switch p.Kind {
	case PeriodWeek:
		return "Week"
	case PeriodMonth:
		return "Month"
	case PeriodQuarter:
		return "Quarter"
	}
	return string(p.Kind)
}

// ResolvePeriod computes the window of the given kind that contains ref.
// Weeks run Monday to Sunday. The week label is built from ref itself, not
// from the resolved Monday.
func ResolvePeriod(kind PeriodKind, ref time.Time, loc Locale) (Period, error) {
	labels := LabelsFor(loc)
	p := Period{Kind: kind, Reference: ref}
	day := startOfDay(ref)

	switch kind {
	case PeriodWeek:
		// time.Weekday is Sunday-based; shift so Monday is 0.
		back := (int(day.Weekday()) + 6) % 7
		p.Start = day.AddDate(0, 0, -back)
		p.End = p.Start.AddDate(0, 0, 6)
		p.Label = fmt.Sprintf(labels.WeekLabel, ref.Format(DisplayDateLayout))
	case PeriodMonth:
		p.Start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		p.End = p.Start.AddDate(0, 1, -1)
		p.Label = fmt.Sprintf(labels.MonthLabel, ref.Format("01/2006"))
	case PeriodQuarter:
		q := (int(day.Month())-1)/3 + 1
		first := time.Month((q-1)*3 + 1)
		p.Start = time.Date(day.Year(), first, 1, 0, 0, 0, 0, day.Location())
		p.End = p.Start.AddDate(0, 3, -1)
		p.Label = labels.QuarterLabel(q, day.Year(), p.Start.Format("01/2006"), p.End.Format("01/2006"))
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriodKind, kind)
	}
	return p, nil
}

// Advance moves ref by offset periods of the given kind. Month and quarter
// steps clamp the day to the end of the target month, so Jan 31 + 1 month
// is Feb 28 (or 29).
func Advance(ref time.Time, kind PeriodKind, offset int) time.Time {
	switch kind {
	case PeriodWeek:
		return ref.AddDate(0, 0, 7*offset)
	case PeriodMonth:
		return addMonthsClamped(ref, offset)
	case PeriodQuarter:
		return addMonthsClamped(ref, 3*offset)
	}
	return ref
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	return target.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// PeriodOption is one entry of the export menu.
type PeriodOption struct {
	Kind   PeriodKind `json:"kind"`
	Offset int        `json:"offset"`
	Label  string     `json:"label"`
	Start  string     `json:"start"`
	End    string     `json:"end"`
}

// PeriodOptions lists the current and next window for every kind.
func PeriodOptions(now time.Time, loc Locale) []PeriodOption {
	var opts []PeriodOption
	for _, offset := range []int{0, 1} {
		for _, kind := range PeriodKinds {
			p, err := ResolvePeriod(kind, Advance(now, kind, offset), loc)
			if err != nil {
				continue
			}
			opts = append(opts, PeriodOption{
				Kind:   kind,
				Offset: offset,
				Label:  p.Label,
				Start:  p.Start.Format(ISODateLayout),
				End:    p.End.Format(ISODateLayout),
			})
		}
	}
	return opts
}

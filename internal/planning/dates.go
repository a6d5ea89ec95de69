package planning

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ISODateLayout     = "2006-01-02"
	DisplayDateLayout = "02/01/2006"
	TimestampLayout   = "02/01/2006 15:04"
	sqlTimeLayout     = "2006-01-02 15:04:05"
)

var errUnrecognizedDate = errors.New("unrecognized date format")

// DateError reports a date field that could not be parsed. Exports abort on
// the first one.
type DateError struct {
	Record string
	Field  string
	Value  string
	Err    error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s: invalid %s %q: %v", e.Record, e.Field, e.Value, e.Err)
}

func (e *DateError) Unwrap() error { return e.Err }

// ParseDay parses an ISO date, an RFC 3339 timestamp or a SQL timestamp and
// returns midnight of that calendar day in loc. Timestamps carrying an
// offset are converted to loc before truncation.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(ISODateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return startOfDay(t.In(loc)), nil
	}
	for _, layout := range []string{sqlTimeLayout, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return startOfDay(t), nil
		}
	}
	return time.Time{}, errUnrecognizedDate
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

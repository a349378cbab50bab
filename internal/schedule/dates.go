package schedule

import (
	"time"

	"github.com/banghwa/staffboard/internal/apperr"
)

// DateLayout is the fixed-width ISO calendar date used for every Event.Date.
// Fixed width keeps string comparison equal to chronological comparison.
const DateLayout = "2006-01-02"

// MinYear is the earliest accepted year. Year 1 would start at the zero
// time.Time, which rrule reads as "now".
const MinYear = 1900

// ParseDate parses a YYYY-MM-DD string as midnight UTC. Out-of-range days
// such as 2024-02-30 and years before MinYear are rejected.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, errBadDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Year() < MinYear {
		return time.Time{}, errBadDate
	}
	return t, nil
}

// FormatDate renders t's calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

var errBadDate = apperr.Invalid("date", "must be a calendar date in YYYY-MM-DD form")

// checkDate validates one named date field.
func checkDate(field, s string) *apperr.FieldError {
	if s == "" {
		return &apperr.FieldError{Field: field, Error: "required"}
	}
	if !ValidDate(s) {
		return &apperr.FieldError{Field: field, Error: "must be a calendar date in YYYY-MM-DD form"}
	}
	return nil
}

package schedule

import (
	"sort"
	"strings"

	"github.com/banghwa/staffboard/internal/apperr"
)

func (s Selector) Validate() error {
	var fields []apperr.FieldError
	if strings.TrimSpace(s.Title) == "" {
		fields = append(fields, apperr.FieldError{Field: "title", Error: "required"})
	}
	if fe := checkDate("startDate", s.Start); fe != nil {
		fields = append(fields, *fe)
	}
	if fe := checkDate("endDate", s.End); fe != nil {
		fields = append(fields, *fe)
	}
	if len(fields) == 0 && s.Start > s.End {
		fields = append(fields, apperr.FieldError{Field: "endDate", Error: "must not be before startDate"})
	}
	if len(fields) > 0 {
		return apperr.NewValidationError(fields...)
	}
	return nil
}

// Matches reports whether e has exactly the selector's title and a date in
// the closed range. Dates compare as strings since they are fixed width.
func (s Selector) Matches(e Event) bool {
	return e.Title == s.Title && e.Date >= s.Start && e.Date <= s.End
}

// Select returns the events matched by s, leaving events untouched.
func Select(events []Event, s Selector) []Event {
	var out []Event
	for _, e := range events {
		if s.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// OnDate returns the events dated day.
func OnDate(events []Event, day string) []Event {
	var out []Event
	for _, e := range events {
		if e.Date == day {
			out = append(out, e)
		}
	}
	return out
}

// SortByDate orders events by date, then title, then id.
func SortByDate(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}

package schedule

import (
	"strings"

	"github.com/banghwa/staffboard/internal/apperr"
	"github.com/teambition/rrule-go"
)

// rrule weekdays indexed by the 0=Sunday convention used by clients.
var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Validate checks a recurrence before anything is generated or written.
func (r Recurrence) Validate() error {
	var fields []apperr.FieldError
	if strings.TrimSpace(r.Title) == "" {
		fields = append(fields, apperr.FieldError{Field: "title", Error: "required"})
	}
	if fe := checkDate("startDate", r.Start); fe != nil {
		fields = append(fields, *fe)
	}
	if fe := checkDate("endDate", r.End); fe != nil {
		fields = append(fields, *fe)
	}
	if r.Weekday < 0 || r.Weekday > 6 {
		fields = append(fields, apperr.FieldError{Field: "dayOfWeek", Error: "must be 0 (Sunday) through 6 (Saturday)"})
	}
	if len(fields) == 0 && r.Start > r.End {
		fields = append(fields, apperr.FieldError{Field: "endDate", Error: "must not be before startDate"})
	}
	if len(fields) > 0 {
		return apperr.NewValidationError(fields...)
	}
	return nil
}

// Dates expands r into its occurrence dates in ascending order. Both ends of
// the range are inclusive; a range containing no matching weekday yields an
// empty slice.
func (r Recurrence) Dates() ([]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	start, _ := ParseDate(r.Start)
	end, _ := ParseDate(r.End)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Until:     end,
		Byweekday: []rrule.Weekday{weekdays[r.Weekday]},
	})
	if err != nil {
		return nil, err
	}
	occ := rule.All()
	dates := make([]string, 0, len(occ))
	for _, t := range occ {
		dates = append(dates, FormatDate(t))
	}
	return dates, nil
}

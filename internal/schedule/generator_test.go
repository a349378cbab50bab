package schedule

import (
	"testing"

	"github.com/banghwa/staffboard/internal/apperr"
	"github.com/stretchr/testify/require"
)

func TestRecurrenceDatesMondaysInMarch(t *testing.T) {
	r := Recurrence{Title: "국악수업", Start: "2024-03-01", End: "2024-03-31", Weekday: 1}
	dates, err := r.Dates()
	require.NoError(t, err)
	require.Equal(t, []string{"2024-03-04", "2024-03-11", "2024-03-18", "2024-03-25"}, dates)
}

func TestRecurrenceDatesBoundsAreInclusive(t *testing.T) {
	// 2024-03-04 and 2024-03-25 are both Mondays
	r := Recurrence{Title: "x", Start: "2024-03-04", End: "2024-03-25", Weekday: 1}
	dates, err := r.Dates()
	require.NoError(t, err)
	require.Equal(t, "2024-03-04", dates[0])
	require.Equal(t, "2024-03-25", dates[len(dates)-1])

	single := Recurrence{Title: "x", Start: "2024-03-04", End: "2024-03-04", Weekday: 1}
	dates, err = single.Dates()
	require.NoError(t, err)
	require.Equal(t, []string{"2024-03-04"}, dates)
}

func TestRecurrenceDatesCrossYearBoundary(t *testing.T) {
	r := Recurrence{Title: "x", Start: "2024-12-20", End: "2025-01-10", Weekday: 5}
	dates, err := r.Dates()
	require.NoError(t, err)
	require.Equal(t, []string{"2024-12-20", "2024-12-27", "2025-01-03", "2025-01-10"}, dates)
}

func TestRecurrenceDatesLeapDay(t *testing.T) {
	// 2024-02-29 is a Thursday
	r := Recurrence{Title: "x", Start: "2024-02-26", End: "2024-03-03", Weekday: 4}
	dates, err := r.Dates()
	require.NoError(t, err)
	require.Equal(t, []string{"2024-02-29"}, dates)
}

func TestRecurrenceDatesNoMatchingWeekday(t *testing.T) {
	// Mon..Wed contains no Saturday
	r := Recurrence{Title: "x", Start: "2024-03-04", End: "2024-03-06", Weekday: 6}
	dates, err := r.Dates()
	require.NoError(t, err)
	require.Empty(t, dates)
}

func TestRecurrenceValidate(t *testing.T) {
	cases := []struct {
		name  string
		r     Recurrence
		field string
	}{
		{"blank title", Recurrence{Title: "  ", Start: "2024-03-01", End: "2024-03-31", Weekday: 1}, "title"},
		{"bad start", Recurrence{Title: "x", Start: "2024-3-1", End: "2024-03-31", Weekday: 1}, "startDate"},
		{"impossible end", Recurrence{Title: "x", Start: "2024-02-01", End: "2024-02-30", Weekday: 1}, "endDate"},
		{"missing end", Recurrence{Title: "x", Start: "2024-02-01", Weekday: 1}, "endDate"},
		{"weekday too big", Recurrence{Title: "x", Start: "2024-03-01", End: "2024-03-31", Weekday: 7}, "dayOfWeek"},
		{"weekday negative", Recurrence{Title: "x", Start: "2024-03-01", End: "2024-03-31", Weekday: -1}, "dayOfWeek"},
		{"reversed range", Recurrence{Title: "x", Start: "2024-03-31", End: "2024-03-01", Weekday: 1}, "endDate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.r.Dates()
			require.Error(t, err)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Contains(t, ve.FieldMap(), tc.field)
		})
	}
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2024-03-04")
	require.NoError(t, err)
	for _, bad := range []string{"", "2024-3-4", "2024/03/04", "2023-02-29", "2024-13-01", "2024-03-04T00:00:00Z", "0001-01-01", "1899-12-31"} {
		require.False(t, ValidDate(bad), bad)
	}
	require.True(t, ValidDate("1900-01-01"))
}

func TestRecurrenceDatesRejectsZeroDateStart(t *testing.T) {
	_, err := Recurrence{Title: "국악수업", Start: "0001-01-01", End: "0001-02-01", Weekday: 1}.Dates()
	require.True(t, apperr.IsValidation(err))
	require.Equal(t, map[string]string{
		"startDate": "must be a calendar date in YYYY-MM-DD form",
		"endDate":   "must be a calendar date in YYYY-MM-DD form",
	}, err.(*apperr.ValidationError).FieldMap())
}

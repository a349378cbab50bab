// Package calendar lays out a month of schedule events as a Sunday-first
// grid and renders the schedule as an iCalendar feed.
package calendar

import (
	"fmt"
	"time"

	"github.com/banghwa/staffboard/internal/schedule"
)

// YearMonth identifies a month. Month is zero-based (0=January).
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Add returns the month n months away, rolling the year as needed.
func (ym YearMonth) Add(n int) YearMonth {
	t := time.Date(ym.Year, time.Month(ym.Month+1+n), 1, 0, 0, 0, 0, time.UTC)
	return YearMonth{Year: t.Year(), Month: int(t.Month()) - 1}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month+1)
}

// Cell is one slot of the grid. Leading blanks have Day 0 and no Date.
type Cell struct {
	Day     int              `json:"day"`
	Date    string           `json:"date,omitempty"`
	Weekday int              `json:"weekday"`
	Weekend bool             `json:"weekend,omitempty"`
	Today   bool             `json:"today,omitempty"`
	Events  []schedule.Event `json:"events,omitempty"`
}

// Blank reports whether c is a leading filler cell.
func (c Cell) Blank() bool { return c.Day == 0 }

// Month is a laid-out month: LeadingBlanks filler cells, then one cell per day.
type Month struct {
	YearMonth
	LeadingBlanks int       `json:"leadingBlanks"`
	Days          int       `json:"days"`
	Cells         []Cell    `json:"cells"`
	Prev          YearMonth `json:"prev"`
	Next          YearMonth `json:"next"`
}

// BuildMonth lays out the zero-based month0 of year. Each day cell carries the
// events whose date equals its ISO date, in input order; the cell dated today
// (YYYY-MM-DD) is flagged. Out-of-range months are normalized.
func BuildMonth(year, month0 int, events []schedule.Event, today string) Month {
	ym := YearMonth{Year: year, Month: month0}.Add(0)
	first := time.Date(ym.Year, time.Month(ym.Month+1), 1, 0, 0, 0, 0, time.UTC)
	blanks := int(first.Weekday())
	// day 0 of the following month is the last day of this one
	days := time.Date(ym.Year, time.Month(ym.Month+2), 0, 0, 0, 0, 0, time.UTC).Day()

	byDate := make(map[string][]schedule.Event)
	for _, e := range events {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	cells := make([]Cell, 0, blanks+days)
	for i := 0; i < blanks; i++ {
		cells = append(cells, Cell{Weekday: i})
	}
	for d := 1; d <= days; d++ {
		date := schedule.FormatDate(first.AddDate(0, 0, d-1))
		wd := (blanks + d - 1) % 7
		cells = append(cells, Cell{
			Day:     d,
			Date:    date,
			Weekday: wd,
			Weekend: wd == 0 || wd == 6,
			Today:   date == today,
			Events:  byDate[date],
		})
	}

	return Month{
		YearMonth:     ym,
		LeadingBlanks: blanks,
		Days:          days,
		Cells:         cells,
		Prev:          ym.Add(-1),
		Next:          ym.Add(1),
	}
}

// Today returns the current date in loc as YYYY-MM-DD.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return schedule.FormatDate(now.In(loc))
}

// Current returns the month containing now in loc.
func Current(now time.Time, loc *time.Location) YearMonth {
	if loc == nil {
		loc = time.UTC
	}
	t := now.In(loc)
	return YearMonth{Year: t.Year(), Month: int(t.Month()) - 1}
}

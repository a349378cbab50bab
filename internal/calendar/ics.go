package calendar

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/banghwa/staffboard/internal/schedule"
)

const productID = "-//staffboard//schedules//KO"

// FeedName is the calendar name shown by subscribing clients.
const FeedName = "협력강사 일정"

// WriteICS renders events as all-day VEVENTs. Events with an unparsable date
// are skipped.
func WriteICS(w io.Writer, events []schedule.Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(FeedName)

	for _, e := range events {
		day, err := schedule.ParseDate(e.Date)
		if err != nil {
			continue
		}
		ev := cal.AddEvent(e.ID + "@staffboard")
		ev.SetDtStampTime(stamp.UTC())
		if !e.CreatedAt.IsZero() {
			ev.SetCreatedTime(e.CreatedAt.UTC())
		}
		ev.SetSummary(e.Title)
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
	}
	return cal.SerializeTo(w)
}

package schedule

import "time"

// Collection is the backing collection of instructor schedule events.
const Collection = "schedules"

// Event is one dated class of a cooperating instructor. Several events may
// share the same title and date.
type Event struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Title     string    `json:"title" bson:"title"`
	Date      string    `json:"date" bson:"date"` // YYYY-MM-DD
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Recurrence describes a weekly series: every date in [Start, End] falling
// on Weekday (0=Sunday .. 6=Saturday).
type Recurrence struct {
	Title   string
	Start   string
	End     string
	Weekday int
}

// Selector picks events by exact title and closed date range.
type Selector struct {
	Title string
	Start string
	End   string
}

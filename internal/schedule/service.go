package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/banghwa/staffboard/internal/apperr"
	"github.com/banghwa/staffboard/internal/store"
	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/banghwa/staffboard/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
)

// Service owns every write to the schedules collection.
type Service struct {
	events *store.Collection[Event]
	now    func() time.Time
}

// NewService builds a Service over st. Pass the live hub so that writes reach
// subscribers.
func NewService(st store.Store) *Service {
	return &Service{events: store.NewCollection[Event](st, Collection), now: time.Now}
}

// List returns every event ordered by date.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	SortByDate(events)
	return events, nil
}

// Add stores a single event.
func (s *Service) Add(ctx context.Context, title, date string) (*Event, error) {
	title = strings.TrimSpace(title)
	var fields []apperr.FieldError
	if title == "" {
		fields = append(fields, apperr.FieldError{Field: "title", Error: "required"})
	}
	if fe := checkDate("date", date); fe != nil {
		fields = append(fields, *fe)
	}
	if len(fields) > 0 {
		return nil, apperr.NewValidationError(fields...)
	}
	ev := Event{Title: title, Date: date, CreatedAt: s.now().UTC()}
	id, err := s.events.Insert(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("add event: %w", err)
	}
	ev.ID = id
	return &ev, nil
}

// Remove deletes one event by id. A missing id yields an error wrapping
// store.ErrNotFound.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove event %s: %w", id, err)
	}
	return nil
}

// Generate writes one event per date of r in a single atomic batch and returns
// how many were written. A range without the weekday writes nothing.
func (s *Service) Generate(ctx context.Context, r Recurrence) (int, error) {
	r.Title = strings.TrimSpace(r.Title)
	dates, err := r.Dates()
	if err != nil {
		return 0, err
	}
	if len(dates) == 0 {
		return 0, nil
	}
	now := s.now().UTC()
	b := store.NewBatch()
	for _, d := range dates {
		b.Create("", Event{Title: r.Title, Date: d, CreatedAt: now})
	}
	if err := s.events.Commit(ctx, b); err != nil {
		return 0, fmt.Errorf("generate events: %w", err)
	}
	metrics.EventsGenerated.Add(float64(len(dates)))
	logger.Infow("schedule: generated recurring events", "title", r.Title, "weekday", r.Weekday, "count", len(dates))
	return len(dates), nil
}

// BulkDelete removes every event matched by sel after c approves. Nothing is
// written when the selection is empty or the prompt is declined.
func (s *Service) BulkDelete(ctx context.Context, sel Selector, c Confirmer) (int, error) {
	matched, err := s.selectForBulk(ctx, &sel)
	if err != nil || len(matched) == 0 {
		return 0, err
	}
	prompt := fmt.Sprintf("Delete %d %q events between %s and %s?", len(matched), sel.Title, sel.Start, sel.End)
	if !c.Confirm(prompt) {
		return 0, apperr.ErrNotConfirmed
	}
	b := store.NewBatch()
	for _, e := range matched {
		b.Delete(e.ID)
	}
	if err := s.events.Commit(ctx, b); err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	logger.Infow("schedule: bulk delete", "title", sel.Title, "from", sel.Start, "to", sel.End, "count", len(matched))
	return len(matched), nil
}

// BulkMove sets the date of every event matched by sel to dest after c
// approves. Events already on dest are counted as moved.
func (s *Service) BulkMove(ctx context.Context, sel Selector, dest string, c Confirmer) (int, error) {
	if fe := checkDate("targetDate", dest); fe != nil {
		if err := sel.Validate(); err != nil {
			ve := err.(*apperr.ValidationError)
			return 0, apperr.NewValidationError(append(ve.Fields, *fe)...)
		}
		return 0, apperr.NewValidationError(*fe)
	}
	matched, err := s.selectForBulk(ctx, &sel)
	if err != nil || len(matched) == 0 {
		return 0, err
	}
	prompt := fmt.Sprintf("Move %d %q events between %s and %s to %s?", len(matched), sel.Title, sel.Start, sel.End, dest)
	if !c.Confirm(prompt) {
		return 0, apperr.ErrNotConfirmed
	}
	b := store.NewBatch()
	for _, e := range matched {
		b.Update(e.ID, bson.M{"date": dest})
	}
	if err := s.events.Commit(ctx, b); err != nil {
		return 0, fmt.Errorf("bulk move: %w", err)
	}
	logger.Infow("schedule: bulk move", "title", sel.Title, "from", sel.Start, "to", sel.End, "dest", dest, "count", len(matched))
	return len(matched), nil
}

func (s *Service) selectForBulk(ctx context.Context, sel *Selector) ([]Event, error) {
	sel.Title = strings.TrimSpace(sel.Title)
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return Select(events, *sel), nil
}

// Package export renders the schedules collection as an iCalendar feed and
// publishes it to object storage.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/banghwa/staffboard/internal/calendar"
	"github.com/banghwa/staffboard/internal/schedule"
	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/robfig/cron/v3"
)

const contentType = "text/calendar; charset=utf-8"

// ErrNoObjectStore is returned by Publish when no object storage is configured.
var ErrNoObjectStore = errors.New("object storage not configured")

// ObjectStore is the subset of storage.MinIOStorage the publisher needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Result describes one published feed.
type Result struct {
	Key    string    `json:"key"`
	URL    string    `json:"url"`
	Events int       `json:"events"`
	At     time.Time `json:"publishedAt"`
}

type Publisher struct {
	events  *schedule.Service
	objects ObjectStore
	key     string
	expiry  time.Duration
	now     func() time.Time
}

// NewPublisher builds a Publisher. objects may be nil, in which case only
// Render is usable.
func NewPublisher(events *schedule.Service, objects ObjectStore, key string, expiry time.Duration) *Publisher {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Publisher{events: events, objects: objects, key: key, expiry: expiry, now: time.Now}
}

// Render writes the current feed to w and returns the number of events.
func (p *Publisher) Render(ctx context.Context, w io.Writer) (int, error) {
	events, err := p.events.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := calendar.WriteICS(w, events, p.now()); err != nil {
		return 0, fmt.Errorf("render ics: %w", err)
	}
	return len(events), nil
}

// Publish uploads the feed under the configured key and returns a presigned URL.
func (p *Publisher) Publish(ctx context.Context) (*Result, error) {
	if p.objects == nil {
		return nil, ErrNoObjectStore
	}
	var buf bytes.Buffer
	n, err := p.Render(ctx, &buf)
	if err != nil {
		return nil, err
	}
	size := int64(buf.Len())
	if err := p.objects.UploadFile(ctx, p.key, &buf, size, contentType); err != nil {
		return nil, err
	}
	url, err := p.objects.GetPresignedURL(ctx, p.key, p.expiry)
	if err != nil {
		return nil, err
	}
	logger.Infow("export: published calendar feed", "key", p.key, "events", n, "bytes", size)
	return &Result{Key: p.key, URL: url, Events: n, At: p.now().UTC()}, nil
}

// Schedule publishes on the given cron spec until the returned stop function
// is called. Failures are logged and the next run proceeds normally.
func (p *Publisher) Schedule(spec string, loc *time.Location) (stop func(), err error) {
	if p.objects == nil {
		return nil, ErrNoObjectStore
	}
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := p.Publish(ctx); err != nil {
			logger.Errorw("export: scheduled publish failed", err, "key", p.key)
		}
	}); err != nil {
		return nil, fmt.Errorf("export cron %q: %w", spec, err)
	}
	c.Start()
	logger.Infof("export: publishing %s on %q (%s)", p.key, spec, loc)
	return func() { <-c.Stop().Done() }, nil
}

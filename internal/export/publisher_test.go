package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/banghwa/staffboard/internal/schedule"
	"github.com/banghwa/staffboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	uploadErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	f.types[key] = contentType
	return nil
}

func (f *fakeObjects) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://objects.test/" + key + "?expires=" + expires.String(), nil
}

func (f *fakeObjects) get(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[key]
}

func seeded(t *testing.T) *schedule.Service {
	t.Helper()
	svc := schedule.NewService(store.NewMemoryStore())
	_, err := svc.Generate(context.Background(), schedule.Recurrence{Title: "국악수업", Start: "2024-03-01", End: "2024-03-31", Weekday: 1})
	require.NoError(t, err)
	return svc
}

func TestRender(t *testing.T) {
	p := NewPublisher(seeded(t), nil, "calendar/schedules.ics", 0)
	var buf bytes.Buffer
	n, err := p.Render(context.Background(), &buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 4)
}

func TestPublishUploadsFeed(t *testing.T) {
	objects := newFakeObjects()
	p := NewPublisher(seeded(t), objects, "calendar/schedules.ics", time.Hour)

	res, err := p.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "calendar/schedules.ics", res.Key)
	assert.Equal(t, 4, res.Events)
	assert.Contains(t, res.URL, "calendar/schedules.ics")

	body := objects.get("calendar/schedules.ics")
	require.NotEmpty(t, body)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")
	assert.Equal(t, contentType, objects.types["calendar/schedules.ics"])
}

func TestPublishWithoutObjectStore(t *testing.T) {
	p := NewPublisher(seeded(t), nil, "k", time.Hour)
	_, err := p.Publish(context.Background())
	require.ErrorIs(t, err, ErrNoObjectStore)

	_, err = p.Schedule("@every 1m", nil)
	require.ErrorIs(t, err, ErrNoObjectStore)
}

func TestPublishUploadFailure(t *testing.T) {
	objects := newFakeObjects()
	objects.uploadErr = errors.New("bucket gone")
	p := NewPublisher(seeded(t), objects, "k", time.Hour)
	_, err := p.Publish(context.Background())
	require.ErrorContains(t, err, "bucket gone")
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	p := NewPublisher(seeded(t), newFakeObjects(), "k", time.Hour)
	_, err := p.Schedule("not a cron spec", time.UTC)
	require.Error(t, err)
}

func TestSchedulePublishes(t *testing.T) {
	objects := newFakeObjects()
	p := NewPublisher(seeded(t), objects, "feed.ics", time.Hour)
	stop, err := p.Schedule("@every 1s", time.UTC)
	require.NoError(t, err)
	defer stop()

	require.Eventually(t, func() bool { return len(objects.get("feed.ics")) > 0 }, 5*time.Second, 50*time.Millisecond)
}

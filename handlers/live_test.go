package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/banghwa/staffboard/internal/schedule"
	"github.com/banghwa/staffboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

// readEvent reads one server-sent event, skipping keep-alive pings.
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && ev.name != "":
			if ev.name == "ping" {
				ev = sseEvent{}
				continue
			}
			return ev
		}
	}
}

func TestLiveStreamsSnapshots(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.g)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/live/schedules", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	r := bufio.NewReader(resp.Body)

	ev := readEvent(t, r)
	require.Equal(t, "snapshot", ev.name)
	var events []schedule.Event
	require.NoError(t, json.Unmarshal([]byte(ev.data), &events))
	require.Empty(t, events)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Subscriptions.WithLabelValues(schedule.Collection)))

	_, err = f.schedules.Add(context.Background(), "영어수업", "2024-03-11")
	require.NoError(t, err)

	ev = readEvent(t, r)
	require.Equal(t, "snapshot", ev.name)
	require.NoError(t, json.Unmarshal([]byte(ev.data), &events))
	require.Len(t, events, 1)
	require.Equal(t, "2024-03-11", events[0].Date)

	// the subscription is released once the client goes away
	cancel()
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Subscriptions.WithLabelValues(schedule.Collection)) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLiveUnknownCollection(t *testing.T) {
	f := newFixture(t)
	for _, coll := range []string{"users", "files_coop", "files_nope"} {
		w := f.do(t, http.MethodGet, "/api/v1/live/"+coll, "", nil)
		require.Equal(t, http.StatusNotFound, w.Code, coll)
	}
}

package live

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisBrokerPublishSubscribe(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()
	b := NewRedisBroker(client, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "schedules"))
	select {
	case got := <-ch:
		require.Equal(t, "schedules", got)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not received")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryBrokerCoalescesPerListener(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	// nobody is reading yet: publishing must not block
	for i := 0; i < 100; i++ {
		require.NoError(t, b.Publish(ctx, "schedules"))
	}
	require.NoError(t, b.Publish(ctx, "committees"))

	seen := map[string]int{}
	timeout := time.After(time.Second)
	for len(seen) < 2 {
		select {
		case name := <-ch:
			seen[name]++
		case <-timeout:
			t.Fatalf("missing notifications, got %v", seen)
		}
	}
	// the listener may already hold one "schedules" in flight when the rest arrive
	require.LessOrEqual(t, seen["schedules"], 2)
	require.Equal(t, 1, seen["committees"])
}

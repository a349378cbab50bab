package live

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis Pub/Sub channel used for change notifications.
const DefaultChannel = "staffboard:changes"

// RedisBroker publishes change notifications over Redis Pub/Sub so every
// backend instance sharing the database refreshes its own subscribers.
type RedisBroker struct {
	client  *redis.Client
	channel string
}

// NewRedisBroker creates a broker on channel. An empty channel uses DefaultChannel.
func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{client: client, channel: channel}
}

func (b *RedisBroker) Publish(ctx context.Context, coll string) error {
	return b.client.Publish(ctx, b.channel, coll).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan string, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	// wait for the subscription confirmation so no publish after return is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	msgs := ps.Channel()
	out := make(chan string)
	go func() {
		defer close(out)
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- m.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close is a no-op; the Redis client belongs to the connection context.
func (b *RedisBroker) Close() error { return nil }

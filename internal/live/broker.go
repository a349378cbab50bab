package live

import (
	"context"
	"sort"
	"sync"
)

// Broker carries "collection changed" notifications between writers and the
// hubs that refresh subscribers. Payloads are collection names only; readers
// reload the snapshot themselves.
type Broker interface {
	Publish(ctx context.Context, coll string) error
	// Subscribe returns a channel of changed collection names that is closed
	// when ctx is done.
	Subscribe(ctx context.Context) (<-chan string, error)
	Close() error
}

// MemoryBroker fans notifications out inside one process. Each listener
// coalesces repeated notifications for the same collection, so a slow
// listener never blocks publishers and never loses a collection.
type MemoryBroker struct {
	mu        sync.Mutex
	listeners map[*memListener]struct{}
}

type memListener struct {
	mu      sync.Mutex
	pending map[string]struct{}
	wake    chan struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{listeners: make(map[*memListener]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, coll string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for l := range b.listeners {
		l.mu.Lock()
		l.pending[coll] = struct{}{}
		l.mu.Unlock()
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context) (<-chan string, error) {
	l := &memListener{pending: make(map[string]struct{}), wake: make(chan struct{}, 1)}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()

	out := make(chan string)
	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.listeners, l)
			b.mu.Unlock()
			close(out)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.wake:
			}
			for _, name := range l.drain() {
				select {
				case out <- name:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (l *memListener) drain() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.pending))
	for n := range l.pending {
		names = append(names, n)
	}
	l.pending = make(map[string]struct{})
	sort.Strings(names)
	return names
}

func (b *MemoryBroker) Close() error { return nil }

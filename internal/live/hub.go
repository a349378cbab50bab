// Package live turns store writes into push snapshots for subscribed views.
package live

import (
	"context"
	"sync"

	"github.com/banghwa/staffboard/internal/store"
	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/banghwa/staffboard/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
)

// Unsubscribe releases a subscription. Calling it more than once is harmless.
type Unsubscribe func()

// Hub wraps a Store: successful writes publish a change notification, and Run
// reloads the snapshot of every changed collection for its subscribers.
// Reads pass straight through to the wrapped Store.
type Hub struct {
	store.Store
	broker Broker

	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]*subscriber
	// gen counts change notifications per collection. A snapshot is tagged
	// with the generation read before its List, so a slow load cannot
	// overwrite a newer one.
	gen map[string]uint64
}

type subscriber struct {
	mu       sync.Mutex
	closed   bool
	seen     uint64
	onChange func([]bson.M)
	onError  func(error)
}

func NewHub(st store.Store, broker Broker) *Hub {
	return &Hub{
		Store:  st,
		broker: broker,
		subs:   make(map[string]map[uint64]*subscriber),
		gen:    make(map[string]uint64),
	}
}

// Subscribe delivers the current snapshot of coll to onChange before it
// returns, then a fresh snapshot after every committed change until the
// returned Unsubscribe is called. A failed reload goes to onError (may be nil)
// and the subscriber keeps whatever it last received.
func (h *Hub) Subscribe(ctx context.Context, coll string, onChange func([]bson.M), onError func(error)) (Unsubscribe, error) {
	s := &subscriber{onChange: onChange, onError: onError}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[coll] == nil {
		h.subs[coll] = make(map[uint64]*subscriber)
	}
	h.subs[coll][id] = s
	gen := h.gen[coll]
	h.mu.Unlock()
	metrics.Subscriptions.WithLabelValues(coll).Inc()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[coll], id)
			if len(h.subs[coll]) == 0 {
				delete(h.subs, coll)
			}
			h.mu.Unlock()
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			metrics.Subscriptions.WithLabelValues(coll).Dec()
		})
	}

	docs, err := h.Store.List(ctx, coll)
	if err != nil {
		unsub()
		return nil, err
	}
	s.deliver(docs, gen)
	return unsub, nil
}

// Watch is Subscribe with snapshots decoded into T.
func Watch[T any](ctx context.Context, h *Hub, coll string, onChange func([]T), onError func(error)) (Unsubscribe, error) {
	return h.Subscribe(ctx, coll, func(docs []bson.M) {
		items, err := store.DecodeAll[T](docs)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(items)
	}, onError)
}

// Run consumes change notifications until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	changes, err := h.broker.Subscribe(ctx)
	if err != nil {
		return err
	}
	for coll := range changes {
		h.refresh(ctx, coll)
	}
	return ctx.Err()
}

func (h *Hub) refresh(ctx context.Context, coll string) {
	h.mu.Lock()
	h.gen[coll]++
	gen := h.gen[coll]
	targets := make([]*subscriber, 0, len(h.subs[coll]))
	for _, s := range h.subs[coll] {
		targets = append(targets, s)
	}
	h.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	docs, err := h.Store.List(ctx, coll)
	if err != nil {
		logger.Errorw("live: snapshot reload failed", err, "collection", coll, "subscribers", len(targets))
		metrics.SubscriptionErrors.WithLabelValues(coll).Inc()
		for _, s := range targets {
			s.fail(err)
		}
		return
	}
	for _, s := range targets {
		s.deliver(docs, gen)
	}
}

// deliver drops snapshots loaded before the one already delivered.
func (s *subscriber) deliver(docs []bson.M, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen < s.seen {
		return
	}
	s.seen = gen
	s.onChange(docs)
}

func (s *subscriber) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.onError == nil {
		return
	}
	s.onError(err)
}

func (h *Hub) Insert(ctx context.Context, coll string, doc bson.M) (string, error) {
	id, err := h.Store.Insert(ctx, coll, doc)
	if err != nil {
		return "", err
	}
	h.notify(ctx, coll)
	return id, nil
}

func (h *Hub) Update(ctx context.Context, coll, id string, fields bson.M) error {
	if err := h.Store.Update(ctx, coll, id, fields); err != nil {
		return err
	}
	h.notify(ctx, coll)
	return nil
}

func (h *Hub) Delete(ctx context.Context, coll, id string) error {
	if err := h.Store.Delete(ctx, coll, id); err != nil {
		return err
	}
	h.notify(ctx, coll)
	return nil
}

func (h *Hub) Commit(ctx context.Context, coll string, ops []store.Op) error {
	if err := h.Store.Commit(ctx, coll, ops); err != nil {
		metrics.BatchCommits.WithLabelValues(coll, "error").Inc()
		logger.Errorw("store: batch commit failed", err, "collection", coll, "ops", len(ops))
		return err
	}
	metrics.BatchCommits.WithLabelValues(coll, "ok").Inc()
	for _, op := range ops {
		metrics.BatchOps.WithLabelValues(coll, string(op.Kind)).Inc()
	}
	h.notify(ctx, coll)
	return nil
}

// notify publishes after a write already succeeded; a failed publish only
// delays subscribers until the next change, so it is logged and dropped.
func (h *Hub) notify(ctx context.Context, coll string) {
	if err := h.broker.Publish(ctx, coll); err != nil {
		logger.Warnw("live: publish failed", "collection", coll, "err", err)
	}
}

// Close closes the broker and then the wrapped store.
func (h *Hub) Close(ctx context.Context) error {
	_ = h.broker.Close()
	return h.Store.Close(ctx)
}

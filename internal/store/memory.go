package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// MemoryStore is an in-memory Store used by unit tests and as the local
// fallback when no MongoDB is configured. Documents are deep-copied on the way
// in and out so callers never share maps with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	colls map[string]map[string]bson.M
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{colls: make(map[string]map[string]bson.M)}
}

func (m *MemoryStore) coll(name string) map[string]bson.M {
	c, ok := m.colls[name]
	if !ok {
		c = make(map[string]bson.M)
		m.colls[name] = c
	}
	return c
}

// List returns every document ordered by id.
func (m *MemoryStore) List(ctx context.Context, coll string) ([]bson.M, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.colls[coll]
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]bson.M, 0, len(ids))
	for _, id := range ids {
		d, err := clone(c[id])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, coll, id string) (bson.M, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.colls[coll][id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(d)
}

func (m *MemoryStore) Insert(ctx context.Context, coll string, doc bson.M) (string, error) {
	d, err := clone(doc)
	if err != nil {
		return "", err
	}
	id := DocID(d)
	if id == "" {
		id = NewID()
		d[IDField] = id
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(coll)
	if _, exists := c[id]; exists {
		return "", ErrConflict
	}
	c[id] = d
	return id, nil
}

func (m *MemoryStore) Update(ctx context.Context, coll, id string, fields bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(coll)
	d, ok := c[id]
	if !ok {
		return ErrNotFound
	}
	next, err := merge(d, fields)
	if err != nil {
		return err
	}
	c[id] = next
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, coll, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(coll)
	if _, ok := c[id]; !ok {
		return ErrNotFound
	}
	delete(c, id)
	return nil
}

// Commit applies ops to a copy of the collection and swaps it in only when
// every op succeeded.
func (m *MemoryStore) Commit(ctx context.Context, coll string, ops []Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.coll(coll)
	work := make(map[string]bson.M, len(cur))
	for id, d := range cur {
		work[id] = d
	}
	for i, op := range ops {
		switch op.Kind {
		case OpCreate, OpSet:
			if op.Kind == OpCreate {
				if _, exists := work[op.ID]; exists {
					return fmt.Errorf("op %d (%s %s): %w", i, op.Kind, op.ID, ErrConflict)
				}
			}
			d, err := clone(op.Doc)
			if err != nil {
				return err
			}
			d[IDField] = op.ID
			work[op.ID] = d
		case OpUpdate:
			d, ok := work[op.ID]
			if !ok {
				return fmt.Errorf("op %d (%s %s): %w", i, op.Kind, op.ID, ErrNotFound)
			}
			next, err := merge(d, op.Fields)
			if err != nil {
				return err
			}
			work[op.ID] = next
		case OpDelete:
			delete(work, op.ID)
		default:
			return fmt.Errorf("op %d: unknown kind %q", i, op.Kind)
		}
	}
	m.colls[coll] = work
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close(ctx context.Context) error { return nil }

func merge(doc, fields bson.M) (bson.M, error) {
	next, err := clone(doc)
	if err != nil {
		return nil, err
	}
	add, err := clone(fields)
	if err != nil {
		return nil, err
	}
	for k, v := range add {
		if k == IDField {
			continue
		}
		next[k] = v
	}
	return next, nil
}

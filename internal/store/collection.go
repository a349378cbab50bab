package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Collection is a typed view of one named collection.
type Collection[T any] struct {
	st   Store
	name string
}

func NewCollection[T any](st Store, name string) *Collection[T] {
	return &Collection[T]{st: st, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	docs, err := c.st.List(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](docs)
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	d, err := c.st.Get(ctx, c.name, id)
	if err != nil {
		return zero, err
	}
	return Decode[T](d)
}

func (c *Collection[T]) Insert(ctx context.Context, v T) (string, error) {
	d, err := Encode(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", c.name, err)
	}
	return c.st.Insert(ctx, c.name, d)
}

func (c *Collection[T]) Update(ctx context.Context, id string, fields bson.M) error {
	return c.st.Update(ctx, c.name, id, fields)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.st.Delete(ctx, c.name, id)
}

// Commit writes b atomically. An empty batch is a successful no-op.
func (c *Collection[T]) Commit(ctx context.Context, b *Batch) error {
	if err := b.Err(); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}
	return c.st.Commit(ctx, c.name, b.Ops())
}

// DecodeAll decodes a snapshot into T values, preserving order.
func DecodeAll[T any](docs []bson.M) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := Decode[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

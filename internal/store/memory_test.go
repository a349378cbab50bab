package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Insert(ctx, "schedules", bson.M{"title": "국악수업", "date": "2024-03-04"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, "schedules", id)
	require.NoError(t, err)
	require.Equal(t, "국악수업", got["title"])
	require.Equal(t, id, DocID(got))

	// returned maps are copies
	got["title"] = "changed"
	again, err := s.Get(ctx, "schedules", id)
	require.NoError(t, err)
	require.Equal(t, "국악수업", again["title"])

	require.NoError(t, s.Update(ctx, "schedules", id, bson.M{"date": "2024-03-05"}))
	again, err = s.Get(ctx, "schedules", id)
	require.NoError(t, err)
	require.Equal(t, "2024-03-05", again["date"])
	require.Equal(t, "국악수업", again["title"])

	list, err := s.List(ctx, "schedules")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.Delete(ctx, "schedules", id))
	_, err = s.Get(ctx, "schedules", id)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, "schedules", id), ErrNotFound)
	require.ErrorIs(t, s.Update(ctx, "schedules", id, bson.M{"x": 1}), ErrNotFound)
}

func TestMemoryStoreInsertConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Insert(ctx, "c", bson.M{"_id": "a"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "c", bson.M{"_id": "a"})
	require.ErrorIs(t, err, ErrConflict)
}

func TestMemoryStoreCommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Insert(ctx, "c", bson.M{"_id": "keep", "v": 1})
	require.NoError(t, err)

	// the last op conflicts, so nothing in the batch may land
	ops := []Op{
		{Kind: OpSet, ID: "n1", Doc: bson.M{"v": 2}},
		{Kind: OpDelete, ID: "keep"},
		{Kind: OpCreate, ID: "n1", Doc: bson.M{"v": 3}},
	}
	err = s.Commit(ctx, "c", ops)
	require.ErrorIs(t, err, ErrConflict)

	list, err := s.List(ctx, "c")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "keep", DocID(list[0]))

	// update of a missing id also aborts
	err = s.Commit(ctx, "c", []Op{{Kind: OpUpdate, ID: "ghost", Fields: bson.M{"v": 9}}})
	require.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Commit(ctx, "c", []Op{
		{Kind: OpUpdate, ID: "keep", Fields: bson.M{"v": 5}},
		{Kind: OpCreate, ID: "n2", Doc: bson.M{"v": 6}},
		{Kind: OpDelete, ID: "missing-is-fine"},
	}))
	list, err = s.List(ctx, "c")
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestMemoryStoreCommitHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	err := s.Commit(ctx, "c", []Op{{Kind: OpSet, ID: "x", Doc: bson.M{}}})
	require.ErrorIs(t, err, context.Canceled)
}

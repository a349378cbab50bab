package committee

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/banghwa/staffboard/internal/apperr"
	"github.com/banghwa/staffboard/internal/live"
	"github.com/banghwa/staffboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeedsOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewService(st)

	rows, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	for i, r := range rows {
		require.Equal(t, i+1, r.Order)
		require.Equal(t, Grades[i], r.Grade)
		for _, c := range Columns {
			require.Empty(t, r.Cell(c.Key))
		}
	}

	rows, err = svc.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 7)

	docs, err := st.List(ctx, Collection)
	require.NoError(t, err)
	require.Len(t, docs, 7)
}

func TestConcurrentSeedingDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	a, b := NewService(st), NewService(st)

	var wg sync.WaitGroup
	for _, svc := range []*Service{a, b} {
		wg.Add(1)
		go func(svc *Service) {
			defer wg.Done()
			rows, err := svc.Load(ctx)
			assert.NoError(t, err)
			assert.Len(t, rows, 7)
		}(svc)
	}
	wg.Wait()

	docs, err := st.List(ctx, Collection)
	require.NoError(t, err)
	require.Len(t, docs, 7)
}

func TestUpdateCell(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore())
	rows, err := svc.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateCell(ctx, rows[2].ID, "art", "박선생"))
	require.NoError(t, svc.UpdateCell(ctx, rows[2].ID, "art", "이선생"))

	rows, err = svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "이선생", rows[2].Art)
	require.Equal(t, "3학년", rows[2].Grade)

	err = svc.UpdateCell(ctx, rows[2].ID, "grade", "x")
	require.True(t, apperr.IsValidation(err))

	err = svc.UpdateCell(ctx, "missing", "art", "x")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCellChangeReachesSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := live.NewHub(store.NewMemoryStore(), live.NewMemoryBroker())
	go func() { _ = hub.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	svc := NewService(hub)
	rows, err := svc.Load(ctx)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []Row
	unsub, err := Watch(ctx, hub, func(rows []Row) {
		mu.Lock()
		seen = rows
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, svc.UpdateCell(ctx, rows[0].ID, "insa", "김 교사, 최 교사"))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 7 && seen[0].Insa == "김 교사, 최 교사"
	}, time.Second, 10*time.Millisecond)
}

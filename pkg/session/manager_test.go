package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ultracard/pkg/domain"
	"github.com/aretw0/ultracard/pkg/ids"
	"github.com/aretw0/ultracard/pkg/layout"
	"github.com/aretw0/ultracard/pkg/modules"
	"github.com/aretw0/ultracard/pkg/ports"
	"github.com/aretw0/ultracard/pkg/registry"
	"github.com/aretw0/ultracard/pkg/session"
	"github.com/aretw0/ultracard/pkg/validator"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]domain.CardConfig
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, cardID string, card domain.CardConfig) error {
	time.Sleep(2 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]domain.CardConfig)
	}
	s.data[cardID] = card.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, cardID string) (domain.CardConfig, error) {
	time.Sleep(2 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if card, ok := s.data[cardID]; ok {
		return card.Clone(), nil
	}
	return domain.CardConfig{}, domain.ErrCardNotFound
}

func (s *SlowStore) Delete(ctx context.Context, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, cardID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for id := range s.data {
		out = append(out, id)
	}
	return out, nil
}

// countingLocker records lock usage without any real coordination.
type countingLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	failNext bool
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failNext {
		l.failNext = false
		return nil, errors.New("lock timeout")
	}
	l.locks++
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func newManager(store ports.ConfigStore, opts ...session.Option) *session.Manager {
	seq := ids.NewSequence()
	reg := registry.New(registry.WithIDGenerator(seq))
	modules.Register(reg)
	return session.NewManager(store,
		layout.NewEditor(reg, layout.WithIDGenerator(seq)),
		validator.New(reg, validator.WithIDGenerator(seq)),
		opts...,
	)
}

func TestManager_LoadOrCreate(t *testing.T) {
	store := &SlowStore{}
	mgr := newManager(store)
	ctx := context.Background()

	card, err := mgr.LoadOrCreate(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, domain.CardType, card.Type)
	require.Len(t, card.Layout.Rows, 1)
	assert.Len(t, card.Layout.Rows[0].Columns, 1)

	again, err := mgr.LoadOrCreate(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, card.Layout.Rows[0].ID, again.Layout.Rows[0].ID, "existing card is loaded, not recreated")
}

func TestManager_ApplySerialized(t *testing.T) {
	store := &SlowStore{}
	mgr := newManager(store)
	ctx := context.Background()
	id := "race-test"

	_, err := mgr.LoadOrCreate(ctx, id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	concurrentWrites := 10
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := mgr.Apply(ctx, id, layout.Operation{Op: layout.OpAddRow})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	card, err := mgr.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, card.Layout.Rows, concurrentWrites+1, "no read-modify-write was lost")
}

func TestManager_ApplyAddModule(t *testing.T) {
	mgr := newManager(&SlowStore{})
	ctx := context.Background()

	_, err := mgr.LoadOrCreate(ctx, "c")
	require.NoError(t, err)

	res, outcome, err := mgr.Apply(ctx, "c", layout.Operation{Op: layout.OpAddModule, Type: "text"})
	require.NoError(t, err)
	require.NotNil(t, outcome.Inserted)
	assert.True(t, res.Valid)

	card, err := mgr.Load(ctx, "c")
	require.NoError(t, err)
	_, m, ok := card.Layout.FindModule(outcome.Inserted.ID)
	require.True(t, ok)
	assert.Equal(t, "Sample Text", m.Fields["text"])
}

func TestManager_SaveRejectsInvalid(t *testing.T) {
	store := &SlowStore{}
	mgr := newManager(store)
	ctx := context.Background()

	card := domain.NewCard()
	card.Layout.Rows = []domain.Row{{
		ID: "r1",
		Columns: []domain.Column{{
			ID:      "c1",
			Modules: []domain.Module{{ID: "broken"}},
		}},
	}}

	res, err := mgr.Save(ctx, "bad", card)
	assert.ErrorIs(t, err, session.ErrInvalidCard)
	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, domain.CodeMissingType, res.Errors[0].Code)

	_, err = mgr.Load(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrCardNotFound, "invalid cards are not stored")
}

func TestManager_SaveStoresRepaired(t *testing.T) {
	mgr := newManager(&SlowStore{})
	ctx := context.Background()

	card := domain.NewCard()
	card.Layout.Rows = []domain.Row{{Columns: []domain.Column{{Modules: []domain.Module{{Type: "text"}}}}}}

	res, err := mgr.Save(ctx, "fixed", card)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warnings)

	stored, err := mgr.Load(ctx, "fixed")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Layout.Rows[0].ID)
	assert.NotEmpty(t, stored.Layout.Rows[0].Columns[0].Modules[0].ID)
}

func TestManager_Update(t *testing.T) {
	mgr := newManager(&SlowStore{})
	ctx := context.Background()

	err := mgr.Update(ctx, "missing", func(context.Context, *domain.CardConfig) error { return nil }, nil)
	assert.ErrorIs(t, err, domain.ErrCardNotFound)

	_, err = mgr.LoadOrCreate(ctx, "u")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = mgr.Update(ctx, "u", func(context.Context, *domain.CardConfig) error { return boom }, nil)
	assert.ErrorIs(t, err, boom)

	var res validator.Result
	err = mgr.Update(ctx, "u", func(_ context.Context, c *domain.CardConfig) error {
		c.CardBackground = "#000"
		return nil
	}, &res)
	require.NoError(t, err)
	assert.Equal(t, "#000", res.Config.CardBackground)
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &countingLocker{}
	mgr := newManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	_, err := mgr.LoadOrCreate(ctx, "d")
	require.NoError(t, err)
	_, err = mgr.Load(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, locker.unlocks)

	locker.failNext = true
	_, err = mgr.Load(ctx, "d")
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}

func TestManager_DeleteAndList(t *testing.T) {
	mgr := newManager(&SlowStore{})
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := mgr.LoadOrCreate(ctx, id)
		require.NoError(t, err)
	}
	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, mgr.Delete(ctx, "a"))
	ids, err = mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
	assert.NotNil(t, mgr.Store())
}

package state

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_RegisterReplacesPrior(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(NewMemoryStorage(), nil, nil)

	first := &Pending{Current: StateAwaitingLimit, Flow: FlowPrimary, Muscle: "biceps"}
	require.NoError(t, m.Register(ctx, 42, first))

	second := &Pending{Current: StateAwaitingQuery}
	require.NoError(t, m.Register(ctx, 42, second))

	got, err := m.Pending(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingQuery, got.Current)
	assert.Empty(t, got.Muscle)
	assert.Equal(t, int64(42), got.UserID)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestMachine_PendingNotFound(t *testing.T) {
	m := NewMachine(NewMemoryStorage(), nil, nil)

	_, err := m.Pending(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMachine_TransitionTo(t *testing.T) {
	ctx := context.Background()

	t.Run("idle user may enter awaiting limit", func(t *testing.T) {
		m := NewMachine(NewMemoryStorage(), nil, nil)

		err := m.TransitionTo(ctx, 1, &Pending{Current: StateAwaitingLimit, Flow: FlowPrimary, Muscle: "lats"})
		require.NoError(t, err)

		got, err := m.Pending(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, StateAwaitingLimit, got.Current)
		assert.Equal(t, FlowPrimary, got.Flow)
	})

	t.Run("retry edge keeps user in awaiting limit", func(t *testing.T) {
		m := NewMachine(NewMemoryStorage(), nil, nil)

		require.NoError(t, m.TransitionTo(ctx, 1, &Pending{Current: StateAwaitingLimit, Flow: FlowSecondary, Muscle: "traps"}))
		require.NoError(t, m.TransitionTo(ctx, 1, &Pending{Current: StateAwaitingLimit, Flow: FlowSecondary, Muscle: "traps"}))
	})

	t.Run("awaiting query cannot re-enter itself", func(t *testing.T) {
		m := NewMachine(NewMemoryStorage(), nil, nil)

		require.NoError(t, m.TransitionTo(ctx, 1, &Pending{Current: StateAwaitingQuery}))

		err := m.TransitionTo(ctx, 1, &Pending{Current: StateAwaitingQuery})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestMachine_ClearConsumesContinuation(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(NewMemoryStorage(), nil, nil)

	require.NoError(t, m.Register(ctx, 5, &Pending{Current: StateAwaitingQuery}))
	require.NoError(t, m.Clear(ctx, 5))

	_, err := m.Pending(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMachine_LockPreventsConcurrentWrites(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	m := NewMachine(NewMemoryStorage(), nil, client)

	require.NoError(t, mr.Set(fmt.Sprintf(userLockKeyPattern, int64(9)), "1"))

	err := m.Register(ctx, 9, &Pending{Current: StateAwaitingQuery})
	assert.ErrorIs(t, err, ErrLocked)

	mr.Del(fmt.Sprintf(userLockKeyPattern, int64(9)))
	assert.NoError(t, m.Register(ctx, 9, &Pending{Current: StateAwaitingQuery}))
}

func TestRedisStorage_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	storage := NewRedisStorage(client)

	pending := &Pending{UserID: 11, Current: StateAwaitingLimit, Flow: FlowPrimary, Muscle: "chest"}
	require.NoError(t, storage.Set(ctx, 11, pending))
	require.NoError(t, storage.Set(ctx, 12, &Pending{UserID: 12, Current: StateAwaitingQuery}))

	got, err := storage.Get(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, pending, got)

	all, err := storage.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, storage.Clear(ctx, 11))
	_, err = storage.Get(ctx, 11)
	assert.ErrorIs(t, err, ErrNotFound)
}

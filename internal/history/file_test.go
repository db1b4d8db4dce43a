package history

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_AppendAndListByUser(t *testing.T) {
	ctx := context.Background()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)

	first := Entry{Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), UserID: 1, Username: "ann", Description: "command: /primary"}
	second := Entry{Timestamp: time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC), UserID: 1, Username: "ann", Description: "primary muscle: biceps"}
	other := Entry{Timestamp: time.Date(2025, 3, 1, 10, 2, 0, 0, time.UTC), UserID: 2, Username: "bob", Description: "command: /help"}

	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, other))
	require.NoError(t, store.Append(ctx, second))

	entries, err := store.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[0])
	assert.Equal(t, second, entries[1])
}

func TestFileStore_ListByUserMissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)

	entries, err := store.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)

	const writers = 20

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Append(ctx, Entry{Timestamp: time.Now().UTC(), UserID: 1, Username: "ann", Description: "command: /help"})
		}(i)
	}
	wg.Wait()

	entries, err := store.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, writers)
}

package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore()
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	fresh, err := store.MarkProcessed(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh)

	seen, err := store.IsProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	clock = clock.Add(time.Minute)
	seen, _ = store.IsProcessed(ctx, "evt-1")
	assert.False(t, seen)

	fresh, err = store.MarkProcessed(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh, "expired id can be processed again")
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore()
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	for i := 0; i < sweepEvery-1; i++ {
		_, _ = store.MarkProcessed(ctx, fmt.Sprintf("old-%d", i), time.Second)
	}
	assert.Equal(t, sweepEvery-1, store.Size())

	clock = clock.Add(time.Hour)
	_, _ = store.MarkProcessed(ctx, "new", time.Second)
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_ConcurrentMark(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if fresh, _ := store.MarkProcessed(ctx, "evt", time.Hour); fresh {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

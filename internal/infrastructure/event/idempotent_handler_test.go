package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/cache"
)

type brokenStore struct{}

func (brokenStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}
func (brokenStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }
func (brokenStore) Close() error                                      { return nil }

func TestIdempotentHandler_SkipsRedelivery(t *testing.T) {
	inner := &recordingHandler{}
	h := NewIdempotentHandler(inner, cache.NewInMemoryIdempotencyStore(), zap.NewNop())
	evt := movementEvent()

	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), movementEvent()))

	assert.Equal(t, 2, inner.count())
	assert.Equal(t, IdempotencyStats{Processed: 2, Duplicate: 1}, h.Stats())
}

func TestIdempotentHandler_FailureKeepsMark(t *testing.T) {
	inner := &recordingHandler{err: errors.New("kafka unavailable")}
	h := NewIdempotentHandler(inner, cache.NewInMemoryIdempotencyStore(), zap.NewNop())
	evt := movementEvent()

	assert.Error(t, h.Handle(context.Background(), evt))
	assert.NoError(t, h.Handle(context.Background(), evt))
	assert.Equal(t, 1, inner.count())
	assert.Equal(t, int64(1), h.Stats().Failed)
}

func TestIdempotentHandler_StoreErrorStillHandles(t *testing.T) {
	inner := &recordingHandler{}
	h := NewIdempotentHandler(inner, brokenStore{}, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), movementEvent()))
	assert.Equal(t, 1, inner.count())
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	inner := &recordingHandler{}
	h := NewIdempotentHandler(inner, cache.NewInMemoryIdempotencyStore(), zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))
	evt := movementEvent()

	_ = h.Handle(context.Background(), evt)
	_ = h.Handle(context.Background(), evt)
	assert.Equal(t, 2, inner.count())
}

func TestIdempotentHandler_ConcurrentRedelivery(t *testing.T) {
	inner := &recordingHandler{}
	h := NewIdempotentHandler(inner, cache.NewInMemoryIdempotencyStore(), zap.NewNop())
	evt := movementEvent()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Handle(context.Background(), evt)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, inner.count())
	assert.Equal(t, int64(19), h.Stats().Duplicate)
}

func TestIdempotentHandler_ScopesDoNotCollide(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	kafka := &recordingHandler{}
	archive := &recordingHandler{}
	cfg := shared.DefaultIdempotencyConfig()
	kafkaHandler := NewIdempotentHandler(kafka, store, zap.NewNop())
	cfg.Scope = "archive"
	archiveHandler := NewIdempotentHandler(archive, store, zap.NewNop(), WithIdempotencyConfig(cfg))
	evt := movementEvent()

	require.NoError(t, kafkaHandler.Handle(context.Background(), evt))
	require.NoError(t, archiveHandler.Handle(context.Background(), evt))

	assert.Equal(t, 1, kafka.count())
	assert.Equal(t, 1, archive.count())
	seen, err := store.IsProcessed(context.Background(), "audit:"+evt.EventID().String())
	require.NoError(t, err)
	assert.True(t, seen)
}

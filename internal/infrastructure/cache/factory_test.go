package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/infrastructure/config"
)

type fixedSequence struct{ value int64 }

func (s fixedSequence) Next(context.Context, uuid.UUID, string, time.Time) (int64, error) {
	return s.value, nil
}

func TestFactory_FallsBackWithoutRedis(t *testing.T) {
	f := NewFactory(config.RedisConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, f.Connect(context.Background()))

	_, inMemory := f.IdempotencyStore().(*InMemoryIdempotencyStore)
	assert.True(t, inMemory)

	fallback := fixedSequence{value: 7}
	assert.Equal(t, fallback, f.SequenceGenerator("redis", fallback))
	assert.Equal(t, fallback, f.SequenceGenerator("database", fallback))
	assert.NoError(t, f.Close())
}

func TestSequenceKey(t *testing.T) {
	tenant := uuid.MustParse("7b0c4c8e-1f1e-4a55-9d0e-3a0f1b2c3d4e")
	day := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "wms:seq:7b0c4c8e-1f1e-4a55-9d0e-3a0f1b2c3d4e:wave:20260309", sequenceKey(tenant, "wave", day))
}

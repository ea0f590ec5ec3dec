package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pharmawms/backend/internal/domain/outbound"
)

// sequenceTTL outlives the day a key is for, so late callers near midnight
// still see the counter.
const sequenceTTL = 48 * time.Hour

// RedisSequenceGenerator hands out per-day counters with INCR on a date key.
type RedisSequenceGenerator struct {
	client redis.UniversalClient
}

func NewRedisSequenceGenerator(client redis.UniversalClient) *RedisSequenceGenerator {
	return &RedisSequenceGenerator{client: client}
}

func sequenceKey(tenantID uuid.UUID, scope string, day time.Time) string {
	return fmt.Sprintf("wms:seq:%s:%s:%s", tenantID, scope, outbound.DayKey(day))
}

func (g *RedisSequenceGenerator) Next(ctx context.Context, tenantID uuid.UUID, scope string, day time.Time) (int64, error) {
	key := sequenceKey(tenantID, scope, day)

	pipe := g.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, sequenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("next %s: %w", key, err)
	}
	return incr.Val(), nil
}

var _ outbound.SequenceGenerator = (*RedisSequenceGenerator)(nil)

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/config"
)

// Factory builds the Redis-backed components, falling back to local
// implementations when Redis is disabled or unreachable.
type Factory struct {
	cfg    config.RedisConfig
	logger *zap.Logger
	client redis.UniversalClient
}

func NewFactory(cfg config.RedisConfig, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// Connect opens and pings the Redis client. It is a no-op when Redis is
// disabled.
func (f *Factory) Connect(ctx context.Context) error {
	if !f.cfg.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     f.cfg.Addr(),
		Password: f.cfg.Password,
		DB:       f.cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connect redis %s: %w", f.cfg.Addr(), err)
	}
	f.client = client
	return nil
}

// IdempotencyStore returns the shared store, or an in-memory one when no
// Redis connection exists.
func (f *Factory) IdempotencyStore() shared.IdempotencyStore {
	if f.client == nil {
		f.logger.Warn("redis unavailable, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}
	return NewRedisIdempotencyStore(f.client)
}

// SequenceGenerator returns the Redis counter when requested and connected,
// otherwise fallback.
func (f *Factory) SequenceGenerator(source string, fallback outbound.SequenceGenerator) outbound.SequenceGenerator {
	if source != "redis" {
		return fallback
	}
	if f.client == nil {
		f.logger.Warn("redis unavailable, using database sequence for wave numbers")
		return fallback
	}
	return NewRedisSequenceGenerator(f.client)
}

func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}

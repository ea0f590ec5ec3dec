package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IdempotencyStore remembers audit deliveries, so an event the async bus
// hands out twice reaches each sink once.
type IdempotencyStore interface {
	// MarkProcessed records key for ttl and reports false when the key was
	// already recorded.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig controls deduplication for one sink.
type IdempotencyConfig struct {
	// Scope namespaces the marks of one sink. Two sinks sharing a store
	// need different scopes.
	Scope string

	// TTL must cover the longest redelivery window of the bus.
	TTL time.Duration

	Enabled bool
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		Scope:   "audit",
		TTL:     48 * time.Hour,
		Enabled: true,
	}
}

// Key is the store key of an event within the scope.
func (c IdempotencyConfig) Key(eventID uuid.UUID) string {
	if c.Scope == "" {
		return eventID.String()
	}
	return c.Scope + ":" + eventID.String()
}

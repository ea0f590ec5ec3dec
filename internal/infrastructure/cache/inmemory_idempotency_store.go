package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pharmawms/backend/internal/domain/shared"
)

const sweepEvery = 1024

// InMemoryIdempotencyStore keeps processed event IDs in a map. It serves a
// single instance; expired IDs are swept on every sweepEvery-th write.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	writes  int
	now     func() time.Time
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expires[eventID]; ok && now.Before(exp) {
		return false, nil
	}
	s.expires[eventID] = now.Add(ttl)

	s.writes++
	if s.writes%sweepEvery == 0 {
		for id, exp := range s.expires {
			if !now.Before(exp) {
				delete(s.expires, id)
			}
		}
	}
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expires[eventID]
	return ok && s.now().Before(exp), nil
}

func (s *InMemoryIdempotencyStore) Close() error { return nil }

// Size returns the number of tracked IDs, expired ones included
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

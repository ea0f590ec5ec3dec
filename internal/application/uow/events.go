package uow

import (
	"context"

	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// EventSource is an aggregate that buffers domain events.
type EventSource interface {
	PullEvents() []shared.DomainEvent
}

// PendingEvents buffers events raised inside Execute. They are published
// only once the transaction has committed.
type PendingEvents struct {
	events []shared.DomainEvent
}

// Collect drains the events of each aggregate.
func (p *PendingEvents) Collect(sources ...EventSource) {
	for _, s := range sources {
		p.events = append(p.events, s.PullEvents()...)
	}
}

func (p *PendingEvents) Add(events ...shared.DomainEvent) {
	p.events = append(p.events, events...)
}

func (p *PendingEvents) Len() int {
	return len(p.events)
}

// Publish hands the buffered events to publisher. Failures are logged and
// never returned: the state change has already committed.
func (p *PendingEvents) Publish(ctx context.Context, publisher shared.EventPublisher, log *zap.Logger) {
	if publisher == nil || len(p.events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, p.events...); err != nil {
		log.Warn("failed to publish domain events",
			zap.Int("count", len(p.events)),
			zap.Error(err),
		)
	}
	p.events = nil
}

package shared

import (
	"github.com/google/uuid"
)

// BaseAggregateRoot is embedded by tenant-owned aggregates. Version backs
// optimistic locking in the repositories; events raised by a command wait
// here until the application layer pulls them after the transaction.
type BaseAggregateRoot struct {
	TenantEntity
	Version int
	events  []DomainEvent
}

func NewBaseAggregateRoot(tenantID uuid.UUID) BaseAggregateRoot {
	return BaseAggregateRoot{
		TenantEntity: NewTenantEntity(tenantID),
		Version:      1,
	}
}

func (a *BaseAggregateRoot) Raise(event DomainEvent) {
	a.events = append(a.events, event)
}

// Events returns the events raised since the last pull.
func (a *BaseAggregateRoot) Events() []DomainEvent {
	return a.events
}

// PullEvents returns the raised events and forgets them.
func (a *BaseAggregateRoot) PullEvents() []DomainEvent {
	events := a.events
	a.events = nil
	return events
}

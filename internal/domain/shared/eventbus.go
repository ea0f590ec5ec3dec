package shared

import "context"

// EventHandler consumes committed domain events.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes filters delivery; empty means every event.
	EventTypes() []string
}

// EventPublisher is what application services hand their committed events
// to. A failing subscriber never fails the operation that raised the event.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

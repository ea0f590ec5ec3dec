package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact about stock, orders or reconciliation that has
// committed. Every event names the tenant it belongs to so sinks can
// partition by client.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// EventHeader is embedded by every concrete event. The json layout is the
// audit stream's envelope.
type EventHeader struct {
	ID        uuid.UUID `json:"event_id"`
	Type      string    `json:"type"`
	At        time.Time `json:"occurred_at"`
	Aggregate uuid.UUID `json:"aggregate_id"`
	Kind      string    `json:"aggregate_type"`
	Tenant    uuid.UUID `json:"tenant_id"`
}

func NewEventHeader(eventType, aggregateType string, aggregateID, tenantID uuid.UUID) EventHeader {
	return EventHeader{
		ID:        uuid.New(),
		Type:      eventType,
		At:        time.Now().UTC(),
		Aggregate: aggregateID,
		Kind:      aggregateType,
		Tenant:    tenantID,
	}
}

func (h *EventHeader) EventID() uuid.UUID     { return h.ID }
func (h *EventHeader) EventType() string      { return h.Type }
func (h *EventHeader) OccurredAt() time.Time  { return h.At }
func (h *EventHeader) AggregateID() uuid.UUID { return h.Aggregate }
func (h *EventHeader) AggregateType() string  { return h.Kind }
func (h *EventHeader) TenantID() uuid.UUID    { return h.Tenant }

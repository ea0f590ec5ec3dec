package event

import (
	"github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/receiving"
)

// RegisterAllEvents registers every warehouse event type with the serializer
func RegisterAllEvents(s *EventSerializer) {
	s.Register(inventory.EventTypeMovementRecorded, &inventory.MovementRecordedEvent{})
	s.Register(inventory.EventTypeLotStatusChanged, &inventory.LotStatusChangedEvent{})
	s.Register(inventory.EventTypeLabelAssociated, &inventory.LabelAssociatedEvent{})

	s.Register(outbound.EventTypeOrderStatusChanged, &outbound.OrderStatusChangedEvent{})
	s.Register(outbound.EventTypeOrderAllocated, &outbound.OrderAllocatedEvent{})
	s.Register(outbound.EventTypeWaveCreated, &outbound.WaveCreatedEvent{})
	s.Register(outbound.EventTypeWaveStatusChanged, &outbound.WaveStatusChangedEvent{})
	s.Register(outbound.EventTypePickShortfall, &outbound.PickShortfallEvent{})

	s.Register(receiving.EventTypeDivergenceFiled, &receiving.DivergenceFiledEvent{})
	s.Register(receiving.EventTypeDivergenceApproved, &receiving.DivergenceApprovedEvent{})

	s.Register(conference.EventTypeDivergenceDetected, &conference.DivergenceDetectedEvent{})
}

// AllEventTypes lists the event types published by the warehouse services
func AllEventTypes() []string {
	s := NewEventSerializer()
	RegisterAllEvents(s)
	return s.RegisteredTypes()
}

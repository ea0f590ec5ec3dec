package inventory

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

const (
	AggregateTypeLotPosition = "LotPosition"

	EventTypeMovementRecorded = "inventory.movement.recorded"
	EventTypeLotStatusChanged = "inventory.lot.status_changed"
	EventTypeLabelAssociated  = "inventory.label.associated"
)

// MovementRecordedEvent carries a MovementRecord to the audit sink.
type MovementRecordedEvent struct {
	shared.EventHeader
	MovementID     uuid.UUID    `json:"movement_id"`
	MovementType   MovementType `json:"movement_type"`
	ProductID      uuid.UUID    `json:"product_id"`
	Lot            string       `json:"lot,omitempty"`
	FromLocationID *uuid.UUID   `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID   `json:"to_location_id,omitempty"`
	Quantity       int64        `json:"quantity"`
	ReferenceType  string       `json:"reference_type"`
	ReferenceID    uuid.UUID    `json:"reference_id"`
}

func NewMovementRecordedEvent(m *MovementRecord) *MovementRecordedEvent {
	return &MovementRecordedEvent{
		EventHeader:    shared.NewEventHeader(EventTypeMovementRecorded, "MovementRecord", m.ID, m.TenantID),
		MovementID:     m.ID,
		MovementType:   m.Type,
		ProductID:      m.ProductID,
		Lot:            m.Lot,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		Quantity:       m.Quantity,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
	}
}

// LotStatusChangedEvent is raised on quality approval, rejection, blocking
// and expiry.
type LotStatusChangedEvent struct {
	shared.EventHeader
	LotPositionID uuid.UUID `json:"lot_position_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Lot           string    `json:"lot,omitempty"`
	From          LotStatus `json:"from"`
	To            LotStatus `json:"to"`
	Reason        string    `json:"reason,omitempty"`
}

func NewLotStatusChangedEvent(p *LotPosition, from LotStatus, reason string) *LotStatusChangedEvent {
	return &LotStatusChangedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeLotStatusChanged, AggregateTypeLotPosition, p.ID, p.TenantID),
		LotPositionID: p.ID,
		ProductID:     p.ProductID,
		Lot:           p.Lot,
		From:          from,
		To:            p.Status,
		Reason:        reason,
	}
}

// LabelAssociatedEvent is raised when a scanned code is bound to a lot.
type LabelAssociatedEvent struct {
	shared.EventHeader
	Code      string    `json:"code"`
	ProductID uuid.UUID `json:"product_id"`
	Lot       string    `json:"lot,omitempty"`
}

func NewLabelAssociatedEvent(a *LabelAssociation) *LabelAssociatedEvent {
	return &LabelAssociatedEvent{
		EventHeader: shared.NewEventHeader(EventTypeLabelAssociated, "LabelAssociation", a.ID, a.TenantID),
		Code:        a.Code,
		ProductID:   a.ProductID,
		Lot:         a.Lot,
	}
}

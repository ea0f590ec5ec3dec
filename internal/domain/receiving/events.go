package receiving

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

const (
	AggregateTypeReceivingOrder = "ReceivingOrder"

	EventTypeDivergenceFiled    = "receiving.divergence.filed"
	EventTypeDivergenceApproved = "receiving.divergence.approved"
)

type DivergenceFiledEvent struct {
	shared.EventHeader
	OrderNumber  string         `json:"order_number"`
	DivergenceID uuid.UUID      `json:"divergence_id"`
	ItemID       uuid.UUID      `json:"item_id"`
	Kind         DivergenceKind `json:"kind"`
	Quantity     int64          `json:"quantity"`
	Reason       string         `json:"reason"`
}

func NewDivergenceFiledEvent(o *Order, d *Divergence) *DivergenceFiledEvent {
	return &DivergenceFiledEvent{
		EventHeader:  shared.NewEventHeader(EventTypeDivergenceFiled, AggregateTypeReceivingOrder, o.ID, o.TenantID),
		OrderNumber:  o.Number,
		DivergenceID: d.ID,
		ItemID:       d.ItemID,
		Kind:         d.Kind,
		Quantity:     d.Quantity,
		Reason:       d.Reason,
	}
}

type DivergenceApprovedEvent struct {
	shared.EventHeader
	OrderNumber   string    `json:"order_number"`
	DivergenceID  uuid.UUID `json:"divergence_id"`
	ApprovedBy    uuid.UUID `json:"approved_by"`
	Justification string    `json:"justification"`
}

func NewDivergenceApprovedEvent(o *Order, d *Divergence) *DivergenceApprovedEvent {
	return &DivergenceApprovedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeDivergenceApproved, AggregateTypeReceivingOrder, o.ID, o.TenantID),
		OrderNumber:   o.Number,
		DivergenceID:  d.ID,
		ApprovedBy:    *d.ApprovedBy,
		Justification: d.Justification,
	}
}

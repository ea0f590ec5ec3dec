package outbound

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

const (
	AggregateTypeOrder = "Order"
	AggregateTypeWave  = "Wave"

	EventTypeOrderStatusChanged = "outbound.order.status_changed"
	EventTypeOrderAllocated     = "outbound.order.allocated"
	EventTypeWaveCreated        = "outbound.wave.created"
	EventTypeWaveStatusChanged  = "outbound.wave.status_changed"
	EventTypePickShortfall      = "outbound.pick.shortfall"
)

// OrderStatusChangedEvent is raised on every order transition.
type OrderStatusChangedEvent struct {
	shared.EventHeader
	OrderNumber string      `json:"order_number"`
	From        OrderStatus `json:"from"`
	To          OrderStatus `json:"to"`
}

func NewOrderStatusChangedEvent(o *Order, from OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		EventHeader: shared.NewEventHeader(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, o.TenantID),
		OrderNumber: o.Number,
		From:        from,
		To:          o.Status,
	}
}

// OrderAllocatedEvent summarises a successful allocation.
type OrderAllocatedEvent struct {
	shared.EventHeader
	OrderNumber  string           `json:"order_number"`
	Policy       AllocationPolicy `json:"policy"`
	Reservations int              `json:"reservations"`
	Units        int64            `json:"units"`
}

func NewOrderAllocatedEvent(o *Order, reservations []Reservation) *OrderAllocatedEvent {
	var units int64
	for _, r := range reservations {
		units += r.Quantity
	}
	return &OrderAllocatedEvent{
		EventHeader:  shared.NewEventHeader(EventTypeOrderAllocated, AggregateTypeOrder, o.ID, o.TenantID),
		OrderNumber:  o.Number,
		Policy:       o.Policy,
		Reservations: len(reservations),
		Units:        units,
	}
}

type WaveCreatedEvent struct {
	shared.EventHeader
	WaveNumber string      `json:"wave_number"`
	OrderIDs   []uuid.UUID `json:"order_ids"`
	Items      int         `json:"items"`
}

func NewWaveCreatedEvent(w *Wave) *WaveCreatedEvent {
	return &WaveCreatedEvent{
		EventHeader: shared.NewEventHeader(EventTypeWaveCreated, AggregateTypeWave, w.ID, w.TenantID),
		WaveNumber:  w.Number,
		OrderIDs:    w.OrderIDs,
		Items:       len(w.Items),
	}
}

type WaveStatusChangedEvent struct {
	shared.EventHeader
	WaveNumber string     `json:"wave_number"`
	From       WaveStatus `json:"from"`
	To         WaveStatus `json:"to"`
}

func NewWaveStatusChangedEvent(w *Wave, from WaveStatus) *WaveStatusChangedEvent {
	return &WaveStatusChangedEvent{
		EventHeader: shared.NewEventHeader(EventTypeWaveStatusChanged, AggregateTypeWave, w.ID, w.TenantID),
		WaveNumber:  w.Number,
		From:        from,
		To:          w.Status,
	}
}

// PickShortfallEvent flags a short pick for supervisor review. AlternateID
// is set when the shortfall was re-routed to another location.
type PickShortfallEvent struct {
	shared.EventHeader
	Route        RouteRef      `json:"route"`
	ProductID    uuid.UUID     `json:"product_id"`
	Lot          string        `json:"lot,omitempty"`
	LocationCode string        `json:"location_code"`
	Reason       ProblemReason `json:"reason"`
	Shortfall    int64         `json:"shortfall"`
	AlternateID  *uuid.UUID    `json:"alternate_allocation_id,omitempty"`
}

func NewPickShortfallEvent(a *PickAllocation, shortfall int64, alternate *uuid.UUID) *PickShortfallEvent {
	return &PickShortfallEvent{
		EventHeader:  shared.NewEventHeader(EventTypePickShortfall, "PickAllocation", a.ID, a.TenantID),
		Route:        a.Route,
		ProductID:    a.ProductID,
		Lot:          a.Lot,
		LocationCode: a.LocationCode,
		Reason:       a.ProblemReason,
		Shortfall:    shortfall,
		AlternateID:  alternate,
	}
}

package outbound

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// WaveStatus represents the status of a picking wave
type WaveStatus string

const (
	WaveStatusPending   WaveStatus = "pending"
	WaveStatusPicking   WaveStatus = "picking"
	WaveStatusCompleted WaveStatus = "completed"
	WaveStatusCancelled WaveStatus = "cancelled"
)

// IsOpen reports whether the wave still owns its orders.
func (s WaveStatus) IsOpen() bool {
	return s == WaveStatusPending || s == WaveStatusPicking
}

// WaveItemStatus tracks progress of one consolidated pick task.
type WaveItemStatus string

const (
	WaveItemPending     WaveItemStatus = "pending"
	WaveItemPicking     WaveItemStatus = "picking"
	WaveItemPicked      WaveItemStatus = "picked"
	WaveItemShortPicked WaveItemStatus = "short_picked"
)

// Wave consolidates the reservations of several orders of one customer.
type Wave struct {
	shared.BaseAggregateRoot
	Number     string
	CustomerID uuid.UUID
	Status     WaveStatus
	OrderIDs   []uuid.UUID
	Items      []WaveItem
}

// WaveItem is one physical pick task: a lot of a product at a location.
type WaveItem struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	WaveID         uuid.UUID
	ProductID      uuid.UUID
	Lot            string
	LocationID     uuid.UUID
	LotPositionID  uuid.UUID
	TotalQuantity  int64
	PickedQuantity int64
	Status         WaveItemStatus
	Sources        []WaveItemSource
}

// WaveItemSource points back at the reservation that contributed to a
// WaveItem, for disaggregation.
type WaveItemSource struct {
	ID             uuid.UUID
	WaveItemID     uuid.UUID
	ReservationID  uuid.UUID
	OrderID        uuid.UUID
	OrderLineID    uuid.UUID
	Quantity       int64
	PickedQuantity int64
}

func (i *WaveItem) Key() inventory.LotKey {
	return inventory.NewLotKey(i.ProductID, i.Lot)
}

func (i *WaveItem) PhysicalKey() inventory.PhysicalKey {
	return inventory.PhysicalKey{LotKey: i.Key(), LocationID: i.LocationID}
}

// Weights returns source quantities in source order.
func (i *WaveItem) Weights() []int64 {
	w := make([]int64, len(i.Sources))
	for k, s := range i.Sources {
		w[k] = s.Quantity
	}
	return w
}

// Shares returns source picked quantities in source order.
func (i *WaveItem) Shares() []int64 {
	s := make([]int64, len(i.Sources))
	for k, src := range i.Sources {
		s[k] = src.PickedQuantity
	}
	return s
}

// NewWave validates the orders and consolidates their reservations into
// wave items grouped by physical key.
func NewWave(tenantID uuid.UUID, number string, orders []*Order, reservations []Reservation) (*Wave, error) {
	w, err := PlanWave(tenantID, orders, reservations)
	if err != nil {
		return nil, err
	}
	w.Number = number
	w.Raise(NewWaveCreatedEvent(w))
	return w, nil
}

// PlanWave runs every NewWave check and builds the unnumbered wave. It
// raises no events.
func PlanWave(tenantID uuid.UUID, orders []*Order, reservations []Reservation) (*Wave, error) {
	if len(orders) == 0 {
		return nil, shared.BadRequestf("a wave needs at least one order")
	}
	customer := orders[0].CustomerID
	seen := make(map[uuid.UUID]bool, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		if o.TenantID != tenantID {
			return nil, shared.Forbiddenf("order %s belongs to another tenant", o.Number)
		}
		if o.CustomerID != customer {
			return nil, shared.BadRequestf("all orders in a wave must belong to the same customer: %s differs", o.Number)
		}
		if o.WaveID != nil || o.Status == OrderStatusInWave {
			return nil, shared.Conflictf("order %s is already in a wave", o.Number)
		}
		if o.Status != OrderStatusAllocated {
			return nil, shared.InvalidStatef("order %s is %s; only allocated orders can join a wave", o.Number, o.Status)
		}
		if seen[o.ID] {
			return nil, shared.BadRequestf("order %s listed twice", o.Number)
		}
		seen[o.ID] = true
		ids = append(ids, o.ID)
	}

	w := &Wave{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(tenantID),
		CustomerID:        customer,
		Status:            WaveStatusPending,
		OrderIDs:          ids,
	}
	w.Items = Consolidate(tenantID, w.ID, reservations)
	if len(w.Items) == 0 {
		return nil, shared.BadRequestf("selected orders have no reservations")
	}
	return w, nil
}

// Consolidate groups reservations by (product, lot, location). Two lots of
// the same product stay separate items. Item order follows first appearance.
func Consolidate(tenantID, waveID uuid.UUID, reservations []Reservation) []WaveItem {
	index := make(map[inventory.PhysicalKey]int)
	items := make([]WaveItem, 0)
	for _, r := range reservations {
		key := r.PhysicalKey()
		pos, ok := index[key]
		if !ok {
			items = append(items, WaveItem{
				ID:            uuid.New(),
				TenantID:      tenantID,
				WaveID:        waveID,
				ProductID:     r.ProductID,
				Lot:           r.Lot,
				LocationID:    r.LocationID,
				LotPositionID: r.LotPositionID,
				Status:        WaveItemPending,
			})
			pos = len(items) - 1
			index[key] = pos
		}
		item := &items[pos]
		item.TotalQuantity += r.Quantity
		item.Sources = append(item.Sources, WaveItemSource{
			ID:            uuid.New(),
			WaveItemID:    item.ID,
			ReservationID: r.ID,
			OrderID:       r.OrderID,
			OrderLineID:   r.OrderLineID,
			Quantity:      r.Quantity,
		})
	}
	return items
}

func (w *Wave) HasOrder(orderID uuid.UUID) bool {
	for _, id := range w.OrderIDs {
		if id == orderID {
			return true
		}
	}
	return false
}

func (w *Wave) StartPicking() error {
	if w.Status != WaveStatusPending {
		return shared.InvalidStatef("wave %s is %s, not pending", w.Number, w.Status)
	}
	w.Status = WaveStatusPicking
	w.Touch()
	return nil
}

func (w *Wave) Complete() error {
	if w.Status != WaveStatusPicking {
		return shared.InvalidStatef("wave %s is %s, not picking", w.Number, w.Status)
	}
	w.Status = WaveStatusCompleted
	w.Touch()
	w.Raise(NewWaveStatusChangedEvent(w, WaveStatusPicking))
	return nil
}

// Cancel cancels the wave and clears item progress. Returns false when the
// wave was already cancelled.
func (w *Wave) Cancel() (bool, error) {
	switch w.Status {
	case WaveStatusCancelled:
		return false, nil
	case WaveStatusCompleted:
		return false, shared.InvalidStatef("wave %s is completed and cannot be cancelled", w.Number)
	}
	from := w.Status
	w.Status = WaveStatusCancelled
	for i := range w.Items {
		w.Items[i].PickedQuantity = 0
		w.Items[i].Status = WaveItemPending
		for k := range w.Items[i].Sources {
			w.Items[i].Sources[k].PickedQuantity = 0
		}
	}
	w.Touch()
	w.Raise(NewWaveStatusChangedEvent(w, from))
	return true, nil
}

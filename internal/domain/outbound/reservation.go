package outbound

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// Reservation binds an order line to a lot position. It is created together
// with a reserved increment on the position and destroyed together with the
// matching release or consumption.
type Reservation struct {
	shared.TenantEntity
	OrderID        uuid.UUID
	OrderLineID    uuid.UUID
	LotPositionID  uuid.UUID
	ProductID      uuid.UUID
	Lot            string
	LocationID     uuid.UUID
	Quantity       int64
	PickedQuantity int64
}

// NewReservation creates a reservation of qty units of pos for line.
func NewReservation(line *OrderLine, pos *inventory.LotPosition, qty int64) (*Reservation, error) {
	if qty <= 0 {
		return nil, shared.BadRequestf("reservation quantity must be positive, got %d", qty)
	}
	if line.ProductID != pos.ProductID {
		return nil, shared.BadRequestf("lot position holds a different product than the order line")
	}
	return &Reservation{
		TenantEntity:  shared.NewTenantEntity(pos.TenantID),
		OrderID:       line.OrderID,
		OrderLineID:   line.ID,
		LotPositionID: pos.ID,
		ProductID:     pos.ProductID,
		Lot:           pos.Lot,
		LocationID:    pos.LocationID,
		Quantity:      qty,
	}, nil
}

func (r *Reservation) Key() inventory.LotKey {
	return inventory.NewLotKey(r.ProductID, r.Lot)
}

func (r *Reservation) PhysicalKey() inventory.PhysicalKey {
	return inventory.PhysicalKey{LotKey: r.Key(), LocationID: r.LocationID}
}

// Unpicked returns the reserved units not yet picked.
func (r *Reservation) Unpicked() int64 {
	if r.PickedQuantity >= r.Quantity {
		return 0
	}
	return r.Quantity - r.PickedQuantity
}

// SumReserved totals reservation quantities per order line.
func SumReserved(reservations []Reservation) map[uuid.UUID]int64 {
	sums := make(map[uuid.UUID]int64)
	for _, r := range reservations {
		sums[r.OrderLineID] += r.Quantity
	}
	return sums
}

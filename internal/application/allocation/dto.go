package allocation

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/outbound"
)

// AllocateRequest asks for stock to be reserved for every line of an order.
type AllocateRequest struct {
	TenantID uuid.UUID
	OrderID  uuid.UUID
}

// ReservationResponse is one reserved (lot, location) slice of an order line.
type ReservationResponse struct {
	ID            uuid.UUID `json:"id"`
	OrderLineID   uuid.UUID `json:"order_line_id"`
	LotPositionID uuid.UUID `json:"lot_position_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Lot           string    `json:"lot,omitempty"`
	LocationID    uuid.UUID `json:"location_id"`
	Quantity      int64     `json:"quantity"`
}

// AllocationResult is the outcome of a successful allocation.
type AllocationResult struct {
	OrderID      uuid.UUID             `json:"order_id"`
	OrderNumber  string                `json:"order_number"`
	Policy       string                `json:"policy"`
	Status       string                `json:"status"`
	Reservations []ReservationResponse `json:"reservations"`
}

func toResult(o *outbound.Order, rs []outbound.Reservation) *AllocationResult {
	out := &AllocationResult{
		OrderID:      o.ID,
		OrderNumber:  o.Number,
		Policy:       string(o.Policy),
		Status:       string(o.Status),
		Reservations: make([]ReservationResponse, len(rs)),
	}
	for i, r := range rs {
		out.Reservations[i] = ReservationResponse{
			ID:            r.ID,
			OrderLineID:   r.OrderLineID,
			LotPositionID: r.LotPositionID,
			ProductID:     r.ProductID,
			Lot:           r.Lot,
			LocationID:    r.LocationID,
			Quantity:      r.Quantity,
		}
	}
	return out
}

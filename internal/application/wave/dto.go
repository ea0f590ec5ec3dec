package wave

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
)

// CreateWaveRequest groups allocated orders of one customer into a wave.
type CreateWaveRequest struct {
	TenantID uuid.UUID
	OrderIDs []uuid.UUID
}

// SourceResponse attributes part of a wave item to an order line.
type SourceResponse struct {
	ReservationID  uuid.UUID `json:"reservation_id"`
	OrderID        uuid.UUID `json:"order_id"`
	OrderLineID    uuid.UUID `json:"order_line_id"`
	Quantity       int64     `json:"quantity"`
	PickedQuantity int64     `json:"picked_quantity"`
}

// ItemResponse is one consolidated pick task.
type ItemResponse struct {
	ID             uuid.UUID        `json:"id"`
	ProductID      uuid.UUID        `json:"product_id"`
	Lot            string           `json:"lot,omitempty"`
	LocationID     uuid.UUID        `json:"location_id"`
	LocationCode   string           `json:"location_code"`
	TotalQuantity  int64            `json:"total_quantity"`
	PickedQuantity int64            `json:"picked_quantity"`
	Status         string           `json:"status"`
	Sources        []SourceResponse `json:"sources"`
}

// WaveResult describes a wave and its items.
type WaveResult struct {
	ID         uuid.UUID       `json:"id"`
	Number     string          `json:"number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Status     string          `json:"status"`
	OrderIDs   []uuid.UUID     `json:"order_ids"`
	Items      []ItemResponse  `json:"items"`
	FillRate   decimal.Decimal `json:"fill_rate"`
	Changed    bool            `json:"changed"`
}

func toResult(w *outbound.Wave, locations map[uuid.UUID]*inventory.Location) *WaveResult {
	out := &WaveResult{
		ID:         w.ID,
		Number:     w.Number,
		CustomerID: w.CustomerID,
		Status:     string(w.Status),
		OrderIDs:   w.OrderIDs,
		Items:      make([]ItemResponse, len(w.Items)),
	}
	var total, picked int64
	for i, it := range w.Items {
		item := ItemResponse{
			ID:             it.ID,
			ProductID:      it.ProductID,
			Lot:            it.Lot,
			LocationID:     it.LocationID,
			TotalQuantity:  it.TotalQuantity,
			PickedQuantity: it.PickedQuantity,
			Status:         string(it.Status),
			Sources:        make([]SourceResponse, len(it.Sources)),
		}
		if loc, ok := locations[it.LocationID]; ok {
			item.LocationCode = loc.Code
		}
		for k, s := range it.Sources {
			item.Sources[k] = SourceResponse{
				ReservationID:  s.ReservationID,
				OrderID:        s.OrderID,
				OrderLineID:    s.OrderLineID,
				Quantity:       s.Quantity,
				PickedQuantity: s.PickedQuantity,
			}
		}
		total += it.TotalQuantity
		picked += it.PickedQuantity
		out.Items[i] = item
	}
	out.FillRate = outbound.FillRate(picked, total)
	return out
}

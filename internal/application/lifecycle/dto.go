package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
)

// OrderResult is an outbound order after a lifecycle step. Changed is false
// when the call found the order already in the requested state.
type OrderResult struct {
	ID      uuid.UUID  `json:"id"`
	Number  string     `json:"number"`
	Status  string     `json:"status"`
	WaveID  *uuid.UUID `json:"wave_id,omitempty"`
	Changed bool       `json:"changed"`
}

func toOrderResult(o *outbound.Order, changed bool) *OrderResult {
	return &OrderResult{ID: o.ID, Number: o.Number, Status: string(o.Status), WaveID: o.WaveID, Changed: changed}
}

// QualityRequest approves or rejects a quarantined lot position. An
// approval may move the stock into a storage location at the same time.
type QualityRequest struct {
	TenantID      uuid.UUID
	LotPositionID uuid.UUID
	OperatorID    uuid.UUID
	DestinationID *uuid.UUID
	Reason        string
}

type LotResult struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"product_id"`
	LocationID uuid.UUID  `json:"location_id"`
	Lot        string     `json:"lot,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Quantity   int64      `json:"quantity"`
	Reserved   int64      `json:"reserved"`
	Status     string     `json:"status"`
}

func toLotResult(p *inventory.LotPosition) *LotResult {
	return &LotResult{
		ID:         p.ID,
		ProductID:  p.ProductID,
		LocationID: p.LocationID,
		Lot:        p.Lot,
		ExpiresAt:  p.ExpiresAt,
		Quantity:   p.Quantity,
		Reserved:   p.Reserved,
		Status:     string(p.Status),
	}
}

// ExpiryReport summarises one expiry sweep.
type ExpiryReport struct {
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
}

package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// LotStatus is the quality status of a lot position.
type LotStatus string

const (
	LotStatusQuarantine LotStatus = "quarantine"
	LotStatusAvailable  LotStatus = "available"
	LotStatusBlocked    LotStatus = "blocked"
	LotStatusDamaged    LotStatus = "damaged"
	LotStatusExpired    LotStatus = "expired"
)

var lotTransitions = map[LotStatus][]LotStatus{
	LotStatusQuarantine: {LotStatusAvailable, LotStatusDamaged, LotStatusExpired},
	LotStatusAvailable:  {LotStatusBlocked, LotStatusDamaged, LotStatusExpired},
	LotStatusBlocked:    {LotStatusAvailable, LotStatusDamaged, LotStatusExpired},
	LotStatusDamaged:    {LotStatusAvailable},
}

// CanTransitionTo reports whether the status change is allowed.
func (s LotStatus) CanTransitionTo(to LotStatus) bool {
	for _, allowed := range lotTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s LotStatus) IsValid() bool {
	switch s {
	case LotStatusQuarantine, LotStatusAvailable, LotStatusBlocked, LotStatusDamaged, LotStatusExpired:
		return true
	}
	return false
}

// LotPosition is the ledger row: on-hand and reserved quantity of one lot of
// one product at one location. Invariant: 0 <= Reserved <= Quantity.
//
// The methods below validate and mutate an in-memory copy. Persistent
// mutation goes through the conditional primitives of LotPositionRepository.
type LotPosition struct {
	shared.TenantEntity
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Lot        string
	ExpiresAt  *time.Time
	Quantity   int64
	Reserved   int64
	Status     LotStatus
	ReceivedAt time.Time
}

// NewLotPosition creates a position holding quantity units.
func NewLotPosition(tenantID, productID, locationID uuid.UUID, lot string, expiresAt *time.Time, quantity int64, status LotStatus) (*LotPosition, error) {
	if quantity < 0 {
		return nil, shared.BadRequestf("quantity cannot be negative, got %d", quantity)
	}
	if !status.IsValid() {
		return nil, shared.BadRequestf("unknown lot status %q", status)
	}
	now := time.Now()
	return &LotPosition{
		TenantEntity: shared.NewTenantEntity(tenantID),
		ProductID:    productID,
		LocationID:   locationID,
		Lot:          lot,
		ExpiresAt:    expiresAt,
		Quantity:     quantity,
		Status:       status,
		ReceivedAt:   now,
	}, nil
}

// Key returns the (product, lot) key of the position.
func (p *LotPosition) Key() LotKey {
	return NewLotKey(p.ProductID, p.Lot)
}

// PhysicalKey returns the (product, lot, location) key of the position.
func (p *LotPosition) PhysicalKey() PhysicalKey {
	return PhysicalKey{LotKey: p.Key(), LocationID: p.LocationID}
}

// Free returns the unreserved on-hand quantity.
func (p *LotPosition) Free() int64 {
	return p.Quantity - p.Reserved
}

// IsAllocatable reports whether the position can feed a reservation.
func (p *LotPosition) IsAllocatable() bool {
	return p.Status == LotStatusAvailable && p.Free() > 0
}

// IsExpiredAt reports whether the lot expires strictly before t.
func (p *LotPosition) IsExpiredAt(t time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(t)
}

// Reserve holds qty units.
func (p *LotPosition) Reserve(qty int64) error {
	if qty <= 0 {
		return shared.BadRequestf("reserve quantity must be positive, got %d", qty)
	}
	if p.Status != LotStatusAvailable {
		return shared.InvalidStatef("lot %q is %s, not available", p.Lot, p.Status)
	}
	if p.Free() < qty {
		return shared.InsufficientStock("lot "+p.Lot, qty, p.Free())
	}
	p.Reserved += qty
	return nil
}

// Release returns qty reserved units to free stock.
func (p *LotPosition) Release(qty int64) error {
	if qty <= 0 {
		return shared.BadRequestf("release quantity must be positive, got %d", qty)
	}
	if p.Reserved < qty {
		return shared.InvalidStatef("cannot release %d units, only %d reserved", qty, p.Reserved)
	}
	p.Reserved -= qty
	return nil
}

// Consume removes qty units from on-hand stock and releases reservedQty
// units of reservation. reservedQty may exceed qty when part of a
// reservation was never picked.
func (p *LotPosition) Consume(qty, reservedQty int64) error {
	if qty < 0 || reservedQty < 0 {
		return shared.BadRequestf("consume quantities cannot be negative")
	}
	if p.Quantity < qty {
		return shared.InsufficientStock("lot "+p.Lot, qty, p.Quantity)
	}
	if p.Reserved < reservedQty {
		return shared.InvalidStatef("cannot release %d units, only %d reserved", reservedQty, p.Reserved)
	}
	p.Quantity -= qty
	p.Reserved -= reservedQty
	if p.Reserved > p.Quantity {
		p.Quantity += qty
		p.Reserved += reservedQty
		return shared.InvalidStatef("consuming %d units would leave reserved above on-hand", qty)
	}
	return nil
}

// ChangeStatus moves the position to a new quality status.
func (p *LotPosition) ChangeStatus(to LotStatus) error {
	if !p.Status.CanTransitionTo(to) {
		return shared.InvalidStatef("lot status cannot change from %s to %s", p.Status, to)
	}
	if to != LotStatusAvailable && p.Reserved > 0 && to != LotStatusExpired {
		return shared.Conflictf("lot %q has %d reserved units", p.Lot, p.Reserved)
	}
	p.Status = to
	p.Touch()
	return nil
}

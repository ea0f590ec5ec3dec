package outbound

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// PickStatus is the state of one pick allocation.
type PickStatus string

const (
	PickPending     PickStatus = "pending"
	PickInProgress  PickStatus = "in_progress"
	PickPicked      PickStatus = "picked"
	PickShortPicked PickStatus = "short_picked"
)

// IsOpen reports whether the allocation still accepts scans.
func (s PickStatus) IsOpen() bool {
	return s == PickPending || s == PickInProgress
}

// ProblemReason explains a short pick.
type ProblemReason string

const (
	ProblemInaccessibleLocation ProblemReason = "inaccessible_location"
	ProblemDamagedUnit          ProblemReason = "damaged_unit"
	ProblemDamagedLabel         ProblemReason = "damaged_label"
	ProblemNotFound             ProblemReason = "not_found"
)

func (r ProblemReason) IsValid() bool {
	switch r {
	case ProblemInaccessibleLocation, ProblemDamagedUnit, ProblemDamagedLabel, ProblemNotFound:
		return true
	}
	return false
}

// RouteKind says who owns a route.
type RouteKind string

const (
	RouteOrder RouteKind = "order"
	RouteWave  RouteKind = "wave"
)

// RouteRef identifies a pick route: an order picked alone or a wave.
type RouteRef struct {
	Kind RouteKind
	ID   uuid.UUID
}

func OrderRoute(orderID uuid.UUID) RouteRef { return RouteRef{Kind: RouteOrder, ID: orderID} }
func WaveRoute(waveID uuid.UUID) RouteRef   { return RouteRef{Kind: RouteWave, ID: waveID} }

// PickAllocation is one task of a pick route. Order routes link to a
// reservation; wave routes link to a wave item.
type PickAllocation struct {
	shared.TenantEntity
	Route          RouteRef
	ReservationID  *uuid.UUID
	WaveItemID     *uuid.UUID
	LotPositionID  uuid.UUID
	ProductID      uuid.UUID
	Lot            string
	LocationID     uuid.UUID
	LocationCode   string
	Quantity       int64
	PickedQuantity int64
	Sequence       int
	Status         PickStatus
	ProblemReason  ProblemReason
	ReplacesID     *uuid.UUID
}

// NewReservationAllocation creates the pick task for an order route.
func NewReservationAllocation(r *Reservation, locationCode string, seq int) *PickAllocation {
	id := r.ID
	return &PickAllocation{
		TenantEntity:  shared.NewTenantEntity(r.TenantID),
		Route:         OrderRoute(r.OrderID),
		ReservationID: &id,
		LotPositionID: r.LotPositionID,
		ProductID:     r.ProductID,
		Lot:           r.Lot,
		LocationID:    r.LocationID,
		LocationCode:  locationCode,
		Quantity:      r.Unpicked(),
		Sequence:      seq,
		Status:        PickPending,
	}
}

// NewWaveItemAllocation creates the pick task for a wave item.
func NewWaveItemAllocation(item *WaveItem, locationCode string, seq int) *PickAllocation {
	id := item.ID
	return &PickAllocation{
		TenantEntity:  shared.NewTenantEntity(item.TenantID),
		Route:         WaveRoute(item.WaveID),
		WaveItemID:    &id,
		LotPositionID: item.LotPositionID,
		ProductID:     item.ProductID,
		Lot:           item.Lot,
		LocationID:    item.LocationID,
		LocationCode:  locationCode,
		Quantity:      item.TotalQuantity - item.PickedQuantity,
		Sequence:      seq,
		Status:        PickPending,
	}
}

func (a *PickAllocation) Key() inventory.LotKey {
	return inventory.NewLotKey(a.ProductID, a.Lot)
}

// Remaining returns units still to pick.
func (a *PickAllocation) Remaining() int64 {
	if a.PickedQuantity >= a.Quantity {
		return 0
	}
	return a.Quantity - a.PickedQuantity
}

// Shortfall returns units a short pick left behind.
func (a *PickAllocation) Shortfall() int64 {
	if a.Status != PickShortPicked {
		return 0
	}
	return a.Remaining()
}

// PickDecision is the outcome of sizing one scan.
type PickDecision struct {
	Quantity               int64
	RequiresManualQuantity bool
	MaxQuantity            int64
}

// DecideIncrement sizes a scan. Without a manual quantity a full package is
// taken when it fits; otherwise the operator must type the remainder. A
// manual quantity must be between one and the remaining quantity.
func (a *PickAllocation) DecideIncrement(unitsPerPackage int64, manual *int64) (PickDecision, error) {
	if !a.Status.IsOpen() {
		return PickDecision{}, shared.InvalidStatef("allocation at %s is already %s", a.LocationCode, a.Status)
	}
	remaining := a.Remaining()
	if remaining <= 0 {
		return PickDecision{}, shared.InvalidStatef("allocation at %s is already complete", a.LocationCode)
	}
	if manual != nil {
		q := *manual
		if q <= 0 {
			return PickDecision{}, shared.BadRequestf("quantity must be positive, got %d", q)
		}
		if q > remaining {
			return PickDecision{}, shared.BadRequestf("quantity %d exceeds remaining %d", q, remaining).
				WithDetail("remaining", remaining)
		}
		return PickDecision{Quantity: q}, nil
	}
	if unitsPerPackage < 1 {
		unitsPerPackage = 1
	}
	if remaining < unitsPerPackage {
		return PickDecision{RequiresManualQuantity: true, MaxQuantity: remaining}, nil
	}
	return PickDecision{Quantity: unitsPerPackage}, nil
}

// StatusAfter returns the status implied by a picked quantity.
func (a *PickAllocation) StatusAfter(picked int64) PickStatus {
	if picked >= a.Quantity {
		return PickPicked
	}
	if picked > 0 {
		return PickInProgress
	}
	return PickPending
}

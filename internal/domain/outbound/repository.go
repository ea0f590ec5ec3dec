package outbound

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository persists orders and their lines. Save updates the header
// with an optimistic version check; line picked quantities only move
// through AddLinePicked.
type OrderRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	// FindByIDs loads orders regardless of tenant so callers can tell a
	// foreign order from a missing one.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Order, error)
	FindByWave(ctx context.Context, tenantID, waveID uuid.UUID) ([]*Order, error)
	Create(ctx context.Context, o *Order) error
	Save(ctx context.Context, o *Order) error
	// AddLinePicked adds delta (possibly negative) to a line's picked
	// quantity, never going below zero.
	AddLinePicked(ctx context.Context, lineID uuid.UUID, delta int64) error
	ResetLinesPicked(ctx context.Context, orderIDs []uuid.UUID) error
}

type PolicyRepository interface {
	// FindPolicy returns the customer's policy, or FIFO when none is set.
	FindPolicy(ctx context.Context, tenantID, customerID uuid.UUID) (AllocationPolicy, error)
	SavePolicy(ctx context.Context, p CustomerPolicy) error
}

type ReservationRepository interface {
	CreateBatch(ctx context.Context, rs []Reservation) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Reservation, error)
	// FindByOrders returns reservations ordered by the position of their
	// order in orderIDs, then by creation.
	FindByOrders(ctx context.Context, tenantID uuid.UUID, orderIDs []uuid.UUID) ([]Reservation, error)
	// AddPicked adds delta to picked, keeping 0 <= picked <= quantity.
	AddPicked(ctx context.Context, id uuid.UUID, delta int64) error
	// Shrink lowers quantity to qty when picked <= qty.
	Shrink(ctx context.Context, id uuid.UUID, qty int64) error
	ResetPicked(ctx context.Context, orderIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) error
}

type WaveRepository interface {
	Create(ctx context.Context, w *Wave) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Wave, error)
	Save(ctx context.Context, w *Wave) error
	FindItem(ctx context.Context, tenantID, itemID uuid.UUID) (*WaveItem, error)
	AddItem(ctx context.Context, item *WaveItem) error
	// AddItemPicked adds qty to an item when picked + qty <= total.
	AddItemPicked(ctx context.Context, itemID uuid.UUID, qty int64) error
	UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status WaveItemStatus) error
	// ShrinkItem lowers an item's total when picked <= total.
	ShrinkItem(ctx context.Context, itemID uuid.UUID, total int64) error
	ShrinkSource(ctx context.Context, sourceID uuid.UUID, qty int64) error
	SetSourcePicked(ctx context.Context, sourceID uuid.UUID, picked int64) error
	ResetProgress(ctx context.Context, waveID uuid.UUID) error
}

type PickAllocationRepository interface {
	CreateBatch(ctx context.Context, as []PickAllocation) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PickAllocation, error)
	// FindByRoute returns the route ordered by location code, then sequence.
	FindByRoute(ctx context.Context, tenantID uuid.UUID, route RouteRef) ([]PickAllocation, error)
	// AddPicked atomically adds qty while the allocation is open and
	// picked + qty <= quantity, flipping status to picked or in_progress.
	// Returns the new picked quantity.
	AddPicked(ctx context.Context, id uuid.UUID, qty int64) (int64, error)
	MarkShortPicked(ctx context.Context, id uuid.UUID, reason ProblemReason) error
	MaxSequence(ctx context.Context, route RouteRef) (int, error)
	DeleteByRoute(ctx context.Context, route RouteRef) error
}

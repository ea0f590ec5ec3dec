package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StockOrdering selects the sort key of an eligibility query.
type StockOrdering int

const (
	// OrderByIntake sorts oldest intake first.
	OrderByIntake StockOrdering = iota
	// OrderByExpiry sorts nearest expiry first, lots without expiry last,
	// then oldest intake.
	OrderByExpiry
)

// EligibleQuery selects allocatable lot positions: status available, free
// quantity above MinFree (at least one), located in an unblocked storage
// location.
type EligibleQuery struct {
	TenantID          uuid.UUID
	ProductID         uuid.UUID
	Lot               *string
	LocationID        *uuid.UUID
	ExcludeLocationID *uuid.UUID
	MinFree           int64
	Ordering          StockOrdering
}

// StockCandidate is an eligible position with the code of its location.
type StockCandidate struct {
	Position     LotPosition
	LocationCode string
}

// LotPositionRepository is the Lot Ledger port. Reserve, Release and Consume
// are single conditional updates in the store: they never read-then-write,
// and fail with ErrInsufficientStock or ErrConcurrencyConflict when their
// guard does not hold.
type LotPositionRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*LotPosition, error)
	FindEligible(ctx context.Context, q EligibleQuery) ([]StockCandidate, error)
	FindByLocation(ctx context.Context, tenantID, locationID uuid.UUID) ([]LotPosition, error)
	FindExpiring(ctx context.Context, before time.Time, limit int) ([]LotPosition, error)
	// FindSlot returns the row of a lot at a location with the given status,
	// including an emptied one, or ErrNotFound.
	FindSlot(ctx context.Context, tenantID uuid.UUID, key PhysicalKey, status LotStatus) (*LotPosition, error)

	// Reserve: reserved += qty when status is available and free >= qty.
	Reserve(ctx context.Context, id uuid.UUID, qty int64) error
	// Release: reserved -= qty when reserved >= qty.
	Release(ctx context.Context, id uuid.UUID, qty int64) error
	// Consume: quantity -= qty and reserved -= reservedQty when both stay
	// within bounds.
	Consume(ctx context.Context, id uuid.UUID, qty, reservedQty int64) error
	// AddStock merges pos into an existing row with the same tenant, product,
	// location, lot and status, or inserts it.
	AddStock(ctx context.Context, pos *LotPosition) (*LotPosition, error)
	// TransitionStatus changes status when the current status equals from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to LotStatus) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	// FindByCode matches SKU or GTIN.
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Product, error)
	Save(ctx context.Context, p *Product) error
}

type LocationRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Location, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Location, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Location, error)
	// FindDefault returns the first unblocked location of the zone, by code.
	FindDefault(ctx context.Context, tenantID uuid.UUID, zone Zone) (*Location, error)
	Save(ctx context.Context, l *Location) error
}

type MovementRepository interface {
	Append(ctx context.Context, m *MovementRecord) error
	FindByReference(ctx context.Context, tenantID uuid.UUID, refType string, refID uuid.UUID) ([]MovementRecord, error)
}

// LabelRepository stores label associations. Codes are globally unique, so
// FindByCode may return an association owned by another tenant, and Save
// returns a conflict when the code is already bound.
type LabelRepository interface {
	FindByCode(ctx context.Context, code string) (*LabelAssociation, error)
	Save(ctx context.Context, a *LabelAssociation) error
}

// Package readmodel answers reporting queries straight from the ledger
// tables. Statements are built with goqu and run through GORM.
package readmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultLimit = 100

// Queries runs read-only reporting statements.
type Queries struct {
	db      *gorm.DB
	dialect goqu.DialectWrapper
}

// NewQueries uses goqu's default dialect: double-quoted identifiers and "?"
// placeholders, which GORM rebinds for postgres and sqlite alike.
func NewQueries(db *gorm.DB) *Queries {
	return &Queries{db: db, dialect: goqu.Dialect("default")}
}

// ZoneOccupancy is the stock held in one zone.
type ZoneOccupancy struct {
	Zone      string `json:"zone"`
	Locations int64  `json:"locations"`
	Positions int64  `json:"positions"`
	Quantity  int64  `json:"quantity"`
	Reserved  int64  `json:"reserved"`
}

// ZoneOccupancy sums on-hand and reserved units per zone. Only positions
// holding stock count.
func (q *Queries) ZoneOccupancy(ctx context.Context, tenantID uuid.UUID) ([]ZoneOccupancy, error) {
	lp, loc := goqu.T("lot_positions").As("lp"), goqu.T("locations").As("loc")
	ds := q.dialect.From(lp).
		InnerJoin(loc, goqu.On(goqu.I("loc.id").Eq(goqu.I("lp.location_id")))).
		Select(
			goqu.I("loc.zone").As("zone"),
			goqu.COUNT(goqu.DISTINCT(goqu.I("lp.location_id"))).As("locations"),
			goqu.COUNT(goqu.I("lp.id")).As("positions"),
			goqu.SUM(goqu.I("lp.quantity")).As("quantity"),
			goqu.SUM(goqu.I("lp.reserved")).As("reserved"),
		).
		Where(
			goqu.I("lp.tenant_id").Eq(tenantID.String()),
			goqu.I("lp.quantity").Gt(0),
		).
		GroupBy(goqu.I("loc.zone")).
		Order(goqu.I("loc.zone").Asc())

	var rows []ZoneOccupancy
	if err := q.scan(ctx, ds, &rows); err != nil {
		return nil, fmt.Errorf("zone occupancy: %w", err)
	}
	return rows, nil
}

// ExpiringLot is one lot position due to expire.
type ExpiringLot struct {
	LotPositionID string    `json:"lot_position_id"`
	ProductID     string    `json:"product_id"`
	SKU           string    `json:"sku"`
	Lot           string    `json:"lot"`
	LocationCode  string    `json:"location_code"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
	Quantity      int64     `json:"quantity"`
	Reserved      int64     `json:"reserved"`
}

// ExpiringFilter narrows ExpiringLots.
type ExpiringFilter struct {
	Before    time.Time
	Zone      string
	ProductID *uuid.UUID
	Limit     int
	// SortBy is a key of ExpiringSortFields; expiry date when empty.
	SortBy  string
	SortDir string
}

// ExpiringLots lists positions with stock expiring before the filter date,
// soonest first unless the filter sorts otherwise. Lots already expired,
// damaged or empty are left out.
func (q *Queries) ExpiringLots(ctx context.Context, tenantID uuid.UUID, f ExpiringFilter) ([]ExpiringLot, error) {
	lp := goqu.T("lot_positions").As("lp")
	where := []exp.Expression{
		goqu.I("lp.tenant_id").Eq(tenantID.String()),
		goqu.I("lp.quantity").Gt(0),
		goqu.I("lp.expires_at").IsNotNull(),
		goqu.I("lp.expires_at").Lt(f.Before),
		goqu.I("lp.status").In("available", "quarantine", "blocked"),
	}
	if f.Zone != "" {
		where = append(where, goqu.I("loc.zone").Eq(f.Zone))
	}
	if f.ProductID != nil {
		where = append(where, goqu.I("lp.product_id").Eq(f.ProductID.String()))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	sortCol := sortColumn(f.SortBy, ExpiringSortFields, "lp.expires_at")
	sortDir := SortDirection(f.SortDir, "ASC")

	ds := q.dialect.From(lp).
		InnerJoin(goqu.T("locations").As("loc"), goqu.On(goqu.I("loc.id").Eq(goqu.I("lp.location_id")))).
		InnerJoin(goqu.T("products").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("lp.product_id")))).
		Select(
			goqu.I("lp.id").As("lot_position_id"),
			goqu.I("lp.product_id").As("product_id"),
			goqu.I("p.sku").As("sku"),
			goqu.I("lp.lot").As("lot"),
			goqu.I("loc.code").As("location_code"),
			goqu.I("lp.status").As("status"),
			goqu.I("lp.expires_at").As("expires_at"),
			goqu.I("lp.quantity").As("quantity"),
			goqu.I("lp.reserved").As("reserved"),
		).
		Where(where...).
		Order(orderBy(sortCol, sortDir), goqu.I("lp.expires_at").Asc(), goqu.I("loc.code").Asc()).
		Limit(uint(limit))

	var rows []ExpiringLot
	if err := q.scan(ctx, ds, &rows); err != nil {
		return nil, fmt.Errorf("expiring lots: %w", err)
	}
	return rows, nil
}

// LotBalance is the stock of one lot of a product in one status, summed
// over locations.
type LotBalance struct {
	Lot       string `json:"lot"`
	Status    string `json:"status"`
	Locations int64  `json:"locations"`
	Quantity  int64  `json:"quantity"`
	Reserved  int64  `json:"reserved"`
}

// ProductBalance lists a product's stock per lot and status.
func (q *Queries) ProductBalance(ctx context.Context, tenantID, productID uuid.UUID) ([]LotBalance, error) {
	ds := q.dialect.From("lot_positions").
		Select(
			goqu.C("lot"),
			goqu.C("status"),
			goqu.COUNT(goqu.C("location_id")).As("locations"),
			goqu.SUM(goqu.C("quantity")).As("quantity"),
			goqu.SUM(goqu.C("reserved")).As("reserved"),
		).
		Where(goqu.Ex{
			"tenant_id":  tenantID.String(),
			"product_id": productID.String(),
			"quantity":   goqu.Op{"gt": 0},
		}).
		GroupBy(goqu.C("lot"), goqu.C("status")).
		Order(goqu.C("lot").Asc(), goqu.C("status").Asc())

	var rows []LotBalance
	if err := q.scan(ctx, ds, &rows); err != nil {
		return nil, fmt.Errorf("product balance: %w", err)
	}
	return rows, nil
}

func (q *Queries) scan(ctx context.Context, ds *goqu.SelectDataset, dest any) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return q.db.WithContext(ctx).Raw(query, args...).Scan(dest).Error
}

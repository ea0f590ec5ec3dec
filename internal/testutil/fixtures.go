package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/receiving"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// Fixture seeds warehouse data for one tenant straight through the models,
// bypassing repositories.
type Fixture struct {
	t        *testing.T
	DB       *gorm.DB
	TenantID uuid.UUID
}

func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	return &Fixture{t: t, DB: db, TenantID: uuid.New()}
}

// ForTenant returns a fixture on the same database for another tenant.
func (f *Fixture) ForTenant(tenantID uuid.UUID) *Fixture {
	return &Fixture{t: f.t, DB: f.DB, TenantID: tenantID}
}

func (f *Fixture) create(v any) {
	f.t.Helper()
	require.NoError(f.t, f.DB.WithContext(context.Background()).Create(v).Error)
}

// Product creates a product whose SKU doubles as its barcode.
func (f *Fixture) Product(sku string, unitsPerPackage int64) *inventory.Product {
	f.t.Helper()
	p, err := inventory.NewProduct(f.TenantID, sku, "product "+sku, unitsPerPackage)
	require.NoError(f.t, err)
	p.GTIN = "789" + sku
	p.ExpiryControlled = true
	f.create(models.ProductModelFromDomain(p))
	return p
}

func (f *Fixture) Location(code string, zone inventory.Zone) *inventory.Location {
	f.t.Helper()
	l, err := inventory.NewLocation(f.TenantID, code, zone)
	require.NoError(f.t, err)
	f.create(models.LocationModelFromDomain(l))
	return l
}

// StockOption adjusts a lot position before it is stored.
type StockOption func(*inventory.LotPosition)

func Expiring(t time.Time) StockOption {
	return func(p *inventory.LotPosition) { p.ExpiresAt = &t }
}

func ReceivedAt(t time.Time) StockOption {
	return func(p *inventory.LotPosition) { p.ReceivedAt = t }
}

func WithStatus(s inventory.LotStatus) StockOption {
	return func(p *inventory.LotPosition) { p.Status = s }
}

func WithReserved(qty int64) StockOption {
	return func(p *inventory.LotPosition) { p.Reserved = qty }
}

// Stock stores an available lot position.
func (f *Fixture) Stock(product *inventory.Product, loc *inventory.Location, lot string, qty int64, opts ...StockOption) *inventory.LotPosition {
	f.t.Helper()
	p, err := inventory.NewLotPosition(f.TenantID, product.ID, loc.ID, lot, nil, qty, inventory.LotStatusAvailable)
	require.NoError(f.t, err)
	p.ReceivedAt = p.ReceivedAt.UTC()
	for _, opt := range opts {
		opt(p)
	}
	f.create(models.LotPositionModelFromDomain(p))
	return p
}

// LinePlan describes one order line to seed.
type LinePlan struct {
	Product  *inventory.Product
	Quantity int64
	Lot      string
	Location *inventory.Location
}

// Order stores a pending order with the given lines.
func (f *Fixture) Order(customerID uuid.UUID, number string, lines ...LinePlan) *outbound.Order {
	f.t.Helper()
	o, err := outbound.NewOrder(f.TenantID, customerID, number)
	require.NoError(f.t, err)
	for _, l := range lines {
		var lot *string
		if l.Lot != "" {
			v := l.Lot
			lot = &v
		}
		var directed *uuid.UUID
		if l.Location != nil {
			id := l.Location.ID
			directed = &id
		}
		_, err := o.AddLine(l.Product.ID, l.Quantity, "unit", lot, directed)
		require.NoError(f.t, err)
	}
	_ = o.PullEvents()
	f.create(models.OrderModelFromDomain(o))
	return o
}

func (f *Fixture) Policy(customerID uuid.UUID, policy outbound.AllocationPolicy) {
	f.t.Helper()
	f.create(&models.CustomerPolicyModel{TenantID: f.TenantID, CustomerID: customerID, Policy: string(policy)})
}

// ReceivingItemPlan describes one expected receiving line.
type ReceivingItemPlan struct {
	Product   *inventory.Product
	Lot       string
	ExpiresAt *time.Time
	Expected  int64
}

// ReceivingOrder stores a scheduled receiving order.
func (f *Fixture) ReceivingOrder(number string, items ...ReceivingItemPlan) *receiving.Order {
	f.t.Helper()
	o, err := receiving.NewOrder(f.TenantID, number, "ACME Pharma")
	require.NoError(f.t, err)
	for _, it := range items {
		_, err := o.AddItem(inventory.NewLotKey(it.Product.ID, it.Lot), it.ExpiresAt, it.Expected)
		require.NoError(f.t, err)
	}
	f.create(models.ReceivingOrderModelFromDomain(o))
	return o
}

// Label stores a label association.
func (f *Fixture) Label(code string, product *inventory.Product, lot string) *inventory.LabelAssociation {
	f.t.Helper()
	a, err := inventory.NewLabelAssociation(f.TenantID, code, inventory.NewLotKey(product.ID, lot), nil, 0)
	require.NoError(f.t, err)
	f.create(models.LabelAssociationModelFromDomain(a))
	return a
}

// LotPosition reloads a lot position.
func (f *Fixture) LotPosition(id uuid.UUID) *inventory.LotPosition {
	f.t.Helper()
	var m models.LotPositionModel
	require.NoError(f.t, f.DB.First(&m, "id = ?", id).Error)
	return m.ToDomain()
}

// Reservations loads the reservations of an order.
func (f *Fixture) Reservations(orderID uuid.UUID) []outbound.Reservation {
	f.t.Helper()
	var rows []models.ReservationModel
	require.NoError(f.t, f.DB.Where("order_id = ?", orderID).Order("created_at ASC").Find(&rows).Error)
	out := make([]outbound.Reservation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// ReservedTotal sums the reserved column over every position of the tenant.
func (f *Fixture) ReservedTotal() int64 {
	f.t.Helper()
	var total int64
	require.NoError(f.t, f.DB.Model(&models.LotPositionModel{}).
		Where("tenant_id = ?", f.TenantID).
		Select("COALESCE(SUM(reserved), 0)").Scan(&total).Error)
	return total
}

// BlockLocation flags a location as blocked.
func (f *Fixture) BlockLocation(loc *inventory.Location) {
	f.t.Helper()
	require.NoError(f.t, f.DB.Model(&models.LocationModel{}).Where("id = ?", loc.ID).Update("blocked", true).Error)
	loc.Blocked = true
}

package allocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/allocation"
	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence"
	"github.com/pharmawms/backend/internal/infrastructure/strategy"
	"github.com/pharmawms/backend/internal/testutil"
)

type harness struct {
	svc    *allocation.Service
	fx     *testutil.Fixture
	events *testutil.EventRecorder
	repos  uow.Repositories
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)

	svc := allocation.NewService(persistence.NewGormTransactionScope(db), registry, zap.NewNop())
	events := testutil.NewEventRecorder()
	svc.SetEventPublisher(events)

	return &harness{
		svc:    svc,
		fx:     testutil.NewFixture(t, db),
		events: events,
		repos:  persistence.NewRepositories(db),
	}
}

func (h *harness) allocate(o *outbound.Order) (*allocation.AllocationResult, error) {
	return h.svc.Allocate(context.Background(), allocation.AllocateRequest{TenantID: o.TenantID, OrderID: o.ID})
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func byLot(rs []allocation.ReservationResponse) map[string]int64 {
	out := make(map[string]int64)
	for _, r := range rs {
		out[r.Lot] += r.Quantity
	}
	return out
}

func TestAllocate_FEFOSplitsAcrossLots(t *testing.T) {
	h := newHarness(t)
	customer := uuid.New()
	h.fx.Policy(customer, outbound.PolicyFEFO)

	p := h.fx.Product("P-100", 10)
	a1 := h.fx.Location("A-01-01", inventory.ZoneStorage)
	a2 := h.fx.Location("A-01-02", inventory.ZoneStorage)
	l2 := h.fx.Stock(p, a1, "L2", 50, testutil.Expiring(month(2025, time.June)))
	l1 := h.fx.Stock(p, a2, "L1", 100, testutil.Expiring(month(2025, time.January)))

	order := h.fx.Order(customer, "SO-1", testutil.LinePlan{Product: p, Quantity: 120})

	res, err := h.allocate(order)
	require.NoError(t, err)

	assert.Equal(t, "FEFO", res.Policy)
	assert.Equal(t, string(outbound.OrderStatusAllocated), res.Status)
	require.Len(t, res.Reservations, 2)
	assert.Equal(t, map[string]int64{"L1": 100, "L2": 20}, byLot(res.Reservations))

	assert.Equal(t, int64(100), h.fx.LotPosition(l1.ID).Reserved)
	assert.Equal(t, int64(20), h.fx.LotPosition(l2.ID).Reserved)

	stored, err := h.repos.Orders().FindByID(context.Background(), order.TenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, outbound.OrderStatusAllocated, stored.Status)
	assert.Equal(t, outbound.PolicyFEFO, stored.Policy)

	require.Len(t, h.events.OfType(outbound.EventTypeOrderAllocated), 1)
}

func TestAllocate_FIFOIsTheDefault(t *testing.T) {
	h := newHarness(t)
	p := h.fx.Product("P-200", 1)
	loc := h.fx.Location("B-01", inventory.ZoneStorage)
	old := h.fx.Stock(p, loc, "OLD", 10,
		testutil.ReceivedAt(month(2024, time.March)),
		testutil.Expiring(month(2027, time.January)))
	h.fx.Stock(p, h.fx.Location("B-02", inventory.ZoneStorage), "NEW", 10,
		testutil.ReceivedAt(month(2024, time.May)),
		testutil.Expiring(month(2026, time.January)))

	order := h.fx.Order(uuid.New(), "SO-2", testutil.LinePlan{Product: p, Quantity: 8})
	res, err := h.allocate(order)
	require.NoError(t, err)

	assert.Equal(t, "FIFO", res.Policy)
	require.Len(t, res.Reservations, 1)
	assert.Equal(t, old.ID, res.Reservations[0].LotPositionID)
	assert.Equal(t, int64(8), res.Reservations[0].Quantity)
}

func TestAllocate_ExactBoundary(t *testing.T) {
	h := newHarness(t)
	p := h.fx.Product("P-300", 1)
	loc := h.fx.Location("C-01", inventory.ZoneStorage)
	pos := h.fx.Stock(p, loc, "L1", 40)
	customer := uuid.New()

	first := h.fx.Order(customer, "SO-3", testutil.LinePlan{Product: p, Quantity: 40})
	_, err := h.allocate(first)
	require.NoError(t, err)
	assert.Equal(t, int64(0), h.fx.LotPosition(pos.ID).Free())

	second := h.fx.Order(customer, "SO-4", testutil.LinePlan{Product: p, Quantity: 1})
	_, err = h.allocate(second)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, int64(40), h.fx.LotPosition(pos.ID).Reserved)
	assert.Empty(t, h.fx.Reservations(second.ID))
}

func TestAllocate_ShortfallRollsBackEveryLine(t *testing.T) {
	h := newHarness(t)
	p1 := h.fx.Product("P-401", 1)
	p2 := h.fx.Product("P-402", 1)
	loc := h.fx.Location("D-01", inventory.ZoneStorage)
	h.fx.Stock(p1, loc, "A", 30)
	h.fx.Stock(p2, loc, "B", 5)

	order := h.fx.Order(uuid.New(), "SO-5",
		testutil.LinePlan{Product: p1, Quantity: 30},
		testutil.LinePlan{Product: p2, Quantity: 6},
	)
	_, err := h.allocate(order)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "product P-402")
	assert.Contains(t, err.Error(), "requested 6, available 5")

	assert.Zero(t, h.fx.ReservedTotal())
	assert.Empty(t, h.fx.Reservations(order.ID))

	stored, err := h.repos.Orders().FindByID(context.Background(), order.TenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, outbound.OrderStatusPending, stored.Status)
	assert.Empty(t, h.events.Events())
}

func TestAllocate_SkipsIneligibleStock(t *testing.T) {
	h := newHarness(t)
	p := h.fx.Product("P-500", 1)

	blocked := h.fx.Location("E-01", inventory.ZoneStorage)
	h.fx.BlockLocation(blocked)
	h.fx.Stock(p, blocked, "X", 100)

	h.fx.Stock(p, h.fx.Location("REC-01", inventory.ZoneReceiving), "X", 100)
	h.fx.Stock(p, h.fx.Location("E-02", inventory.ZoneStorage), "X", 100, testutil.WithStatus(inventory.LotStatusQuarantine))
	good := h.fx.Stock(p, h.fx.Location("E-03", inventory.ZoneStorage), "X", 10)

	order := h.fx.Order(uuid.New(), "SO-6", testutil.LinePlan{Product: p, Quantity: 10})
	res, err := h.allocate(order)
	require.NoError(t, err)
	require.Len(t, res.Reservations, 1)
	assert.Equal(t, good.ID, res.Reservations[0].LotPositionID)

	again := h.fx.Order(uuid.New(), "SO-7", testutil.LinePlan{Product: p, Quantity: 1})
	_, err = h.allocate(again)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestAllocate_LotConstraintAndDirectedLocation(t *testing.T) {
	h := newHarness(t)
	customer := uuid.New()
	h.fx.Policy(customer, outbound.PolicyDirected)

	p := h.fx.Product("P-600", 1)
	near := h.fx.Location("F-01", inventory.ZoneStorage)
	far := h.fx.Location("F-09", inventory.ZoneStorage)
	h.fx.Stock(p, near, "L7", 50)
	wanted := h.fx.Stock(p, far, "L7", 50)
	h.fx.Stock(p, far, "L8", 50)

	order := h.fx.Order(customer, "SO-8", testutil.LinePlan{Product: p, Quantity: 20, Lot: "L7", Location: far})
	res, err := h.allocate(order)
	require.NoError(t, err)
	require.Len(t, res.Reservations, 1)
	assert.Equal(t, wanted.ID, res.Reservations[0].LotPositionID)
	assert.Equal(t, "L7", res.Reservations[0].Lot)

	undirected := h.fx.Order(customer, "SO-9", testutil.LinePlan{Product: p, Quantity: 1})
	_, err = h.allocate(undirected)
	require.ErrorIs(t, err, shared.ErrBadRequest)
}

func TestAllocate_RequiresPendingOrder(t *testing.T) {
	h := newHarness(t)
	p := h.fx.Product("P-700", 1)
	h.fx.Stock(p, h.fx.Location("G-01", inventory.ZoneStorage), "L", 10)
	order := h.fx.Order(uuid.New(), "SO-10", testutil.LinePlan{Product: p, Quantity: 5})

	_, err := h.allocate(order)
	require.NoError(t, err)

	_, err = h.allocate(order)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Len(t, h.fx.Reservations(order.ID), 1)

	_, err = h.svc.Allocate(context.Background(), allocation.AllocateRequest{TenantID: uuid.New(), OrderID: order.ID})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

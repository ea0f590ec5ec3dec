package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/allocation"
	"github.com/pharmawms/backend/internal/application/conference"
	"github.com/pharmawms/backend/internal/application/lifecycle"
	"github.com/pharmawms/backend/internal/application/picking"
	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/application/wave"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence"
	"github.com/pharmawms/backend/internal/infrastructure/strategy"
	"github.com/pharmawms/backend/internal/testutil"
)

type harness struct {
	svc    *lifecycle.Service
	fx     *testutil.Fixture
	events *testutil.EventRecorder
	repos  uow.Repositories

	allocator *allocation.Service
	picker    *picking.Service
	staging   *conference.StagingService
	waves     *wave.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)
	scope := persistence.NewGormTransactionScope(db)

	events := testutil.NewEventRecorder()
	svc := lifecycle.NewService(scope, zap.NewNop())
	svc.SetEventPublisher(events)
	return &harness{
		svc:       svc,
		fx:        testutil.NewFixture(t, db),
		events:    events,
		repos:     persistence.NewRepositories(db),
		allocator: allocation.NewService(scope, registry, zap.NewNop()),
		picker:    picking.NewService(scope, registry, zap.NewNop()),
		staging:   conference.NewStagingService(scope, zap.NewNop()),
		waves:     wave.NewService(scope, outbound.NewWaveNumberer(persistence.NewGormSequenceGenerator(db), ""), zap.NewNop()),
	}
}

func (h *harness) allocated(t *testing.T, p *inventory.Product, qty int64) *outbound.Order {
	t.Helper()
	o := h.fx.Order(uuid.New(), "SO-"+uuid.NewString()[:8], testutil.LinePlan{Product: p, Quantity: qty})
	_, err := h.allocator.Allocate(context.Background(), allocation.AllocateRequest{TenantID: h.fx.TenantID, OrderID: o.ID})
	require.NoError(t, err)
	return o
}

// staged allocates, picks and stages an order in full.
func (h *harness) staged(t *testing.T, p *inventory.Product, qty int64, label string) *outbound.Order {
	t.Helper()
	ctx := context.Background()
	o := h.allocated(t, p, qty)
	route, err := h.picker.StartOrderRoute(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)
	for _, a := range route.Allocations {
		q := a.Quantity
		_, err := h.picker.Scan(ctx, picking.ScanRequest{TenantID: h.fx.TenantID, AllocationID: a.ID, Label: label, ManualQuantity: &q})
		require.NoError(t, err)
	}
	_, err = h.picker.CompleteRoute(ctx, h.fx.TenantID, outbound.OrderRoute(o.ID))
	require.NoError(t, err)

	session, err := h.staging.StartStaging(ctx, h.fx.TenantID, o.ID, uuid.New())
	require.NoError(t, err)
	_, err = h.staging.RecordStaging(ctx, conference.StagingScanRequest{TenantID: h.fx.TenantID, SessionID: session.ID, Label: label, Quantity: &qty})
	require.NoError(t, err)
	_, err = h.staging.CompleteStaging(ctx, conference.CompleteStagingRequest{TenantID: h.fx.TenantID, SessionID: session.ID})
	require.NoError(t, err)
	return o
}

func (h *harness) order(t *testing.T, id uuid.UUID) *outbound.Order {
	t.Helper()
	o, err := h.repos.Orders().FindByID(context.Background(), h.fx.TenantID, id)
	require.NoError(t, err)
	return o
}

func TestCancelOrder_ReleasesReservations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product("LC-1", 1)
	a := h.fx.Stock(p, h.fx.Location("A-01", inventory.ZoneStorage), "L1", 8)
	b := h.fx.Stock(p, h.fx.Location("A-02", inventory.ZoneStorage), "L2", 20)
	o := h.allocated(t, p, 12)
	require.Equal(t, int64(12), h.fx.ReservedTotal())

	res, err := h.svc.CancelOrder(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, string(outbound.OrderStatusCancelled), res.Status)

	assert.Equal(t, int64(0), h.fx.LotPosition(a.ID).Reserved)
	assert.Equal(t, int64(0), h.fx.LotPosition(b.ID).Reserved)
	assert.Empty(t, h.fx.Reservations(o.ID))
	assert.Len(t, h.events.OfType(outbound.EventTypeOrderStatusChanged), 1)

	again, err := h.svc.CancelOrder(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Len(t, h.events.OfType(outbound.EventTypeOrderStatusChanged), 1)

	// the released stock serves the next order
	next := h.allocated(t, p, 28)
	assert.Len(t, h.fx.Reservations(next.ID), 2)
}

func TestCancelOrder_DropsOpenPickRoute(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product("LC-2", 1)
	h.fx.Stock(p, h.fx.Location("A-01", inventory.ZoneStorage), "L1", 10)
	o := h.allocated(t, p, 4)
	_, err := h.picker.StartOrderRoute(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)

	_, err = h.svc.CancelOrder(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)
	route, err := h.picker.GetRoute(ctx, h.fx.TenantID, outbound.OrderRoute(o.ID))
	require.NoError(t, err)
	assert.Empty(t, route.Allocations)
	assert.Equal(t, int64(0), h.fx.ReservedTotal())
}

func TestCancelOrder_AfterWaveCompleted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product("LC-3", 1)
	h.fx.Stock(p, h.fx.Location("A-01", inventory.ZoneStorage), "L1", 20)
	h.fx.Label("LC3-L1", p, "L1")
	customer := uuid.New()
	allocate := func(number string, qty int64) *outbound.Order {
		o := h.fx.Order(customer, number, testutil.LinePlan{Product: p, Quantity: qty})
		_, err := h.allocator.Allocate(ctx, allocation.AllocateRequest{TenantID: h.fx.TenantID, OrderID: o.ID})
		require.NoError(t, err)
		return o
	}
	o1 := allocate("SO-LC3-1", 4)
	o2 := allocate("SO-LC3-2", 6)

	w, err := h.waves.CreateWave(ctx, wave.CreateWaveRequest{TenantID: h.fx.TenantID, OrderIDs: []uuid.UUID{o1.ID, o2.ID}})
	require.NoError(t, err)

	// an open wave owns its orders
	_, err = h.svc.CancelOrder(ctx, h.fx.TenantID, o1.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)

	route, err := h.picker.StartWaveRoute(ctx, h.fx.TenantID, w.ID)
	require.NoError(t, err)
	for _, a := range route.Allocations {
		q := a.Quantity
		_, err := h.picker.Scan(ctx, picking.ScanRequest{TenantID: h.fx.TenantID, AllocationID: a.ID, Label: "LC3-L1", ManualQuantity: &q})
		require.NoError(t, err)
	}
	_, err = h.picker.CompleteRoute(ctx, h.fx.TenantID, outbound.WaveRoute(w.ID))
	require.NoError(t, err)

	res, err := h.svc.CancelOrder(ctx, h.fx.TenantID, o1.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, string(outbound.OrderStatusCancelled), res.Status)
	assert.Empty(t, h.fx.Reservations(o1.ID))
	assert.Equal(t, int64(6), h.fx.ReservedTotal())

	kept, err := h.repos.Orders().FindByID(ctx, h.fx.TenantID, o2.ID)
	require.NoError(t, err)
	assert.Equal(t, outbound.OrderStatusPicked, kept.Status)
}

func TestShipOrder_ConsumesShippingStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product("LC-3", 1)
	h.fx.Stock(p, h.fx.Location("A-01", inventory.ZoneStorage), "L1", 30)
	dock := h.fx.Location("DOCK-OUT", inventory.ZoneShipping)
	h.fx.Label("LC3-L1", p, "L1")

	unpicked := h.allocated(t, p, 5)
	_, err := h.svc.ShipOrder(ctx, h.fx.TenantID, unpicked.ID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	o := h.staged(t, p, 12, "LC3-L1")
	_, err = h.svc.CancelOrder(ctx, h.fx.TenantID, o.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	res, err := h.svc.ShipOrder(ctx, h.fx.TenantID, o.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, string(outbound.OrderStatusShipped), res.Status)

	left, err := h.repos.LotPositions().FindByLocation(ctx, h.fx.TenantID, dock.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	shipments := h.events.OfType(inventory.EventTypeMovementRecorded)
	require.Len(t, shipments, 1)
	m := shipments[0].(*inventory.MovementRecordedEvent)
	assert.Equal(t, inventory.MovementShipment, m.MovementType)
	assert.Equal(t, int64(12), m.Quantity)
	assert.Nil(t, m.ToLocationID)
}

func TestQuality_ApproveAndReject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product("LC-4", 1)
	dock := h.fx.Location("DOCK-IN", inventory.ZoneReceiving)
	shelf := h.fx.Location("B-01", inventory.ZoneStorage)
	q1 := h.fx.Stock(p, dock, "Q1", 40, testutil.WithStatus(inventory.LotStatusQuarantine))
	q2 := h.fx.Stock(p, dock, "Q2", 15, testutil.WithStatus(inventory.LotStatusQuarantine))
	q3 := h.fx.Stock(p, dock, "Q3", 6, testutil.WithStatus(inventory.LotStatusQuarantine))
	operator := uuid.New()

	approved, err := h.svc.ApproveQuality(ctx, lifecycle.QualityRequest{TenantID: h.fx.TenantID, LotPositionID: q1.ID, OperatorID: operator})
	require.NoError(t, err)
	assert.Equal(t, string(inventory.LotStatusAvailable), approved.Status)
	assert.Equal(t, dock.ID, approved.LocationID)

	_, err = h.svc.ApproveQuality(ctx, lifecycle.QualityRequest{TenantID: h.fx.TenantID, LotPositionID: q1.ID, OperatorID: operator})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	moved, err := h.svc.ApproveQuality(ctx, lifecycle.QualityRequest{
		TenantID: h.fx.TenantID, LotPositionID: q2.ID, OperatorID: operator, DestinationID: &shelf.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, shelf.ID, moved.LocationID)
	assert.Equal(t, int64(15), moved.Quantity)
	assert.Equal(t, int64(0), h.fx.LotPosition(q2.ID).Quantity)
	assert.Len(t, h.events.OfType(inventory.EventTypeMovementRecorded), 1)

	rejected, err := h.svc.RejectQuality(ctx, lifecycle.QualityRequest{TenantID: h.fx.TenantID, LotPositionID: q3.ID, Reason: "broken seal"})
	require.NoError(t, err)
	assert.Equal(t, string(inventory.LotStatusDamaged), rejected.Status)

	changes := h.events.OfType(inventory.EventTypeLotStatusChanged)
	require.Len(t, changes, 3)
	last := changes[2].(*inventory.LotStatusChangedEvent)
	assert.Equal(t, inventory.LotStatusQuarantine, last.From)
	assert.Equal(t, inventory.LotStatusDamaged, last.To)
	assert.Equal(t, "broken seal", last.Reason)
}

func TestQuality_ApprovalMergesIntoAvailableSibling(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product("LC-5", 1)
	dock := h.fx.Location("DOCK-IN", inventory.ZoneReceiving)
	released := h.fx.Stock(p, dock, "M1", 10)
	held := h.fx.Stock(p, dock, "M1", 5, testutil.WithStatus(inventory.LotStatusQuarantine))

	res, err := h.svc.ApproveQuality(ctx, lifecycle.QualityRequest{TenantID: h.fx.TenantID, LotPositionID: held.ID})
	require.NoError(t, err)
	assert.Equal(t, released.ID, res.ID)
	assert.Equal(t, int64(15), res.Quantity)
	assert.Equal(t, int64(0), h.fx.LotPosition(held.ID).Quantity)
}

func TestBlockLot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product("LC-6", 1)
	loc := h.fx.Location("A-01", inventory.ZoneStorage)
	free := h.fx.Stock(p, loc, "B1", 10)
	busy := h.fx.Stock(p, loc, "B2", 10, testutil.WithReserved(3))

	blocked, err := h.svc.BlockLot(ctx, h.fx.TenantID, free.ID, "recall")
	require.NoError(t, err)
	assert.Equal(t, string(inventory.LotStatusBlocked), blocked.Status)

	_, err = h.svc.BlockLot(ctx, h.fx.TenantID, busy.ID, "recall")
	assert.ErrorIs(t, err, shared.ErrConflict)

	// blocked stock is invisible to allocation
	o := h.fx.Order(uuid.New(), "SO-BLK", testutil.LinePlan{Product: p, Quantity: 8})
	_, err = h.allocator.Allocate(ctx, allocation.AllocateRequest{TenantID: h.fx.TenantID, OrderID: o.ID})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	unblocked, err := h.svc.UnblockLot(ctx, h.fx.TenantID, free.ID, "recall lifted")
	require.NoError(t, err)
	assert.Equal(t, string(inventory.LotStatusAvailable), unblocked.Status)

	_, err = h.svc.UnblockLot(ctx, h.fx.TenantID, free.ID, "")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestExpireLots(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := h.fx.Product("LC-7", 1)
	loc := h.fx.Location("A-01", inventory.ZoneStorage)
	past := h.fx.Stock(p, loc, "E1", 10, testutil.Expiring(now.AddDate(0, 0, -1)))
	quarantined := h.fx.Stock(p, loc, "E2", 10, testutil.Expiring(now.AddDate(0, -1, 0)), testutil.WithStatus(inventory.LotStatusQuarantine))
	future := h.fx.Stock(p, loc, "E3", 10, testutil.Expiring(now.AddDate(0, 1, 0)))
	undated := h.fx.Stock(p, loc, "E4", 10)

	report, err := h.svc.ExpireLots(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Expired)
	assert.Equal(t, 0, report.Skipped)

	assert.Equal(t, inventory.LotStatusExpired, h.fx.LotPosition(past.ID).Status)
	assert.Equal(t, inventory.LotStatusExpired, h.fx.LotPosition(quarantined.ID).Status)
	assert.Equal(t, inventory.LotStatusAvailable, h.fx.LotPosition(future.ID).Status)
	assert.Equal(t, inventory.LotStatusAvailable, h.fx.LotPosition(undated.ID).Status)
	assert.Len(t, h.events.OfType(inventory.EventTypeLotStatusChanged), 2)

	report, err = h.svc.ExpireLots(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Expired)
}

func TestAcceptShortage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product("LC-8", 1)
	h.fx.Stock(p, h.fx.Location("A-01", inventory.ZoneStorage), "L1", 10)
	h.fx.Label("LC8-L1", p, "L1")
	o := h.allocated(t, p, 6)

	_, err := h.svc.AcceptShortage(ctx, h.fx.TenantID, o.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	route, err := h.picker.StartOrderRoute(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)
	four := int64(4)
	_, err = h.picker.Scan(ctx, picking.ScanRequest{TenantID: h.fx.TenantID, AllocationID: route.Allocations[0].ID, Label: "LC8-L1", ManualQuantity: &four})
	require.NoError(t, err)
	_, err = h.picker.ReportProblem(ctx, picking.ProblemRequest{TenantID: h.fx.TenantID, AllocationID: route.Allocations[0].ID, Reason: outbound.ProblemDamagedUnit})
	require.NoError(t, err)
	_, err = h.picker.CompleteRoute(ctx, h.fx.TenantID, outbound.OrderRoute(o.ID))
	require.NoError(t, err)
	require.Equal(t, outbound.OrderStatusDivergent, h.order(t, o.ID).Status)

	res, err := h.svc.AcceptShortage(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, string(outbound.OrderStatusPicked), res.Status)
}

package wave_test

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
	"github.com/pharmawms/backend/internal/application/wave"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence"
	"github.com/pharmawms/backend/internal/infrastructure/strategy"
	"github.com/pharmawms/backend/internal/testutil"
)

var today = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

type harness struct {
	waves     *wave.Service
	allocator *allocation.Service
	fx        *testutil.Fixture
	events    *testutil.EventRecorder
	repos     uow.Repositories
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)

	scope := persistence.NewGormTransactionScope(db)
	numberer := outbound.NewWaveNumberer(persistence.NewGormSequenceGenerator(db), "").
		WithClock(func() time.Time { return today })

	events := testutil.NewEventRecorder()
	svc := wave.NewService(scope, numberer, zap.NewNop())
	svc.SetEventPublisher(events)

	return &harness{
		waves:     svc,
		allocator: allocation.NewService(scope, registry, zap.NewNop()),
		fx:        testutil.NewFixture(t, db),
		events:    events,
		repos:     persistence.NewRepositories(db),
	}
}

func (h *harness) allocated(t *testing.T, customer uuid.UUID, number string, lines ...testutil.LinePlan) *outbound.Order {
	t.Helper()
	o := h.fx.Order(customer, number, lines...)
	_, err := h.allocator.Allocate(context.Background(), allocation.AllocateRequest{TenantID: o.TenantID, OrderID: o.ID})
	require.NoError(t, err)
	return o
}

func (h *harness) create(ids ...uuid.UUID) (*wave.WaveResult, error) {
	return h.waves.CreateWave(context.Background(), wave.CreateWaveRequest{TenantID: h.fx.TenantID, OrderIDs: ids})
}

func TestCreateWave_ConsolidatesSamePhysicalKey(t *testing.T) {
	h := newHarness(t)
	customer := uuid.New()
	p := h.fx.Product("X-1", 10)
	loc := h.fx.Location("A-01", inventory.ZoneStorage)
	pos := h.fx.Stock(p, loc, "L", 100)

	o1 := h.allocated(t, customer, "SO-1", testutil.LinePlan{Product: p, Quantity: 30})
	o2 := h.allocated(t, customer, "SO-2", testutil.LinePlan{Product: p, Quantity: 20})

	res, err := h.create(o1.ID, o2.ID)
	require.NoError(t, err)

	assert.Equal(t, "OS-20250314-0001", res.Number)
	assert.Equal(t, string(outbound.WaveStatusPending), res.Status)
	assert.Equal(t, customer, res.CustomerID)
	require.Len(t, res.Items, 1)

	item := res.Items[0]
	assert.Equal(t, int64(50), item.TotalQuantity)
	assert.Equal(t, "L", item.Lot)
	assert.Equal(t, "A-01", item.LocationCode)
	require.Len(t, item.Sources, 2)
	byOrder := map[uuid.UUID]int64{}
	for _, s := range item.Sources {
		byOrder[s.OrderID] = s.Quantity
	}
	assert.Equal(t, map[uuid.UUID]int64{o1.ID: 30, o2.ID: 20}, byOrder)

	// the ledger is untouched by consolidation
	assert.Equal(t, int64(50), h.fx.LotPosition(pos.ID).Reserved)

	for _, id := range []uuid.UUID{o1.ID, o2.ID} {
		o, err := h.repos.Orders().FindByID(context.Background(), h.fx.TenantID, id)
		require.NoError(t, err)
		assert.Equal(t, outbound.OrderStatusInWave, o.Status)
		require.NotNil(t, o.WaveID)
		assert.Equal(t, res.ID, *o.WaveID)
	}
	assert.Len(t, h.events.OfType(outbound.EventTypeWaveCreated), 1)
}

func TestCreateWave_NumbersIncreasePerDay(t *testing.T) {
	h := newHarness(t)
	customer := uuid.New()
	p := h.fx.Product("X-2", 1)
	loc := h.fx.Location("A-02", inventory.ZoneStorage)
	h.fx.Stock(p, loc, "L", 10)

	first, err := h.create(h.allocated(t, customer, "SO-1", testutil.LinePlan{Product: p, Quantity: 1}).ID)
	require.NoError(t, err)
	second, err := h.create(h.allocated(t, customer, "SO-2", testutil.LinePlan{Product: p, Quantity: 1}).ID)
	require.NoError(t, err)

	assert.Equal(t, "OS-20250314-0001", first.Number)
	assert.Equal(t, "OS-20250314-0002", second.Number)
}

func TestCreateWave_DistinctKeysStaySeparate(t *testing.T) {
	h := newHarness(t)
	customer := uuid.New()
	p := h.fx.Product("X-3", 1)
	h.fx.Stock(p, h.fx.Location("A-03", inventory.ZoneStorage), "L1", 5)
	h.fx.Stock(p, h.fx.Location("A-04", inventory.ZoneStorage), "L2", 5)

	o1 := h.allocated(t, customer, "SO-1", testutil.LinePlan{Product: p, Quantity: 5, Lot: "L1"})
	o2 := h.allocated(t, customer, "SO-2", testutil.LinePlan{Product: p, Quantity: 5, Lot: "L2"})

	res, err := h.create(o1.ID, o2.ID)
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
}

func TestCreateWave_Rejections(t *testing.T) {
	h := newHarness(t)
	p := h.fx.Product("X-4", 1)
	h.fx.Stock(p, h.fx.Location("A-05", inventory.ZoneStorage), "L", 100)

	customer := uuid.New()
	o1 := h.allocated(t, customer, "SO-1", testutil.LinePlan{Product: p, Quantity: 1})
	o2 := h.allocated(t, uuid.New(), "SO-2", testutil.LinePlan{Product: p, Quantity: 1})
	pending := h.fx.Order(customer, "SO-3", testutil.LinePlan{Product: p, Quantity: 1})

	t.Run("empty", func(t *testing.T) {
		_, err := h.create()
		assert.ErrorIs(t, err, shared.ErrBadRequest)
	})
	t.Run("different customers", func(t *testing.T) {
		_, err := h.create(o1.ID, o2.ID)
		assert.ErrorIs(t, err, shared.ErrBadRequest)
	})
	t.Run("not allocated", func(t *testing.T) {
		_, err := h.create(o1.ID, pending.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
	t.Run("unknown order", func(t *testing.T) {
		_, err := h.create(o1.ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
	t.Run("other tenant", func(t *testing.T) {
		other := h.fx.ForTenant(uuid.New())
		foreign := other.Order(customer, "SO-9", testutil.LinePlan{Product: p, Quantity: 1})
		_, err := h.create(o1.ID, foreign.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
	t.Run("already in a wave", func(t *testing.T) {
		w, err := h.create(o1.ID)
		require.NoError(t, err)
		_, err = h.create(o1.ID)
		assert.ErrorIs(t, err, shared.ErrConflict)

		// rejected requests drew no numbers
		assert.Equal(t, "OS-20250314-0001", w.Number)
		next, err := h.create(h.allocated(t, customer, "SO-4", testutil.LinePlan{Product: p, Quantity: 1}).ID)
		require.NoError(t, err)
		assert.Equal(t, "OS-20250314-0002", next.Number)
	})
}

func TestCancelWave_ReleasesProgressAndKeepsReservations(t *testing.T) {
	h := newHarness(t)
	customer := uuid.New()
	p := h.fx.Product("X-5", 1)
	pos := h.fx.Stock(p, h.fx.Location("A-06", inventory.ZoneStorage), "L", 40)

	o1 := h.allocated(t, customer, "SO-1", testutil.LinePlan{Product: p, Quantity: 10})
	o2 := h.allocated(t, customer, "SO-2", testutil.LinePlan{Product: p, Quantity: 15})
	created, err := h.create(o1.ID, o2.ID)
	require.NoError(t, err)

	ctx := context.Background()
	res, err := h.waves.CancelWave(ctx, h.fx.TenantID, created.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, string(outbound.WaveStatusCancelled), res.Status)

	for _, id := range []uuid.UUID{o1.ID, o2.ID} {
		o, err := h.repos.Orders().FindByID(ctx, h.fx.TenantID, id)
		require.NoError(t, err)
		assert.Equal(t, outbound.OrderStatusAllocated, o.Status)
		assert.Nil(t, o.WaveID)
		assert.Len(t, h.fx.Reservations(id), 1)
	}
	assert.Equal(t, int64(25), h.fx.LotPosition(pos.ID).Reserved)

	again, err := h.waves.CancelWave(ctx, h.fx.TenantID, created.ID)
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Len(t, h.events.OfType(outbound.EventTypeWaveStatusChanged), 1)

	// released orders can be waved again
	_, err = h.create(o1.ID, o2.ID)
	require.NoError(t, err)
}

func TestGetWave(t *testing.T) {
	h := newHarness(t)
	p := h.fx.Product("X-6", 1)
	h.fx.Stock(p, h.fx.Location("A-07", inventory.ZoneStorage), "L", 10)
	o := h.allocated(t, uuid.New(), "SO-1", testutil.LinePlan{Product: p, Quantity: 4})

	created, err := h.create(o.ID)
	require.NoError(t, err)

	got, err := h.waves.GetWave(context.Background(), h.fx.TenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Number, got.Number)
	assert.True(t, got.FillRate.IsZero())

	_, err = h.waves.GetWave(context.Background(), uuid.New(), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

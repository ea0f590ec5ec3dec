package conference_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/allocation"
	"github.com/pharmawms/backend/internal/application/conference"
	"github.com/pharmawms/backend/internal/application/picking"
	"github.com/pharmawms/backend/internal/application/uow"
	domain "github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence"
	"github.com/pharmawms/backend/internal/infrastructure/strategy"
	"github.com/pharmawms/backend/internal/testutil"
)

type stagingHarness struct {
	svc      *conference.StagingService
	fx       *testutil.Fixture
	events   *testutil.EventRecorder
	repos    uow.Repositories
	shipping *inventory.Location

	allocator *allocation.Service
	picker    *picking.Service
}

func newStagingHarness(t *testing.T) *stagingHarness {
	t.Helper()
	db := testutil.NewTestDB(t)
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)
	scope := persistence.NewGormTransactionScope(db)

	events := testutil.NewEventRecorder()
	svc := conference.NewStagingService(scope, zap.NewNop())
	svc.SetEventPublisher(events)
	fx := testutil.NewFixture(t, db)
	return &stagingHarness{
		svc:       svc,
		fx:        fx,
		events:    events,
		repos:     persistence.NewRepositories(db),
		shipping:  fx.Location("DOCK-OUT", inventory.ZoneShipping),
		allocator: allocation.NewService(scope, registry, zap.NewNop()),
		picker:    picking.NewService(scope, registry, zap.NewNop()),
	}
}

// pickedOrder allocates and fully picks an order with one line.
func (h *stagingHarness) pickedOrder(t *testing.T, p *inventory.Product, qty int64, label string) *outbound.Order {
	t.Helper()
	ctx := context.Background()
	o := h.fx.Order(uuid.New(), "SO-"+label, testutil.LinePlan{Product: p, Quantity: qty})
	_, err := h.allocator.Allocate(ctx, allocation.AllocateRequest{TenantID: h.fx.TenantID, OrderID: o.ID})
	require.NoError(t, err)
	route, err := h.picker.StartOrderRoute(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)
	for _, a := range route.Allocations {
		q := a.Quantity
		_, err := h.picker.Scan(ctx, picking.ScanRequest{TenantID: h.fx.TenantID, AllocationID: a.ID, Label: label, ManualQuantity: &q})
		require.NoError(t, err)
	}
	_, err = h.picker.CompleteRoute(ctx, h.fx.TenantID, outbound.OrderRoute(o.ID))
	require.NoError(t, err)
	return o
}

func (h *stagingHarness) record(sessionID uuid.UUID, label string, qty int64) (*conference.ScanResult, error) {
	return h.svc.RecordStaging(context.Background(), conference.StagingScanRequest{
		TenantID: h.fx.TenantID, SessionID: sessionID, Label: label, Quantity: &qty,
	})
}

func TestStaging_CleanCompletionMovesStock(t *testing.T) {
	h := newStagingHarness(t)
	ctx := context.Background()
	p := h.fx.Product("ST-1", 1)
	pos := h.fx.Stock(p, h.fx.Location("A-01", inventory.ZoneStorage), "L1", 30)
	h.fx.Label("ST1-L1", p, "L1")
	o := h.pickedOrder(t, p, 12, "ST1-L1")

	session, err := h.svc.StartStaging(ctx, h.fx.TenantID, o.ID, uuid.New())
	require.NoError(t, err)
	require.Len(t, session.Lines, 1)
	assert.Nil(t, session.Lines[0].Expected)

	res, err := h.record(session.ID, "ST1-L1", 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.Counted)

	done, err := h.svc.CompleteStaging(ctx, conference.CompleteStagingRequest{TenantID: h.fx.TenantID, SessionID: session.ID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), done.Status)
	assert.False(t, done.Forced)

	stored, err := h.repos.Orders().FindByID(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, outbound.OrderStatusStaged, stored.Status)

	src := h.fx.LotPosition(pos.ID)
	assert.Equal(t, int64(18), src.Quantity)
	assert.Equal(t, int64(0), src.Reserved)
	assert.Empty(t, h.fx.Reservations(o.ID))

	shipped, err := h.repos.LotPositions().FindByLocation(ctx, h.fx.TenantID, h.shipping.ID)
	require.NoError(t, err)
	require.Len(t, shipped, 1)
	assert.Equal(t, int64(12), shipped[0].Quantity)
	assert.Len(t, h.events.OfType(inventory.EventTypeMovementRecorded), 1)
}

func TestStaging_MismatchIsDivergentUntilForced(t *testing.T) {
	h := newStagingHarness(t)
	ctx := context.Background()
	p := h.fx.Product("ST-2", 1)
	h.fx.Stock(p, h.fx.Location("A-01", inventory.ZoneStorage), "L1", 30)
	h.fx.Label("ST2-L1", p, "L1")
	o := h.pickedOrder(t, p, 10, "ST2-L1")

	session, err := h.svc.StartStaging(ctx, h.fx.TenantID, o.ID, uuid.New())
	require.NoError(t, err)
	_, err = h.svc.StartStaging(ctx, h.fx.TenantID, o.ID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = h.record(session.ID, "ST2-L1", 9)
	require.NoError(t, err)

	_, err = h.svc.CompleteStaging(ctx, conference.CompleteStagingRequest{TenantID: h.fx.TenantID, SessionID: session.ID, Force: true})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	done, err := h.svc.CompleteStaging(ctx, conference.CompleteStagingRequest{TenantID: h.fx.TenantID, SessionID: session.ID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDivergent), done.Status)
	require.NotNil(t, done.Lines[0].Expected)
	assert.Equal(t, int64(10), *done.Lines[0].Expected)
	assert.Equal(t, int64(9), done.Lines[0].Counted)
	assert.Len(t, h.events.OfType(domain.EventTypeDivergenceDetected), 1)

	stored, err := h.repos.Orders().FindByID(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, outbound.OrderStatusPicked, stored.Status)

	// a recount under supervisor authority
	retry, err := h.svc.StartStaging(ctx, h.fx.TenantID, o.ID, uuid.New())
	require.NoError(t, err)
	_, err = h.record(retry.ID, "ST2-L1", 9)
	require.NoError(t, err)
	supervisor := uuid.New()
	forced, err := h.svc.CompleteStaging(ctx, conference.CompleteStagingRequest{
		TenantID: h.fx.TenantID, SessionID: retry.ID, Force: true, AuthorizedBy: &supervisor,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), forced.Status)
	assert.True(t, forced.Forced)
	assert.Equal(t, &supervisor, forced.AuthorizedBy)

	history, err := h.svc.History(ctx, h.fx.TenantID, domain.DirectionStaging, o.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestStaging_ForceRejectsUncountedLines(t *testing.T) {
	h := newStagingHarness(t)
	ctx := context.Background()
	p := h.fx.Product("ST-5", 1)
	h.fx.Stock(p, h.fx.Location("A-01", inventory.ZoneStorage), "L1", 2)
	h.fx.Stock(p, h.fx.Location("A-02", inventory.ZoneStorage), "L2", 3)
	h.fx.Label("ST5-L1", p, "L1")
	h.fx.Label("ST5-L2", p, "L2")
	o := h.pickedOrder(t, p, 5, "ST-5")

	session, err := h.svc.StartStaging(ctx, h.fx.TenantID, o.ID, uuid.New())
	require.NoError(t, err)
	require.Len(t, session.Lines, 2)
	_, err = h.record(session.ID, "ST5-L1", 2)
	require.NoError(t, err)

	supervisor := uuid.New()
	force := conference.CompleteStagingRequest{TenantID: h.fx.TenantID, SessionID: session.ID, Force: true, AuthorizedBy: &supervisor}
	_, err = h.svc.CompleteStaging(ctx, force)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrBadRequest)
	assert.Contains(t, err.Error(), "L2")

	current, err := h.svc.GetSession(ctx, h.fx.TenantID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInProgress), current.Status)
	stored, err := h.repos.Orders().FindByID(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, outbound.OrderStatusPicked, stored.Status)

	_, err = h.record(session.ID, "ST5-L2", 3)
	require.NoError(t, err)
	done, err := h.svc.CompleteStaging(ctx, force)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), done.Status)
}

func TestStaging_LabelChecks(t *testing.T) {
	h := newStagingHarness(t)
	ctx := context.Background()
	p := h.fx.Product("ST-3", 5)
	other := h.fx.Product("ST-4", 1)
	h.fx.Stock(p, h.fx.Location("A-01", inventory.ZoneStorage), "L1", 30)
	h.fx.Label("ST3-L1", p, "L1")
	h.fx.Label("ST4-L1", other, "L1")
	o := h.pickedOrder(t, p, 10, "ST3-L1")

	session, err := h.svc.StartStaging(ctx, h.fx.TenantID, o.ID, uuid.New())
	require.NoError(t, err)

	_, err = h.record(session.ID, "NEVER-SEEN", 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = h.record(session.ID, "ST4-L1", 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	foreign := h.fx.ForTenant(uuid.New())
	foreign.Label("FOREIGN", foreign.Product("ST-9", 1), "L1")
	_, err = h.record(session.ID, "FOREIGN", 1)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// the product's own code counts against its only lot, one package per scan
	res, err := h.svc.RecordStaging(ctx, conference.StagingScanRequest{TenantID: h.fx.TenantID, SessionID: session.ID, Label: p.SKU})
	require.NoError(t, err)
	assert.Equal(t, "L1", res.Lot)
	assert.Equal(t, int64(5), res.Added)

	got, err := h.svc.GetSession(ctx, h.fx.TenantID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Lines[0].Counted)
	assert.Nil(t, got.Lines[0].Expected)
}

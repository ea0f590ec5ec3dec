package document_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/allocation"
	"github.com/pharmawms/backend/internal/application/conference"
	"github.com/pharmawms/backend/internal/application/document"
	"github.com/pharmawms/backend/internal/application/picking"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	htmldoc "github.com/pharmawms/backend/internal/infrastructure/document"
	"github.com/pharmawms/backend/internal/infrastructure/persistence"
	"github.com/pharmawms/backend/internal/infrastructure/storage"
	"github.com/pharmawms/backend/internal/infrastructure/strategy"
	"github.com/pharmawms/backend/internal/testutil"
)

type harness struct {
	svc       *document.Service
	archive   *storage.MemoryArchive
	fx        *testutil.Fixture
	allocator *allocation.Service
	picker    *picking.Service
	receiving *conference.ReceivingService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)
	renderer, err := htmldoc.NewHTMLRenderer()
	require.NoError(t, err)

	scope := persistence.NewGormTransactionScope(db)
	archive := storage.NewMemoryArchive()
	return &harness{
		svc:       document.NewService(scope, renderer, archive, zap.NewNop()),
		archive:   archive,
		fx:        testutil.NewFixture(t, db),
		allocator: allocation.NewService(scope, registry, zap.NewNop()),
		picker:    picking.NewService(scope, registry, zap.NewNop()),
		receiving: conference.NewReceivingService(scope, zap.NewNop()),
	}
}

func TestPickRouteSheet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product("AMOX-500", 1)
	expiry := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	h.fx.Stock(p, h.fx.Location("B-02", inventory.ZoneStorage), "L2", 5, testutil.Expiring(expiry.AddDate(0, 6, 0)))
	h.fx.Stock(p, h.fx.Location("A-01", inventory.ZoneStorage), "L1", 5, testutil.Expiring(expiry))

	o := h.fx.Order(uuid.New(), "SO-100", testutil.LinePlan{Product: p, Quantity: 8})
	_, err := h.allocator.Allocate(ctx, allocation.AllocateRequest{TenantID: h.fx.TenantID, OrderID: o.ID})
	require.NoError(t, err)

	_, err = h.svc.PickRouteSheet(ctx, h.fx.TenantID, outbound.OrderRoute(o.ID))
	assert.ErrorIs(t, err, shared.ErrNotFound, "route not started yet")

	_, err = h.picker.StartOrderRoute(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)

	sheet, err := h.svc.PickRouteSheet(ctx, h.fx.TenantID, outbound.OrderRoute(o.ID))
	require.NoError(t, err)
	assert.Equal(t, "SO-100", sheet.Number)
	assert.Equal(t, "order", sheet.RouteKind)
	assert.Equal(t, int64(8), sheet.Quantity)
	assert.Zero(t, sheet.Picked)
	require.Len(t, sheet.Stops, 2)
	assert.Equal(t, "A-01", sheet.Stops[0].LocationCode)
	assert.Equal(t, "B-02", sheet.Stops[1].LocationCode)
	assert.Equal(t, "AMOX-500", sheet.Stops[0].SKU)
	require.NotNil(t, sheet.Stops[0].ExpiresAt)
	assert.True(t, expiry.Equal(*sheet.Stops[0].ExpiresAt))
}

func TestPublishPickRoute(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product("IBU-200", 1)
	h.fx.Stock(p, h.fx.Location("C-03", inventory.ZoneStorage), "LX", 10)
	o := h.fx.Order(uuid.New(), "SO-200", testutil.LinePlan{Product: p, Quantity: 4})
	_, err := h.allocator.Allocate(ctx, allocation.AllocateRequest{TenantID: h.fx.TenantID, OrderID: o.ID})
	require.NoError(t, err)
	_, err = h.picker.StartOrderRoute(ctx, h.fx.TenantID, o.ID)
	require.NoError(t, err)

	artifact, err := h.svc.PublishPickRoute(ctx, h.fx.TenantID, outbound.OrderRoute(o.ID))
	require.NoError(t, err)
	assert.Equal(t, document.KindPickRoute, artifact.Kind)
	assert.True(t, strings.HasPrefix(artifact.Key, h.fx.TenantID.String()+"/pick_route/SO-200-"))
	assert.True(t, strings.HasSuffix(artifact.Key, ".html"))
	assert.Equal(t, "memory://documents/"+artifact.Key, artifact.URL)
	assert.True(t, artifact.ExpiresAt.After(time.Now()))

	obj, ok := h.archive.Get(artifact.Key)
	require.True(t, ok)
	assert.Equal(t, artifact.Size, len(obj.Body))
	assert.Contains(t, string(obj.Body), "Pick Route SO-200")
	assert.Contains(t, string(obj.Body), "C-03")
}

func TestConferenceSheet_BlindUntilFinished(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fx.Location("DOCK-IN", inventory.ZoneReceiving)
	p := h.fx.Product("RX-1", 10)
	ro := h.fx.ReceivingOrder("PO-7", testutil.ReceivingItemPlan{Product: p, Lot: "LOT", Expected: 30})
	h.fx.Label("RX1-LOT", p, "LOT")

	session, err := h.receiving.StartReceiving(ctx, h.fx.TenantID, ro.ID, uuid.New())
	require.NoError(t, err)
	qty := int64(20)
	_, err = h.receiving.ScanReceiving(ctx, conference.ReceivingScanRequest{TenantID: h.fx.TenantID, SessionID: session.ID, Label: "RX1-LOT", Quantity: &qty})
	require.NoError(t, err)

	sheet, err := h.svc.ConferenceSheet(ctx, h.fx.TenantID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "PO-7", sheet.Number)
	assert.Equal(t, "receiving", sheet.Direction)
	require.Len(t, sheet.Lines, 1)
	assert.Equal(t, int64(20), sheet.Lines[0].Counted)
	assert.Nil(t, sheet.Lines[0].Expected)

	_, err = h.receiving.FinishReceiving(ctx, h.fx.TenantID, session.ID, uuid.New())
	require.NoError(t, err)

	sheet, err = h.svc.ConferenceSheet(ctx, h.fx.TenantID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "divergent", sheet.Status)
	require.NotNil(t, sheet.Lines[0].Expected)
	assert.Equal(t, int64(30), *sheet.Lines[0].Expected)
	require.NotNil(t, sheet.Lines[0].Matches)
	assert.False(t, *sheet.Lines[0].Matches)

	artifact, err := h.svc.PublishConferenceSheet(ctx, h.fx.TenantID, session.ID)
	require.NoError(t, err)
	assert.Contains(t, artifact.Key, "/conference_sheet/PO-7-receiving-")
	assert.Equal(t, 1, h.archive.Len())
}

func TestPublish_WithoutArchive(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := document.NewService(persistence.NewGormTransactionScope(db), nil, nil, zap.NewNop())
	fx := testutil.NewFixture(t, db)
	session := uuid.New()

	_, err := svc.ConferenceSheet(context.Background(), fx.TenantID, session)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.PublishConferenceSheet(context.Background(), fx.TenantID, session)
	assert.ErrorIs(t, err, document.ErrNoArchive)
}

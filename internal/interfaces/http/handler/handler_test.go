package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/allocation"
	"github.com/pharmawms/backend/internal/application/conference"
	"github.com/pharmawms/backend/internal/application/document"
	"github.com/pharmawms/backend/internal/application/lifecycle"
	"github.com/pharmawms/backend/internal/application/picking"
	"github.com/pharmawms/backend/internal/application/wave"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/infrastructure/auth"
	"github.com/pharmawms/backend/internal/infrastructure/config"
	htmldoc "github.com/pharmawms/backend/internal/infrastructure/document"
	"github.com/pharmawms/backend/internal/infrastructure/persistence"
	"github.com/pharmawms/backend/internal/infrastructure/readmodel"
	"github.com/pharmawms/backend/internal/infrastructure/strategy"
	"github.com/pharmawms/backend/internal/interfaces/http/dto"
	"github.com/pharmawms/backend/internal/interfaces/http/handler"
	"github.com/pharmawms/backend/internal/interfaces/http/middleware"
	"github.com/pharmawms/backend/internal/interfaces/http/router"
	"github.com/pharmawms/backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type api struct {
	t        *testing.T
	engine   *gin.Engine
	fx       *testutil.Fixture
	verifier *auth.Verifier
	operator uuid.UUID
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := testutil.NewTestDB(t)
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)
	renderer, err := htmldoc.NewHTMLRenderer()
	require.NoError(t, err)

	scope := persistence.NewGormTransactionScope(db)
	lc := lifecycle.NewService(scope, zap.NewNop())
	verifier := auth.NewVerifier(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars"})

	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine).Use(middleware.JWTAuth(middleware.DefaultJWTConfig(verifier)))
	router.RegisterWarehouseRoutes(r, router.Handlers{
		Orders:    handler.NewOrderHandler(allocation.NewService(scope, registry, zap.NewNop()), lc),
		Waves:     handler.NewWaveHandler(wave.NewService(scope, outbound.NewWaveNumberer(persistence.NewGormSequenceGenerator(db), ""), zap.NewNop())),
		Picking:   handler.NewPickingHandler(picking.NewService(scope, registry, zap.NewNop())),
		Receiving: handler.NewReceivingHandler(conference.NewReceivingService(scope, zap.NewNop())),
		Staging:   handler.NewStagingHandler(conference.NewStagingService(scope, zap.NewNop())),
		Lots:      handler.NewLotHandler(lc),
		Queries:   handler.NewQueryHandler(readmodel.NewQueries(db)),
		Documents: handler.NewDocumentHandler(document.NewService(scope, renderer, nil, zap.NewNop())),
	})
	r.Setup()

	return &api{
		t:        t,
		engine:   engine,
		fx:       testutil.NewFixture(t, db),
		verifier: verifier,
		operator: uuid.New(),
	}
}

func (a *api) do(method, path string, body any, roles ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if roles != nil {
		token, err := a.verifier.Sign(a.fx.TenantID, a.operator, time.Minute, roles...)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func (a *api) operatorCall(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(method, path, body, auth.RoleOperator)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) (T, *dto.ErrorInfo) {
	t.Helper()
	var envelope struct {
		Success bool           `json:"success"`
		Data    T              `json:"data"`
		Error   *dto.ErrorInfo `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Data, envelope.Error
}

func TestAllocateAndPickOverHTTP(t *testing.T) {
	a := newAPI(t)
	p := a.fx.Product("PARA-750", 1)
	a.fx.Stock(p, a.fx.Location("A-01", inventory.ZoneStorage), "L1", 10)
	o := a.fx.Order(uuid.New(), "SO-1", testutil.LinePlan{Product: p, Quantity: 2})

	rec := a.operatorCall(http.MethodPost, "/orders/"+o.ID.String()+"/allocate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result, _ := decode[allocation.AllocationResult](t, rec)
	assert.Equal(t, "SO-1", result.OrderNumber)
	require.Len(t, result.Reservations, 1)
	assert.Equal(t, int64(2), result.Reservations[0].Quantity)

	rec = a.operatorCall(http.MethodPost, "/orders/"+o.ID.String()+"/route", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	route, _ := decode[picking.RouteResult](t, rec)
	require.Len(t, route.Allocations, 1)
	allocationID := route.Allocations[0].ID.String()

	rec = a.operatorCall(http.MethodPost, "/allocations/"+allocationID+"/scan", dto.ScanRequest{Label: "UNIT-0001"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	scan, _ := decode[picking.ScanResult](t, rec)
	assert.Equal(t, int64(1), scan.Applied)
	assert.Equal(t, int64(1), scan.Remaining)

	rec = a.operatorCall(http.MethodGet, "/documents/orders/"+o.ID.String()+"/route", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "SO-1")

	rec = a.operatorCall(http.MethodPost, "/documents/orders/"+o.ID.String()+"/route", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = a.operatorCall(http.MethodGet, "/reports/zone-occupancy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	zones, _ := decode[[]readmodel.ZoneOccupancy](t, rec)
	require.Len(t, zones, 1)
	assert.Equal(t, int64(10), zones[0].Quantity)
	assert.Equal(t, int64(2), zones[0].Reserved)
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t)
	p := a.fx.Product("RARE-1", 1)
	a.fx.Stock(p, a.fx.Location("A-01", inventory.ZoneStorage), "L1", 1)
	o := a.fx.Order(uuid.New(), "SO-2", testutil.LinePlan{Product: p, Quantity: 5})

	t.Run("insufficient stock is 422", func(t *testing.T) {
		rec := a.operatorCall(http.MethodPost, "/orders/"+o.ID.String()+"/allocate", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		_, errInfo := decode[any](t, rec)
		require.NotNil(t, errInfo)
		assert.Equal(t, dto.ErrCodeInsufficientStock, errInfo.Code)
	})

	t.Run("unknown order is 404", func(t *testing.T) {
		rec := a.operatorCall(http.MethodPost, "/orders/"+uuid.NewString()+"/allocate", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		rec := a.operatorCall(http.MethodPost, "/orders/not-a-uuid/allocate", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid problem reason is a validation error", func(t *testing.T) {
		rec := a.operatorCall(http.MethodPost, "/allocations/"+uuid.NewString()+"/problem", dto.ProblemRequest{Reason: "lost"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		_, errInfo := decode[any](t, rec)
		require.NotNil(t, errInfo)
		assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
		require.Len(t, errInfo.Fields, 1)
		assert.Equal(t, "reason", errInfo.Fields[0].Field)
	})

	t.Run("missing token is 401", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/orders/"+o.ID.String()+"/allocate", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSupervisorOnlyOperations(t *testing.T) {
	a := newAPI(t)
	sessionID := uuid.NewString()

	rec := a.operatorCall(http.MethodPost, "/staging-sessions/"+sessionID+"/complete", dto.CompleteStagingRequest{Force: true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.operatorCall(http.MethodPost,
		"/receiving-orders/"+uuid.NewString()+"/divergences/"+uuid.NewString()+"/approve",
		dto.ApproveDivergenceRequest{Justification: "carrier confirmed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, "/staging-sessions/"+sessionID+"/complete", dto.CompleteStagingRequest{Force: true},
		auth.RoleOperator, auth.RoleSupervisor)
	assert.Equal(t, http.StatusNotFound, rec.Code, "supervisor passes the role check and reaches the service")
}

func TestReceivingOverHTTP(t *testing.T) {
	a := newAPI(t)
	p := a.fx.Product("INS-100", 10)
	a.fx.Location("RCV-01", inventory.ZoneReceiving)
	ro := a.fx.ReceivingOrder("RO-1", testutil.ReceivingItemPlan{Product: p, Lot: "LOT-A", Expected: 20})
	a.fx.Label("BOX-A", p, "LOT-A")

	rec := a.operatorCall(http.MethodPost, "/receiving-orders/"+ro.ID.String()+"/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session, _ := decode[conference.SessionResult](t, rec)

	for i := 0; i < 2; i++ {
		rec = a.operatorCall(http.MethodPost, "/receiving-sessions/"+session.ID.String()+"/scan", dto.ReceivingScanRequest{Label: "BOX-A"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = a.operatorCall(http.MethodGet, "/receiving-sessions/"+session.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	open, _ := decode[conference.SessionResult](t, rec)
	require.Len(t, open.Lines, 1)
	assert.Equal(t, int64(20), open.Lines[0].Counted)
	assert.Nil(t, open.Lines[0].Expected, "expected quantities stay hidden during the count")

	rec = a.operatorCall(http.MethodPost, "/receiving-sessions/"+session.ID.String()+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	finished, _ := decode[conference.ReceivingOrderResult](t, rec)
	require.Len(t, finished.Items, 1)
	assert.Equal(t, int64(20), finished.Items[0].Received)

	rec = a.operatorCall(http.MethodGet, "/conference/history?direction=receiving&subject_id="+ro.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history, _ := decode[[]conference.SessionResult](t, rec)
	assert.Len(t, history, 1)
}

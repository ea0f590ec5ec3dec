package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/infrastructure/readmodel"
	"github.com/pharmawms/backend/internal/interfaces/http/dto"
)

const defaultExpiryHorizon = 90 * 24 * time.Hour

// StockQueries is the read side used by QueryHandler
type StockQueries interface {
	ZoneOccupancy(ctx context.Context, tenantID uuid.UUID) ([]readmodel.ZoneOccupancy, error)
	ExpiringLots(ctx context.Context, tenantID uuid.UUID, f readmodel.ExpiringFilter) ([]readmodel.ExpiringLot, error)
	ProductBalance(ctx context.Context, tenantID, productID uuid.UUID) ([]readmodel.LotBalance, error)
}

// QueryHandler exposes stock reports
type QueryHandler struct {
	BaseHandler
	queries StockQueries
	now     func() time.Time
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(queries StockQueries) *QueryHandler {
	return &QueryHandler{queries: queries, now: time.Now}
}

// ZoneOccupancy returns on-hand and reserved units per zone
func (h *QueryHandler) ZoneOccupancy(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	rows, err := h.queries.ZoneOccupancy(c.Request.Context(), op.TenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// ExpiringLots godoc
// @Summary      List lots expiring soon
// @Description  Lot positions with stock expiring before the given date, soonest first. Defaults to 90 days ahead.
// @Tags         reports
// @Produce      json
// @Param        before query string false "Cutoff date (YYYY-MM-DD or RFC3339)"
// @Param        zone query string false "Location zone"
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        limit query int false "Maximum rows"
// @Param        sort_by query string false "Sort key" Enums(expires_at, quantity, location_code, sku, lot)
// @Param        sort_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]readmodel.ExpiringLot}
// @Security     BearerAuth
// @Router       /reports/expiring-lots [get]
func (h *QueryHandler) ExpiringLots(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	var q dto.ExpiringLotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := readmodel.ExpiringFilter{
		Before:  h.now().Add(defaultExpiryHorizon),
		Zone:    q.Zone,
		Limit:   q.Limit,
		SortBy:  q.SortBy,
		SortDir: q.SortDir,
	}
	if q.Before != "" {
		before, err := parseDate(q.Before)
		if err != nil {
			h.BadRequest(c, "Invalid before date, use YYYY-MM-DD or RFC3339")
			return
		}
		filter.Before = before
	}
	if q.ProductID != "" {
		id := uuid.MustParse(q.ProductID)
		filter.ProductID = &id
	}

	rows, err := h.queries.ExpiringLots(c.Request.Context(), op.TenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// ProductBalance returns a product's stock per lot and status
func (h *QueryHandler) ProductBalance(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.queries.ProductBalance(c.Request.Context(), op.TenantID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

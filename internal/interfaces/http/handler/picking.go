package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/application/picking"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/interfaces/http/dto"
)

// PickingHandler exposes pick route and scan endpoints
type PickingHandler struct {
	BaseHandler
	picking *picking.Service
}

// NewPickingHandler creates a new PickingHandler
func NewPickingHandler(svc *picking.Service) *PickingHandler {
	return &PickingHandler{picking: svc}
}

// StartOrderRoute builds the pick route of an order picked alone
func (h *PickingHandler) StartOrderRoute(c *gin.Context) {
	h.startRoute(c, h.picking.StartOrderRoute)
}

// StartWaveRoute builds the pick route of a wave
func (h *PickingHandler) StartWaveRoute(c *gin.Context) {
	h.startRoute(c, h.picking.StartWaveRoute)
}

// GetOrderRoute returns the route of an order in pick sequence
func (h *PickingHandler) GetOrderRoute(c *gin.Context) {
	h.route(c, outbound.OrderRoute, h.picking.GetRoute)
}

// GetWaveRoute returns the route of a wave in pick sequence
func (h *PickingHandler) GetWaveRoute(c *gin.Context) {
	h.route(c, outbound.WaveRoute, h.picking.GetRoute)
}

// CompleteOrderRoute closes a fully worked order route
func (h *PickingHandler) CompleteOrderRoute(c *gin.Context) {
	h.route(c, outbound.OrderRoute, h.picking.CompleteRoute)
}

// CompleteWaveRoute closes a fully worked wave route
func (h *PickingHandler) CompleteWaveRoute(c *gin.Context) {
	h.route(c, outbound.WaveRoute, h.picking.CompleteRoute)
}

// Scan godoc
// @Summary      Scan a label at a pick stop
// @Description  Validate the scanned label against the allocation and count one package, or the typed quantity for product codes
// @Tags         picking
// @Accept       json
// @Produce      json
// @Param        id path string true "Pick allocation ID" format(uuid)
// @Param        request body dto.ScanRequest true "Scanned label"
// @Success      200 {object} dto.Response{data=picking.ScanResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /allocations/{id}/scan [post]
func (h *PickingHandler) Scan(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	allocationID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	result, err := h.picking.Scan(c.Request.Context(), picking.ScanRequest{
		TenantID:       op.TenantID,
		AllocationID:   allocationID,
		Label:          req.Label,
		ManualQuantity: req.Quantity,
		OperatorID:     op.OperatorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ReportProblem godoc
// @Summary      Report a picking problem
// @Description  Short-pick the allocation and try to reroute the remainder to an alternate location
// @Tags         picking
// @Accept       json
// @Produce      json
// @Param        id path string true "Pick allocation ID" format(uuid)
// @Param        request body dto.ProblemRequest true "Problem reason"
// @Success      200 {object} dto.Response{data=picking.ProblemResult}
// @Security     BearerAuth
// @Router       /allocations/{id}/problem [post]
func (h *PickingHandler) ReportProblem(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	allocationID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	result, err := h.picking.ReportProblem(c.Request.Context(), picking.ProblemRequest{
		TenantID:     op.TenantID,
		AllocationID: allocationID,
		Reason:       outbound.ProblemReason(req.Reason),
		OperatorID:   op.OperatorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

type startRouteFunc func(ctx context.Context, tenantID, id uuid.UUID) (*picking.RouteResult, error)

type routeFunc func(ctx context.Context, tenantID uuid.UUID, route outbound.RouteRef) (*picking.RouteResult, error)

func (h *PickingHandler) startRoute(c *gin.Context, fn startRouteFunc) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := fn(c.Request.Context(), op.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *PickingHandler) route(c *gin.Context, ref func(uuid.UUID) outbound.RouteRef, fn routeFunc) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := fn(c.Request.Context(), op.TenantID, ref(id))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/application/allocation"
	"github.com/pharmawms/backend/internal/application/lifecycle"
	"github.com/pharmawms/backend/internal/application/wave"
	"github.com/pharmawms/backend/internal/interfaces/http/dto"
)

// OrderHandler exposes allocation and order lifecycle endpoints
type OrderHandler struct {
	BaseHandler
	allocator *allocation.Service
	lifecycle *lifecycle.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(allocator *allocation.Service, lc *lifecycle.Service) *OrderHandler {
	return &OrderHandler{allocator: allocator, lifecycle: lc}
}

// Allocate godoc
// @Summary      Allocate an order
// @Description  Reserve lot stock for every line of a pending order using the tenant policy
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=allocation.AllocationResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/allocate [post]
func (h *OrderHandler) Allocate(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.allocator.Allocate(c.Request.Context(), allocation.AllocateRequest{
		TenantID: op.TenantID,
		OrderID:  orderID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel godoc
// @Summary      Cancel an order
// @Description  Release every reservation of the order and mark it cancelled
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=lifecycle.OrderResult}
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.lifecycle.CancelOrder)
}

// AcceptShortage closes the open lines of a partially picked order
func (h *OrderHandler) AcceptShortage(c *gin.Context) {
	h.transition(c, h.lifecycle.AcceptShortage)
}

// Ship godoc
// @Summary      Ship an order
// @Description  Consume the staged dock stock of a conferred order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=lifecycle.OrderResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.lifecycle.ShipOrder(c.Request.Context(), op.TenantID, orderID, op.OperatorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(ctx context.Context, tenantID, orderID uuid.UUID) (*lifecycle.OrderResult, error)) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := fn(c.Request.Context(), op.TenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// WaveHandler exposes wave consolidation endpoints
type WaveHandler struct {
	BaseHandler
	waves *wave.Service
}

// NewWaveHandler creates a new WaveHandler
func NewWaveHandler(waves *wave.Service) *WaveHandler {
	return &WaveHandler{waves: waves}
}

// Create godoc
// @Summary      Create a wave
// @Description  Consolidate allocated orders of one customer into a wave
// @Tags         waves
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateWaveRequest true "Orders to consolidate"
// @Success      201 {object} dto.Response{data=wave.WaveResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /waves [post]
func (h *WaveHandler) Create(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	var req dto.CreateWaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	orderIDs := make([]uuid.UUID, 0, len(req.OrderIDs))
	for _, s := range req.OrderIDs {
		orderIDs = append(orderIDs, uuid.MustParse(s))
	}

	result, err := h.waves.CreateWave(c.Request.Context(), wave.CreateWaveRequest{
		TenantID: op.TenantID,
		OrderIDs: orderIDs,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Get returns a wave with its items
func (h *WaveHandler) Get(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	waveID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.waves.GetWave(c.Request.Context(), op.TenantID, waveID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel dissolves a wave and returns its orders to allocated
func (h *WaveHandler) Cancel(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	waveID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.waves.CancelWave(c.Request.Context(), op.TenantID, waveID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

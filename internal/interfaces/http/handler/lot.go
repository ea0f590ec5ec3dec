package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/application/lifecycle"
	"github.com/pharmawms/backend/internal/interfaces/http/dto"
)

// LotHandler exposes quality and blocking transitions of lot positions
type LotHandler struct {
	BaseHandler
	lifecycle *lifecycle.Service
}

// NewLotHandler creates a new LotHandler
func NewLotHandler(svc *lifecycle.Service) *LotHandler {
	return &LotHandler{lifecycle: svc}
}

// ApproveQuality releases a quarantined lot, optionally moving it to a
// storage location
func (h *LotHandler) ApproveQuality(c *gin.Context) {
	h.quality(c, h.lifecycle.ApproveQuality)
}

// RejectQuality marks a quarantined lot damaged
func (h *LotHandler) RejectQuality(c *gin.Context) {
	h.quality(c, h.lifecycle.RejectQuality)
}

func (h *LotHandler) quality(c *gin.Context, fn func(context.Context, lifecycle.QualityRequest) (*lifecycle.LotResult, error)) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.QualityRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}
	destination, err := parseOptionalUUID(req.DestinationID)
	if err != nil {
		h.BadRequest(c, "Invalid destination_id format")
		return
	}
	result, err := fn(c.Request.Context(), lifecycle.QualityRequest{
		TenantID:      op.TenantID,
		LotPositionID: id,
		OperatorID:    op.OperatorID,
		DestinationID: destination,
		Reason:        req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Block withholds an available lot from allocation
func (h *LotHandler) Block(c *gin.Context) {
	h.status(c, h.lifecycle.BlockLot)
}

// Unblock returns a blocked lot to available
func (h *LotHandler) Unblock(c *gin.Context) {
	h.status(c, h.lifecycle.UnblockLot)
}

func (h *LotHandler) status(c *gin.Context, fn func(ctx context.Context, tenantID, lotPositionID uuid.UUID, reason string) (*lifecycle.LotResult, error)) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.LotStatusRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}
	result, err := fn(c.Request.Context(), op.TenantID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ExpireNow runs one expiry sweep outside the scheduler
func (h *LotHandler) ExpireNow(c *gin.Context) {
	report, err := h.lifecycle.ExpireLots(c.Request.Context(), time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

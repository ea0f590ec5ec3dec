package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/application/conference"
	domainconf "github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/receiving"
	"github.com/pharmawms/backend/internal/infrastructure/auth"
	"github.com/pharmawms/backend/internal/interfaces/http/dto"
)

// ReceivingHandler exposes inbound conference endpoints
type ReceivingHandler struct {
	BaseHandler
	receiving *conference.ReceivingService
}

// NewReceivingHandler creates a new ReceivingHandler
func NewReceivingHandler(svc *conference.ReceivingService) *ReceivingHandler {
	return &ReceivingHandler{receiving: svc}
}

// GetOrder returns a receiving order with its items and divergences
func (h *ReceivingHandler) GetOrder(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.receiving.GetReceivingOrder(c.Request.Context(), op.TenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Start godoc
// @Summary      Start a receiving conference
// @Description  Open a blind count session for a receiving order
// @Tags         receiving
// @Produce      json
// @Param        id path string true "Receiving order ID" format(uuid)
// @Success      201 {object} dto.Response{data=conference.SessionResult}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /receiving-orders/{id}/sessions [post]
func (h *ReceivingHandler) Start(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.receiving.StartReceiving(c.Request.Context(), op.TenantID, id, op.OperatorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Scan godoc
// @Summary      Count a label in a receiving session
// @Description  Resolve the label and add its quantity to the blind count. Unknown labels need an association.
// @Tags         receiving
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body dto.ReceivingScanRequest true "Scanned label"
// @Success      200 {object} dto.Response{data=conference.ScanResult}
// @Security     BearerAuth
// @Router       /receiving-sessions/{id}/scan [post]
func (h *ReceivingHandler) Scan(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReceivingScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	appReq := conference.ReceivingScanRequest{
		TenantID:  op.TenantID,
		SessionID: sessionID,
		Label:     req.Label,
		Quantity:  req.Quantity,
	}
	if a := req.Association; a != nil {
		appReq.Association = &conference.LabelBinding{
			ProductID:       uuid.MustParse(a.ProductID),
			Lot:             a.Lot,
			ExpiresAt:       a.ExpiresAt,
			UnitsPerPackage: a.UnitsPerPackage,
		}
	}

	result, err := h.receiving.ScanReceiving(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Finish compares the count with the expected items and books the stock
func (h *ReceivingHandler) Finish(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.receiving.FinishReceiving(c.Request.Context(), op.TenantID, sessionID, op.OperatorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetSession returns a receiving session. Expected quantities stay hidden
// until the session is finished.
func (h *ReceivingHandler) GetSession(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.receiving.GetSession(c.Request.Context(), op.TenantID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// FileDivergence records a shortage or surplus on a receiving item
func (h *ReceivingHandler) FileDivergence(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.FileDivergenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	result, err := h.receiving.FileDivergence(c.Request.Context(), conference.FileDivergenceRequest{
		TenantID:         op.TenantID,
		ReceivingOrderID: id,
		ItemID:           uuid.MustParse(req.ItemID),
		Kind:             receiving.DivergenceKind(req.Kind),
		Reason:           req.Reason,
		ReportedBy:       op.OperatorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ApproveDivergence godoc
// @Summary      Approve a receiving divergence
// @Description  Supervisor sign-off on a filed divergence. Requires the supervisor role.
// @Tags         receiving
// @Accept       json
// @Produce      json
// @Param        id path string true "Receiving order ID" format(uuid)
// @Param        divergenceId path string true "Divergence ID" format(uuid)
// @Param        request body dto.ApproveDivergenceRequest true "Justification"
// @Success      200 {object} dto.Response{data=conference.ReceivingOrderResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /receiving-orders/{id}/divergences/{divergenceId}/approve [post]
func (h *ReceivingHandler) ApproveDivergence(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	divergenceID, ok := h.uuidParam(c, "divergenceId")
	if !ok {
		return
	}
	var req dto.ApproveDivergenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	result, err := h.receiving.ApproveDivergence(c.Request.Context(), conference.ApproveDivergenceRequest{
		TenantID:         op.TenantID,
		ReceivingOrderID: id,
		DivergenceID:     divergenceID,
		SupervisorID:     op.OperatorID,
		Justification:    req.Justification,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// StagingHandler exposes outbound conference endpoints
type StagingHandler struct {
	BaseHandler
	staging *conference.StagingService
}

// NewStagingHandler creates a new StagingHandler
func NewStagingHandler(svc *conference.StagingService) *StagingHandler {
	return &StagingHandler{staging: svc}
}

// Start opens a staging session for a picked order
func (h *StagingHandler) Start(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.staging.StartStaging(c.Request.Context(), op.TenantID, orderID, op.OperatorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Scan counts a label at the dock
func (h *StagingHandler) Scan(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.StagingScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	result, err := h.staging.RecordStaging(c.Request.Context(), conference.StagingScanRequest{
		TenantID:  op.TenantID,
		SessionID: sessionID,
		Label:     req.Label,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Complete godoc
// @Summary      Complete a staging conference
// @Description  Compare the dock count with the picked quantities. A forced completion requires the supervisor role.
// @Tags         staging
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body dto.CompleteStagingRequest false "Force flag"
// @Success      200 {object} dto.Response{data=conference.SessionResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /staging-sessions/{id}/complete [post]
func (h *StagingHandler) Complete(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.CompleteStagingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	appReq := conference.CompleteStagingRequest{
		TenantID:   op.TenantID,
		SessionID:  sessionID,
		Force:      req.Force,
		OperatorID: op.OperatorID,
	}
	if req.Force {
		if !op.HasRole(auth.RoleSupervisor) {
			h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, "forced completion requires a supervisor")
			return
		}
		appReq.AuthorizedBy = &op.OperatorID
	}

	result, err := h.staging.CompleteStaging(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetSession returns a staging session
func (h *StagingHandler) GetSession(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.staging.GetSession(c.Request.Context(), op.TenantID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// History lists the conference sessions of a receiving order or an order
func (h *StagingHandler) History(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	result, err := h.staging.History(c.Request.Context(), op.TenantID,
		domainconf.Direction(q.Direction), uuid.MustParse(q.SubjectID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

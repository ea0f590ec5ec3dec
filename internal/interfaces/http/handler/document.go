package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/application/document"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/interfaces/http/dto"
)

// DocumentHandler serves printable route and conference sheets
type DocumentHandler struct {
	BaseHandler
	documents *document.Service
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(svc *document.Service) *DocumentHandler {
	return &DocumentHandler{documents: svc}
}

// OrderRouteSheet renders the route sheet of an order as HTML
func (h *DocumentHandler) OrderRouteSheet(c *gin.Context) {
	h.routeSheet(c, outbound.OrderRoute)
}

// WaveRouteSheet renders the route sheet of a wave as HTML
func (h *DocumentHandler) WaveRouteSheet(c *gin.Context) {
	h.routeSheet(c, outbound.WaveRoute)
}

// PublishOrderRoute archives the route sheet of an order and returns a link
func (h *DocumentHandler) PublishOrderRoute(c *gin.Context) {
	h.publishRoute(c, outbound.OrderRoute)
}

// PublishWaveRoute archives the route sheet of a wave and returns a link
func (h *DocumentHandler) PublishWaveRoute(c *gin.Context) {
	h.publishRoute(c, outbound.WaveRoute)
}

// ConferenceSheet renders a conference session as HTML
func (h *DocumentHandler) ConferenceSheet(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	body, contentType, err := h.documents.RenderConferenceSheet(c.Request.Context(), op.TenantID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, body)
}

// PublishConferenceSheet archives a conference sheet and returns a link
func (h *DocumentHandler) PublishConferenceSheet(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	artifact, err := h.documents.PublishConferenceSheet(c.Request.Context(), op.TenantID, sessionID)
	if err != nil {
		h.handlePublishError(c, err)
		return
	}
	h.Created(c, artifact)
}

func (h *DocumentHandler) routeSheet(c *gin.Context, ref func(uuid.UUID) outbound.RouteRef) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	body, contentType, err := h.documents.RenderPickRoute(c.Request.Context(), op.TenantID, ref(id))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, body)
}

func (h *DocumentHandler) publishRoute(c *gin.Context, ref func(uuid.UUID) outbound.RouteRef) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	artifact, err := h.documents.PublishPickRoute(c.Request.Context(), op.TenantID, ref(id))
	if err != nil {
		h.handlePublishError(c, err)
		return
	}
	h.Created(c, artifact)
}

func (h *DocumentHandler) handlePublishError(c *gin.Context, err error) {
	if errors.Is(err, document.ErrNoArchive) {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, err.Error())
		return
	}
	h.HandleError(c, err)
}

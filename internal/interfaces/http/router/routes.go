package router

import (
	"github.com/pharmawms/backend/internal/infrastructure/auth"
	"github.com/pharmawms/backend/internal/interfaces/http/handler"
	"github.com/pharmawms/backend/internal/interfaces/http/middleware"
)

// Handlers bundles every handler of the warehouse API
type Handlers struct {
	Orders    *handler.OrderHandler
	Waves     *handler.WaveHandler
	Picking   *handler.PickingHandler
	Receiving *handler.ReceivingHandler
	Staging   *handler.StagingHandler
	Lots      *handler.LotHandler
	Queries   *handler.QueryHandler
	Documents *handler.DocumentHandler
}

// RegisterWarehouseRoutes registers the domain groups of the warehouse API
func RegisterWarehouseRoutes(r *Router, h Handlers) {
	supervisor := middleware.RequireRole(auth.RoleSupervisor)

	orders := NewDomainGroup("orders", "/orders")
	orders.POST("/:id/allocate", h.Orders.Allocate)
	orders.POST("/:id/cancel", h.Orders.Cancel)
	orders.POST("/:id/accept-shortage", h.Orders.AcceptShortage)
	orders.POST("/:id/ship", h.Orders.Ship)
	orders.POST("/:id/route", h.Picking.StartOrderRoute)
	orders.GET("/:id/route", h.Picking.GetOrderRoute)
	orders.POST("/:id/route/complete", h.Picking.CompleteOrderRoute)
	orders.POST("/:id/staging", h.Staging.Start)

	waves := NewDomainGroup("waves", "/waves")
	waves.POST("", h.Waves.Create)
	waves.GET("/:id", h.Waves.Get)
	waves.POST("/:id/cancel", h.Waves.Cancel)
	waves.POST("/:id/route", h.Picking.StartWaveRoute)
	waves.GET("/:id/route", h.Picking.GetWaveRoute)
	waves.POST("/:id/route/complete", h.Picking.CompleteWaveRoute)

	allocations := NewDomainGroup("picking", "/allocations")
	allocations.POST("/:id/scan", h.Picking.Scan)
	allocations.POST("/:id/problem", h.Picking.ReportProblem)

	receivingOrders := NewDomainGroup("receiving", "/receiving-orders")
	receivingOrders.GET("/:id", h.Receiving.GetOrder)
	receivingOrders.POST("/:id/sessions", h.Receiving.Start)
	receivingOrders.POST("/:id/divergences", h.Receiving.FileDivergence)
	receivingOrders.POST("/:id/divergences/:divergenceId/approve", supervisor, h.Receiving.ApproveDivergence)

	receivingSessions := NewDomainGroup("receiving-sessions", "/receiving-sessions")
	receivingSessions.GET("/:id", h.Receiving.GetSession)
	receivingSessions.POST("/:id/scan", h.Receiving.Scan)
	receivingSessions.POST("/:id/finish", h.Receiving.Finish)

	stagingSessions := NewDomainGroup("staging-sessions", "/staging-sessions")
	stagingSessions.GET("/:id", h.Staging.GetSession)
	stagingSessions.POST("/:id/scan", h.Staging.Scan)
	stagingSessions.POST("/:id/complete", h.Staging.Complete)

	conference := NewDomainGroup("conference", "/conference")
	conference.GET("/history", h.Staging.History)

	lots := NewDomainGroup("lots", "/lots")
	lots.POST("/:id/approve", h.Lots.ApproveQuality)
	lots.POST("/:id/reject", h.Lots.RejectQuality)
	lots.POST("/:id/block", h.Lots.Block)
	lots.POST("/:id/unblock", h.Lots.Unblock)
	lots.POST("/expire", supervisor, h.Lots.ExpireNow)

	reports := NewDomainGroup("reports", "/reports")
	reports.GET("/zone-occupancy", h.Queries.ZoneOccupancy)
	reports.GET("/expiring-lots", h.Queries.ExpiringLots)
	reports.GET("/products/:id/balance", h.Queries.ProductBalance)

	documents := NewDomainGroup("documents", "/documents")
	documents.GET("/orders/:id/route", h.Documents.OrderRouteSheet)
	documents.POST("/orders/:id/route", h.Documents.PublishOrderRoute)
	documents.GET("/waves/:id/route", h.Documents.WaveRouteSheet)
	documents.POST("/waves/:id/route", h.Documents.PublishWaveRoute)
	documents.GET("/sessions/:id", h.Documents.ConferenceSheet)
	documents.POST("/sessions/:id", h.Documents.PublishConferenceSheet)

	r.Register(orders).
		Register(waves).
		Register(allocations).
		Register(receivingOrders).
		Register(receivingSessions).
		Register(stagingSessions).
		Register(conference).
		Register(lots).
		Register(reports).
		Register(documents)
}

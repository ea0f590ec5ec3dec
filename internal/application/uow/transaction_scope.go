// Package uow defines the unit of work shared by the warehouse services.
package uow

import (
	"context"

	"github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/receiving"
)

// TransactionScope runs a function against repositories that share one
// database transaction. An error from fn rolls everything back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every repository inside a transaction.
// Services outside Execute use the same interface bound to the plain
// connection.
type Repositories interface {
	Products() inventory.ProductRepository
	Locations() inventory.LocationRepository
	LotPositions() inventory.LotPositionRepository
	Movements() inventory.MovementRepository
	Labels() inventory.LabelRepository

	Orders() outbound.OrderRepository
	Policies() outbound.PolicyRepository
	Reservations() outbound.ReservationRepository
	Waves() outbound.WaveRepository
	PickAllocations() outbound.PickAllocationRepository

	ReceivingOrders() receiving.OrderRepository
	Sessions() conference.SessionRepository
}

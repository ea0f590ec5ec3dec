package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/receiving"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. An error from fn rolls
// back every write made through the repositories it was given.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos uow.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// gormRepositories binds every repository to one *gorm.DB, which is either
// the connection pool or an open transaction.
type gormRepositories struct {
	db *gorm.DB
}

// NewRepositories binds all repositories to db.
func NewRepositories(db *gorm.DB) uow.Repositories {
	return &gormRepositories{db: db}
}

func (r *gormRepositories) Products() inventory.ProductRepository {
	return NewGormProductRepository(r.db)
}

func (r *gormRepositories) Locations() inventory.LocationRepository {
	return NewGormLocationRepository(r.db)
}

func (r *gormRepositories) LotPositions() inventory.LotPositionRepository {
	return NewGormLotPositionRepository(r.db)
}

func (r *gormRepositories) Movements() inventory.MovementRepository {
	return NewGormMovementRepository(r.db)
}

func (r *gormRepositories) Labels() inventory.LabelRepository {
	return NewGormLabelRepository(r.db)
}

func (r *gormRepositories) Orders() outbound.OrderRepository {
	return NewGormOrderRepository(r.db)
}

func (r *gormRepositories) Policies() outbound.PolicyRepository {
	return NewGormPolicyRepository(r.db)
}

func (r *gormRepositories) Reservations() outbound.ReservationRepository {
	return NewGormReservationRepository(r.db)
}

func (r *gormRepositories) Waves() outbound.WaveRepository {
	return NewGormWaveRepository(r.db)
}

func (r *gormRepositories) PickAllocations() outbound.PickAllocationRepository {
	return NewGormPickAllocationRepository(r.db)
}

func (r *gormRepositories) ReceivingOrders() receiving.OrderRepository {
	return NewGormReceivingOrderRepository(r.db)
}

func (r *gormRepositories) Sessions() conference.SessionRepository {
	return NewGormSessionRepository(r.db)
}

var _ uow.TransactionScope = (*GormTransactionScope)(nil)

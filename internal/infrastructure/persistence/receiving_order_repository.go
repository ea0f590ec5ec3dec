package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmawms/backend/internal/domain/receiving"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// GormReceivingOrderRepository persists receiving orders as whole aggregates
type GormReceivingOrderRepository struct {
	db *gorm.DB
}

func NewGormReceivingOrderRepository(db *gorm.DB) *GormReceivingOrderRepository {
	return &GormReceivingOrderRepository{db: db}
}

func (r *GormReceivingOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*receiving.Order, error) {
	var m models.ReceivingOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", byPosition).
		Preload("Divergences", func(db *gorm.DB) *gorm.DB { return db.Order("reported_at ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, notFound(err, "receiving order")
	}
	return m.ToDomain(), nil
}

func (r *GormReceivingOrderRepository) Create(ctx context.Context, o *receiving.Order) error {
	return r.db.WithContext(ctx).Create(models.ReceivingOrderModelFromDomain(o)).Error
}

// Save updates the header under a version check, then upserts items and
// divergences.
func (r *GormReceivingOrderRepository) Save(ctx context.Context, o *receiving.Order) error {
	m := models.ReceivingOrderModelFromDomain(o)
	db := r.db.WithContext(ctx)
	res := db.Model(&models.ReceivingOrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]any{
			"status":     m.Status,
			"version":    o.Version + 1,
			"updated_at": o.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			"receiving order "+o.Number+" was modified by another transaction")
	}
	if len(m.Items) > 0 {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m.Items).Error; err != nil {
			return err
		}
	}
	if len(m.Divergences) > 0 {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m.Divergences).Error; err != nil {
			return err
		}
	}
	o.Version++
	return nil
}

var _ receiving.OrderRepository = (*GormReceivingOrderRepository)(nil)

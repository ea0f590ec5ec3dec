package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// GormMovementRepository is the append-only movement log
type GormMovementRepository struct {
	db *gorm.DB
}

func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

func (r *GormMovementRepository) Append(ctx context.Context, m *inventory.MovementRecord) error {
	return r.db.WithContext(ctx).Create(models.MovementRecordModelFromDomain(m)).Error
}

func (r *GormMovementRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, refType string, refID uuid.UUID) ([]inventory.MovementRecord, error) {
	var rows []models.MovementRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ?", tenantID, refType, refID).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]inventory.MovementRecord, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)

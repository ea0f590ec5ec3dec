package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// GormWaveRepository persists waves with their items and sources
type GormWaveRepository struct {
	db *gorm.DB
}

func NewGormWaveRepository(db *gorm.DB) *GormWaveRepository {
	return &GormWaveRepository{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create inserts the wave, its order membership, items and sources
func (r *GormWaveRepository) Create(ctx context.Context, w *outbound.Wave) error {
	return r.db.WithContext(ctx).Create(models.WaveModelFromDomain(w)).Error
}

func (r *GormWaveRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*outbound.Wave, error) {
	var m models.WaveModel
	if err := r.db.WithContext(ctx).
		Preload("Orders", byPosition).
		Preload("Items", byPosition).
		Preload("Items.Sources", byPosition).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, notFound(err, "wave")
	}
	return m.ToDomain(), nil
}

// Save writes the header under an optimistic version check
func (r *GormWaveRepository) Save(ctx context.Context, w *outbound.Wave) error {
	res := r.db.WithContext(ctx).Model(&models.WaveModel{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(map[string]any{
			"status":     string(w.Status),
			"version":    w.Version + 1,
			"updated_at": w.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			"wave "+w.Number+" was modified by another transaction")
	}
	w.Version++
	return nil
}

func (r *GormWaveRepository) FindItem(ctx context.Context, tenantID, itemID uuid.UUID) (*outbound.WaveItem, error) {
	var m models.WaveItemModel
	if err := r.db.WithContext(ctx).
		Preload("Sources", byPosition).
		Where("tenant_id = ? AND id = ?", tenantID, itemID).
		First(&m).Error; err != nil {
		return nil, notFound(err, "wave item")
	}
	item := m.ToDomain()
	return &item, nil
}

// AddItem appends an item, used when a short pick is moved to another position
func (r *GormWaveRepository) AddItem(ctx context.Context, item *outbound.WaveItem) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.WaveItemModel{}).
		Where("wave_id = ?", item.WaveID).Count(&count).Error; err != nil {
		return err
	}
	m := models.WaveItemModelFromDomain(item, int(count))
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *GormWaveRepository) AddItemPicked(ctx context.Context, itemID uuid.UUID, qty int64) error {
	res := r.db.WithContext(ctx).Model(&models.WaveItemModel{}).
		Where("id = ? AND picked_quantity + ? <= total_quantity", itemID, qty).
		Updates(map[string]any{
			"picked_quantity": gorm.Expr("picked_quantity + ?", qty),
			"status": gorm.Expr("CASE WHEN picked_quantity + ? >= total_quantity THEN ? ELSE ? END",
				qty, string(outbound.WaveItemPicked), string(outbound.WaveItemPicking)),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "wave item picked quantity would exceed its total")
	}
	return nil
}

func (r *GormWaveRepository) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status outbound.WaveItemStatus) error {
	return r.db.WithContext(ctx).Model(&models.WaveItemModel{}).
		Where("id = ?", itemID).
		Update("status", string(status)).Error
}

// ShrinkItem lowers an item's total, used when a short pick moves the
// remainder elsewhere.
func (r *GormWaveRepository) ShrinkItem(ctx context.Context, itemID uuid.UUID, total int64) error {
	res := r.db.WithContext(ctx).Model(&models.WaveItemModel{}).
		Where("id = ? AND picked_quantity <= ?", itemID, total).
		Update("total_quantity", total)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "wave item cannot shrink below its picked quantity")
	}
	return nil
}

// ShrinkSource lowers a source's quantity to match a shrunk item.
func (r *GormWaveRepository) ShrinkSource(ctx context.Context, sourceID uuid.UUID, qty int64) error {
	return r.db.WithContext(ctx).Model(&models.WaveItemSourceModel{}).
		Where("id = ?", sourceID).
		Update("quantity", qty).Error
}

func (r *GormWaveRepository) SetSourcePicked(ctx context.Context, sourceID uuid.UUID, picked int64) error {
	return r.db.WithContext(ctx).Model(&models.WaveItemSourceModel{}).
		Where("id = ? AND quantity >= ?", sourceID, picked).
		Update("picked_quantity", picked).Error
}

// ResetProgress clears picked quantities of every item and source of the wave
func (r *GormWaveRepository) ResetProgress(ctx context.Context, waveID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.WaveItemSourceModel{}).
		Where("wave_item_id IN (?)", db.Model(&models.WaveItemModel{}).Select("id").Where("wave_id = ?", waveID)).
		Update("picked_quantity", 0).Error; err != nil {
		return err
	}
	return db.Model(&models.WaveItemModel{}).
		Where("wave_id = ?", waveID).
		Updates(map[string]any{
			"picked_quantity": 0,
			"status":          string(outbound.WaveItemPending),
		}).Error
}

var _ outbound.WaveRepository = (*GormWaveRepository)(nil)

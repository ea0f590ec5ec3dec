package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// GormLabelRepository stores label associations. Lookups are global because
// label codes are unique across tenants.
type GormLabelRepository struct {
	db *gorm.DB
}

func NewGormLabelRepository(db *gorm.DB) *GormLabelRepository {
	return &GormLabelRepository{db: db}
}

func (r *GormLabelRepository) FindByCode(ctx context.Context, code string) (*inventory.LabelAssociation, error) {
	var m models.LabelAssociationModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", inventory.NormalizeLabel(code)).
		First(&m).Error; err != nil {
		return nil, notFound(err, "label")
	}
	return m.ToDomain(), nil
}

// Save inserts an association. Concurrent auto-binds settle on the first
// insert; the loser gets a conflict and must re-read the stored binding.
func (r *GormLabelRepository) Save(ctx context.Context, a *inventory.LabelAssociation) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(models.LabelAssociationModelFromDomain(a))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.Conflictf("label %s is already associated", a.Code)
	}
	return nil
}

var _ inventory.LabelRepository = (*GormLabelRepository)(nil)

package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

func (r *GormLocationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Location, error) {
	var m models.LocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, notFound(err, "location")
	}
	return m.ToDomain(), nil
}

func (r *GormLocationRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*inventory.Location, error) {
	out := make(map[uuid.UUID]*inventory.Location, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.LocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].ToDomain()
	}
	return out, nil
}

func (r *GormLocationRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*inventory.Location, error) {
	var m models.LocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, strings.TrimSpace(code)).
		First(&m).Error; err != nil {
		return nil, notFound(err, "location")
	}
	return m.ToDomain(), nil
}

// FindDefault returns the first unblocked location of a zone, by code
func (r *GormLocationRepository) FindDefault(ctx context.Context, tenantID uuid.UUID, zone inventory.Zone) (*inventory.Location, error) {
	var m models.LocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND zone = ? AND blocked = ?", tenantID, string(zone), false).
		Order("code ASC").
		First(&m).Error; err != nil {
		return nil, notFound(err, string(zone)+" location")
	}
	return m.ToDomain(), nil
}

func (r *GormLocationRepository) Save(ctx context.Context, l *inventory.Location) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(models.LocationModelFromDomain(l)).Error
}

var _ inventory.LocationRepository = (*GormLocationRepository)(nil)

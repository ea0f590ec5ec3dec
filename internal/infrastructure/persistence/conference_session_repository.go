package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// GormSessionRepository persists conference sessions
type GormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Lines", byPosition)
}

func (r *GormSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*conference.Session, error) {
	var m models.ConferenceSessionModel
	if err := r.query(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, notFound(err, "conference session")
	}
	return m.ToDomain(), nil
}

func (r *GormSessionRepository) FindActive(ctx context.Context, tenantID uuid.UUID, dir conference.Direction, subjectID uuid.UUID) (*conference.Session, error) {
	var m models.ConferenceSessionModel
	if err := r.query(ctx).
		Where("tenant_id = ? AND direction = ? AND subject_id = ? AND status = ?",
			tenantID, string(dir), subjectID, string(conference.StatusInProgress)).
		First(&m).Error; err != nil {
		return nil, notFound(err, "active conference session")
	}
	return m.ToDomain(), nil
}

func (r *GormSessionRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, dir conference.Direction, subjectID uuid.UUID) ([]conference.Session, error) {
	var rows []models.ConferenceSessionModel
	if err := r.query(ctx).
		Where("tenant_id = ? AND direction = ? AND subject_id = ?", tenantID, string(dir), subjectID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]conference.Session, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

func (r *GormSessionRepository) Create(ctx context.Context, s *conference.Session) error {
	return r.db.WithContext(ctx).Create(models.ConferenceSessionModelFromDomain(s)).Error
}

// Save writes the header under a version check. Line counts only move
// through AddCounted.
func (r *GormSessionRepository) Save(ctx context.Context, s *conference.Session) error {
	res := r.db.WithContext(ctx).Model(&models.ConferenceSessionModel{}).
		Where("id = ? AND version = ?", s.ID, s.Version).
		Updates(map[string]any{
			"status":        string(s.Status),
			"forced":        s.Forced,
			"authorized_by": s.AuthorizedBy,
			"started_at":    s.StartedAt,
			"finished_at":   s.FinishedAt,
			"version":       s.Version + 1,
			"updated_at":    s.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "conference session was modified by another transaction")
	}
	s.Version++
	return nil
}

func (r *GormSessionRepository) AddCounted(ctx context.Context, lineID uuid.UUID, qty int64) error {
	return r.db.WithContext(ctx).Model(&models.ConferenceLineModel{}).
		Where("id = ?", lineID).
		Update("counted_quantity", gorm.Expr("counted_quantity + ?", qty)).Error
}

var _ conference.SessionRepository = (*GormSessionRepository)(nil)

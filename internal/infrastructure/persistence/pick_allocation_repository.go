package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// GormPickAllocationRepository persists pick routes
type GormPickAllocationRepository struct {
	db *gorm.DB
}

func NewGormPickAllocationRepository(db *gorm.DB) *GormPickAllocationRepository {
	return &GormPickAllocationRepository{db: db}
}

func (r *GormPickAllocationRepository) CreateBatch(ctx context.Context, as []outbound.PickAllocation) error {
	if len(as) == 0 {
		return nil
	}
	rows := make([]models.PickAllocationModel, len(as))
	for i := range as {
		rows[i] = models.PickAllocationModelFromDomain(&as[i])
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *GormPickAllocationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*outbound.PickAllocation, error) {
	var m models.PickAllocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, notFound(err, "pick allocation")
	}
	a := m.ToDomain()
	return &a, nil
}

func (r *GormPickAllocationRepository) FindByRoute(ctx context.Context, tenantID uuid.UUID, route outbound.RouteRef) ([]outbound.PickAllocation, error) {
	var rows []models.PickAllocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND route_kind = ? AND route_id = ?", tenantID, string(route.Kind), route.ID).
		Order("location_code ASC").Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]outbound.PickAllocation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// AddPicked is one guarded UPDATE: concurrent scans on the same allocation
// serialise on the row and can never push picked above quantity.
func (r *GormPickAllocationRepository) AddPicked(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, shared.BadRequestf("picked quantity must be positive, got %d", qty)
	}
	open := []string{string(outbound.PickPending), string(outbound.PickInProgress)}
	res := r.db.WithContext(ctx).Model(&models.PickAllocationModel{}).
		Where("id = ? AND status IN ? AND picked_quantity + ? <= quantity", id, open, qty).
		Updates(map[string]any{
			"picked_quantity": gorm.Expr("picked_quantity + ?", qty),
			"status": gorm.Expr("CASE WHEN picked_quantity + ? >= quantity THEN ? ELSE ? END",
				qty, string(outbound.PickPicked), string(outbound.PickInProgress)),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	var m models.PickAllocationModel
	if err := r.db.WithContext(ctx).Select("picked_quantity", "quantity", "status").
		First(&m, "id = ?", id).Error; err != nil {
		return 0, notFound(err, "pick allocation")
	}
	if res.RowsAffected == 0 {
		if m.Status != string(outbound.PickPending) && m.Status != string(outbound.PickInProgress) {
			return m.PickedQuantity, shared.InvalidStatef("allocation is already %s", m.Status)
		}
		return m.PickedQuantity, shared.BadRequestf("quantity %d exceeds remaining %d", qty, m.Quantity-m.PickedQuantity).
			WithDetail("remaining", m.Quantity-m.PickedQuantity)
	}
	return m.PickedQuantity, nil
}

func (r *GormPickAllocationRepository) MarkShortPicked(ctx context.Context, id uuid.UUID, reason outbound.ProblemReason) error {
	open := []string{string(outbound.PickPending), string(outbound.PickInProgress)}
	res := r.db.WithContext(ctx).Model(&models.PickAllocationModel{}).
		Where("id = ? AND status IN ?", id, open).
		Updates(map[string]any{
			"status":         string(outbound.PickShortPicked),
			"problem_reason": string(reason),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.InvalidStatef("allocation is no longer open")
	}
	return nil
}

func (r *GormPickAllocationRepository) MaxSequence(ctx context.Context, route outbound.RouteRef) (int, error) {
	var maxSeq sql.NullInt64
	if err := r.db.WithContext(ctx).Model(&models.PickAllocationModel{}).
		Where("route_kind = ? AND route_id = ?", string(route.Kind), route.ID).
		Select("MAX(sequence)").
		Row().Scan(&maxSeq); err != nil {
		return 0, err
	}
	return int(maxSeq.Int64), nil
}

func (r *GormPickAllocationRepository) DeleteByRoute(ctx context.Context, route outbound.RouteRef) error {
	return r.db.WithContext(ctx).
		Delete(&models.PickAllocationModel{}, "route_kind = ? AND route_id = ?", string(route.Kind), route.ID).Error
}

var _ outbound.PickAllocationRepository = (*GormPickAllocationRepository)(nil)

package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// GormLotPositionRepository is the Lot Ledger. Quantity changes are single
// guarded UPDATE statements; a zero row count means the guard failed, and
// the row is then read only to report why.
type GormLotPositionRepository struct {
	db *gorm.DB
}

// NewGormLotPositionRepository creates a new GormLotPositionRepository
func NewGormLotPositionRepository(db *gorm.DB) *GormLotPositionRepository {
	return &GormLotPositionRepository{db: db}
}

func (r *GormLotPositionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.LotPosition, error) {
	var m models.LotPositionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, notFound(err, "lot position")
	}
	return m.ToDomain(), nil
}

type eligibleRow struct {
	models.LotPositionModel
	LocationCode string
}

// FindEligible returns allocatable positions joined with their location code
func (r *GormLotPositionRepository) FindEligible(ctx context.Context, q inventory.EligibleQuery) ([]inventory.StockCandidate, error) {
	minFree := q.MinFree
	if minFree < 1 {
		minFree = 1
	}
	db := r.db.WithContext(ctx).
		Table("lot_positions AS lp").
		Select("lp.*, l.code AS location_code").
		Joins("JOIN locations l ON l.id = lp.location_id").
		Where("lp.tenant_id = ? AND lp.product_id = ?", q.TenantID, q.ProductID).
		Where("lp.status = ? AND lp.quantity - lp.reserved >= ?", string(inventory.LotStatusAvailable), minFree).
		Where("l.zone = ? AND l.blocked = ?", string(inventory.ZoneStorage), false)
	if q.Lot != nil {
		db = db.Where("lp.lot = ?", *q.Lot)
	}
	if q.LocationID != nil {
		db = db.Where("lp.location_id = ?", *q.LocationID)
	}
	if q.ExcludeLocationID != nil {
		db = db.Where("lp.location_id <> ?", *q.ExcludeLocationID)
	}
	switch q.Ordering {
	case inventory.OrderByExpiry:
		db = db.Order("lp.expires_at IS NULL").Order("lp.expires_at ASC").Order("lp.received_at ASC")
	default:
		db = db.Order("lp.received_at ASC")
	}
	db = db.Order("l.code ASC")

	var rows []eligibleRow
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]inventory.StockCandidate, len(rows))
	for i := range rows {
		out[i] = inventory.StockCandidate{
			Position:     *rows[i].LotPositionModel.ToDomain(),
			LocationCode: rows[i].LocationCode,
		}
	}
	return out, nil
}

func (r *GormLotPositionRepository) FindByLocation(ctx context.Context, tenantID, locationID uuid.UUID) ([]inventory.LotPosition, error) {
	var rows []models.LotPositionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND location_id = ? AND quantity > 0", tenantID, locationID).
		Order("received_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLotPositions(rows), nil
}

func (r *GormLotPositionRepository) FindSlot(ctx context.Context, tenantID uuid.UUID, key inventory.PhysicalKey, status inventory.LotStatus) (*inventory.LotPosition, error) {
	var m models.LotPositionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND location_id = ? AND lot = ? AND status = ?",
			tenantID, key.ProductID, key.LocationID, key.Lot, string(status)).
		First(&m).Error; err != nil {
		return nil, notFound(err, "lot position")
	}
	return m.ToDomain(), nil
}

// FindExpiring returns positions across tenants whose lot expires before
// the given time and that are not yet expired, damaged or empty.
func (r *GormLotPositionRepository) FindExpiring(ctx context.Context, before time.Time, limit int) ([]inventory.LotPosition, error) {
	if limit <= 0 {
		limit = 500
	}
	var rows []models.LotPositionModel
	if err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", before).
		Where("status IN ?", []string{
			string(inventory.LotStatusAvailable),
			string(inventory.LotStatusQuarantine),
			string(inventory.LotStatusBlocked),
		}).
		Where("quantity > 0").
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLotPositions(rows), nil
}

// Reserve increments reserved when the position is available and has qty free
func (r *GormLotPositionRepository) Reserve(ctx context.Context, id uuid.UUID, qty int64) error {
	if qty <= 0 {
		return shared.BadRequestf("reserve quantity must be positive, got %d", qty)
	}
	res := r.db.WithContext(ctx).Model(&models.LotPositionModel{}).
		Where("id = ? AND status = ? AND quantity - reserved >= ?", id, string(inventory.LotStatusAvailable), qty).
		Updates(map[string]any{
			"reserved":   gorm.Expr("reserved + ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	pos, err := r.find(ctx, id)
	if err != nil {
		return err
	}
	if pos.Status != inventory.LotStatusAvailable {
		return shared.InvalidStatef("lot %q is %s, not available", pos.Lot, pos.Status)
	}
	return shared.InsufficientStock("lot "+pos.Lot, qty, pos.Free())
}

// Release decrements reserved when at least qty is reserved
func (r *GormLotPositionRepository) Release(ctx context.Context, id uuid.UUID, qty int64) error {
	if qty <= 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.LotPositionModel{}).
		Where("id = ? AND reserved >= ?", id, qty).
		Updates(map[string]any{
			"reserved":   gorm.Expr("reserved - ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	pos, err := r.find(ctx, id)
	if err != nil {
		return err
	}
	return shared.NewDomainError(shared.CodeConcurrencyConflict,
		"lot "+pos.Lot+" has fewer reserved units than the release").
		WithDetail("reserved", pos.Reserved).
		WithDetail("release", qty)
}

// Consume removes qty on-hand units and reservedQty reserved units at once
func (r *GormLotPositionRepository) Consume(ctx context.Context, id uuid.UUID, qty, reservedQty int64) error {
	if qty < 0 || reservedQty < 0 {
		return shared.BadRequestf("consume quantities cannot be negative")
	}
	if qty == 0 && reservedQty == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.LotPositionModel{}).
		Where("id = ? AND quantity >= ? AND reserved >= ? AND reserved - ? <= quantity - ?", id, qty, reservedQty, reservedQty, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"reserved":   gorm.Expr("reserved - ?", reservedQty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	pos, err := r.find(ctx, id)
	if err != nil {
		return err
	}
	if pos.Quantity < qty {
		return shared.InsufficientStock("lot "+pos.Lot, qty, pos.Quantity)
	}
	return shared.NewDomainError(shared.CodeConcurrencyConflict,
		"lot "+pos.Lot+" reservation changed while consuming")
}

// AddStock merges into the row with the same product, location, lot and
// status, or inserts a new row. The merged row keeps its original expiry
// and intake time.
func (r *GormLotPositionRepository) AddStock(ctx context.Context, pos *inventory.LotPosition) (*inventory.LotPosition, error) {
	if pos.Quantity <= 0 {
		return nil, shared.BadRequestf("added quantity must be positive, got %d", pos.Quantity)
	}
	m := models.LotPositionModelFromDomain(pos)
	m.Reserved = 0
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "location_id"}, {Name: "lot"}, {Name: "status"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("lot_positions.quantity + excluded.quantity"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(m).Error
	if err != nil {
		return nil, err
	}
	var stored models.LotPositionModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND location_id = ? AND lot = ? AND status = ?", pos.ProductID, pos.LocationID, pos.Lot, string(pos.Status)).
		First(&stored).Error; err != nil {
		return nil, notFound(err, "lot position")
	}
	return stored.ToDomain(), nil
}

// TransitionStatus moves a position from one quality status to another.
// Leaving available for anything but expired requires no reserved units.
func (r *GormLotPositionRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to inventory.LotStatus) error {
	if !from.CanTransitionTo(to) {
		return shared.InvalidStatef("lot status cannot change from %s to %s", from, to)
	}
	db := r.db.WithContext(ctx).Model(&models.LotPositionModel{}).
		Where("id = ? AND status = ?", id, string(from))
	if to != inventory.LotStatusAvailable && to != inventory.LotStatusExpired {
		db = db.Where("reserved = 0")
	}
	res := db.Updates(map[string]any{"status": string(to), "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	pos, err := r.find(ctx, id)
	if err != nil {
		return err
	}
	if pos.Status != from {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			"lot "+pos.Lot+" is "+string(pos.Status)+", expected "+string(from))
	}
	return shared.Conflictf("lot %q has %d reserved units", pos.Lot, pos.Reserved)
}

func (r *GormLotPositionRepository) find(ctx context.Context, id uuid.UUID) (*inventory.LotPosition, error) {
	var m models.LotPositionModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "lot position")
	}
	return m.ToDomain(), nil
}

func toLotPositions(rows []models.LotPositionModel) []inventory.LotPosition {
	out := make([]inventory.LotPosition, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ inventory.LotPositionRepository = (*GormLotPositionRepository)(nil)

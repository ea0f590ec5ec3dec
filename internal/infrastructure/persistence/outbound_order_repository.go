package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository persists outbound orders
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) withLines(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*outbound.Order, error) {
	var m models.OrderModel
	if err := r.withLines(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, notFound(err, "order")
	}
	return m.ToDomain(), nil
}

// FindByIDs loads orders of any tenant in the order of ids. Unknown IDs are
// skipped.
func (r *GormOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*outbound.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.OrderModel
	if err := r.withLines(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*outbound.Order, len(rows))
	for i := range rows {
		byID[rows[i].ID] = rows[i].ToDomain()
	}
	out := make([]*outbound.Order, 0, len(rows))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *GormOrderRepository) FindByWave(ctx context.Context, tenantID, waveID uuid.UUID) ([]*outbound.Order, error) {
	var rows []models.OrderModel
	if err := r.withLines(ctx).
		Where("tenant_id = ? AND wave_id = ?", tenantID, waveID).
		Order("number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*outbound.Order, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts the order header and its lines
func (r *GormOrderRepository) Create(ctx context.Context, o *outbound.Order) error {
	return r.db.WithContext(ctx).Create(models.OrderModelFromDomain(o)).Error
}

// Save writes the header under an optimistic version check and bumps the
// version on success. Lines are left alone.
func (r *GormOrderRepository) Save(ctx context.Context, o *outbound.Order) error {
	res := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]any{
			"status":     string(o.Status),
			"policy":     string(o.Policy),
			"wave_id":    o.WaveID,
			"version":    o.Version + 1,
			"updated_at": o.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			"order "+o.Number+" was modified by another transaction")
	}
	o.Version++
	return nil
}

func (r *GormOrderRepository) AddLinePicked(ctx context.Context, lineID uuid.UUID, delta int64) error {
	if delta == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.OrderLineModel{}).
		Where("id = ? AND picked_quantity + ? >= 0", lineID, delta).
		Update("picked_quantity", gorm.Expr("picked_quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "order line picked quantity would go negative")
	}
	return nil
}

func (r *GormOrderRepository) ResetLinesPicked(ctx context.Context, orderIDs []uuid.UUID) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.OrderLineModel{}).
		Where("order_id IN ?", orderIDs).
		Update("picked_quantity", 0).Error
}

var _ outbound.OrderRepository = (*GormOrderRepository)(nil)

// GormPolicyRepository stores customer allocation policies
type GormPolicyRepository struct {
	db *gorm.DB
}

func NewGormPolicyRepository(db *gorm.DB) *GormPolicyRepository {
	return &GormPolicyRepository{db: db}
}

func (r *GormPolicyRepository) FindPolicy(ctx context.Context, tenantID, customerID uuid.UUID) (outbound.AllocationPolicy, error) {
	var rows []models.CustomerPolicyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return outbound.PolicyFIFO, nil
	}
	return outbound.ParsePolicy(rows[0].Policy)
}

func (r *GormPolicyRepository) SavePolicy(ctx context.Context, p outbound.CustomerPolicy) error {
	if !p.Policy.IsValid() {
		return shared.BadRequestf("unknown allocation policy %q", p.Policy)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"policy"}),
	}).Create(&models.CustomerPolicyModel{
		TenantID:   p.TenantID,
		CustomerID: p.CustomerID,
		Policy:     string(p.Policy),
	}).Error
}

var _ outbound.PolicyRepository = (*GormPolicyRepository)(nil)

// GormReservationRepository persists reservations
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) CreateBatch(ctx context.Context, rs []outbound.Reservation) error {
	if len(rs) == 0 {
		return nil
	}
	rows := make([]models.ReservationModel, len(rs))
	for i := range rs {
		rows[i] = models.ReservationModelFromDomain(&rs[i])
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *GormReservationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*outbound.Reservation, error) {
	var m models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, notFound(err, "reservation")
	}
	res := m.ToDomain()
	return &res, nil
}

func (r *GormReservationRepository) FindByOrders(ctx context.Context, tenantID uuid.UUID, orderIDs []uuid.UUID) ([]outbound.Reservation, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var rows []models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id IN ?", tenantID, orderIDs).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[uuid.UUID][]outbound.Reservation, len(orderIDs))
	for i := range rows {
		byOrder[rows[i].OrderID] = append(byOrder[rows[i].OrderID], rows[i].ToDomain())
	}
	out := make([]outbound.Reservation, 0, len(rows))
	for _, id := range orderIDs {
		out = append(out, byOrder[id]...)
	}
	return out, nil
}

func (r *GormReservationRepository) AddPicked(ctx context.Context, id uuid.UUID, delta int64) error {
	if delta == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.ReservationModel{}).
		Where("id = ? AND picked_quantity + ? >= 0 AND picked_quantity + ? <= quantity", id, delta, delta).
		Updates(map[string]any{
			"picked_quantity": gorm.Expr("picked_quantity + ?", delta),
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "reservation picked quantity out of bounds")
	}
	return nil
}

func (r *GormReservationRepository) Shrink(ctx context.Context, id uuid.UUID, qty int64) error {
	res := r.db.WithContext(ctx).Model(&models.ReservationModel{}).
		Where("id = ? AND picked_quantity <= ? AND quantity >= ?", id, qty, qty).
		Updates(map[string]any{"quantity": qty, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "reservation cannot shrink below its picked quantity")
	}
	return nil
}

func (r *GormReservationRepository) ResetPicked(ctx context.Context, orderIDs []uuid.UUID) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.ReservationModel{}).
		Where("order_id IN ?", orderIDs).
		Update("picked_quantity", 0).Error
}

func (r *GormReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ReservationModel{}, "id = ?", id).Error
}

func (r *GormReservationRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ReservationModel{}, "order_id = ?", orderID).Error
}

var _ outbound.ReservationRepository = (*GormReservationRepository)(nil)

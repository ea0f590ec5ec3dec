package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/infrastructure/persistence/models"
)

// GormSequenceGenerator keeps per-day counters in the sequences table. The
// upsert holds the row lock until the surrounding transaction ends, so two
// callers never read the same value.
type GormSequenceGenerator struct {
	db *gorm.DB
}

func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db}
}

func (g *GormSequenceGenerator) Next(ctx context.Context, tenantID uuid.UUID, scope string, day time.Time) (int64, error) {
	var values []int64
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.SequenceModel{TenantID: tenantID, Scope: scope, Day: outbound.DayKey(day), Value: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "scope"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]any{"value": gorm.Expr("sequences.value + 1")}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&models.SequenceModel{}).
			Where("tenant_id = ? AND scope = ? AND day = ?", row.TenantID, row.Scope, row.Day).
			Pluck("value", &values).Error
	})
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("sequence %s/%s not found after upsert", scope, outbound.DayKey(day))
	}
	return values[0], nil
}

var _ outbound.SequenceGenerator = (*GormSequenceGenerator)(nil)

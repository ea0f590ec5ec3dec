package models

import "github.com/google/uuid"

// SequenceModel is a per-tenant, per-scope, per-day counter.
type SequenceModel struct {
	TenantID uuid.UUID `gorm:"type:uuid;primary_key"`
	Scope    string    `gorm:"type:varchar(32);primary_key"`
	Day      string    `gorm:"type:char(8);primary_key"`
	Value    int64     `gorm:"not null"`
}

func (SequenceModel) TableName() string {
	return "sequences"
}

// All lists every model, in dependency order, for AutoMigrate in tests.
func All() []any {
	return []any{
		&ProductModel{},
		&LocationModel{},
		&LotPositionModel{},
		&MovementRecordModel{},
		&LabelAssociationModel{},
		&OrderModel{},
		&OrderLineModel{},
		&CustomerPolicyModel{},
		&ReservationModel{},
		&WaveModel{},
		&WaveOrderModel{},
		&WaveItemModel{},
		&WaveItemSourceModel{},
		&PickAllocationModel{},
		&ReceivingOrderModel{},
		&ReceivingItemModel{},
		&ReceivingDivergenceModel{},
		&ConferenceSessionModel{},
		&ConferenceLineModel{},
		&SequenceModel{},
	}
}

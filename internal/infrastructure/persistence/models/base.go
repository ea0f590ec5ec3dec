package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// TenantModel is a BaseModel owned by a tenant.
type TenantModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *TenantModel) FromDomainTenantEntity(e shared.TenantEntity) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TenantID = e.TenantID
}

func (m *TenantModel) ToTenantEntity() shared.TenantEntity {
	return shared.TenantEntity{BaseEntity: m.BaseModel.ToDomain(), TenantID: m.TenantID}
}

// TenantAggregateModel provides common persistence fields for tenant-scoped
// aggregate roots, with a version for optimistic locking.
type TenantAggregateModel struct {
	TenantModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates TenantAggregateModel from domain BaseAggregateRoot
func (m *TenantAggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainTenantEntity(a.TenantEntity)
	m.Version = a.Version
}

// ToAggregateRoot builds the domain aggregate header. Pending events are
// never persisted, so the result starts with none.
func (m *TenantAggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{TenantEntity: m.ToTenantEntity(), Version: m.Version}
}

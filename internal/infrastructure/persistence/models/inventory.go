package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
)

// ProductModel is the persistence model for Product.
type ProductModel struct {
	TenantModel
	SKU              string `gorm:"type:varchar(64);not null;index"`
	GTIN             string `gorm:"type:varchar(32);index"`
	Description      string `gorm:"type:varchar(255)"`
	UnitsPerPackage  int64  `gorm:"not null;default:1"`
	LotControlled    bool   `gorm:"not null"`
	ExpiryControlled bool   `gorm:"not null;default:false"`
}

func (ProductModel) TableName() string {
	return "products"
}

func (m *ProductModel) ToDomain() *inventory.Product {
	return &inventory.Product{
		TenantEntity:     m.ToTenantEntity(),
		SKU:              m.SKU,
		GTIN:             m.GTIN,
		Description:      m.Description,
		UnitsPerPackage:  m.UnitsPerPackage,
		LotControlled:    m.LotControlled,
		ExpiryControlled: m.ExpiryControlled,
	}
}

func ProductModelFromDomain(p *inventory.Product) *ProductModel {
	m := &ProductModel{
		SKU:              p.SKU,
		GTIN:             p.GTIN,
		Description:      p.Description,
		UnitsPerPackage:  p.UnitsPerPackage,
		LotControlled:    p.LotControlled,
		ExpiryControlled: p.ExpiryControlled,
	}
	m.FromDomainTenantEntity(p.TenantEntity)
	return m
}

// LocationModel is the persistence model for Location. Occupancy is derived,
// never stored.
type LocationModel struct {
	TenantModel
	Code    string `gorm:"type:varchar(32);not null;index"`
	Zone    string `gorm:"type:varchar(20);not null;index"`
	Blocked bool   `gorm:"not null;default:false"`
}

func (LocationModel) TableName() string {
	return "locations"
}

func (m *LocationModel) ToDomain() *inventory.Location {
	return &inventory.Location{
		TenantEntity: m.ToTenantEntity(),
		Code:         m.Code,
		Zone:         inventory.Zone(m.Zone),
		Blocked:      m.Blocked,
	}
}

func LocationModelFromDomain(l *inventory.Location) *LocationModel {
	m := &LocationModel{Code: l.Code, Zone: string(l.Zone), Blocked: l.Blocked}
	m.FromDomainTenantEntity(l.TenantEntity)
	return m
}

// LotPositionModel is the ledger row. The unique index lets AddStock merge
// receipts of the same lot into one row per status.
type LotPositionModel struct {
	TenantModel
	ProductID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_lot_position_slot,priority:1"`
	LocationID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_lot_position_slot,priority:2"`
	Lot        string     `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_lot_position_slot,priority:3"`
	Status     string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_lot_position_slot,priority:4"`
	ExpiresAt  *time.Time `gorm:"index"`
	Quantity   int64      `gorm:"not null;default:0;check:quantity >= 0"`
	Reserved   int64      `gorm:"not null;default:0;check:reserved >= 0"`
	ReceivedAt time.Time  `gorm:"not null;index"`
}

func (LotPositionModel) TableName() string {
	return "lot_positions"
}

func (m *LotPositionModel) ToDomain() *inventory.LotPosition {
	return &inventory.LotPosition{
		TenantEntity: m.ToTenantEntity(),
		ProductID:    m.ProductID,
		LocationID:   m.LocationID,
		Lot:          m.Lot,
		ExpiresAt:    m.ExpiresAt,
		Quantity:     m.Quantity,
		Reserved:     m.Reserved,
		Status:       inventory.LotStatus(m.Status),
		ReceivedAt:   m.ReceivedAt,
	}
}

func LotPositionModelFromDomain(p *inventory.LotPosition) *LotPositionModel {
	m := &LotPositionModel{
		ProductID:  p.ProductID,
		LocationID: p.LocationID,
		Lot:        p.Lot,
		Status:     string(p.Status),
		ExpiresAt:  p.ExpiresAt,
		Quantity:   p.Quantity,
		Reserved:   p.Reserved,
		ReceivedAt: p.ReceivedAt,
	}
	m.FromDomainTenantEntity(p.TenantEntity)
	return m
}

// MovementRecordModel is append-only.
type MovementRecordModel struct {
	TenantModel
	Type           string     `gorm:"type:varchar(20);not null;index"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Lot            string     `gorm:"type:varchar(64);not null;default:''"`
	FromLocationID *uuid.UUID `gorm:"type:uuid"`
	ToLocationID   *uuid.UUID `gorm:"type:uuid"`
	Quantity       int64      `gorm:"not null"`
	ReferenceType  string     `gorm:"type:varchar(40);not null;index:idx_movement_reference,priority:1"`
	ReferenceID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_movement_reference,priority:2"`
	OperatorID     *uuid.UUID `gorm:"type:uuid"`
	OccurredAt     time.Time  `gorm:"not null"`
}

func (MovementRecordModel) TableName() string {
	return "movement_records"
}

func (m *MovementRecordModel) ToDomain() *inventory.MovementRecord {
	return &inventory.MovementRecord{
		TenantEntity:   m.ToTenantEntity(),
		Type:           inventory.MovementType(m.Type),
		ProductID:      m.ProductID,
		Lot:            m.Lot,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		Quantity:       m.Quantity,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		OperatorID:     m.OperatorID,
		OccurredAt:     m.OccurredAt,
	}
}

func MovementRecordModelFromDomain(r *inventory.MovementRecord) *MovementRecordModel {
	m := &MovementRecordModel{
		Type:           string(r.Type),
		ProductID:      r.ProductID,
		Lot:            r.Lot,
		FromLocationID: r.FromLocationID,
		ToLocationID:   r.ToLocationID,
		Quantity:       r.Quantity,
		ReferenceType:  r.ReferenceType,
		ReferenceID:    r.ReferenceID,
		OperatorID:     r.OperatorID,
		OccurredAt:     r.OccurredAt,
	}
	m.FromDomainTenantEntity(r.TenantEntity)
	return m
}

// LabelAssociationModel maps a scanned code to a product lot. Codes are
// unique across tenants.
type LabelAssociationModel struct {
	TenantModel
	Code            string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null"`
	Lot             string    `gorm:"type:varchar(64);not null;default:''"`
	ExpiresAt       *time.Time
	UnitsPerPackage int64 `gorm:"not null;default:0"`
}

func (LabelAssociationModel) TableName() string {
	return "label_associations"
}

func (m *LabelAssociationModel) ToDomain() *inventory.LabelAssociation {
	return &inventory.LabelAssociation{
		TenantEntity:    m.ToTenantEntity(),
		Code:            m.Code,
		ProductID:       m.ProductID,
		Lot:             m.Lot,
		ExpiresAt:       m.ExpiresAt,
		UnitsPerPackage: m.UnitsPerPackage,
	}
}

func LabelAssociationModelFromDomain(a *inventory.LabelAssociation) *LabelAssociationModel {
	m := &LabelAssociationModel{
		Code:            a.Code,
		ProductID:       a.ProductID,
		Lot:             a.Lot,
		ExpiresAt:       a.ExpiresAt,
		UnitsPerPackage: a.UnitsPerPackage,
	}
	m.FromDomainTenantEntity(a.TenantEntity)
	return m
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/receiving"
)

// ReceivingOrderModel is the persistence model for an inbound receiving order.
type ReceivingOrderModel struct {
	TenantAggregateModel
	Number      string                     `gorm:"type:varchar(50);not null;index"`
	Supplier    string                     `gorm:"type:varchar(255)"`
	Status      string                     `gorm:"type:varchar(20);not null;index"`
	Items       []ReceivingItemModel       `gorm:"foreignKey:OrderID;references:ID"`
	Divergences []ReceivingDivergenceModel `gorm:"foreignKey:OrderID;references:ID"`
}

func (ReceivingOrderModel) TableName() string {
	return "receiving_orders"
}

type ReceivingItemModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Position         int       `gorm:"not null;default:0"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null"`
	Lot              string    `gorm:"type:varchar(64);not null;default:''"`
	ExpiresAt        *time.Time
	ExpectedQuantity int64  `gorm:"not null"`
	ReceivedQuantity int64  `gorm:"not null;default:0"`
	Status           string `gorm:"type:varchar(20);not null"`
	StockCreated     bool   `gorm:"not null;default:false"`
}

func (ReceivingItemModel) TableName() string {
	return "receiving_items"
}

type ReceivingDivergenceModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	ItemID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Kind          string     `gorm:"type:varchar(20);not null"`
	Quantity      int64      `gorm:"not null"`
	Reason        string     `gorm:"type:text;not null"`
	Status        string     `gorm:"type:varchar(20);not null"`
	ReportedBy    uuid.UUID  `gorm:"type:uuid;not null"`
	ReportedAt    time.Time  `gorm:"not null"`
	ApprovedBy    *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt    *time.Time
	Justification string `gorm:"type:text"`
}

func (ReceivingDivergenceModel) TableName() string {
	return "receiving_divergences"
}

func (m *ReceivingOrderModel) ToDomain() *receiving.Order {
	o := &receiving.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		Supplier:          m.Supplier,
		Status:            receiving.OrderStatus(m.Status),
		Items:             make([]receiving.Item, len(m.Items)),
		Divergences:       make([]receiving.Divergence, len(m.Divergences)),
	}
	for i, it := range m.Items {
		o.Items[i] = receiving.Item{
			ID:               it.ID,
			OrderID:          it.OrderID,
			ProductID:        it.ProductID,
			Lot:              it.Lot,
			ExpiresAt:        it.ExpiresAt,
			ExpectedQuantity: it.ExpectedQuantity,
			ReceivedQuantity: it.ReceivedQuantity,
			Status:           receiving.ItemStatus(it.Status),
			StockCreated:     it.StockCreated,
		}
	}
	for i, d := range m.Divergences {
		o.Divergences[i] = receiving.Divergence{
			ID:            d.ID,
			TenantID:      d.TenantID,
			OrderID:       d.OrderID,
			ItemID:        d.ItemID,
			Kind:          receiving.DivergenceKind(d.Kind),
			Quantity:      d.Quantity,
			Reason:        d.Reason,
			Status:        receiving.DivergenceStatus(d.Status),
			ReportedBy:    d.ReportedBy,
			ReportedAt:    d.ReportedAt,
			ApprovedBy:    d.ApprovedBy,
			ApprovedAt:    d.ApprovedAt,
			Justification: d.Justification,
		}
	}
	return o
}

func ReceivingOrderModelFromDomain(o *receiving.Order) *ReceivingOrderModel {
	m := &ReceivingOrderModel{
		Number:      o.Number,
		Supplier:    o.Supplier,
		Status:      string(o.Status),
		Items:       make([]ReceivingItemModel, len(o.Items)),
		Divergences: make([]ReceivingDivergenceModel, len(o.Divergences)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i, it := range o.Items {
		m.Items[i] = ReceivingItemModel{
			ID:               it.ID,
			OrderID:          o.ID,
			Position:         i,
			ProductID:        it.ProductID,
			Lot:              it.Lot,
			ExpiresAt:        it.ExpiresAt,
			ExpectedQuantity: it.ExpectedQuantity,
			ReceivedQuantity: it.ReceivedQuantity,
			Status:           string(it.Status),
			StockCreated:     it.StockCreated,
		}
	}
	for i, d := range o.Divergences {
		m.Divergences[i] = ReceivingDivergenceModel{
			ID:            d.ID,
			TenantID:      d.TenantID,
			OrderID:       o.ID,
			ItemID:        d.ItemID,
			Kind:          string(d.Kind),
			Quantity:      d.Quantity,
			Reason:        d.Reason,
			Status:        string(d.Status),
			ReportedBy:    d.ReportedBy,
			ReportedAt:    d.ReportedAt,
			ApprovedBy:    d.ApprovedBy,
			ApprovedAt:    d.ApprovedAt,
			Justification: d.Justification,
		}
	}
	return m
}

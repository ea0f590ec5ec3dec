package models

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/outbound"
)

// OrderModel is the persistence model for the outbound Order aggregate root.
type OrderModel struct {
	TenantAggregateModel
	Number     string           `gorm:"type:varchar(50);not null;index"`
	CustomerID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Status     string           `gorm:"type:varchar(20);not null;index"`
	Policy     string           `gorm:"type:varchar(20)"`
	WaveID     *uuid.UUID       `gorm:"type:uuid;index"`
	Lines      []OrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

func (OrderModel) TableName() string {
	return "outbound_orders"
}

func (m *OrderModel) ToDomain() *outbound.Order {
	o := &outbound.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		CustomerID:        m.CustomerID,
		Status:            outbound.OrderStatus(m.Status),
		Policy:            outbound.AllocationPolicy(m.Policy),
		WaveID:            m.WaveID,
		Lines:             make([]outbound.OrderLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		o.Lines[i] = l.ToDomain()
	}
	return o
}

func OrderModelFromDomain(o *outbound.Order) *OrderModel {
	m := &OrderModel{
		Number:     o.Number,
		CustomerID: o.CustomerID,
		Status:     string(o.Status),
		Policy:     string(o.Policy),
		WaveID:     o.WaveID,
		Lines:      make([]OrderLineModel, len(o.Lines)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i := range o.Lines {
		m.Lines[i] = OrderLineModelFromDomain(&o.Lines[i], o.TenantID, i)
	}
	return m
}

// OrderLineModel is a line of an outbound order.
type OrderLineModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	Position           int        `gorm:"not null;default:0"`
	ProductID          uuid.UUID  `gorm:"type:uuid;not null"`
	RequestedQuantity  int64      `gorm:"not null"`
	Unit               string     `gorm:"type:varchar(20);not null"`
	Lot                *string    `gorm:"type:varchar(64)"`
	DirectedLocationID *uuid.UUID `gorm:"type:uuid"`
	PickedQuantity     int64      `gorm:"not null;default:0;check:picked_quantity >= 0"`
}

func (OrderLineModel) TableName() string {
	return "outbound_order_lines"
}

func (m *OrderLineModel) ToDomain() outbound.OrderLine {
	return outbound.OrderLine{
		ID:                 m.ID,
		OrderID:            m.OrderID,
		ProductID:          m.ProductID,
		RequestedQuantity:  m.RequestedQuantity,
		Unit:               m.Unit,
		Lot:                m.Lot,
		DirectedLocationID: m.DirectedLocationID,
		PickedQuantity:     m.PickedQuantity,
	}
}

func OrderLineModelFromDomain(l *outbound.OrderLine, tenantID uuid.UUID, position int) OrderLineModel {
	return OrderLineModel{
		ID:                 l.ID,
		TenantID:           tenantID,
		OrderID:            l.OrderID,
		Position:           position,
		ProductID:          l.ProductID,
		RequestedQuantity:  l.RequestedQuantity,
		Unit:               l.Unit,
		Lot:                l.Lot,
		DirectedLocationID: l.DirectedLocationID,
		PickedQuantity:     l.PickedQuantity,
	}
}

// CustomerPolicyModel stores the allocation policy of a customer.
type CustomerPolicyModel struct {
	TenantID   uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerID uuid.UUID `gorm:"type:uuid;primary_key"`
	Policy     string    `gorm:"type:varchar(20);not null"`
}

func (CustomerPolicyModel) TableName() string {
	return "customer_policies"
}

// ReservationModel binds an order line to a lot position.
type ReservationModel struct {
	TenantModel
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderLineID    uuid.UUID `gorm:"type:uuid;not null;index"`
	LotPositionID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null"`
	Lot            string    `gorm:"type:varchar(64);not null;default:''"`
	LocationID     uuid.UUID `gorm:"type:uuid;not null"`
	Quantity       int64     `gorm:"not null;check:quantity > 0"`
	PickedQuantity int64     `gorm:"not null;default:0"`
}

func (ReservationModel) TableName() string {
	return "reservations"
}

func (m *ReservationModel) ToDomain() outbound.Reservation {
	return outbound.Reservation{
		TenantEntity:   m.ToTenantEntity(),
		OrderID:        m.OrderID,
		OrderLineID:    m.OrderLineID,
		LotPositionID:  m.LotPositionID,
		ProductID:      m.ProductID,
		Lot:            m.Lot,
		LocationID:     m.LocationID,
		Quantity:       m.Quantity,
		PickedQuantity: m.PickedQuantity,
	}
}

func ReservationModelFromDomain(r *outbound.Reservation) ReservationModel {
	m := ReservationModel{
		OrderID:        r.OrderID,
		OrderLineID:    r.OrderLineID,
		LotPositionID:  r.LotPositionID,
		ProductID:      r.ProductID,
		Lot:            r.Lot,
		LocationID:     r.LocationID,
		Quantity:       r.Quantity,
		PickedQuantity: r.PickedQuantity,
	}
	m.FromDomainTenantEntity(r.TenantEntity)
	return m
}

// WaveModel is the persistence model for the Wave aggregate root.
type WaveModel struct {
	TenantAggregateModel
	Number     string           `gorm:"type:varchar(32);not null;uniqueIndex"`
	CustomerID uuid.UUID        `gorm:"type:uuid;not null"`
	Status     string           `gorm:"type:varchar(20);not null;index"`
	Orders     []WaveOrderModel `gorm:"foreignKey:WaveID;references:ID"`
	Items      []WaveItemModel  `gorm:"foreignKey:WaveID;references:ID"`
}

func (WaveModel) TableName() string {
	return "waves"
}

// WaveOrderModel remembers wave membership even after the wave is cancelled
// and the orders have left it.
type WaveOrderModel struct {
	WaveID   uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID  uuid.UUID `gorm:"type:uuid;primary_key"`
	Position int       `gorm:"not null"`
}

func (WaveOrderModel) TableName() string {
	return "wave_orders"
}

// WaveItemModel is one consolidated pick task.
type WaveItemModel struct {
	ID             uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	WaveID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	Position       int                   `gorm:"not null;default:0"`
	ProductID      uuid.UUID             `gorm:"type:uuid;not null"`
	Lot            string                `gorm:"type:varchar(64);not null;default:''"`
	LocationID     uuid.UUID             `gorm:"type:uuid;not null"`
	LotPositionID  uuid.UUID             `gorm:"type:uuid;not null"`
	TotalQuantity  int64                 `gorm:"not null"`
	PickedQuantity int64                 `gorm:"not null;default:0"`
	Status         string                `gorm:"type:varchar(20);not null"`
	Sources        []WaveItemSourceModel `gorm:"foreignKey:WaveItemID;references:ID"`
}

func (WaveItemModel) TableName() string {
	return "wave_items"
}

// WaveItemSourceModel links a wave item to a contributing reservation.
type WaveItemSourceModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	WaveItemID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Position       int       `gorm:"not null;default:0"`
	ReservationID  uuid.UUID `gorm:"type:uuid;not null"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null"`
	OrderLineID    uuid.UUID `gorm:"type:uuid;not null"`
	Quantity       int64     `gorm:"not null"`
	PickedQuantity int64     `gorm:"not null;default:0"`
}

func (WaveItemSourceModel) TableName() string {
	return "wave_item_sources"
}

func (m *WaveModel) ToDomain() *outbound.Wave {
	w := &outbound.Wave{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		CustomerID:        m.CustomerID,
		Status:            outbound.WaveStatus(m.Status),
		OrderIDs:          make([]uuid.UUID, len(m.Orders)),
		Items:             make([]outbound.WaveItem, len(m.Items)),
	}
	for i, o := range m.Orders {
		w.OrderIDs[i] = o.OrderID
	}
	for i := range m.Items {
		w.Items[i] = m.Items[i].ToDomain()
	}
	return w
}

func (m *WaveItemModel) ToDomain() outbound.WaveItem {
	item := outbound.WaveItem{
		ID:             m.ID,
		TenantID:       m.TenantID,
		WaveID:         m.WaveID,
		ProductID:      m.ProductID,
		Lot:            m.Lot,
		LocationID:     m.LocationID,
		LotPositionID:  m.LotPositionID,
		TotalQuantity:  m.TotalQuantity,
		PickedQuantity: m.PickedQuantity,
		Status:         outbound.WaveItemStatus(m.Status),
		Sources:        make([]outbound.WaveItemSource, len(m.Sources)),
	}
	for i, s := range m.Sources {
		item.Sources[i] = outbound.WaveItemSource{
			ID:             s.ID,
			WaveItemID:     s.WaveItemID,
			ReservationID:  s.ReservationID,
			OrderID:        s.OrderID,
			OrderLineID:    s.OrderLineID,
			Quantity:       s.Quantity,
			PickedQuantity: s.PickedQuantity,
		}
	}
	return item
}

func WaveModelFromDomain(w *outbound.Wave) *WaveModel {
	m := &WaveModel{
		Number:     w.Number,
		CustomerID: w.CustomerID,
		Status:     string(w.Status),
		Orders:     make([]WaveOrderModel, len(w.OrderIDs)),
		Items:      make([]WaveItemModel, len(w.Items)),
	}
	m.FromDomainAggregateRoot(w.BaseAggregateRoot)
	for i, id := range w.OrderIDs {
		m.Orders[i] = WaveOrderModel{WaveID: w.ID, OrderID: id, Position: i}
	}
	for i := range w.Items {
		m.Items[i] = WaveItemModelFromDomain(&w.Items[i], i)
	}
	return m
}

func WaveItemModelFromDomain(item *outbound.WaveItem, position int) WaveItemModel {
	m := WaveItemModel{
		ID:             item.ID,
		TenantID:       item.TenantID,
		WaveID:         item.WaveID,
		Position:       position,
		ProductID:      item.ProductID,
		Lot:            item.Lot,
		LocationID:     item.LocationID,
		LotPositionID:  item.LotPositionID,
		TotalQuantity:  item.TotalQuantity,
		PickedQuantity: item.PickedQuantity,
		Status:         string(item.Status),
		Sources:        make([]WaveItemSourceModel, len(item.Sources)),
	}
	for i, s := range item.Sources {
		m.Sources[i] = WaveItemSourceModel{
			ID:             s.ID,
			WaveItemID:     item.ID,
			Position:       i,
			ReservationID:  s.ReservationID,
			OrderID:        s.OrderID,
			OrderLineID:    s.OrderLineID,
			Quantity:       s.Quantity,
			PickedQuantity: s.PickedQuantity,
		}
	}
	return m
}

// PickAllocationModel is one task of a pick route.
type PickAllocationModel struct {
	TenantModel
	RouteKind      string     `gorm:"type:varchar(10);not null;index:idx_pick_route,priority:1"`
	RouteID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_pick_route,priority:2"`
	ReservationID  *uuid.UUID `gorm:"type:uuid"`
	WaveItemID     *uuid.UUID `gorm:"type:uuid"`
	LotPositionID  uuid.UUID  `gorm:"type:uuid;not null"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null"`
	Lot            string     `gorm:"type:varchar(64);not null;default:''"`
	LocationID     uuid.UUID  `gorm:"type:uuid;not null"`
	LocationCode   string     `gorm:"type:varchar(32);not null"`
	Quantity       int64      `gorm:"not null"`
	PickedQuantity int64      `gorm:"not null;default:0;check:picked_quantity <= quantity"`
	Sequence       int        `gorm:"not null"`
	Status         string     `gorm:"type:varchar(20);not null"`
	ProblemReason  string     `gorm:"type:varchar(30)"`
	ReplacesID     *uuid.UUID `gorm:"type:uuid"`
}

func (PickAllocationModel) TableName() string {
	return "pick_allocations"
}

func (m *PickAllocationModel) ToDomain() outbound.PickAllocation {
	return outbound.PickAllocation{
		TenantEntity:   m.ToTenantEntity(),
		Route:          outbound.RouteRef{Kind: outbound.RouteKind(m.RouteKind), ID: m.RouteID},
		ReservationID:  m.ReservationID,
		WaveItemID:     m.WaveItemID,
		LotPositionID:  m.LotPositionID,
		ProductID:      m.ProductID,
		Lot:            m.Lot,
		LocationID:     m.LocationID,
		LocationCode:   m.LocationCode,
		Quantity:       m.Quantity,
		PickedQuantity: m.PickedQuantity,
		Sequence:       m.Sequence,
		Status:         outbound.PickStatus(m.Status),
		ProblemReason:  outbound.ProblemReason(m.ProblemReason),
		ReplacesID:     m.ReplacesID,
	}
}

func PickAllocationModelFromDomain(a *outbound.PickAllocation) PickAllocationModel {
	m := PickAllocationModel{
		RouteKind:      string(a.Route.Kind),
		RouteID:        a.Route.ID,
		ReservationID:  a.ReservationID,
		WaveItemID:     a.WaveItemID,
		LotPositionID:  a.LotPositionID,
		ProductID:      a.ProductID,
		Lot:            a.Lot,
		LocationID:     a.LocationID,
		LocationCode:   a.LocationCode,
		Quantity:       a.Quantity,
		PickedQuantity: a.PickedQuantity,
		Sequence:       a.Sequence,
		Status:         string(a.Status),
		ProblemReason:  string(a.ProblemReason),
		ReplacesID:     a.ReplacesID,
	}
	m.FromDomainTenantEntity(a.TenantEntity)
	return m
}

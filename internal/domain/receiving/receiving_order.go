package receiving

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// OrderStatus is the status of an inbound receiving order.
type OrderStatus string

const (
	OrderStatusScheduled    OrderStatus = "scheduled"
	OrderStatusInConference OrderStatus = "in_conference"
	OrderStatusInQuarantine OrderStatus = "in_quarantine"
	OrderStatusCompleted    OrderStatus = "completed"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

// ItemStatus tracks the conference of one expected line.
type ItemStatus string

const (
	ItemStatusPending     ItemStatus = "pending"
	ItemStatusPartial     ItemStatus = "partial"
	ItemStatusConferenced ItemStatus = "conferenced"
	ItemStatusDivergent   ItemStatus = "divergent"
	ItemStatusApproved    ItemStatus = "approved"
)

// IsClosed reports whether the item needs no further counting.
func (s ItemStatus) IsClosed() bool {
	return s == ItemStatusConferenced || s == ItemStatusApproved
}

// Item is one expected (product, lot) line of a receiving order.
type Item struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ProductID        uuid.UUID
	Lot              string
	ExpiresAt        *time.Time
	ExpectedQuantity int64
	ReceivedQuantity int64
	Status           ItemStatus
	StockCreated     bool
}

func (i *Item) Key() inventory.LotKey {
	return inventory.NewLotKey(i.ProductID, i.Lot)
}

// PendingBalance is expected minus received. Negative means surplus.
func (i *Item) PendingBalance() int64 {
	return i.ExpectedQuantity - i.ReceivedQuantity
}

// Order is an inbound purchase order awaiting blind conference.
type Order struct {
	shared.BaseAggregateRoot
	Number      string
	Supplier    string
	Status      OrderStatus
	Items       []Item
	Divergences []Divergence
}

// NewOrder creates a scheduled receiving order.
func NewOrder(tenantID uuid.UUID, number, supplier string) (*Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.BadRequestf("receiving order number cannot be empty")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(tenantID),
		Number:            number,
		Supplier:          supplier,
		Status:            OrderStatusScheduled,
	}, nil
}

// AddItem adds an expected line. A (product, lot) may appear once.
func (o *Order) AddItem(key inventory.LotKey, expiresAt *time.Time, expected int64) (*Item, error) {
	if o.Status != OrderStatusScheduled {
		return nil, shared.InvalidStatef("receiving order %s is %s", o.Number, o.Status)
	}
	if expected <= 0 {
		return nil, shared.BadRequestf("expected quantity must be positive, got %d", expected)
	}
	if o.ItemByKey(key) != nil {
		return nil, shared.Conflictf("receiving order %s already lists %s", o.Number, key)
	}
	o.Items = append(o.Items, Item{
		ID:               uuid.New(),
		OrderID:          o.ID,
		ProductID:        key.ProductID,
		Lot:              key.Lot,
		ExpiresAt:        expiresAt,
		ExpectedQuantity: expected,
		Status:           ItemStatusPending,
	})
	return &o.Items[len(o.Items)-1], nil
}

func (o *Order) Item(id uuid.UUID) *Item {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

func (o *Order) ItemByKey(key inventory.LotKey) *Item {
	for i := range o.Items {
		if o.Items[i].Key().Equal(key) {
			return &o.Items[i]
		}
	}
	return nil
}

// BeginConference moves a scheduled order into conference.
func (o *Order) BeginConference() error {
	switch o.Status {
	case OrderStatusScheduled:
		o.Status = OrderStatusInConference
		o.Touch()
		return nil
	case OrderStatusInConference:
		return nil
	}
	return shared.InvalidStatef("receiving order %s is %s and cannot be conferenced", o.Number, o.Status)
}

// ApplyCount adds counted units to an item. Returns true when the item just
// became fully conferenced.
func (o *Order) ApplyCount(itemID uuid.UUID, qty int64) (bool, error) {
	item := o.Item(itemID)
	if item == nil {
		return false, shared.NotFoundf("receiving item not found")
	}
	if item.Status.IsClosed() {
		return false, shared.InvalidStatef("item %s is already %s", item.Key(), item.Status)
	}
	if qty < 0 {
		return false, shared.BadRequestf("counted quantity cannot be negative")
	}
	item.ReceivedQuantity += qty
	switch {
	case item.ReceivedQuantity == item.ExpectedQuantity:
		item.Status = ItemStatusConferenced
		return true, nil
	case item.ReceivedQuantity > 0 && item.Status != ItemStatusDivergent:
		item.Status = ItemStatusPartial
	}
	return false, nil
}

// FileDivergence records a shortage or surplus for an item still open.
// Only one pending divergence per item is allowed.
func (o *Order) FileDivergence(itemID uuid.UUID, kind DivergenceKind, reason string, reportedBy uuid.UUID) (*Divergence, error) {
	item := o.Item(itemID)
	if item == nil {
		return nil, shared.NotFoundf("receiving item not found")
	}
	if item.Status.IsClosed() {
		return nil, shared.InvalidStatef("item %s is already %s", item.Key(), item.Status)
	}
	for _, d := range o.Divergences {
		if d.ItemID == itemID && d.Status == DivergencePending {
			return nil, shared.Conflictf("item %s already has a pending divergence", item.Key())
		}
	}
	balance := item.PendingBalance()
	switch {
	case kind == DivergenceShortage && balance > 0:
	case kind == DivergenceSurplus && balance < 0:
		balance = -balance
	default:
		return nil, shared.BadRequestf("%s does not match item %s: expected %d, received %d",
			kind, item.Key(), item.ExpectedQuantity, item.ReceivedQuantity)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, shared.BadRequestf("a divergence needs a reason")
	}
	d := Divergence{
		ID:         uuid.New(),
		TenantID:   o.TenantID,
		OrderID:    o.ID,
		ItemID:     itemID,
		Kind:       kind,
		Quantity:   balance,
		Reason:     reason,
		Status:     DivergencePending,
		ReportedBy: reportedBy,
		ReportedAt: time.Now(),
	}
	o.Divergences = append(o.Divergences, d)
	item.Status = ItemStatusDivergent
	o.Raise(NewDivergenceFiledEvent(o, &d))
	return &o.Divergences[len(o.Divergences)-1], nil
}

// ApproveDivergence closes a divergent item with what was received.
func (o *Order) ApproveDivergence(divergenceID, supervisorID uuid.UUID, justification string) (*Item, error) {
	if supervisorID == uuid.Nil {
		return nil, shared.Forbiddenf("divergence approval requires a supervisor")
	}
	if strings.TrimSpace(justification) == "" {
		return nil, shared.BadRequestf("divergence approval requires a justification")
	}
	var d *Divergence
	for i := range o.Divergences {
		if o.Divergences[i].ID == divergenceID {
			d = &o.Divergences[i]
		}
	}
	if d == nil {
		return nil, shared.NotFoundf("divergence not found")
	}
	if d.Status != DivergencePending {
		return nil, shared.InvalidStatef("divergence is already %s", d.Status)
	}
	now := time.Now()
	d.Status = DivergenceApproved
	d.ApprovedBy = &supervisorID
	d.ApprovedAt = &now
	d.Justification = justification

	item := o.Item(d.ItemID)
	item.Status = ItemStatusApproved
	o.Raise(NewDivergenceApprovedEvent(o, d))
	return item, nil
}

// AllClosed reports whether every item is conferenced or approved.
func (o *Order) AllClosed() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, it := range o.Items {
		if !it.Status.IsClosed() {
			return false
		}
	}
	return true
}

// MoveToQuarantine marks the order as fully received into quarantine.
func (o *Order) MoveToQuarantine() error {
	if !o.AllClosed() {
		return shared.InvalidStatef("receiving order %s still has open items", o.Number)
	}
	if o.Status == OrderStatusInQuarantine {
		return nil
	}
	if o.Status != OrderStatusInConference {
		return shared.InvalidStatef("receiving order %s is %s", o.Number, o.Status)
	}
	o.Status = OrderStatusInQuarantine
	o.Touch()
	return nil
}

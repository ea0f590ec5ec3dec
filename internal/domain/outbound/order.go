package outbound

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// OrderStatus represents the status of an outbound order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAllocated OrderStatus = "allocated"
	OrderStatusInWave    OrderStatus = "in_wave"
	OrderStatusPicking   OrderStatus = "picking"
	OrderStatusPicked    OrderStatus = "picked"
	OrderStatusDivergent OrderStatus = "divergent"
	OrderStatusStaged    OrderStatus = "staged"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusAllocated, OrderStatusCancelled},
	OrderStatusAllocated: {OrderStatusInWave, OrderStatusPicking, OrderStatusCancelled},
	OrderStatusInWave:    {OrderStatusPicking, OrderStatusAllocated},
	OrderStatusPicking:   {OrderStatusPicked, OrderStatusDivergent, OrderStatusAllocated, OrderStatusCancelled},
	OrderStatusPicked:    {OrderStatusStaged, OrderStatusCancelled},
	OrderStatusDivergent: {OrderStatusPicked, OrderStatusCancelled},
	OrderStatusStaged:    {OrderStatusShipped},
}

// CanTransitionTo reports whether the order may move to target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// HoldsReservations reports whether an order in this status must have its
// reservations summing to the requested quantity.
func (s OrderStatus) HoldsReservations() bool {
	switch s {
	case OrderStatusAllocated, OrderStatusInWave, OrderStatusPicking, OrderStatusPicked:
		return true
	}
	return false
}

// OrderLine is one requested product on an order.
type OrderLine struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	ProductID          uuid.UUID
	RequestedQuantity  int64
	Unit               string
	Lot                *string
	DirectedLocationID *uuid.UUID
	PickedQuantity     int64
}

// LotRequirement returns the (product, lot) constraint of the line.
func (l *OrderLine) LotRequirement() inventory.LotKey {
	return inventory.LotKeyFromPtr(l.ProductID, l.Lot)
}

// Order is the outbound demand header.
type Order struct {
	shared.BaseAggregateRoot
	Number     string
	CustomerID uuid.UUID
	Status     OrderStatus
	Policy     AllocationPolicy
	WaveID     *uuid.UUID
	Lines      []OrderLine
}

// NewOrder creates a pending order.
func NewOrder(tenantID, customerID uuid.UUID, number string) (*Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.BadRequestf("order number cannot be empty")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(tenantID),
		Number:            number,
		CustomerID:        customerID,
		Status:            OrderStatusPending,
	}, nil
}

// AddLine appends a line. Only pending orders accept new lines.
func (o *Order) AddLine(productID uuid.UUID, quantity int64, unit string, lot *string, directed *uuid.UUID) (*OrderLine, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.InvalidStatef("cannot add lines to order %s in %s status", o.Number, o.Status)
	}
	if quantity <= 0 {
		return nil, shared.BadRequestf("requested quantity must be positive, got %d", quantity)
	}
	if productID == uuid.Nil {
		return nil, shared.BadRequestf("order line needs a product")
	}
	if unit == "" {
		unit = "unit"
	}
	o.Lines = append(o.Lines, OrderLine{
		ID:                 uuid.New(),
		OrderID:            o.ID,
		ProductID:          productID,
		RequestedQuantity:  quantity,
		Unit:               unit,
		Lot:                lot,
		DirectedLocationID: directed,
	})
	return &o.Lines[len(o.Lines)-1], nil
}

// Line returns the line with the given ID.
func (o *Order) Line(id uuid.UUID) *OrderLine {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i]
		}
	}
	return nil
}

// RequestedTotal sums requested quantity over all lines.
func (o *Order) RequestedTotal() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.RequestedQuantity
	}
	return total
}

// FullyPicked reports whether every line has been picked in full.
func (o *Order) FullyPicked() bool {
	for _, l := range o.Lines {
		if l.PickedQuantity < l.RequestedQuantity {
			return false
		}
	}
	return true
}

func (o *Order) transition(to OrderStatus) error {
	if !o.Status.CanTransitionTo(to) {
		return shared.InvalidStatef("order %s cannot move from %s to %s", o.Number, o.Status, to)
	}
	from := o.Status
	o.Status = to
	o.Touch()
	o.Raise(NewOrderStatusChangedEvent(o, from))
	return nil
}

// MarkAllocated records a successful allocation under policy.
func (o *Order) MarkAllocated(policy AllocationPolicy) error {
	if len(o.Lines) == 0 {
		return shared.BadRequestf("order %s has no lines", o.Number)
	}
	if err := o.transition(OrderStatusAllocated); err != nil {
		return err
	}
	o.Policy = policy
	return nil
}

// JoinWave attaches the order to a wave.
func (o *Order) JoinWave(waveID uuid.UUID) error {
	if o.WaveID != nil {
		return shared.Conflictf("order %s is already in a wave", o.Number)
	}
	if err := o.transition(OrderStatusInWave); err != nil {
		return err
	}
	o.WaveID = &waveID
	return nil
}

// LeaveWave detaches the order from its wave and clears picking progress.
// Reservations are untouched.
func (o *Order) LeaveWave() error {
	if o.WaveID == nil {
		return nil
	}
	if err := o.transition(OrderStatusAllocated); err != nil {
		return err
	}
	o.WaveID = nil
	for i := range o.Lines {
		o.Lines[i].PickedQuantity = 0
	}
	return nil
}

func (o *Order) StartPicking() error {
	return o.transition(OrderStatusPicking)
}

// FinishPicking closes picking. A shortfall on any line makes the order
// divergent instead of picked.
func (o *Order) FinishPicking() error {
	if o.FullyPicked() {
		return o.transition(OrderStatusPicked)
	}
	return o.transition(OrderStatusDivergent)
}

// AcceptShortage resolves a divergent pick: what was picked becomes what
// ships.
func (o *Order) AcceptShortage() error {
	if o.Status != OrderStatusDivergent {
		return shared.InvalidStatef("order %s is %s, not divergent", o.Number, o.Status)
	}
	return o.transition(OrderStatusPicked)
}

func (o *Order) MarkStaged() error {
	return o.transition(OrderStatusStaged)
}

func (o *Order) MarkShipped() error {
	return o.transition(OrderStatusShipped)
}

// Cancel cancels the order. Returns false when it was already cancelled.
// An order in a wave that is still open must leave through the wave; once
// the wave is completed or cancelled the order cancels on its own.
func (o *Order) Cancel(waveOpen bool) (bool, error) {
	if o.Status == OrderStatusCancelled {
		return false, nil
	}
	if o.WaveID != nil && waveOpen {
		return false, shared.Conflictf("order %s belongs to a wave; cancel the wave first", o.Number)
	}
	if err := o.transition(OrderStatusCancelled); err != nil {
		return false, err
	}
	for i := range o.Lines {
		o.Lines[i].PickedQuantity = 0
	}
	return true, nil
}

func (o *Order) String() string {
	return fmt.Sprintf("order %s (%s)", o.Number, o.Status)
}

// Package lifecycle drives the state changes that span aggregates:
// cancelling and shipping orders, and the quality and expiry transitions of
// lot positions.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
)

const referenceOutboundOrder = "outbound_order"

// Service is the lifecycle orchestrator.
type Service struct {
	scope     uow.TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
	batchSize int
}

func NewService(scope uow.TransactionScope, logger *zap.Logger) *Service {
	return &Service{scope: scope, logger: logger.Named("lifecycle"), batchSize: 500}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *Service) SetEventPublisher(p shared.EventPublisher) {
	s.publisher = p
}

// SetExpiryBatchSize bounds how many positions one sweep expires.
func (s *Service) SetExpiryBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// CancelOrder cancels an order that has not been staged. Every reservation
// is released and deleted along with the order's own pick route. Orders in
// a wave must leave it first by cancelling the wave. Cancelling twice is a
// no-op.
func (s *Service) CancelOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResult, error) {
	var (
		result   *OrderResult
		released int64
		pending  uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := repos.Orders().FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		waveOpen := false
		if o.WaveID != nil {
			w, err := repos.Waves().FindByID(ctx, tenantID, *o.WaveID)
			if err != nil {
				return err
			}
			waveOpen = w.Status.IsOpen()
		}
		changed, err := o.Cancel(waveOpen)
		if err != nil {
			return err
		}
		if !changed {
			result = toOrderResult(o, false)
			return nil
		}

		reservations, err := repos.Reservations().FindByOrders(ctx, tenantID, []uuid.UUID{o.ID})
		if err != nil {
			return err
		}
		for _, r := range reservations {
			if err := repos.LotPositions().Release(ctx, r.LotPositionID, r.Quantity); err != nil {
				return err
			}
			released += r.Quantity
		}
		if err := repos.Reservations().DeleteByOrder(ctx, o.ID); err != nil {
			return err
		}
		if err := repos.PickAllocations().DeleteByRoute(ctx, outbound.OrderRoute(o.ID)); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		pending.Collect(o)
		result = toOrderResult(o, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Changed {
		s.logger.Info("order cancelled",
			zap.String("order_id", orderID.String()),
			zap.Int64("released", released),
		)
	}
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// AcceptShortage accepts what a divergent pick delivered, so the order can
// be staged with it.
func (s *Service) AcceptShortage(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResult, error) {
	var (
		result  *OrderResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := repos.Orders().FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := o.AcceptShortage(); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		pending.Collect(o)
		result = toOrderResult(o, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// ShipOrder ships a staged order: what staging moved to the shipping
// location leaves the warehouse.
func (s *Service) ShipOrder(ctx context.Context, tenantID, orderID, operatorID uuid.UUID) (*OrderResult, error) {
	var (
		result  *OrderResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := repos.Orders().FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := o.MarkShipped(); err != nil {
			return err
		}
		staged, err := repos.Movements().FindByReference(ctx, tenantID, referenceOutboundOrder, o.ID)
		if err != nil {
			return err
		}
		for i := range staged {
			m := &staged[i]
			if m.Type != inventory.MovementStaging || m.ToLocationID == nil {
				continue
			}
			if err := shipMovement(ctx, repos, &pending, o, m, operatorID); err != nil {
				return err
			}
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		pending.Collect(o)
		result = toOrderResult(o, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order shipped", zap.String("order_id", orderID.String()))
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

func shipMovement(ctx context.Context, repos uow.Repositories, pending *uow.PendingEvents, o *outbound.Order, staged *inventory.MovementRecord, operatorID uuid.UUID) error {
	key := inventory.NewLotKey(staged.ProductID, staged.Lot)
	positions, err := repos.LotPositions().FindByLocation(ctx, o.TenantID, *staged.ToLocationID)
	if err != nil {
		return err
	}
	var dock *inventory.LotPosition
	for i := range positions {
		if positions[i].Key().Equal(key) && positions[i].Status == inventory.LotStatusAvailable {
			dock = &positions[i]
			break
		}
	}
	if dock == nil {
		return shared.InsufficientStock("staged "+key.String(), staged.Quantity, 0)
	}
	if err := repos.LotPositions().Consume(ctx, dock.ID, staged.Quantity, 0); err != nil {
		return err
	}
	m, err := inventory.NewMovementRecord(o.TenantID, inventory.MovementShipment, key, staged.ToLocationID, nil,
		staged.Quantity, referenceOutboundOrder, o.ID)
	if err != nil {
		return err
	}
	if err := repos.Movements().Append(ctx, m.By(operatorID)); err != nil {
		return err
	}
	pending.Add(inventory.NewMovementRecordedEvent(m))
	return nil
}

// ApproveQuality releases a quarantined lot for use. With a destination the
// stock moves there in the same step.
func (s *Service) ApproveQuality(ctx context.Context, req QualityRequest) (*LotResult, error) {
	return s.qualityDecision(ctx, req, inventory.LotStatusAvailable)
}

// RejectQuality marks a quarantined lot damaged.
func (s *Service) RejectQuality(ctx context.Context, req QualityRequest) (*LotResult, error) {
	if req.DestinationID != nil {
		return nil, shared.BadRequestf("a rejected lot stays where it is")
	}
	return s.qualityDecision(ctx, req, inventory.LotStatusDamaged)
}

func (s *Service) qualityDecision(ctx context.Context, req QualityRequest, to inventory.LotStatus) (*LotResult, error) {
	var (
		result  *LotResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		pos, err := repos.LotPositions().FindByID(ctx, req.TenantID, req.LotPositionID)
		if err != nil {
			return err
		}
		if pos.Status != inventory.LotStatusQuarantine {
			return shared.InvalidStatef("lot %q is %s, not in quarantine", pos.Lot, pos.Status)
		}
		if req.DestinationID == nil {
			if result, err = changeStatus(ctx, repos, &pending, pos, to, req.Reason); err != nil {
				return err
			}
			return nil
		}
		result, err = relocate(ctx, repos, &pending, pos, *req.DestinationID, to, req.OperatorID, req.Reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("quality decision recorded",
		zap.String("lot_position_id", req.LotPositionID.String()),
		zap.String("status", string(to)),
		zap.String("operator_id", req.OperatorID.String()),
	)
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// BlockLot takes an available lot out of allocation. Reserved units must be
// released first.
func (s *Service) BlockLot(ctx context.Context, tenantID, lotPositionID uuid.UUID, reason string) (*LotResult, error) {
	return s.simpleTransition(ctx, tenantID, lotPositionID, inventory.LotStatusAvailable, inventory.LotStatusBlocked, reason)
}

func (s *Service) UnblockLot(ctx context.Context, tenantID, lotPositionID uuid.UUID, reason string) (*LotResult, error) {
	return s.simpleTransition(ctx, tenantID, lotPositionID, inventory.LotStatusBlocked, inventory.LotStatusAvailable, reason)
}

func (s *Service) simpleTransition(ctx context.Context, tenantID, id uuid.UUID, from, to inventory.LotStatus, reason string) (*LotResult, error) {
	var (
		result  *LotResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		pos, err := repos.LotPositions().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if pos.Status != from {
			return shared.InvalidStatef("lot %q is %s, not %s", pos.Lot, pos.Status, from)
		}
		result, err = changeStatus(ctx, repos, &pending, pos, to, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("lot status changed",
		zap.String("lot_position_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// ExpireLots marks lots whose expiry is before now as expired, across
// tenants. A position that changed under the sweep is skipped and picked up
// by the next one.
func (s *Service) ExpireLots(ctx context.Context, now time.Time) (*ExpiryReport, error) {
	report := &ExpiryReport{}
	var pending uow.PendingEvents
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		due, err := repos.LotPositions().FindExpiring(ctx, now, s.batchSize)
		if err != nil {
			return err
		}
		for i := range due {
			_, err := changeStatus(ctx, repos, &pending, &due[i], inventory.LotStatusExpired, "expired")
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				report.Skipped++
				continue
			}
			if err != nil {
				return err
			}
			report.Expired++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if report.Expired > 0 || report.Skipped > 0 {
		s.logger.Info("expiry sweep finished",
			zap.Int("expired", report.Expired),
			zap.Int("skipped", report.Skipped),
		)
	}
	pending.Publish(ctx, s.publisher, s.logger)
	return report, nil
}

// changeStatus moves a position to another status in place, or merges it
// into the sibling row that already holds that status at the same slot.
func changeStatus(ctx context.Context, repos uow.Repositories, pending *uow.PendingEvents, pos *inventory.LotPosition, to inventory.LotStatus, reason string) (*LotResult, error) {
	from := pos.Status
	if !from.CanTransitionTo(to) {
		return nil, shared.InvalidStatef("lot status cannot change from %s to %s", from, to)
	}
	sibling, err := siblingWithStatus(ctx, repos, pos, to)
	if err != nil {
		return nil, err
	}

	result := pos
	if sibling == nil || pos.Reserved > 0 {
		if err := repos.LotPositions().TransitionStatus(ctx, pos.ID, from, to); err != nil {
			return nil, err
		}
		pos.Status = to
	} else {
		if err := repos.LotPositions().Consume(ctx, pos.ID, pos.Quantity, 0); err != nil {
			return nil, err
		}
		moved := *pos
		moved.Status = to
		if result, err = repos.LotPositions().AddStock(ctx, &moved); err != nil {
			return nil, err
		}
	}
	event := *result
	pending.Add(inventory.NewLotStatusChangedEvent(&event, from, reason))
	return toLotResult(result), nil
}

func siblingWithStatus(ctx context.Context, repos uow.Repositories, pos *inventory.LotPosition, status inventory.LotStatus) (*inventory.LotPosition, error) {
	sibling, err := repos.LotPositions().FindSlot(ctx, pos.TenantID, pos.PhysicalKey(), status)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return sibling, err
}

// relocate moves a whole quarantined position to destination with the new
// status and records the relocation.
func relocate(ctx context.Context, repos uow.Repositories, pending *uow.PendingEvents, pos *inventory.LotPosition, destinationID uuid.UUID, to inventory.LotStatus, operatorID uuid.UUID, reason string) (*LotResult, error) {
	dest, err := repos.Locations().FindByID(ctx, pos.TenantID, destinationID)
	if err != nil {
		return nil, err
	}
	if dest.Blocked {
		return nil, shared.BadRequestf("location %s is blocked", dest.Code)
	}
	if dest.ID == pos.LocationID {
		return changeStatus(ctx, repos, pending, pos, to, reason)
	}
	if pos.Quantity <= 0 {
		return nil, shared.BadRequestf("lot %q holds no stock to move", pos.Lot)
	}
	if err := repos.LotPositions().Consume(ctx, pos.ID, pos.Quantity, 0); err != nil {
		return nil, err
	}
	moved, err := inventory.NewLotPosition(pos.TenantID, pos.ProductID, dest.ID, pos.Lot, pos.ExpiresAt, pos.Quantity, to)
	if err != nil {
		return nil, err
	}
	stored, err := repos.LotPositions().AddStock(ctx, moved)
	if err != nil {
		return nil, err
	}

	m, err := inventory.NewMovementRecord(pos.TenantID, inventory.MovementRelocation, pos.Key(), &pos.LocationID, &dest.ID,
		pos.Quantity, "lot_position", pos.ID)
	if err != nil {
		return nil, err
	}
	if err := repos.Movements().Append(ctx, m.By(operatorID)); err != nil {
		return nil, err
	}
	event := *stored
	pending.Add(
		inventory.NewMovementRecordedEvent(m),
		inventory.NewLotStatusChangedEvent(&event, pos.Status, reason),
	)
	return toLotResult(stored), nil
}

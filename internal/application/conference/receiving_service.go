// Package conference runs blind counts: receiving conferences reconcile
// inbound deliveries against receiving orders, staging conferences
// reconcile picked goods before they leave.
package conference

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/receiving"
	"github.com/pharmawms/backend/internal/domain/shared"
)

const referenceReceivingOrder = "receiving_order"

// ReceivingService reconciles deliveries against receiving orders.
type ReceivingService struct {
	scope     uow.TransactionScope
	publisher shared.EventPublisher
	metrics   uow.Metrics
	logger    *zap.Logger
}

func NewReceivingService(scope uow.TransactionScope, logger *zap.Logger) *ReceivingService {
	return &ReceivingService{scope: scope, metrics: uow.NopMetrics{}, logger: logger.Named("receiving")}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *ReceivingService) SetEventPublisher(p shared.EventPublisher) {
	s.publisher = p
}

func (s *ReceivingService) SetMetrics(m uow.Metrics) {
	s.metrics = m
}

// StartReceiving opens a conference over the items still awaiting counts.
// Items with a pending divergence wait for the supervisor instead.
func (s *ReceivingService) StartReceiving(ctx context.Context, tenantID, receivingOrderID, operatorID uuid.UUID) (*SessionResult, error) {
	var result *SessionResult
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := repos.ReceivingOrders().FindByID(ctx, tenantID, receivingOrderID)
		if err != nil {
			return err
		}
		if err := ensureNoActiveSession(ctx, repos, tenantID, conference.DirectionReceiving, o.ID); err != nil {
			return err
		}
		if err := o.BeginConference(); err != nil {
			return err
		}

		var expected []conference.ExpectedLine
		for _, it := range o.Items {
			if it.Status.IsClosed() || it.Status == receiving.ItemStatusDivergent || it.PendingBalance() <= 0 {
				continue
			}
			expected = append(expected, conference.ExpectedLine{Key: it.Key(), Quantity: it.PendingBalance()})
		}
		session, err := conference.NewSession(tenantID, conference.DirectionReceiving, o.ID, operatorID, expected)
		if err != nil {
			return err
		}
		if err := session.Start(); err != nil {
			return err
		}
		if err := repos.Sessions().Create(ctx, session); err != nil {
			return err
		}
		if err := repos.ReceivingOrders().Save(ctx, o); err != nil {
			return err
		}
		result = toSessionResult(session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("receiving conference started",
		zap.String("session_id", result.ID.String()),
		zap.String("receiving_order_id", receivingOrderID.String()),
	)
	return result, nil
}

// ScanReceiving counts one scanned label. A label the warehouse has never
// seen needs an association; the first scan only asks for it.
func (s *ReceivingService) ScanReceiving(ctx context.Context, req ReceivingScanRequest) (*ScanResult, error) {
	var (
		result  *ScanResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		session, err := s.activeSession(ctx, repos, req.TenantID, req.SessionID)
		if err != nil {
			return err
		}
		res, err := resolveLabel(ctx, repos, req.TenantID, req.Label)
		if err != nil {
			return err
		}

		if !res.HasLot() {
			if req.Association == nil {
				result = &ScanResult{SessionID: session.ID, Code: res.Code, RequiresAssociation: true}
				return nil
			}
			switch {
			case res.IsFound() && res.Product.ID != req.Association.ProductID:
				return shared.BadRequestf("label %s is the code of another product", res.Code)
			case res.IsFound():
				// product codes stand for every lot and are never bound
				res = res.InLot(req.Association.Lot)
			default:
				if res, err = bindLabel(ctx, repos, req.TenantID, res.Code, req.Association, &pending); err != nil {
					return err
				}
			}
		}

		qty, err := countQuantity(req.Quantity, res)
		if err != nil {
			return err
		}
		line, err := session.Count(res.Key, qty)
		if err != nil {
			return err
		}
		if err := repos.Sessions().AddCounted(ctx, line.ID, qty); err != nil {
			return err
		}
		result = &ScanResult{
			SessionID: session.ID,
			Code:      res.Code,
			ProductID: line.ProductID,
			Lot:       line.Lot,
			Added:     qty,
			Counted:   line.CountedQuantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

func bindLabel(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, code string, b *LabelBinding, pending *uow.PendingEvents) (inventory.LabelResolution, error) {
	product, err := repos.Products().FindByID(ctx, tenantID, b.ProductID)
	if err != nil {
		return inventory.LabelResolution{}, err
	}
	assoc, err := inventory.NewLabelAssociation(tenantID, code, inventory.NewLotKey(product.ID, b.Lot), b.ExpiresAt, b.UnitsPerPackage)
	if err != nil {
		return inventory.LabelResolution{}, err
	}
	if err := repos.Labels().Save(ctx, assoc); err != nil {
		return inventory.LabelResolution{}, err
	}
	pending.Add(inventory.NewLabelAssociatedEvent(assoc))
	return inventory.Found(assoc.Code, product, assoc), nil
}

// FinishReceiving closes the session and books what was counted. Items
// whose received total reaches the expected quantity are conferenced and
// their stock enters quarantine at the receiving dock; the rest stay open
// with their pending balance. The order moves to quarantine once every
// item is closed.
func (s *ReceivingService) FinishReceiving(ctx context.Context, tenantID, sessionID, operatorID uuid.UUID) (*ReceivingOrderResult, error) {
	var (
		result  *ReceivingOrderResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		session, err := s.activeSession(ctx, repos, tenantID, sessionID)
		if err != nil {
			return err
		}
		if _, err := session.Finish(false, nil); err != nil {
			return err
		}
		if err := repos.Sessions().Save(ctx, session); err != nil {
			return err
		}
		pending.Collect(session)

		o, err := repos.ReceivingOrders().FindByID(ctx, tenantID, session.SubjectID)
		if err != nil {
			return err
		}
		for _, line := range session.Lines {
			item := o.ItemByKey(line.Key())
			if item == nil || line.CountedQuantity == 0 {
				continue
			}
			closed, err := o.ApplyCount(item.ID, line.CountedQuantity)
			if err != nil {
				return err
			}
			if closed {
				if err := receiveStock(ctx, repos, &pending, o, item, operatorID); err != nil {
					return err
				}
			}
		}
		if o.AllClosed() {
			if err := o.MoveToQuarantine(); err != nil {
				return err
			}
		}
		if err := repos.ReceivingOrders().Save(ctx, o); err != nil {
			return err
		}
		pending.Collect(o)

		result = toReceivingOrderResult(o)
		result.Session = toSessionResult(session)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Session.Status == string(conference.StatusDivergent) {
		s.metrics.Divergence(ctx, string(conference.DirectionReceiving))
	}
	s.logger.Info("receiving conference finished",
		zap.String("session_id", sessionID.String()),
		zap.String("session_status", result.Session.Status),
		zap.String("order_status", result.Status),
	)
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// FileDivergence records a shortage or surplus on an open item.
func (s *ReceivingService) FileDivergence(ctx context.Context, req FileDivergenceRequest) (*ReceivingOrderResult, error) {
	var (
		result  *ReceivingOrderResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := repos.ReceivingOrders().FindByID(ctx, req.TenantID, req.ReceivingOrderID)
		if err != nil {
			return err
		}
		if _, err := o.FileDivergence(req.ItemID, req.Kind, req.Reason, req.ReportedBy); err != nil {
			return err
		}
		if err := repos.ReceivingOrders().Save(ctx, o); err != nil {
			return err
		}
		pending.Collect(o)
		result = toReceivingOrderResult(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("receiving divergence filed",
		zap.String("receiving_order_id", req.ReceivingOrderID.String()),
		zap.String("kind", string(req.Kind)),
	)
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// ApproveDivergence accepts a filed divergence. The item closes with what
// was received and that stock enters quarantine.
func (s *ReceivingService) ApproveDivergence(ctx context.Context, req ApproveDivergenceRequest) (*ReceivingOrderResult, error) {
	var (
		result  *ReceivingOrderResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := repos.ReceivingOrders().FindByID(ctx, req.TenantID, req.ReceivingOrderID)
		if err != nil {
			return err
		}
		item, err := o.ApproveDivergence(req.DivergenceID, req.SupervisorID, req.Justification)
		if err != nil {
			return err
		}
		if err := receiveStock(ctx, repos, &pending, o, item, req.SupervisorID); err != nil {
			return err
		}
		if o.AllClosed() {
			if err := o.MoveToQuarantine(); err != nil {
				return err
			}
		}
		if err := repos.ReceivingOrders().Save(ctx, o); err != nil {
			return err
		}
		pending.Collect(o)
		result = toReceivingOrderResult(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("receiving divergence approved",
		zap.String("receiving_order_id", req.ReceivingOrderID.String()),
		zap.String("divergence_id", req.DivergenceID.String()),
		zap.String("supervisor_id", req.SupervisorID.String()),
	)
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// GetReceivingOrder returns a receiving order with items and divergences.
func (s *ReceivingService) GetReceivingOrder(ctx context.Context, tenantID, id uuid.UUID) (*ReceivingOrderResult, error) {
	var result *ReceivingOrderResult
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := repos.ReceivingOrders().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		result = toReceivingOrderResult(o)
		return nil
	})
	return result, err
}

func (s *ReceivingService) activeSession(ctx context.Context, repos uow.Repositories, tenantID, sessionID uuid.UUID) (*conference.Session, error) {
	session, err := repos.Sessions().FindByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Direction != conference.DirectionReceiving {
		return nil, shared.BadRequestf("session %s is not a receiving conference", session.ID)
	}
	if session.Status != conference.StatusInProgress {
		return nil, shared.InvalidStatef("conference session is %s", session.Status)
	}
	return session, nil
}

// receiveStock books a closed item's received units as quarantine stock at
// the receiving dock. It runs once per item.
func receiveStock(ctx context.Context, repos uow.Repositories, pending *uow.PendingEvents, o *receiving.Order, item *receiving.Item, operatorID uuid.UUID) error {
	if item.StockCreated || item.ReceivedQuantity <= 0 {
		return nil
	}
	dock, err := repos.Locations().FindDefault(ctx, o.TenantID, inventory.ZoneReceiving)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.BadRequestf("no receiving location is configured")
		}
		return err
	}
	pos, err := inventory.NewLotPosition(o.TenantID, item.ProductID, dock.ID, item.Lot, item.ExpiresAt, item.ReceivedQuantity, inventory.LotStatusQuarantine)
	if err != nil {
		return err
	}
	if _, err := repos.LotPositions().AddStock(ctx, pos); err != nil {
		return err
	}
	m, err := inventory.NewMovementRecord(o.TenantID, inventory.MovementReceiving, item.Key(), nil, &dock.ID,
		item.ReceivedQuantity, referenceReceivingOrder, o.ID)
	if err != nil {
		return err
	}
	if err := recordMovement(ctx, repos, pending, m.By(operatorID)); err != nil {
		return err
	}
	item.StockCreated = true
	return nil
}

func ensureNoActiveSession(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, dir conference.Direction, subjectID uuid.UUID) error {
	active, err := repos.Sessions().FindActive(ctx, tenantID, dir, subjectID)
	switch {
	case err == nil:
		return shared.Conflictf("a %s conference is already in progress", dir).WithDetail("session_id", active.ID)
	case errors.Is(err, shared.ErrNotFound):
		return nil
	}
	return err
}

// GetSession returns a receiving session. Expected quantities appear once
// it has finished.
func (s *ReceivingService) GetSession(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionResult, error) {
	return getSession(ctx, s.scope, tenantID, sessionID)
}

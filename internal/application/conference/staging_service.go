package conference

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
)

const referenceOutboundOrder = "outbound_order"

// StagingService reconciles picked goods of an order before shipment.
type StagingService struct {
	scope     uow.TransactionScope
	publisher shared.EventPublisher
	metrics   uow.Metrics
	logger    *zap.Logger
}

func NewStagingService(scope uow.TransactionScope, logger *zap.Logger) *StagingService {
	return &StagingService{scope: scope, metrics: uow.NopMetrics{}, logger: logger.Named("staging")}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *StagingService) SetEventPublisher(p shared.EventPublisher) {
	s.publisher = p
}

func (s *StagingService) SetMetrics(m uow.Metrics) {
	s.metrics = m
}

// StartStaging opens a blind count of a picked order. Each line expects the
// picked quantity of one product lot, summed over its reservations.
func (s *StagingService) StartStaging(ctx context.Context, tenantID, orderID, operatorID uuid.UUID) (*SessionResult, error) {
	var result *SessionResult
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := repos.Orders().FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if o.Status != outbound.OrderStatusPicked {
			return shared.InvalidStatef("order %s is %s; only picked orders can be staged", o.Number, o.Status)
		}
		if err := ensureNoActiveSession(ctx, repos, tenantID, conference.DirectionStaging, o.ID); err != nil {
			return err
		}
		reservations, err := repos.Reservations().FindByOrders(ctx, tenantID, []uuid.UUID{o.ID})
		if err != nil {
			return err
		}
		expected := make([]conference.ExpectedLine, 0, len(reservations))
		for _, r := range reservations {
			if r.PickedQuantity > 0 {
				expected = append(expected, conference.ExpectedLine{Key: r.Key(), Quantity: r.PickedQuantity})
			}
		}
		session, err := conference.NewSession(tenantID, conference.DirectionStaging, o.ID, operatorID, expected)
		if err != nil {
			return err
		}
		if err := session.Start(); err != nil {
			return err
		}
		if err := repos.Sessions().Create(ctx, session); err != nil {
			return err
		}
		result = toSessionResult(session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("staging conference started",
		zap.String("session_id", result.ID.String()),
		zap.String("order_id", orderID.String()),
	)
	return result, nil
}

// RecordStaging counts one scanned label. A code known only by product
// counts against that product's line when the order holds a single lot of
// it.
func (s *StagingService) RecordStaging(ctx context.Context, req StagingScanRequest) (*ScanResult, error) {
	var result *ScanResult
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		session, err := s.activeSession(ctx, repos, req.TenantID, req.SessionID)
		if err != nil {
			return err
		}
		res, err := resolveLabel(ctx, repos, req.TenantID, req.Label)
		if err != nil {
			return err
		}
		if !res.IsFound() {
			return shared.NotFoundf("label %s is not known", res.Code)
		}
		key := res.Key
		if !res.HasLot() {
			if line := singleLotOf(session, res.Key.ProductID); line != nil {
				key = line.Key()
			}
		}

		qty, err := countQuantity(req.Quantity, res)
		if err != nil {
			return err
		}
		line, err := session.Count(key, qty)
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
	return result, err
}

// CompleteStaging closes the session. A clean or forced completion moves
// the picked units out of their lot positions into the shipping location,
// releases whatever was reserved but not picked and stages the order. A
// mismatch leaves the session divergent and the order picked.
func (s *StagingService) CompleteStaging(ctx context.Context, req CompleteStagingRequest) (*SessionResult, error) {
	var (
		result  *SessionResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		session, err := s.activeSession(ctx, repos, req.TenantID, req.SessionID)
		if err != nil {
			return err
		}
		status, err := session.Finish(req.Force, req.AuthorizedBy)
		if err != nil {
			return err
		}
		if err := repos.Sessions().Save(ctx, session); err != nil {
			return err
		}
		pending.Collect(session)
		result = toSessionResult(session)
		if status != conference.StatusCompleted {
			return nil
		}

		o, err := repos.Orders().FindByID(ctx, req.TenantID, session.SubjectID)
		if err != nil {
			return err
		}
		if err := s.stage(ctx, repos, &pending, o, req.OperatorID); err != nil {
			return err
		}
		if err := o.MarkStaged(); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		pending.Collect(o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case result.Status == string(conference.StatusDivergent):
		s.metrics.Divergence(ctx, string(conference.DirectionStaging))
		s.logger.Warn("staging conference divergent", zap.String("session_id", result.ID.String()))
	case result.Forced:
		s.logger.Warn("staging conference forced",
			zap.String("session_id", result.ID.String()),
			zap.String("authorized_by", result.AuthorizedBy.String()),
		)
	default:
		s.logger.Info("staging conference completed", zap.String("session_id", result.ID.String()))
	}
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// stage converts every reservation of the order into a staging movement.
func (s *StagingService) stage(ctx context.Context, repos uow.Repositories, pending *uow.PendingEvents, o *outbound.Order, operatorID uuid.UUID) error {
	dock, err := repos.Locations().FindDefault(ctx, o.TenantID, inventory.ZoneShipping)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.BadRequestf("no shipping location is configured")
		}
		return err
	}
	reservations, err := repos.Reservations().FindByOrders(ctx, o.TenantID, []uuid.UUID{o.ID})
	if err != nil {
		return err
	}
	for _, r := range reservations {
		if err := repos.LotPositions().Consume(ctx, r.LotPositionID, r.PickedQuantity, r.Quantity); err != nil {
			return err
		}
		if r.PickedQuantity == 0 {
			continue
		}
		source, err := repos.LotPositions().FindByID(ctx, o.TenantID, r.LotPositionID)
		if err != nil {
			return err
		}
		staged, err := inventory.NewLotPosition(o.TenantID, r.ProductID, dock.ID, r.Lot, source.ExpiresAt, r.PickedQuantity, inventory.LotStatusAvailable)
		if err != nil {
			return err
		}
		if _, err := repos.LotPositions().AddStock(ctx, staged); err != nil {
			return err
		}
		from := r.LocationID
		m, err := inventory.NewMovementRecord(o.TenantID, inventory.MovementStaging, r.Key(), &from, &dock.ID,
			r.PickedQuantity, referenceOutboundOrder, o.ID)
		if err != nil {
			return err
		}
		if err := recordMovement(ctx, repos, pending, m.By(operatorID)); err != nil {
			return err
		}
	}
	return repos.Reservations().DeleteByOrder(ctx, o.ID)
}

// GetSession returns a session. Expected quantities appear once it has
// finished.
func (s *StagingService) GetSession(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionResult, error) {
	return getSession(ctx, s.scope, tenantID, sessionID)
}

// History lists every session run for a subject, oldest first.
func (s *StagingService) History(ctx context.Context, tenantID uuid.UUID, dir conference.Direction, subjectID uuid.UUID) ([]SessionResult, error) {
	var out []SessionResult
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		sessions, err := repos.Sessions().FindBySubject(ctx, tenantID, dir, subjectID)
		if err != nil {
			return err
		}
		out = make([]SessionResult, len(sessions))
		for i := range sessions {
			out[i] = *toSessionResult(&sessions[i])
		}
		return nil
	})
	return out, err
}

func (s *StagingService) activeSession(ctx context.Context, repos uow.Repositories, tenantID, sessionID uuid.UUID) (*conference.Session, error) {
	session, err := repos.Sessions().FindByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Direction != conference.DirectionStaging {
		return nil, shared.BadRequestf("session %s is not a staging conference", session.ID)
	}
	if session.Status != conference.StatusInProgress {
		return nil, shared.InvalidStatef("conference session is %s", session.Status)
	}
	return session, nil
}

func getSession(ctx context.Context, scope uow.TransactionScope, tenantID, sessionID uuid.UUID) (*SessionResult, error) {
	var result *SessionResult
	err := scope.Execute(ctx, func(repos uow.Repositories) error {
		session, err := repos.Sessions().FindByID(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		result = toSessionResult(session)
		return nil
	})
	return result, err
}

func singleLotOf(s *conference.Session, productID uuid.UUID) *conference.Line {
	var found *conference.Line
	for i := range s.Lines {
		if s.Lines[i].ProductID != productID {
			continue
		}
		if found != nil {
			return nil
		}
		found = &s.Lines[i]
	}
	return found
}

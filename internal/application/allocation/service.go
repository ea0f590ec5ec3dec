// Package allocation reserves lot stock for outbound orders under the
// customer's allocation policy.
package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// StrategyProvider looks up the lot selection strategy of a policy.
type StrategyProvider interface {
	GetLotStrategy(policy outbound.AllocationPolicy) (outbound.LotSelectionStrategy, error)
}

// Service is the allocation engine.
type Service struct {
	scope      uow.TransactionScope
	strategies StrategyProvider
	publisher  shared.EventPublisher
	metrics    uow.Metrics
	logger     *zap.Logger
}

func NewService(scope uow.TransactionScope, strategies StrategyProvider, logger *zap.Logger) *Service {
	return &Service{
		scope:      scope,
		strategies: strategies,
		metrics:    uow.NopMetrics{},
		logger:     logger.Named("allocation"),
	}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *Service) SetEventPublisher(p shared.EventPublisher) {
	s.publisher = p
}

func (s *Service) SetMetrics(m uow.Metrics) {
	s.metrics = m
}

// Allocate reserves stock for every line of a pending order. Each line is
// covered greedily from the candidates the policy ranks first, producing
// one reservation per consumed lot position. A shortfall on any line fails
// the whole order and nothing stays reserved.
func (s *Service) Allocate(ctx context.Context, req AllocateRequest) (*AllocationResult, error) {
	var (
		result  *AllocationResult
		policy  outbound.AllocationPolicy
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		order, err := repos.Orders().FindByID(ctx, req.TenantID, req.OrderID)
		if err != nil {
			return err
		}
		if order.Status != outbound.OrderStatusPending {
			return shared.InvalidStatef("order %s is %s; only pending orders can be allocated", order.Number, order.Status)
		}
		if len(order.Lines) == 0 {
			return shared.BadRequestf("order %s has no lines", order.Number)
		}

		policy, err = repos.Policies().FindPolicy(ctx, req.TenantID, order.CustomerID)
		if err != nil {
			return err
		}
		strat, err := s.strategies.GetLotStrategy(policy)
		if err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, 0, len(order.Lines))
		for _, l := range order.Lines {
			productIDs = append(productIDs, l.ProductID)
		}
		products, err := repos.Products().FindByIDs(ctx, req.TenantID, productIDs)
		if err != nil {
			return err
		}

		var reservations []outbound.Reservation
		for i := range order.Lines {
			line := &order.Lines[i]
			rs, err := s.allocateLine(ctx, repos, strat, req.TenantID, line, products[line.ProductID])
			if err != nil {
				return err
			}
			reservations = append(reservations, rs...)
		}

		if err := repos.Reservations().CreateBatch(ctx, reservations); err != nil {
			return err
		}
		if err := order.MarkAllocated(policy); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}
		order.Raise(outbound.NewOrderAllocatedEvent(order, reservations))
		pending.Collect(order)
		result = toResult(order, reservations)
		return nil
	})
	if err != nil {
		s.metrics.AllocationFailed(ctx, string(policy), shared.CodeOf(err))
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.logger.Info("allocation rejected",
				zap.String("order_id", req.OrderID.String()),
				zap.String("policy", string(policy)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.metrics.AllocationCompleted(ctx, string(policy), len(result.Reservations))
	s.logger.Info("order allocated",
		zap.String("order_id", result.OrderID.String()),
		zap.String("order_number", result.OrderNumber),
		zap.String("policy", result.Policy),
		zap.Int("reservations", len(result.Reservations)),
	)
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// allocateLine ranks eligible stock for one line and reserves it greedily.
// Candidates are read inside the transaction, after earlier lines of the
// same order have reserved, so two lines never count the same free units.
func (s *Service) allocateLine(
	ctx context.Context,
	repos uow.Repositories,
	strat outbound.LotSelectionStrategy,
	tenantID uuid.UUID,
	line *outbound.OrderLine,
	product *inventory.Product,
) ([]outbound.Reservation, error) {
	query, err := strat.Query(tenantID, line)
	if err != nil {
		return nil, err
	}
	candidates, err := repos.LotPositions().FindEligible(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find eligible stock: %w", err)
	}
	strat.Rank(candidates)

	picks, err := outbound.SelectGreedy(candidates, line.RequestedQuantity, lineSubject(line, product))
	if err != nil {
		return nil, err
	}

	out := make([]outbound.Reservation, 0, len(picks))
	for _, p := range picks {
		if err := repos.LotPositions().Reserve(ctx, p.Position.ID, p.Quantity); err != nil {
			return nil, err
		}
		r, err := outbound.NewReservation(line, &p.Position, p.Quantity)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

func lineSubject(line *outbound.OrderLine, product *inventory.Product) string {
	name := line.ProductID.String()
	if product != nil {
		name = product.SKU
	}
	if line.Lot != nil {
		return fmt.Sprintf("product %s lot %s", name, *line.Lot)
	}
	return "product " + name
}

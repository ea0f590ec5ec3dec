// Package picking coordinates pick routes: creating the allocations an
// operator walks, applying scans, rerouting short picks and closing routes.
package picking

import (
	"context"

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

// Service is the pick execution coordinator.
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
		logger:     logger.Named("picking"),
	}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *Service) SetEventPublisher(p shared.EventPublisher) {
	s.publisher = p
}

func (s *Service) SetMetrics(m uow.Metrics) {
	s.metrics = m
}

// StartOrderRoute starts picking an order on its own: one allocation per
// reservation. Starting a route that is already running returns it.
func (s *Service) StartOrderRoute(ctx context.Context, tenantID, orderID uuid.UUID) (*RouteResult, error) {
	route := outbound.OrderRoute(orderID)
	var (
		result  *RouteResult
		pending uow.PendingEvents
		created bool
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := repos.Orders().FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if o.WaveID != nil {
			return shared.Conflictf("order %s belongs to a wave; start the wave route instead", o.Number)
		}
		switch o.Status {
		case outbound.OrderStatusPicking:
		case outbound.OrderStatusAllocated:
			reservations, err := repos.Reservations().FindByOrders(ctx, tenantID, []uuid.UUID{o.ID})
			if err != nil {
				return err
			}
			codes, err := locationCodes(ctx, repos, tenantID, reservationLocations(reservations))
			if err != nil {
				return err
			}
			allocations := make([]outbound.PickAllocation, 0, len(reservations))
			for i := range reservations {
				r := &reservations[i]
				if r.Unpicked() == 0 {
					continue
				}
				allocations = append(allocations, *outbound.NewReservationAllocation(r, codes[r.LocationID], len(allocations)+1))
			}
			if err := repos.PickAllocations().CreateBatch(ctx, allocations); err != nil {
				return err
			}
			if err := o.StartPicking(); err != nil {
				return err
			}
			if err := repos.Orders().Save(ctx, o); err != nil {
				return err
			}
			pending.Collect(o)
			created = true
		default:
			return shared.InvalidStatef("order %s is %s; only allocated orders can start picking", o.Number, o.Status)
		}

		allocations, err := repos.PickAllocations().FindByRoute(ctx, tenantID, route)
		if err != nil {
			return err
		}
		result = toRouteResult(route, allocations)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("order route started",
			zap.String("order_id", orderID.String()),
			zap.Int("allocations", len(result.Allocations)),
		)
	}
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// StartWaveRoute starts picking a wave: one allocation per wave item, and
// every order of the wave moves to picking.
func (s *Service) StartWaveRoute(ctx context.Context, tenantID, waveID uuid.UUID) (*RouteResult, error) {
	route := outbound.WaveRoute(waveID)
	var (
		result  *RouteResult
		pending uow.PendingEvents
		created bool
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		w, err := repos.Waves().FindByID(ctx, tenantID, waveID)
		if err != nil {
			return err
		}
		switch w.Status {
		case outbound.WaveStatusPicking:
		case outbound.WaveStatusPending:
			ids := make([]uuid.UUID, len(w.Items))
			for i, it := range w.Items {
				ids[i] = it.LocationID
			}
			codes, err := locationCodes(ctx, repos, tenantID, ids)
			if err != nil {
				return err
			}
			allocations := make([]outbound.PickAllocation, 0, len(w.Items))
			for i := range w.Items {
				item := &w.Items[i]
				if item.TotalQuantity <= item.PickedQuantity {
					continue
				}
				allocations = append(allocations, *outbound.NewWaveItemAllocation(item, codes[item.LocationID], len(allocations)+1))
			}
			if err := repos.PickAllocations().CreateBatch(ctx, allocations); err != nil {
				return err
			}

			orders, err := repos.Orders().FindByWave(ctx, tenantID, w.ID)
			if err != nil {
				return err
			}
			for _, o := range orders {
				if err := o.StartPicking(); err != nil {
					return err
				}
				if err := repos.Orders().Save(ctx, o); err != nil {
					return err
				}
				pending.Collect(o)
			}
			if err := w.StartPicking(); err != nil {
				return err
			}
			if err := repos.Waves().Save(ctx, w); err != nil {
				return err
			}
			pending.Collect(w)
			created = true
		default:
			return shared.InvalidStatef("wave %s is %s; only pending waves can start picking", w.Number, w.Status)
		}

		allocations, err := repos.PickAllocations().FindByRoute(ctx, tenantID, route)
		if err != nil {
			return err
		}
		result = toRouteResult(route, allocations)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("wave route started",
			zap.String("wave_id", waveID.String()),
			zap.Int("allocations", len(result.Allocations)),
		)
	}
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// GetRoute returns a route in walking order: location code, then sequence.
func (s *Service) GetRoute(ctx context.Context, tenantID uuid.UUID, route outbound.RouteRef) (*RouteResult, error) {
	var result *RouteResult
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if err := routeOwnerExists(ctx, repos, tenantID, route); err != nil {
			return err
		}
		allocations, err := repos.PickAllocations().FindByRoute(ctx, tenantID, route)
		if err != nil {
			return err
		}
		result = toRouteResult(route, allocations)
		return nil
	})
	return result, err
}

// CompleteRoute closes a route once no allocation is open. Each order ends
// picked, or divergent when a line was picked short with no replacement
// making up the difference.
func (s *Service) CompleteRoute(ctx context.Context, tenantID uuid.UUID, route outbound.RouteRef) (*RouteResult, error) {
	var (
		result    *RouteResult
		pending   uow.PendingEvents
		divergent int
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if err := routeOwnerExists(ctx, repos, tenantID, route); err != nil {
			return err
		}
		allocations, err := repos.PickAllocations().FindByRoute(ctx, tenantID, route)
		if err != nil {
			return err
		}
		result = toRouteResult(route, allocations)
		if result.Open > 0 {
			return shared.BadRequestf("route still has %d open allocations", result.Open).
				WithDetail("open", result.Open)
		}

		var orders []*outbound.Order
		var w *outbound.Wave
		switch route.Kind {
		case outbound.RouteOrder:
			o, err := repos.Orders().FindByID(ctx, tenantID, route.ID)
			if err != nil {
				return err
			}
			orders = []*outbound.Order{o}
		case outbound.RouteWave:
			if w, err = repos.Waves().FindByID(ctx, tenantID, route.ID); err != nil {
				return err
			}
			if err := w.Complete(); err != nil {
				return err
			}
			if orders, err = repos.Orders().FindByWave(ctx, tenantID, w.ID); err != nil {
				return err
			}
		}

		for _, o := range orders {
			if err := o.FinishPicking(); err != nil {
				return err
			}
			if o.Status == outbound.OrderStatusDivergent {
				divergent++
			}
			if err := repos.Orders().Save(ctx, o); err != nil {
				return err
			}
			pending.Collect(o)
		}
		if w != nil {
			if err := repos.Waves().Save(ctx, w); err != nil {
				return err
			}
			pending.Collect(w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := 0; i < divergent; i++ {
		s.metrics.Divergence(ctx, "picking")
	}
	s.logger.Info("route completed",
		zap.String("route_kind", string(route.Kind)),
		zap.String("route_id", route.ID.String()),
		zap.Int("divergent_orders", divergent),
		zap.String("fill_rate", result.FillRate.String()),
	)
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

func routeOwnerExists(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, route outbound.RouteRef) error {
	switch route.Kind {
	case outbound.RouteOrder:
		_, err := repos.Orders().FindByID(ctx, tenantID, route.ID)
		return err
	case outbound.RouteWave:
		_, err := repos.Waves().FindByID(ctx, tenantID, route.ID)
		return err
	}
	return shared.BadRequestf("unknown route kind %q", route.Kind)
}

func locationCodes(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	locations, err := repos.Locations().FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	codes := make(map[uuid.UUID]string, len(locations))
	for id, l := range locations {
		codes[id] = l.Code
	}
	return codes, nil
}

func reservationLocations(rs []outbound.Reservation) []uuid.UUID {
	ids := make([]uuid.UUID, len(rs))
	for i, r := range rs {
		ids[i] = r.LocationID
	}
	return ids
}

func productLabel(p *inventory.Product) string {
	if p == nil {
		return "?"
	}
	return p.SKU
}

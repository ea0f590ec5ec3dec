// Package wave consolidates the reservations of several orders of one
// customer into shared pick tasks.
package wave

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// Service is the wave consolidator.
type Service struct {
	scope     uow.TransactionScope
	numberer  *outbound.WaveNumberer
	publisher shared.EventPublisher
	logger    *zap.Logger
}

func NewService(scope uow.TransactionScope, numberer *outbound.WaveNumberer, logger *zap.Logger) *Service {
	return &Service{scope: scope, numberer: numberer, logger: logger.Named("wave")}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *Service) SetEventPublisher(p shared.EventPublisher) {
	s.publisher = p
}

// CreateWave groups the reservations of the given orders by physical key.
// Orders join the wave; no reservation is created and the ledger is not
// touched. The request is checked before a wave number is drawn, so a
// rejected request does not consume one.
func (s *Service) CreateWave(ctx context.Context, req CreateWaveRequest) (*WaveResult, error) {
	if len(req.OrderIDs) == 0 {
		return nil, shared.BadRequestf("a wave needs at least one order")
	}
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		orders, reservations, err := loadWaveOrders(ctx, repos, req)
		if err != nil {
			return err
		}
		_, err = outbound.PlanWave(req.TenantID, orders, reservations)
		return err
	})
	if err != nil {
		return nil, err
	}

	// the sequence runs on its own connection, outside the unit of work
	number, err := s.numberer.Next(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	var (
		result  *WaveResult
		pending uow.PendingEvents
	)
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		orders, reservations, err := loadWaveOrders(ctx, repos, req)
		if err != nil {
			return err
		}

		w, err := outbound.NewWave(req.TenantID, number, orders, reservations)
		if err != nil {
			return err
		}
		if err := repos.Waves().Create(ctx, w); err != nil {
			return err
		}
		for _, o := range orders {
			if err := o.JoinWave(w.ID); err != nil {
				return err
			}
			if err := repos.Orders().Save(ctx, o); err != nil {
				return err
			}
			pending.Collect(o)
		}
		pending.Collect(w)

		locations, err := repos.Locations().FindByIDs(ctx, req.TenantID, itemLocations(w))
		if err != nil {
			return err
		}
		result = toResult(w, locations)
		result.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("wave created",
		zap.String("wave_id", result.ID.String()),
		zap.String("wave_number", result.Number),
		zap.Int("orders", len(result.OrderIDs)),
		zap.Int("items", len(result.Items)),
	)
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// CancelWave releases the picking progress of a wave. Pick allocations are
// removed and every picked counter under the wave goes back to zero; the
// orders return to allocated with their reservations intact. Cancelling a
// cancelled wave changes nothing.
func (s *Service) CancelWave(ctx context.Context, tenantID, waveID uuid.UUID) (*WaveResult, error) {
	var (
		result  *WaveResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		w, err := repos.Waves().FindByID(ctx, tenantID, waveID)
		if err != nil {
			return err
		}
		changed, err := w.Cancel()
		if err != nil {
			return err
		}
		if changed {
			if err := s.releaseProgress(ctx, repos, w); err != nil {
				return err
			}
			if err := repos.Waves().Save(ctx, w); err != nil {
				return err
			}
			pending.Collect(w)
		}

		locations, err := repos.Locations().FindByIDs(ctx, tenantID, itemLocations(w))
		if err != nil {
			return err
		}
		result = toResult(w, locations)
		result.Changed = changed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.logger.Info("wave cancelled",
			zap.String("wave_id", result.ID.String()),
			zap.String("wave_number", result.Number),
		)
	} else {
		s.logger.Debug("wave already cancelled", zap.String("wave_id", result.ID.String()))
	}
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

func (s *Service) releaseProgress(ctx context.Context, repos uow.Repositories, w *outbound.Wave) error {
	if err := repos.PickAllocations().DeleteByRoute(ctx, outbound.WaveRoute(w.ID)); err != nil {
		return err
	}
	if err := repos.Waves().ResetProgress(ctx, w.ID); err != nil {
		return err
	}
	orders, err := repos.Orders().FindByWave(ctx, w.TenantID, w.ID)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	if err := repos.Reservations().ResetPicked(ctx, ids); err != nil {
		return err
	}
	if err := repos.Orders().ResetLinesPicked(ctx, ids); err != nil {
		return err
	}
	for _, o := range orders {
		if err := o.LeaveWave(); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

// GetWave returns a wave with its items and progress.
func (s *Service) GetWave(ctx context.Context, tenantID, waveID uuid.UUID) (*WaveResult, error) {
	var result *WaveResult
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		w, err := repos.Waves().FindByID(ctx, tenantID, waveID)
		if err != nil {
			return err
		}
		locations, err := repos.Locations().FindByIDs(ctx, tenantID, itemLocations(w))
		if err != nil {
			return err
		}
		result = toResult(w, locations)
		return nil
	})
	return result, err
}

// loadWaveOrders loads the requested orders and their reservations.
func loadWaveOrders(ctx context.Context, repos uow.Repositories, req CreateWaveRequest) ([]*outbound.Order, []outbound.Reservation, error) {
	orders, err := repos.Orders().FindByIDs(ctx, req.OrderIDs)
	if err != nil {
		return nil, nil, err
	}
	if missing := missingOrders(req.OrderIDs, orders); len(missing) > 0 {
		return nil, nil, shared.NotFoundf("order %s not found", missing[0]).WithDetail("missing", missing)
	}
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	reservations, err := repos.Reservations().FindByOrders(ctx, req.TenantID, ids)
	if err != nil {
		return nil, nil, err
	}
	return orders, reservations, nil
}

func missingOrders(requested []uuid.UUID, found []*outbound.Order) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(found))
	for _, o := range found {
		seen[o.ID] = true
	}
	var missing []uuid.UUID
	for _, id := range requested {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func itemLocations(w *outbound.Wave) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(w.Items))
	for _, it := range w.Items {
		ids = append(ids, it.LocationID)
	}
	return ids
}

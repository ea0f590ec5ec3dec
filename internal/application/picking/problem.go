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

// ReportProblem closes an allocation short with whatever was picked and
// looks for another position holding the shortfall: same product, same
// lot when a line demands it, available stock in an unblocked storage
// location other than the failed one. Candidates are ranked by the
// customer's policy, then location code, and the first wins. The
// shortfall's reservations move there and a replacement allocation joins
// the end of the route. With no candidate the shortfall stays recorded on
// the allocation and the reservations are left as they are.
func (s *Service) ReportProblem(ctx context.Context, req ProblemRequest) (*ProblemResult, error) {
	if !req.Reason.IsValid() {
		return nil, shared.BadRequestf("unknown problem reason %q", req.Reason)
	}
	var (
		result  *ProblemResult
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		a, err := repos.PickAllocations().FindByID(ctx, req.TenantID, req.AllocationID)
		if err != nil {
			return err
		}
		if !a.Status.IsOpen() {
			return shared.BadRequestf("allocation at %s is already %s", a.LocationCode, a.Status)
		}
		if err := repos.PickAllocations().MarkShortPicked(ctx, a.ID, req.Reason); err != nil {
			return err
		}
		a.Status = outbound.PickShortPicked
		a.ProblemReason = req.Reason
		shortfall := a.Shortfall()
		result = &ProblemResult{AllocationID: a.ID, Status: string(a.Status), Shortfall: shortfall}

		rr, err := s.reroute(ctx, repos, a, shortfall)
		if err != nil {
			return err
		}
		var alternate *uuid.UUID
		if rr != nil {
			resp := toAllocationResponse(rr)
			result.Rerouted = true
			result.Replacement = &resp
			alternate = &rr.ID
		}
		pending.Add(outbound.NewPickShortfallEvent(a, shortfall, alternate))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ShortPick(ctx, string(req.Reason), result.Rerouted)
	fields := []zap.Field{
		zap.String("allocation_id", result.AllocationID.String()),
		zap.String("reason", string(req.Reason)),
		zap.Int64("shortfall", result.Shortfall),
		zap.String("operator_id", req.OperatorID.String()),
	}
	if result.Rerouted {
		s.logger.Info("short pick rerouted", append(fields, zap.String("location", result.Replacement.LocationCode))...)
	} else {
		s.logger.Warn("short pick without alternate", fields...)
	}
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// reroute moves the shortfall of a to the best alternate position and
// returns the replacement allocation, or nil when no position qualifies.
func (s *Service) reroute(ctx context.Context, repos uow.Repositories, a *outbound.PickAllocation, shortfall int64) (*outbound.PickAllocation, error) {
	if shortfall <= 0 {
		return nil, nil
	}
	orders, err := routeOrders(ctx, repos, a)
	if err != nil {
		return nil, err
	}
	alt, err := s.findAlternate(ctx, repos, a, orders, shortfall)
	if err != nil || alt == nil {
		return nil, err
	}

	if err := repos.LotPositions().Release(ctx, a.LotPositionID, shortfall); err != nil {
		return nil, err
	}
	if err := repos.LotPositions().Reserve(ctx, alt.Position.ID, shortfall); err != nil {
		return nil, err
	}
	seq, err := repos.PickAllocations().MaxSequence(ctx, a.Route)
	if err != nil {
		return nil, err
	}

	var replacement *outbound.PickAllocation
	if a.ReservationID != nil {
		replacement, err = moveReservation(ctx, repos, a, alt, shortfall, seq+1)
	} else {
		replacement, err = moveWaveItem(ctx, repos, a, alt, seq+1)
	}
	if err != nil {
		return nil, err
	}
	replacement.ReplacesID = &a.ID
	if err := repos.PickAllocations().CreateBatch(ctx, []outbound.PickAllocation{*replacement}); err != nil {
		return nil, err
	}
	return replacement, nil
}

func (s *Service) findAlternate(ctx context.Context, repos uow.Repositories, a *outbound.PickAllocation, orders []*outbound.Order, shortfall int64) (*inventory.StockCandidate, error) {
	policy := outbound.PolicyFIFO
	if len(orders) > 0 && orders[0].Policy != "" {
		policy = orders[0].Policy
	}
	strat, err := s.strategies.GetLotStrategy(policy)
	if err != nil {
		return nil, err
	}

	q := inventory.EligibleQuery{
		TenantID:          a.TenantID,
		ProductID:         a.ProductID,
		ExcludeLocationID: &a.LocationID,
		MinFree:           shortfall,
	}
	if lotConstrained(orders, a.ProductID) {
		lot := a.Lot
		q.Lot = &lot
	}
	candidates, err := repos.LotPositions().FindEligible(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	strat.Rank(candidates)
	return &candidates[0], nil
}

// moveReservation shrinks the order's reservation to what was picked and
// reserves the shortfall at the alternate.
func moveReservation(ctx context.Context, repos uow.Repositories, a *outbound.PickAllocation, alt *inventory.StockCandidate, shortfall int64, seq int) (*outbound.PickAllocation, error) {
	r, err := repos.Reservations().FindByID(ctx, a.TenantID, *a.ReservationID)
	if err != nil {
		return nil, err
	}
	moved, err := moveSource(ctx, repos, r, alt, shortfall)
	if err != nil {
		return nil, err
	}
	return outbound.NewReservationAllocation(moved, alt.LocationCode, seq), nil
}

// moveWaveItem splits the unpicked part of every source of a wave item into
// a new item at the alternate position.
func moveWaveItem(ctx context.Context, repos uow.Repositories, a *outbound.PickAllocation, alt *inventory.StockCandidate, seq int) (*outbound.PickAllocation, error) {
	item, err := repos.Waves().FindItem(ctx, a.TenantID, *a.WaveItemID)
	if err != nil {
		return nil, err
	}
	next := outbound.WaveItem{
		ID:            uuid.New(),
		TenantID:      item.TenantID,
		WaveID:        item.WaveID,
		ProductID:     alt.Position.ProductID,
		Lot:           alt.Position.Lot,
		LocationID:    alt.Position.LocationID,
		LotPositionID: alt.Position.ID,
		Status:        outbound.WaveItemPending,
	}
	for _, src := range item.Sources {
		unpicked := src.Quantity - src.PickedQuantity
		if unpicked <= 0 {
			continue
		}
		r, err := repos.Reservations().FindByID(ctx, a.TenantID, src.ReservationID)
		if err != nil {
			return nil, err
		}
		moved, err := moveSource(ctx, repos, r, alt, unpicked)
		if err != nil {
			return nil, err
		}
		if err := repos.Waves().ShrinkSource(ctx, src.ID, src.PickedQuantity); err != nil {
			return nil, err
		}
		next.TotalQuantity += unpicked
		next.Sources = append(next.Sources, outbound.WaveItemSource{
			ID:            uuid.New(),
			WaveItemID:    next.ID,
			ReservationID: moved.ID,
			OrderID:       src.OrderID,
			OrderLineID:   src.OrderLineID,
			Quantity:      unpicked,
		})
	}
	if err := repos.Waves().ShrinkItem(ctx, item.ID, item.PickedQuantity); err != nil {
		return nil, err
	}
	if err := repos.Waves().UpdateItemStatus(ctx, item.ID, outbound.WaveItemShortPicked); err != nil {
		return nil, err
	}
	if err := repos.Waves().AddItem(ctx, &next); err != nil {
		return nil, err
	}
	return outbound.NewWaveItemAllocation(&next, alt.LocationCode, seq), nil
}

// moveSource takes qty units off reservation r and creates a reservation
// for the same order line at the alternate. The ledger side is settled by
// the caller. A reservation left with nothing is deleted.
func moveSource(ctx context.Context, repos uow.Repositories, r *outbound.Reservation, alt *inventory.StockCandidate, qty int64) (*outbound.Reservation, error) {
	if left := r.Quantity - qty; left > 0 {
		if err := repos.Reservations().Shrink(ctx, r.ID, left); err != nil {
			return nil, err
		}
	} else if err := repos.Reservations().Delete(ctx, r.ID); err != nil {
		return nil, err
	}
	line := &outbound.OrderLine{ID: r.OrderLineID, OrderID: r.OrderID, ProductID: r.ProductID}
	moved, err := outbound.NewReservation(line, &alt.Position, qty)
	if err != nil {
		return nil, err
	}
	if err := repos.Reservations().CreateBatch(ctx, []outbound.Reservation{*moved}); err != nil {
		return nil, err
	}
	return moved, nil
}

func routeOrders(ctx context.Context, repos uow.Repositories, a *outbound.PickAllocation) ([]*outbound.Order, error) {
	if a.Route.Kind == outbound.RouteWave {
		return repos.Orders().FindByWave(ctx, a.TenantID, a.Route.ID)
	}
	o, err := repos.Orders().FindByID(ctx, a.TenantID, a.Route.ID)
	if err != nil {
		return nil, err
	}
	return []*outbound.Order{o}, nil
}

// lotConstrained reports whether any order line for the product demands a
// specific lot.
func lotConstrained(orders []*outbound.Order, productID uuid.UUID) bool {
	for _, o := range orders {
		for _, l := range o.Lines {
			if l.ProductID == productID && l.Lot != nil {
				return true
			}
		}
	}
	return false
}

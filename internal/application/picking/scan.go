package picking

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// Scan applies one scan to a pick allocation. The label must stand for the
// allocation's product. A product SKU or GTIN counts for whatever lot the
// allocation holds; a label nobody has seen before is bound to that lot. Without a manual
// quantity a full package is taken when it fits, otherwise the operator is
// asked to type the remainder and nothing is applied.
//
// The increment and its propagation to the reservation, wave item and
// order line commit together.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	var (
		result  *ScanResult
		route   outbound.RouteKind
		pending uow.PendingEvents
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		a, err := repos.PickAllocations().FindByID(ctx, req.TenantID, req.AllocationID)
		if err != nil {
			return err
		}
		route = a.Route.Kind
		if !a.Status.IsOpen() {
			return shared.BadRequestf("allocation at %s is already %s", a.LocationCode, a.Status)
		}

		product, err := repos.Products().FindByID(ctx, req.TenantID, a.ProductID)
		if err != nil {
			return err
		}
		bound, unitsPerPackage, err := s.checkLabel(ctx, repos, req, a, product, &pending)
		if err != nil {
			return err
		}

		decision, err := a.DecideIncrement(unitsPerPackage, req.ManualQuantity)
		if err != nil {
			return err
		}
		result = &ScanResult{
			AllocationID:   a.ID,
			PickedQuantity: a.PickedQuantity,
			Remaining:      a.Remaining(),
			Status:         string(a.Status),
			LabelBound:     bound,
		}
		if decision.RequiresManualQuantity {
			result.RequiresManualQuantity = true
			result.MaxQuantity = decision.MaxQuantity
			return nil
		}

		picked, err := repos.PickAllocations().AddPicked(ctx, a.ID, decision.Quantity)
		if err != nil {
			return err
		}
		if err := propagate(ctx, repos, a, decision.Quantity); err != nil {
			return err
		}

		a.PickedQuantity = picked
		a.Status = a.StatusAfter(picked)
		result.Applied = decision.Quantity
		result.PickedQuantity = picked
		result.Remaining = a.Remaining()
		result.Status = string(a.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied > 0 {
		s.metrics.ScanAccepted(ctx, string(route), result.Applied)
		s.logger.Debug("scan applied",
			zap.String("allocation_id", result.AllocationID.String()),
			zap.Int64("quantity", result.Applied),
			zap.Int64("remaining", result.Remaining),
			zap.String("operator_id", req.OperatorID.String()),
		)
	}
	pending.Publish(ctx, s.publisher, s.logger)
	return result, nil
}

// checkLabel resolves the scanned code against the allocation and binds an
// unknown code to the allocation's lot. Returns whether a binding was
// stored and the package size to apply.
func (s *Service) checkLabel(ctx context.Context, repos uow.Repositories, req ScanRequest, a *outbound.PickAllocation, product *inventory.Product, pending *uow.PendingEvents) (bool, int64, error) {
	resolver := inventory.NewStoreLabelResolver(repos.Labels(), repos.Products())
	res, err := resolver.Resolve(ctx, req.TenantID, req.Label)
	if err != nil {
		return false, 0, err
	}
	if res.Code == "" {
		return false, 0, shared.BadRequestf("label cannot be empty")
	}
	if res.IsFound() {
		if err := matchLabel(req.TenantID, a, product, res); err != nil {
			return false, 0, err
		}
		// product codes are shared by every lot and are never bound
		return false, res.UnitsPerPackage(), nil
	}

	assoc, err := inventory.NewLabelAssociation(req.TenantID, res.Code, a.Key(), nil, 0)
	if err != nil {
		return false, 0, err
	}
	err = repos.Labels().Save(ctx, assoc)
	if errors.Is(err, shared.ErrConflict) {
		// another scan bound the code first
		winner, rerr := resolver.Resolve(ctx, req.TenantID, res.Code)
		if rerr != nil {
			return false, 0, rerr
		}
		if !winner.IsFound() {
			return false, 0, err
		}
		if err := matchLabel(req.TenantID, a, product, winner); err != nil {
			return false, 0, err
		}
		return false, winner.UnitsPerPackage(), nil
	}
	if err != nil {
		return false, 0, err
	}
	pending.Add(inventory.NewLabelAssociatedEvent(assoc))
	return true, product.PackageSize(), nil
}

func matchLabel(tenantID uuid.UUID, a *outbound.PickAllocation, product *inventory.Product, res inventory.LabelResolution) error {
	if res.TenantID != tenantID {
		return shared.Forbiddenf("label %s belongs to another tenant", res.Code)
	}
	if res.Key.ProductID != a.ProductID {
		return shared.BadRequestf("expected SKU %s, scanned SKU %s", product.SKU, productLabel(res.Product))
	}
	if res.HasLot() && res.Key.Lot != a.Lot {
		return shared.BadRequestf("expected lot %s, scanned lot %s", lotLabel(a.Lot), lotLabel(res.Key.Lot))
	}
	return nil
}

// propagate carries a picked increment to the records the allocation
// stands for. On a wave route the item's new picked total is spread over
// its sources in proportion to their reservations.
func propagate(ctx context.Context, repos uow.Repositories, a *outbound.PickAllocation, qty int64) error {
	switch {
	case a.ReservationID != nil:
		r, err := repos.Reservations().FindByID(ctx, a.TenantID, *a.ReservationID)
		if err != nil {
			return err
		}
		if err := repos.Reservations().AddPicked(ctx, r.ID, qty); err != nil {
			return err
		}
		return repos.Orders().AddLinePicked(ctx, r.OrderLineID, qty)

	case a.WaveItemID != nil:
		if err := repos.Waves().AddItemPicked(ctx, *a.WaveItemID, qty); err != nil {
			return err
		}
		item, err := repos.Waves().FindItem(ctx, a.TenantID, *a.WaveItemID)
		if err != nil {
			return err
		}
		shares := outbound.Distribute(item.Shares(), item.PickedQuantity, item.Weights())
		for k, src := range item.Sources {
			delta := shares[k] - src.PickedQuantity
			if delta == 0 {
				continue
			}
			if err := repos.Waves().SetSourcePicked(ctx, src.ID, shares[k]); err != nil {
				return err
			}
			if err := repos.Reservations().AddPicked(ctx, src.ReservationID, delta); err != nil {
				return err
			}
			if err := repos.Orders().AddLinePicked(ctx, src.OrderLineID, delta); err != nil {
				return err
			}
		}
		return nil
	}
	return shared.NewDomainError(shared.CodeInternal, "allocation has neither a reservation nor a wave item")
}

func lotLabel(lot string) string {
	if lot == "" {
		return "(none)"
	}
	return lot
}

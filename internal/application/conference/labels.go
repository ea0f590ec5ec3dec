package conference

import (
	"context"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
)

func resolveLabel(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, code string) (inventory.LabelResolution, error) {
	res, err := inventory.NewStoreLabelResolver(repos.Labels(), repos.Products()).Resolve(ctx, tenantID, code)
	if err != nil {
		return res, err
	}
	if res.Code == "" {
		return res, shared.BadRequestf("label cannot be empty")
	}
	if res.IsFound() && res.TenantID != tenantID {
		return res, shared.Forbiddenf("label %s belongs to another tenant", res.Code)
	}
	return res, nil
}

func countQuantity(explicit *int64, res inventory.LabelResolution) (int64, error) {
	if explicit == nil {
		return res.UnitsPerPackage(), nil
	}
	if *explicit <= 0 {
		return 0, shared.BadRequestf("quantity must be positive, got %d", *explicit)
	}
	return *explicit, nil
}

// recordMovement appends a movement record and queues its event.
func recordMovement(ctx context.Context, repos uow.Repositories, pending *uow.PendingEvents, m *inventory.MovementRecord) error {
	if err := repos.Movements().Append(ctx, m); err != nil {
		return err
	}
	pending.Add(inventory.NewMovementRecordedEvent(m))
	return nil
}

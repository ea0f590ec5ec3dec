package lot

import (
	"sort"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared/strategy"
)

// FEFOStrategy implements First Expired First Out lot selection.
// Lots closest to expiry leave first; lots without an expiry date go last.
type FEFOStrategy struct {
	strategy.Descriptor
}

// NewFEFOStrategy creates a new FEFO lot strategy
func NewFEFOStrategy() *FEFOStrategy {
	return &FEFOStrategy{
		Descriptor: strategy.Describe(
			strategy.KindLotSelection,
			"fefo",
			"First Expired First Out - selects lots by expiry date (earliest expiry first)",
		),
	}
}

func (s *FEFOStrategy) Policy() outbound.AllocationPolicy {
	return outbound.PolicyFEFO
}

func (s *FEFOStrategy) Query(tenantID uuid.UUID, line *outbound.OrderLine) (inventory.EligibleQuery, error) {
	return baseQuery(tenantID, line, inventory.OrderByExpiry), nil
}

func (s *FEFOStrategy) Rank(candidates []inventory.StockCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Position, candidates[j].Position
		switch {
		case a.ExpiresAt == nil && b.ExpiresAt != nil:
			return false
		case a.ExpiresAt != nil && b.ExpiresAt == nil:
			return true
		case a.ExpiresAt != nil && !a.ExpiresAt.Equal(*b.ExpiresAt):
			return a.ExpiresAt.Before(*b.ExpiresAt)
		}
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		return tieBreak(candidates[i], candidates[j])
	})
}

package lot

import (
	"sort"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared/strategy"
)

// FIFOStrategy implements First In First Out lot selection.
// Positions are consumed in order of intake, oldest first.
type FIFOStrategy struct {
	strategy.Descriptor
}

// NewFIFOStrategy creates a new FIFO lot strategy
func NewFIFOStrategy() *FIFOStrategy {
	return &FIFOStrategy{
		Descriptor: strategy.Describe(
			strategy.KindLotSelection,
			"fifo",
			"First In First Out - selects lots by intake time (oldest first)",
		),
	}
}

func (s *FIFOStrategy) Policy() outbound.AllocationPolicy {
	return outbound.PolicyFIFO
}

func (s *FIFOStrategy) Query(tenantID uuid.UUID, line *outbound.OrderLine) (inventory.EligibleQuery, error) {
	return baseQuery(tenantID, line, inventory.OrderByIntake), nil
}

func (s *FIFOStrategy) Rank(candidates []inventory.StockCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Position, candidates[j].Position
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		return tieBreak(candidates[i], candidates[j])
	})
}

package lot

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/domain/shared/strategy"
)

// DirectedStrategy allocates only from the location named on the line.
// Within that location lots leave in FIFO order.
type DirectedStrategy struct {
	strategy.Descriptor
	fifo *FIFOStrategy
}

// NewDirectedStrategy creates a new directed lot strategy
func NewDirectedStrategy() *DirectedStrategy {
	return &DirectedStrategy{
		Descriptor: strategy.Describe(
			strategy.KindLotSelection,
			"directed",
			"Directed - allocates only from the location requested on the order line",
		),
		fifo: NewFIFOStrategy(),
	}
}

func (s *DirectedStrategy) Policy() outbound.AllocationPolicy {
	return outbound.PolicyDirected
}

func (s *DirectedStrategy) Query(tenantID uuid.UUID, line *outbound.OrderLine) (inventory.EligibleQuery, error) {
	if line.DirectedLocationID == nil {
		return inventory.EligibleQuery{}, shared.BadRequestf("directed allocation needs a location on every line")
	}
	q := baseQuery(tenantID, line, inventory.OrderByIntake)
	loc := *line.DirectedLocationID
	q.LocationID = &loc
	return q, nil
}

func (s *DirectedStrategy) Rank(candidates []inventory.StockCandidate) {
	s.fifo.Rank(candidates)
}

package outbound

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/domain/shared/strategy"
)

// LotPick is one chosen position and the units to take from it.
type LotPick struct {
	Position     inventory.LotPosition
	LocationCode string
	Quantity     int64
}

// LotSelectionStrategy decides which lot positions feed an order line.
// Query narrows the eligible stock; Rank orders the candidates the store
// returned. Selection over the ranked list is always greedy.
type LotSelectionStrategy interface {
	strategy.Strategy
	Policy() AllocationPolicy
	Query(tenantID uuid.UUID, line *OrderLine) (inventory.EligibleQuery, error)
	Rank(candidates []inventory.StockCandidate)
}

// SelectGreedy walks ranked candidates taking min(free, remaining) from
// each until qty is covered. A partial cover fails with
// ErrInsufficientStock carrying requested and available quantities.
func SelectGreedy(candidates []inventory.StockCandidate, qty int64, subject string) ([]LotPick, error) {
	picks := make([]LotPick, 0, len(candidates))
	remaining := qty
	for _, c := range candidates {
		if remaining == 0 {
			break
		}
		free := c.Position.Free()
		if free <= 0 {
			continue
		}
		take := min(free, remaining)
		picks = append(picks, LotPick{Position: c.Position, LocationCode: c.LocationCode, Quantity: take})
		remaining -= take
	}
	if remaining > 0 {
		return nil, shared.InsufficientStock(subject, qty, qty-remaining)
	}
	return picks, nil
}

package strategy

import (
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/infrastructure/strategy/lot"
)

// NewRegistryWithDefaults creates a registry holding FIFO, FEFO and directed
// lot strategies, with FIFO as the default.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	for _, s := range []outbound.LotSelectionStrategy{
		lot.NewFIFOStrategy(),
		lot.NewFEFOStrategy(),
		lot.NewDirectedStrategy(),
	} {
		if err := r.RegisterLotStrategy(s); err != nil {
			return nil, err
		}
	}

	if err := r.SetDefault(outbound.PolicyFIFO); err != nil {
		return nil, err
	}
	return r, nil
}

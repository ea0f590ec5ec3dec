package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// StrategyRegistry maps allocation policies to lot selection strategies
type StrategyRegistry struct {
	mu            sync.RWMutex
	lotStrategies map[outbound.AllocationPolicy]outbound.LotSelectionStrategy
	defaultPolicy outbound.AllocationPolicy
}

// NewStrategyRegistry creates an empty registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		lotStrategies: make(map[outbound.AllocationPolicy]outbound.LotSelectionStrategy),
	}
}

// RegisterLotStrategy registers a strategy under its policy
func (r *StrategyRegistry) RegisterLotStrategy(s outbound.LotSelectionStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	policy := s.Policy()
	if _, exists := r.lotStrategies[policy]; exists {
		return shared.Conflictf("lot strategy for policy '%s' already registered", policy)
	}
	r.lotStrategies[policy] = s
	return nil
}

// GetLotStrategy returns the strategy for policy, or the default when policy is empty
func (r *StrategyRegistry) GetLotStrategy(policy outbound.AllocationPolicy) (outbound.LotSelectionStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if policy == "" {
		policy = r.defaultPolicy
		if policy == "" {
			return nil, fmt.Errorf("%w: no default lot strategy set", shared.ErrNotFound)
		}
	}
	s, exists := r.lotStrategies[policy]
	if !exists {
		return nil, shared.NotFoundf("lot strategy for policy '%s' not found", policy)
	}
	return s, nil
}

// SetDefault sets the policy used when none is given
func (r *StrategyRegistry) SetDefault(policy outbound.AllocationPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.lotStrategies[policy]; !exists {
		return shared.NotFoundf("lot strategy for policy '%s' not found", policy)
	}
	r.defaultPolicy = policy
	return nil
}

// ListPolicies returns the registered policies, sorted
func (r *StrategyRegistry) ListPolicies() []outbound.AllocationPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policies := make([]outbound.AllocationPolicy, 0, len(r.lotStrategies))
	for p := range r.lotStrategies {
		policies = append(policies, p)
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i] < policies[j] })
	return policies
}

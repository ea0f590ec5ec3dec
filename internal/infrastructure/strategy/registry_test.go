package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/strategy/lot"
)

func TestNewRegistryWithDefaults(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	assert.Equal(t, []outbound.AllocationPolicy{outbound.PolicyDirected, outbound.PolicyFEFO, outbound.PolicyFIFO}, r.ListPolicies())

	s, err := r.GetLotStrategy("")
	require.NoError(t, err)
	assert.Equal(t, "fifo", s.Name())

	s, err = r.GetLotStrategy(outbound.PolicyFEFO)
	require.NoError(t, err)
	assert.Equal(t, "fefo", s.Name())
}

func TestStrategyRegistry_DuplicateAndMissing(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterLotStrategy(lot.NewFIFOStrategy()))

	err := r.RegisterLotStrategy(lot.NewFIFOStrategy())
	assert.True(t, errors.Is(err, shared.ErrConflict))

	_, err = r.GetLotStrategy("")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = r.GetLotStrategy(outbound.PolicyFEFO)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	assert.Error(t, r.SetDefault(outbound.PolicyDirected))
}

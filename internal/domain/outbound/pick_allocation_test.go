package outbound

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmawms/backend/internal/domain/shared"
)

func int64Ptr(v int64) *int64 { return &v }

func TestDecideIncrement_FullPackage(t *testing.T) {
	a := &PickAllocation{Quantity: 80, Status: PickPending}

	d, err := a.DecideIncrement(80, nil)
	require.NoError(t, err)
	assert.False(t, d.RequiresManualQuantity)
	assert.Equal(t, int64(80), d.Quantity)
	assert.Equal(t, PickPicked, a.StatusAfter(80))
}

func TestDecideIncrement_Fractional(t *testing.T) {
	a := &PickAllocation{Quantity: 100, Status: PickPending}

	d, err := a.DecideIncrement(80, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(80), d.Quantity)
	a.PickedQuantity = 80
	a.Status = a.StatusAfter(80)
	assert.Equal(t, PickInProgress, a.Status)

	d, err = a.DecideIncrement(80, nil)
	require.NoError(t, err)
	assert.True(t, d.RequiresManualQuantity)
	assert.Equal(t, int64(20), d.MaxQuantity)
	assert.Zero(t, d.Quantity)

	_, err = a.DecideIncrement(80, int64Ptr(25))
	assert.True(t, errors.Is(err, shared.ErrBadRequest))
	assert.Contains(t, err.Error(), "exceeds remaining 20")

	d, err = a.DecideIncrement(80, int64Ptr(20))
	require.NoError(t, err)
	assert.Equal(t, int64(20), d.Quantity)
	assert.Equal(t, PickPicked, a.StatusAfter(100))
}

func TestDecideIncrement_ClosedAllocation(t *testing.T) {
	a := &PickAllocation{Quantity: 10, PickedQuantity: 4, Status: PickShortPicked}

	_, err := a.DecideIncrement(1, nil)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	assert.Equal(t, int64(6), a.Shortfall())
}

func TestDecideIncrement_RejectsNonPositiveManual(t *testing.T) {
	a := &PickAllocation{Quantity: 10, Status: PickInProgress}
	_, err := a.DecideIncrement(1, int64Ptr(0))
	assert.True(t, errors.Is(err, shared.ErrBadRequest))
}

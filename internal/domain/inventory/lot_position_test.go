package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmawms/backend/internal/domain/shared"
)

func newAvailablePosition(t *testing.T, qty int64) *LotPosition {
	t.Helper()
	p, err := NewLotPosition(uuid.New(), uuid.New(), uuid.New(), "L1", nil, qty, LotStatusAvailable)
	require.NoError(t, err)
	return p
}

func TestLotPosition_ReserveRelease(t *testing.T) {
	p := newAvailablePosition(t, 100)

	require.NoError(t, p.Reserve(100))
	assert.Equal(t, int64(0), p.Free())

	err := p.Reserve(1)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	assert.Equal(t, int64(100), p.Reserved)

	require.NoError(t, p.Release(40))
	assert.Equal(t, int64(60), p.Reserved)

	err = p.Release(61)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	assert.Equal(t, int64(60), p.Reserved)
}

func TestLotPosition_ReserveRequiresAvailable(t *testing.T) {
	p, err := NewLotPosition(uuid.New(), uuid.New(), uuid.New(), "L1", nil, 10, LotStatusQuarantine)
	require.NoError(t, err)

	err = p.Reserve(1)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	assert.False(t, p.IsAllocatable())
}

func TestLotPosition_Consume(t *testing.T) {
	p := newAvailablePosition(t, 100)
	require.NoError(t, p.Reserve(30))

	// 20 picked out of a 30 unit reservation: 10 go back to free stock.
	require.NoError(t, p.Consume(20, 30))
	assert.Equal(t, int64(80), p.Quantity)
	assert.Equal(t, int64(0), p.Reserved)

	err := p.Consume(81, 0)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
}

func TestLotPosition_ConsumeKeepsReservedWithinQuantity(t *testing.T) {
	p := newAvailablePosition(t, 10)
	require.NoError(t, p.Reserve(10))

	err := p.Consume(5, 3)
	require.Error(t, err)
	assert.Equal(t, int64(10), p.Quantity)
	assert.Equal(t, int64(10), p.Reserved)
}

func TestLotPosition_ChangeStatus(t *testing.T) {
	p, err := NewLotPosition(uuid.New(), uuid.New(), uuid.New(), "L1", nil, 10, LotStatusQuarantine)
	require.NoError(t, err)

	require.NoError(t, p.ChangeStatus(LotStatusAvailable))
	require.NoError(t, p.Reserve(5))

	err = p.ChangeStatus(LotStatusBlocked)
	assert.True(t, errors.Is(err, shared.ErrConflict))

	err = p.ChangeStatus(LotStatusQuarantine)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestLotPosition_IsExpiredAt(t *testing.T) {
	exp := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	p := newAvailablePosition(t, 1)
	assert.False(t, p.IsExpiredAt(exp))

	p.ExpiresAt = &exp
	assert.False(t, p.IsExpiredAt(exp))
	assert.True(t, p.IsExpiredAt(exp.Add(time.Hour)))
}

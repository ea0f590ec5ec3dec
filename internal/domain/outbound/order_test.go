package outbound

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmawms/backend/internal/domain/shared"
)

func newTestOrder(t *testing.T, tenantID, customerID uuid.UUID, number string) *Order {
	t.Helper()
	o, err := NewOrder(tenantID, customerID, number)
	require.NoError(t, err)
	_, err = o.AddLine(uuid.New(), 10, "", nil, nil)
	require.NoError(t, err)
	return o
}

func TestOrder_Lifecycle(t *testing.T) {
	o := newTestOrder(t, uuid.New(), uuid.New(), "PO-1")

	require.NoError(t, o.MarkAllocated(PolicyFEFO))
	assert.Equal(t, PolicyFEFO, o.Policy)
	require.NoError(t, o.StartPicking())

	o.Lines[0].PickedQuantity = 10
	require.NoError(t, o.FinishPicking())
	assert.Equal(t, OrderStatusPicked, o.Status)

	require.NoError(t, o.MarkStaged())
	require.NoError(t, o.MarkShipped())

	_, err := o.Cancel(false)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	assert.Len(t, o.Events(), 5)
}

func TestOrder_FinishPickingWithShortfallIsDivergent(t *testing.T) {
	o := newTestOrder(t, uuid.New(), uuid.New(), "PO-2")
	require.NoError(t, o.MarkAllocated(PolicyFIFO))
	require.NoError(t, o.StartPicking())
	o.Lines[0].PickedQuantity = 7

	require.NoError(t, o.FinishPicking())
	assert.Equal(t, OrderStatusDivergent, o.Status)

	require.NoError(t, o.AcceptShortage())
	assert.Equal(t, OrderStatusPicked, o.Status)
}

func TestOrder_CancelIsIdempotent(t *testing.T) {
	o := newTestOrder(t, uuid.New(), uuid.New(), "PO-3")
	require.NoError(t, o.MarkAllocated(PolicyFIFO))

	changed, err := o.Cancel(false)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = o.Cancel(false)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestOrder_CancelInWaveConflicts(t *testing.T) {
	o := newTestOrder(t, uuid.New(), uuid.New(), "PO-4")
	require.NoError(t, o.MarkAllocated(PolicyFIFO))
	require.NoError(t, o.JoinWave(uuid.New()))

	_, err := o.Cancel(true)
	assert.True(t, errors.Is(err, shared.ErrConflict))

	require.NoError(t, o.LeaveWave())
	assert.Equal(t, OrderStatusAllocated, o.Status)
	assert.Nil(t, o.WaveID)
}

func TestOrder_CancelAfterWaveClosed(t *testing.T) {
	o := newTestOrder(t, uuid.New(), uuid.New(), "PO-6")
	require.NoError(t, o.MarkAllocated(PolicyFIFO))
	require.NoError(t, o.JoinWave(uuid.New()))
	require.NoError(t, o.StartPicking())
	o.Lines[0].PickedQuantity = o.Lines[0].RequestedQuantity
	require.NoError(t, o.FinishPicking())

	changed, err := o.Cancel(false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Zero(t, o.Lines[0].PickedQuantity)
}

func TestOrder_AddLineValidation(t *testing.T) {
	o, err := NewOrder(uuid.New(), uuid.New(), "PO-5")
	require.NoError(t, err)

	_, err = o.AddLine(uuid.New(), 0, "", nil, nil)
	assert.True(t, errors.Is(err, shared.ErrBadRequest))

	err = o.MarkAllocated(PolicyFIFO)
	assert.True(t, errors.Is(err, shared.ErrBadRequest))
}

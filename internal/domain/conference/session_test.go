package conference

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
)

func stagingSession(t *testing.T, lines ...ExpectedLine) *Session {
	t.Helper()
	s, err := NewSession(uuid.New(), DirectionStaging, uuid.New(), uuid.New(), lines)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	return s
}

func TestSession_TwoLotsStayDistinct(t *testing.T) {
	p := uuid.New()
	s := stagingSession(t,
		ExpectedLine{Key: inventory.NewLotKey(p, "L1"), Quantity: 10},
		ExpectedLine{Key: inventory.NewLotKey(p, "L2"), Quantity: 5},
		ExpectedLine{Key: inventory.NewLotKey(p, "L1"), Quantity: 2},
	)
	require.Len(t, s.Lines, 2)
	assert.Equal(t, int64(12), s.Line(inventory.NewLotKey(p, "L1")).ExpectedQuantity)
}

func TestSession_CleanCompletion(t *testing.T) {
	p := uuid.New()
	key := inventory.NewLotKey(p, "L1")
	s := stagingSession(t, ExpectedLine{Key: key, Quantity: 10})

	_, err := s.Count(key, 6)
	require.NoError(t, err)
	_, err = s.Count(key, 4)
	require.NoError(t, err)

	status, err := s.Finish(false, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	assert.False(t, s.Forced)
}

func TestSession_MismatchIsDivergentNotError(t *testing.T) {
	p := uuid.New()
	k1, k2 := inventory.NewLotKey(p, "L1"), inventory.NewLotKey(p, "L2")
	s := stagingSession(t, ExpectedLine{Key: k1, Quantity: 10}, ExpectedLine{Key: k2, Quantity: 3})

	_, err := s.Count(k1, 9)
	require.NoError(t, err)

	status, err := s.Finish(false, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDivergent, status)
	assert.Equal(t, int64(9), s.Line(k1).CountedQuantity)
	assert.Len(t, s.Mismatches(), 2)
	assert.Len(t, s.Events(), 1)
}

func TestSession_ForceRequiresAuthorizer(t *testing.T) {
	key := inventory.NewLotKey(uuid.New(), "L1")
	s := stagingSession(t, ExpectedLine{Key: key, Quantity: 10})
	_, err := s.Count(key, 8)
	require.NoError(t, err)

	_, err = s.Finish(true, nil)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	assert.Equal(t, StatusInProgress, s.Status)

	supervisor := uuid.New()
	status, err := s.Finish(true, &supervisor)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	assert.True(t, s.Forced)
	assert.Equal(t, supervisor, *s.AuthorizedBy)
}

func TestSession_ForceNeedsEveryLineCounted(t *testing.T) {
	p := uuid.New()
	k1, k2 := inventory.NewLotKey(p, "L1"), inventory.NewLotKey(p, "L2")
	s := stagingSession(t, ExpectedLine{Key: k1, Quantity: 2}, ExpectedLine{Key: k2, Quantity: 3})
	_, err := s.Count(k1, 2)
	require.NoError(t, err)

	supervisor := uuid.New()
	_, err = s.Finish(true, &supervisor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrBadRequest))
	assert.Contains(t, err.Error(), k2.String())
	assert.Equal(t, StatusInProgress, s.Status)
	assert.Nil(t, s.FinishedAt)
	assert.Nil(t, s.AuthorizedBy)
	assert.Equal(t, []inventory.LotKey{k2}, s.Uncounted())

	// without force an uncounted line is an ordinary divergence
	status, err := s.Finish(false, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDivergent, status)
}

func TestSession_CountUnknownLot(t *testing.T) {
	p := uuid.New()
	s := stagingSession(t, ExpectedLine{Key: inventory.NewLotKey(p, "L1"), Quantity: 1})

	_, err := s.Count(inventory.NewLotKey(p, "L9"), 1)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = s.Count(inventory.NewLotKey(p, "L1"), 0)
	assert.True(t, errors.Is(err, shared.ErrBadRequest))
}

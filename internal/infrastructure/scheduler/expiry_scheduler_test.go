package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pharmawms/backend/internal/application/lifecycle"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) ExpireLots(ctx context.Context, now time.Time) (*lifecycle.ExpiryReport, error) {
	args := m.Called(ctx, now)
	if r := args.Get(0); r != nil {
		return r.(*lifecycle.ExpiryReport), args.Error(1)
	}
	return nil, args.Error(1)
}

type countingRunner struct {
	mu    sync.Mutex
	calls int
}

func (c *countingRunner) ExpireLots(context.Context, time.Time) (*lifecycle.ExpiryReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &lifecycle.ExpiryReport{}, nil
}

func (c *countingRunner) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestExpiryScheduler_SweepRepeatsFullBatches(t *testing.T) {
	runner := &mockRunner{}
	runner.On("ExpireLots", mock.Anything, mock.Anything).Return(&lifecycle.ExpiryReport{Expired: 2}, nil).Twice()
	runner.On("ExpireLots", mock.Anything, mock.Anything).Return(&lifecycle.ExpiryReport{Expired: 1}, nil).Once()

	s := NewExpiryScheduler(runner, zaptest.NewLogger(t), ExpirySchedulerConfig{
		Enabled: true, Interval: time.Hour, BatchSize: 2, MaxRounds: 10,
	})
	report := s.Sweep(context.Background())
	assert.Equal(t, 5, report.Expired)
	runner.AssertNumberOfCalls(t, "ExpireLots", 3)
}

func TestExpiryScheduler_SweepStopsOnError(t *testing.T) {
	runner := &mockRunner{}
	runner.On("ExpireLots", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

	s := NewExpiryScheduler(runner, zaptest.NewLogger(t), ExpirySchedulerConfig{
		Enabled: true, Interval: time.Hour, BatchSize: 2, MaxRounds: 10,
	})
	report := s.Sweep(context.Background())
	assert.Zero(t, report.Expired)
	runner.AssertExpectations(t)
}

func TestExpiryScheduler_MaxRounds(t *testing.T) {
	runner := &mockRunner{}
	runner.On("ExpireLots", mock.Anything, mock.Anything).Return(&lifecycle.ExpiryReport{Expired: 1, Skipped: 1}, nil)

	s := NewExpiryScheduler(runner, zaptest.NewLogger(t), ExpirySchedulerConfig{
		Enabled: true, Interval: time.Hour, BatchSize: 2, MaxRounds: 3,
	})
	report := s.Sweep(context.Background())
	assert.Equal(t, 3, report.Expired)
	assert.Equal(t, 3, report.Skipped)
	runner.AssertNumberOfCalls(t, "ExpireLots", 3)
}

func TestExpiryScheduler_StartStop(t *testing.T) {
	runner := &countingRunner{}
	s := NewExpiryScheduler(runner, zaptest.NewLogger(t), ExpirySchedulerConfig{
		Enabled: true, Interval: 10 * time.Millisecond, BatchSize: 10,
	})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(context.Background()), "second start is a no-op")

	assert.Eventually(t, func() bool { return runner.Calls() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(ctx))
}

func TestExpiryScheduler_Disabled(t *testing.T) {
	runner := &countingRunner{}
	s := NewExpiryScheduler(runner, zaptest.NewLogger(t), ExpirySchedulerConfig{Enabled: false})
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Zero(t, runner.Calls())
}

func TestExpiryScheduler_InvalidConfig(t *testing.T) {
	s := NewExpiryScheduler(&countingRunner{}, zaptest.NewLogger(t), ExpirySchedulerConfig{Enabled: true})
	err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.False(t, s.IsRunning())
}

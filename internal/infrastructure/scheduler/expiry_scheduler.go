// Package scheduler runs periodic warehouse housekeeping.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/lifecycle"
	"github.com/pharmawms/backend/internal/infrastructure/telemetry"
)

var sweepLabels = map[string]string{telemetry.LabelRegion: "expiry_sweep"}

// ExpiryRunner expires lots whose expiry date has passed.
type ExpiryRunner interface {
	ExpireLots(ctx context.Context, now time.Time) (*lifecycle.ExpiryReport, error)
}

// ExpirySchedulerConfig holds configuration for the expiry sweep
type ExpirySchedulerConfig struct {
	Enabled bool

	// Interval between sweeps. The first sweep runs on start.
	Interval time.Duration

	// BatchSize must match the runner's batch. A sweep that fills a whole
	// batch is repeated until a short batch comes back.
	BatchSize int

	// MaxRounds caps the batches of one sweep
	MaxRounds int

	// SweepTimeout is the maximum time for one sweep
	SweepTimeout time.Duration
}

// DefaultExpirySchedulerConfig returns default configuration
func DefaultExpirySchedulerConfig() ExpirySchedulerConfig {
	return ExpirySchedulerConfig{
		Enabled:      true,
		Interval:     time.Hour,
		BatchSize:    500,
		MaxRounds:    20,
		SweepTimeout: 5 * time.Minute,
	}
}

func (c ExpirySchedulerConfig) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ExpiryScheduler sweeps expired lots on a fixed interval
type ExpiryScheduler struct {
	runner ExpiryRunner
	logger *zap.Logger
	config ExpirySchedulerConfig
	now    func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewExpiryScheduler creates a new expiry scheduler
func NewExpiryScheduler(runner ExpiryRunner, logger *zap.Logger, config ExpirySchedulerConfig) *ExpiryScheduler {
	if config.MaxRounds <= 0 {
		config.MaxRounds = 1
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = DefaultExpirySchedulerConfig().SweepTimeout
	}
	return &ExpiryScheduler{
		runner: runner,
		logger: logger.Named("expiry_scheduler"),
		config: config,
		now:    time.Now,
	}
}

// Start launches the sweep loop
func (s *ExpiryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("expiry scheduler is disabled")
		return nil
	}
	if err := s.config.validate(); err != nil {
		return err
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("expiry scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *ExpiryScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("expiry scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("expiry scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the sweep loop is active
func (s *ExpiryScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *ExpiryScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.labeledSweep(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.labeledSweep(ctx)
		}
	}
}

func (s *ExpiryScheduler) labeledSweep(ctx context.Context) {
	telemetry.WithProfilingLabels(ctx, sweepLabels, func(ctx context.Context) {
		s.Sweep(ctx)
	})
}

// Sweep runs one expiry pass and returns the totals. Errors are logged.
func (s *ExpiryScheduler) Sweep(ctx context.Context) lifecycle.ExpiryReport {
	ctx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	var total lifecycle.ExpiryReport
	now := s.now()
	for round := 0; round < s.config.MaxRounds; round++ {
		report, err := s.runner.ExpireLots(ctx, now)
		if err != nil {
			s.logger.Error("expiry sweep failed", zap.Int("round", round), zap.Error(err))
			break
		}
		total.Expired += report.Expired
		total.Skipped += report.Skipped
		if report.Expired == 0 || report.Expired+report.Skipped < s.config.BatchSize {
			break
		}
	}

	if total.Expired > 0 || total.Skipped > 0 {
		s.logger.Info("expiry sweep finished",
			zap.Int("expired", total.Expired),
			zap.Int("skipped", total.Skipped),
		)
	}
	return total
}

package outbound

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultWavePrefix prefixes wave numbers: OS-20250131-0001.
const DefaultWavePrefix = "OS"

// SequenceGenerator hands out per-day monotonic counters. Concurrent callers
// on the same day never receive the same value.
type SequenceGenerator interface {
	Next(ctx context.Context, tenantID uuid.UUID, scope string, day time.Time) (int64, error)
}

// DayKey formats the date part of a sequence key.
func DayKey(day time.Time) string {
	return day.Format("20060102")
}

// FormatWaveNumber builds prefix-YYYYMMDD-NNNN. Counters above 9999 keep all
// their digits.
func FormatWaveNumber(prefix string, day time.Time, seq int64) string {
	if prefix == "" {
		prefix = DefaultWavePrefix
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, DayKey(day), seq)
}

// WaveNumberer generates wave numbers from a SequenceGenerator.
type WaveNumberer struct {
	seq    SequenceGenerator
	prefix string
	now    func() time.Time
}

func NewWaveNumberer(seq SequenceGenerator, prefix string) *WaveNumberer {
	if prefix == "" {
		prefix = DefaultWavePrefix
	}
	return &WaveNumberer{seq: seq, prefix: prefix, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (n *WaveNumberer) WithClock(now func() time.Time) *WaveNumberer {
	n.now = now
	return n
}

func (n *WaveNumberer) Next(ctx context.Context, tenantID uuid.UUID) (string, error) {
	day := n.now()
	v, err := n.seq.Next(ctx, tenantID, "wave", day)
	if err != nil {
		return "", fmt.Errorf("next wave sequence: %w", err)
	}
	return FormatWaveNumber(n.prefix, day, v), nil
}

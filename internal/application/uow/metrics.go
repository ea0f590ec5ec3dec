package uow

import "context"

// Metrics receives business counters from the warehouse services.
type Metrics interface {
	AllocationCompleted(ctx context.Context, policy string, reservations int)
	AllocationFailed(ctx context.Context, policy string, code string)
	ScanAccepted(ctx context.Context, route string, quantity int64)
	ShortPick(ctx context.Context, reason string, rerouted bool)
	Divergence(ctx context.Context, direction string)
}

// NopMetrics discards every counter.
type NopMetrics struct{}

func (NopMetrics) AllocationCompleted(context.Context, string, int) {}
func (NopMetrics) AllocationFailed(context.Context, string, string) {}
func (NopMetrics) ScanAccepted(context.Context, string, int64)      {}
func (NopMetrics) ShortPick(context.Context, string, bool)          {}
func (NopMetrics) Divergence(context.Context, string)               {}

var _ Metrics = NopMetrics{}

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pharmawms/backend/internal/application/uow"
)

// WarehouseMetrics records the business counters of the allocation, picking
// and conference services.
type WarehouseMetrics struct {
	allocations        *Counter
	allocationFailures *Counter
	reservationsPerRun metric.Int64Histogram
	scannedUnits       *Counter
	shortPicks         *Counter
	divergences        *Counter
}

func NewWarehouseMetrics(meter metric.Meter) (*WarehouseMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var (
		m   WarehouseMetrics
		err error
	)
	if m.allocations, err = NewCounter(meter, "wms_allocations_total", "Orders allocated", "{orders}"); err != nil {
		return nil, err
	}
	if m.allocationFailures, err = NewCounter(meter, "wms_allocation_failures_total", "Allocation attempts rejected", "{orders}"); err != nil {
		return nil, err
	}
	if m.reservationsPerRun, err = meter.Int64Histogram("wms_allocation_reservations",
		metric.WithDescription("Reservations created by one allocation"),
		metric.WithUnit("{reservations}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 25, 50, 100),
	); err != nil {
		return nil, err
	}
	if m.scannedUnits, err = NewCounter(meter, "wms_picked_units_total", "Units confirmed by pick scans", "{units}"); err != nil {
		return nil, err
	}
	if m.shortPicks, err = NewCounter(meter, "wms_short_picks_total", "Pick problems reported", "{allocations}"); err != nil {
		return nil, err
	}
	if m.divergences, err = NewCounter(meter, "wms_divergences_total", "Counts finishing divergent", "{sessions}"); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *WarehouseMetrics) AllocationCompleted(ctx context.Context, policy string, reservations int) {
	attrs := attribute.String("policy", policy)
	m.allocations.Inc(ctx, attrs)
	m.reservationsPerRun.Record(ctx, int64(reservations), metric.WithAttributes(attrs))
}

func (m *WarehouseMetrics) AllocationFailed(ctx context.Context, policy string, code string) {
	m.allocationFailures.Inc(ctx, attribute.String("policy", policy), attribute.String("code", code))
}

func (m *WarehouseMetrics) ScanAccepted(ctx context.Context, route string, quantity int64) {
	if quantity <= 0 {
		return
	}
	m.scannedUnits.Add(ctx, quantity, attribute.String("route", route))
}

func (m *WarehouseMetrics) ShortPick(ctx context.Context, reason string, rerouted bool) {
	m.shortPicks.Inc(ctx, attribute.String("reason", reason), attribute.Bool("rerouted", rerouted))
}

func (m *WarehouseMetrics) Divergence(ctx context.Context, direction string) {
	m.divergences.Inc(ctx, attribute.String("direction", direction))
}

var _ uow.Metrics = (*WarehouseMetrics)(nil)

package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// LogSink writes audited events to the application log. It stands in for
// the Kafka sink when no brokers are configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("audit")}
}

func (s *LogSink) EventTypes() []string { return AuditedEventTypes }

func (s *LogSink) Handle(_ context.Context, evt shared.DomainEvent) error {
	s.logger.Info(evt.EventType(),
		zap.String("event_id", evt.EventID().String()),
		zap.String("tenant_id", evt.TenantID().String()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
	)
	return nil
}

var _ shared.EventHandler = (*LogSink)(nil)

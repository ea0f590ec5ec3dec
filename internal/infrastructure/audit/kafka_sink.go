// Package audit ships warehouse events to the external audit stream.
package audit

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/receiving"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/event"
)

// AuditedEventTypes are the events the compliance stream keeps: every stock
// movement, lot status change and reconciliation outcome.
var AuditedEventTypes = []string{
	inventory.EventTypeMovementRecorded,
	inventory.EventTypeLotStatusChanged,
	inventory.EventTypeLabelAssociated,
	outbound.EventTypePickShortfall,
	receiving.EventTypeDivergenceFiled,
	receiving.EventTypeDivergenceApproved,
	conference.EventTypeDivergenceDetected,
}

// KafkaSink publishes audited events to a Kafka topic keyed by tenant, so a
// tenant's events stay ordered within one partition.
type KafkaSink struct {
	producer   sarama.SyncProducer
	topic      string
	serializer *event.EventSerializer
	logger     *zap.Logger
}

// NewProducerConfig returns the producer settings the sink expects
func NewProducerConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// DialKafkaSink connects a sync producer to brokers
func DialKafkaSink(brokers []string, topic, clientID string, logger *zap.Logger) (*KafkaSink, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig(clientID))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	logger.Info("audit sink connected", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return NewKafkaSink(producer, topic, logger), nil
}

func NewKafkaSink(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaSink {
	s := event.NewEventSerializer()
	event.RegisterAllEvents(s)
	return &KafkaSink{producer: producer, topic: topic, serializer: s, logger: logger}
}

func (k *KafkaSink) EventTypes() []string { return AuditedEventTypes }

func (k *KafkaSink) Handle(ctx context.Context, evt shared.DomainEvent) error {
	ctx, span := otel.Tracer("audit").Start(ctx, "audit.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", k.topic),
			attribute.String("event.type", evt.EventType()),
		),
	)
	defer span.End()

	payload, err := k.serializer.Serialize(evt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "serialize")
		return fmt.Errorf("serialize %s: %w", evt.EventType(), err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(evt.EventType())},
		{Key: []byte("event_id"), Value: []byte(evt.EventID().String())},
	}
	for key, value := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
	}

	partition, offset, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic:   k.topic,
		Key:     sarama.StringEncoder(evt.TenantID().String()),
		Value:   sarama.ByteEncoder(payload),
		Headers: headers,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send")
		return fmt.Errorf("publish %s to %s: %w", evt.EventType(), k.topic, err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	k.logger.Debug("audit event published",
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (k *KafkaSink) Close() error {
	return k.producer.Close()
}

var _ shared.EventHandler = (*KafkaSink)(nil)

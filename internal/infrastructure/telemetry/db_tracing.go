package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// DBTracingConfig controls the GORM instrumentation.
type DBTracingConfig struct {
	Enabled        bool
	DBName         string
	WithVariables  bool // include bound values in span statements
	SlowQueryAfter time.Duration
}

// InstrumentDB registers otelgorm on db and marks spans of queries slower
// than SlowQueryAfter.
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.WithVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if cfg.SlowQueryAfter > 0 {
		threshold := cfg.SlowQueryAfter
		start := func(tx *gorm.DB) {
			if tx.Statement.Context != nil {
				tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
			}
		}
		finish := func(tx *gorm.DB) {
			began, ok := tx.Statement.Context.Value(queryStartKey{}).(time.Time)
			if !ok {
				return
			}
			elapsed := time.Since(began)
			if elapsed < threshold {
				return
			}
			trace.SpanFromContext(tx.Statement.Context).SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
			)
			logger.Warn("slow query",
				zap.String("table", tx.Statement.Table),
				zap.Duration("elapsed", elapsed),
			)
		}
		cb := db.Callback()
		for _, reg := range []error{
			cb.Create().Before("gorm:create").Register("telemetry:start_create", start),
			cb.Create().After("gorm:create").Register("telemetry:finish_create", finish),
			cb.Query().Before("gorm:query").Register("telemetry:start_query", start),
			cb.Query().After("gorm:query").Register("telemetry:finish_query", finish),
			cb.Update().Before("gorm:update").Register("telemetry:start_update", start),
			cb.Update().After("gorm:update").Register("telemetry:finish_update", finish),
			cb.Delete().Before("gorm:delete").Register("telemetry:start_delete", start),
			cb.Delete().After("gorm:delete").Register("telemetry:finish_delete", finish),
			cb.Raw().Before("gorm:raw").Register("telemetry:start_raw", start),
			cb.Raw().After("gorm:raw").Register("telemetry:finish_raw", finish),
		} {
			if reg != nil {
				return reg
			}
		}
	}

	logger.Info("database tracing enabled",
		zap.String("db", cfg.DBName),
		zap.Duration("slow_query_after", cfg.SlowQueryAfter),
	)
	return nil
}

// ObserveDBPool exports the connection pool statistics as gauges.
func ObserveDBPool(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	open, err := meter.Int64ObservableGauge("wms_db_connections_open", metric.WithDescription("Open database connections"))
	if err != nil {
		return err
	}
	inUse, err := meter.Int64ObservableGauge("wms_db_connections_in_use", metric.WithDescription("Database connections in use"))
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("wms_db_connection_waits_total", metric.WithDescription("Waits for a free connection"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, waits)
	return err
}

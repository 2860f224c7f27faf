package sqlx

import (
	"context"
	"time"

	scopesql "github.com/kroma-labs/sqlscope/sql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for sqlx calls. Driver-level
// operations are measured separately by the sql package.
type metrics struct {
	callDuration metric.Float64Histogram
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.callDuration, err = meter.Float64Histogram(
		"db.client.sqlx.duration",
		metric.WithDescription("Duration of sqlx calls in seconds, including scanning"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// recordQueryDuration records the duration of one sqlx call.
func (m *metrics) recordQueryDuration(
	ctx context.Context,
	duration time.Duration,
	method string,
	operation string,
	attrs []attribute.KeyValue,
	err error,
) {
	if m == nil || m.callDuration == nil {
		return
	}

	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+3)
	allAttrs = append(allAttrs, attrs...)
	allAttrs = append(allAttrs, attribute.String("db.sqlx.method", method))

	if operation != "" {
		allAttrs = append(allAttrs, attribute.String("db.operation", operation))
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	allAttrs = append(allAttrs, attribute.String("status", status))

	m.callDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(allAttrs...))
}

// RecordPoolMetrics registers connection pool metrics for a sqlx database.
// The db.system, db.name and db.instance attributes come from the options
// the DB was created with.
//
// Example:
//
//	db, _ := scopesqlx.Open("postgres", dsn,
//	    scopesqlx.WithDBSystem("postgresql"),
//	    scopesqlx.WithDBName("mydb"),
//	)
//
//	err := scopesqlx.RecordPoolMetrics(db, otel.GetMeterProvider().Meter("myapp"))
func RecordPoolMetrics(db *DB, meter metric.Meter, attrs ...attribute.KeyValue) error {
	if db.cfg != nil && !db.wrapped {
		attrs = append(db.cfg.baseAttributes(), attrs...)
	}
	return scopesql.RecordPoolMetrics(db.DB.DB, meter, attrs...)
}

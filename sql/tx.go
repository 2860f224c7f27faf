package sql

import (
	"context"
	"database/sql/driver"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface check.
var _ driver.Tx = (*otelTx)(nil)

// otelTx wraps a driver.Tx with OpenTelemetry instrumentation.
// Commit and Rollback spans are children of the BEGIN span's parent.
type otelTx struct {
	ctx    context.Context
	tx     driver.Tx
	cfg    *config
	connID string
}

// newOtelTx creates a new instrumented transaction.
func newOtelTx(ctx context.Context, tx driver.Tx, cfg *config, connID string) *otelTx {
	return &otelTx{
		ctx:    ctx,
		tx:     tx,
		cfg:    cfg,
		connID: connID,
	}
}

// Commit implements driver.Tx.
func (t *otelTx) Commit() error {
	return t.end("COMMIT", "Committing", t.tx.Commit)
}

// Rollback implements driver.Tx.
func (t *otelTx) Rollback() error {
	return t.end("ROLLBACK", "Rolling back", t.tx.Rollback)
}

func (t *otelTx) end(name, verb string, fn func() error) error {
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := t.cfg.Tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.cfg.connAttributes(t.connID)...),
	)
	defer span.End()

	if t.cfg.Log.IsDebugEnabled() {
		t.cfg.Log.Debug(verb + " transaction on connection [" + t.connID + "]")
	}

	err := fn()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

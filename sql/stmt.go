package sql

import (
	"context"
	"database/sql/driver"
	"time"

	"github.com/kroma-labs/sqlscope/errctx"
	"github.com/kroma-labs/sqlscope/sqllog"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface checks.
var (
	_ driver.Stmt             = (*otelStmt)(nil)
	_ driver.StmtExecContext  = (*otelStmt)(nil)
	_ driver.StmtQueryContext = (*otelStmt)(nil)
)

// otelStmt wraps a prepared statement with tracing and metrics. Execution
// goes through the logged statement ps; the raw driver.Stmt serves the
// legacy and bookkeeping calls.
type otelStmt struct {
	ps     sqllog.PreparedStatement
	stmt   driver.Stmt
	cfg    *config
	query  string
	connID string
}

// newOtelStmt creates a new instrumented statement.
func newOtelStmt(ps sqllog.PreparedStatement, cfg *config, query, connID string) *otelStmt {
	return &otelStmt{
		ps:     ps,
		stmt:   driverStmt(ps),
		cfg:    cfg,
		query:  query,
		connID: connID,
	}
}

// Close implements driver.Stmt.
func (s *otelStmt) Close() error {
	return s.ps.Close()
}

// NumInput implements driver.Stmt.
func (s *otelStmt) NumInput() int {
	return s.stmt.NumInput()
}

// Exec implements driver.Stmt.
// Deprecated: Use ExecContext instead. This exists for driver.Stmt interface compatibility.
func (s *otelStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), valueToNamedValue(args))
}

// Query implements driver.Stmt.
// Deprecated: Use QueryContext instead. This exists for driver.Stmt interface compatibility.
func (s *otelStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), valueToNamedValue(args))
}

// ExecContext implements driver.StmtExecContext.
func (s *otelStmt) ExecContext(
	ctx context.Context,
	args []driver.NamedValue,
) (driver.Result, error) {
	start := time.Now()
	operation := extractOperation(s.query)

	ctx, span := s.cfg.Tracer.Start(ctx, spanName(s.query),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(s.cfg.queryAttributes(s.query, s.connID)...),
	)
	defer span.End()

	errctx.FromContext(ctx).SQL(s.query)

	result, err := s.ps.ExecuteUpdate(ctx, args)

	s.cfg.Metrics.recordQueryDuration(ctx, time.Since(start), operation, s.cfg.baseAttributes(), err)

	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	return result, nil
}

// QueryContext implements driver.StmtQueryContext.
func (s *otelStmt) QueryContext(
	ctx context.Context,
	args []driver.NamedValue,
) (driver.Rows, error) {
	start := time.Now()
	operation := extractOperation(s.query)

	ctx, span := s.cfg.Tracer.Start(ctx, spanName(s.query),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(s.cfg.queryAttributes(s.query, s.connID)...),
	)
	defer span.End()

	errctx.FromContext(ctx).SQL(s.query)

	rs, err := s.ps.ExecuteQuery(ctx, args)

	s.cfg.Metrics.recordQueryDuration(ctx, time.Since(start), operation, s.cfg.baseAttributes(), err)

	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	return s.cfg.loggedRows(ctx, rs, operation, sqllog.DepthFromContext(ctx)), nil
}

// valueToNamedValue converts Value slice to NamedValue slice with
// one-based ordinals.
func valueToNamedValue(values []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(values))
	for i, v := range values {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}

package sql

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kroma-labs/sqlscope/errctx"
	"github.com/kroma-labs/sqlscope/sqllog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface checks.
var (
	_ driver.Conn               = (*otelConn)(nil)
	_ driver.ConnPrepareContext = (*otelConn)(nil)
	_ driver.ConnBeginTx        = (*otelConn)(nil)
	_ driver.ExecerContext      = (*otelConn)(nil)
	_ driver.QueryerContext     = (*otelConn)(nil)
	_ driver.Pinger             = (*otelConn)(nil)
	_ driver.SessionResetter    = (*otelConn)(nil)
	_ driver.Validator          = (*otelConn)(nil)
	_ driver.NamedValueChecker  = (*otelConn)(nil)
)

// otelConn wraps a driver.Conn with tracing, metrics and statement logging.
type otelConn struct {
	conn driver.Conn
	cfg  *config
	id   string
}

// newOtelConn creates a new instrumented connection.
func newOtelConn(conn driver.Conn, cfg *config) *otelConn {
	c := &otelConn{
		conn: conn,
		cfg:  cfg,
		id:   uuid.NewString(),
	}
	if cfg.Log.IsDebugEnabled() {
		cfg.Log.Debug("Opening connection [" + c.id + "]")
	}
	return c
}

// Prepare implements driver.Conn.
func (c *otelConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// Close implements driver.Conn.
func (c *otelConn) Close() error {
	if c.cfg.Log.IsDebugEnabled() {
		c.cfg.Log.Debug("Closing connection [" + c.id + "]")
	}
	return c.conn.Close()
}

// Begin implements driver.Conn.
// Deprecated: Use BeginTx instead. This exists for driver.Conn interface compatibility.
func (c *otelConn) Begin() (driver.Tx, error) {
	tx, err := c.conn.Begin() //nolint:staticcheck // Required for driver.Conn interface
	if err != nil {
		return nil, err
	}
	return newOtelTx(context.Background(), tx, c.cfg, c.id), nil
}

// PrepareContext implements driver.ConnPrepareContext.
// The statement text is logged when prepared; its arguments are logged on
// every execution.
func (c *otelConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	errctx.FromContext(ctx).SQL(query)

	conn := sqllog.WrapConnection(connAdapter{conn: c.conn, system: c.cfg.DBSystem}, c.cfg.Log, sqllog.DepthFromContext(ctx))
	ps, err := conn.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	return newOtelStmt(ps, c.cfg, query, c.id), nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *otelConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	start := time.Now()
	parent := ctx
	ctx, span := c.cfg.Tracer.Start(ctx, "BEGIN",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(c.cfg.connAttributes(c.id)...),
	)
	defer span.End()

	var tx driver.Tx
	var err error

	if beginner, ok := c.conn.(driver.ConnBeginTx); ok {
		tx, err = beginner.BeginTx(ctx, opts)
	} else {
		tx, err = c.conn.Begin() //nolint:staticcheck // Fallback for older drivers
	}

	// Record metrics
	c.cfg.Metrics.recordQueryDuration(ctx, time.Since(start), "BEGIN", c.cfg.baseAttributes(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if c.cfg.Log.IsDebugEnabled() {
		c.cfg.Log.Debug("Beginning transaction on connection [" + c.id + "]")
	}
	return newOtelTx(parent, tx, c.cfg, c.id), nil
}

// ExecContext implements driver.ExecerContext.
func (c *otelConn) ExecContext(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Result, error) {
	// Let database/sql fall back to prepare and execute
	if _, ok := c.conn.(driver.ExecerContext); !ok {
		return nil, driver.ErrSkip
	}

	start := time.Now()
	operation := extractOperation(query)

	ctx, span := c.cfg.Tracer.Start(ctx, spanName(query),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(c.cfg.queryAttributes(query, c.id)...),
	)
	defer span.End()

	errctx.FromContext(ctx).SQL(query)

	stmt := sqllog.WrapStatement(&connStatement{conn: c.conn, system: c.cfg.DBSystem}, c.cfg.Log, sqllog.DepthFromContext(ctx))
	result, err := stmt.ExecuteUpdate(ctx, query, args)

	// Record metrics
	c.cfg.Metrics.recordQueryDuration(
		ctx,
		time.Since(start),
		operation,
		c.cfg.baseAttributes(),
		err,
	)

	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return result, nil
}

// QueryContext implements driver.QueryerContext.
// Rows returned are logged as they are read.
func (c *otelConn) QueryContext(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Rows, error) {
	// Fallback: let database/sql handle it
	if _, ok := c.conn.(driver.QueryerContext); !ok {
		return nil, driver.ErrSkip
	}

	start := time.Now()
	operation := extractOperation(query)

	ctx, span := c.cfg.Tracer.Start(ctx, spanName(query),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(c.cfg.queryAttributes(query, c.id)...),
	)
	defer span.End()

	errctx.FromContext(ctx).SQL(query)

	depth := sqllog.DepthFromContext(ctx)
	stmt := sqllog.WrapStatement(&connStatement{conn: c.conn, system: c.cfg.DBSystem}, c.cfg.Log, depth)
	rs, err := stmt.ExecuteQuery(ctx, query, args)

	// Record metrics
	c.cfg.Metrics.recordQueryDuration(
		ctx,
		time.Since(start),
		operation,
		c.cfg.baseAttributes(),
		err,
	)

	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return c.cfg.loggedRows(ctx, rs, operation, depth), nil
}

// Ping implements driver.Pinger.
func (c *otelConn) Ping(ctx context.Context) error {
	start := time.Now()
	ctx, span := c.cfg.Tracer.Start(ctx, "PING",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(c.cfg.connAttributes(c.id)...),
	)
	defer span.End()

	var err error
	if pinger, ok := c.conn.(driver.Pinger); ok {
		err = pinger.Ping(ctx)
	}

	// Record metrics
	c.cfg.Metrics.recordQueryDuration(ctx, time.Since(start), "PING", c.cfg.baseAttributes(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// ResetSession implements driver.SessionResetter.
func (c *otelConn) ResetSession(ctx context.Context) error {
	if resetter, ok := c.conn.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}
	return nil
}

// IsValid implements driver.Validator.
func (c *otelConn) IsValid() bool {
	if validator, ok := c.conn.(driver.Validator); ok {
		return validator.IsValid()
	}
	return true
}

// CheckNamedValue implements driver.NamedValueChecker so the wrapped
// driver keeps converting its own argument types.
func (c *otelConn) CheckNamedValue(nv *driver.NamedValue) error {
	if checker, ok := c.conn.(driver.NamedValueChecker); ok {
		return checker.CheckNamedValue(nv)
	}
	return driver.ErrSkip
}

// recordSpanError marks span as failed. driver.ErrSkip is not a failure:
// database/sql retries the call through a prepared statement.
func recordSpanError(span trace.Span, err error) {
	if errors.Is(err, driver.ErrSkip) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// loggedRows exposes a logged cursor to database/sql and reports how many
// rows were read once it is closed.
func (cfg *config) loggedRows(
	ctx context.Context,
	rs sqllog.ResultSet,
	operation string,
	depth int,
) driver.Rows {
	rewrap := func(next sqllog.ResultSet) sqllog.ResultSet {
		return sqllog.WrapResultSet(next, cfg.Log, depth)
	}
	onClose := func(rows int) {
		cfg.Metrics.recordRowsReturned(ctx, int64(rows), operation, cfg.baseAttributes())
	}
	return newLoggedRows(rs, rewrap, onClose)
}

// baseAttributes returns the base attributes for all spans and metrics.
func (cfg *config) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if cfg.DBSystem != "" {
		attrs = append(attrs, attribute.String("db.system", cfg.DBSystem))
	}
	if cfg.DBName != "" {
		attrs = append(attrs, attribute.String("db.name", cfg.DBName))
	}
	if cfg.InstanceName != "" {
		attrs = append(attrs, attribute.String("db.instance", cfg.InstanceName))
	}
	return attrs
}

// connAttributes returns the base attributes plus the connection id.
// Use it for spans only, never for metric attributes.
func (cfg *config) connAttributes(connID string) []attribute.KeyValue {
	attrs := cfg.baseAttributes()
	if connID != "" {
		attrs = append(attrs, attribute.String("db.connection.id", connID))
	}
	return attrs
}

// queryAttributes returns attributes for query spans.
func (cfg *config) queryAttributes(query, connID string) []attribute.KeyValue {
	attrs := cfg.connAttributes(connID)

	if !cfg.DisableQuery && query != "" {
		sanitized := query
		if cfg.QuerySanitizer != nil {
			sanitized = cfg.QuerySanitizer(query)
		}
		attrs = append(attrs, attribute.String("db.statement", sanitized))
	}

	// Extract operation from query
	op := extractOperation(query)
	if op != "" {
		attrs = append(attrs, attribute.String("db.operation", op))
	}

	return attrs
}

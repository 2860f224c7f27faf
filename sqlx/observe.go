package sqlx

import (
	"context"
	"strings"
	"time"

	"github.com/kroma-labs/sqlscope/errctx"
	"github.com/kroma-labs/sqlscope/sqlerr"
	scopesql "github.com/kroma-labs/sqlscope/sql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Activities and report headlines used in error contexts.
const (
	activityQuery    = "executing a query"
	activityUpdate   = "executing an update"
	activityPrepare  = "preparing a statement"
	activityBegin    = "starting a transaction"
	activityCommit   = "committing a transaction"
	activityRollback = "rolling back a transaction"
	activityPing     = "checking the connection"

	msgQuery    = "Error querying database."
	msgUpdate   = "Error updating database."
	msgPrepare  = "Error preparing statement."
	msgBegin    = "Error starting transaction."
	msgCommit   = "Error committing transaction."
	msgRollback = "Error rolling back transaction."
	msgPing     = "Error pinging database."
)

// call describes one instrumented method invocation.
type call struct {
	// method is the sqlx method, e.g. "Get" or "NamedStmt.Exec".
	method string
	query  string

	// operation overrides the operation taken from query, for calls
	// without SQL such as BEGIN or PING.
	operation string

	activity string
	message  string
}

func queryCall(method, query string) call {
	return call{method: method, query: query, activity: activityQuery, message: msgQuery}
}

func updateCall(method, query string) call {
	return call{method: method, query: query, activity: activityUpdate, message: msgUpdate}
}

func prepareCall(method, query string) call {
	return call{
		method:    method,
		query:     query,
		operation: "PREPARE",
		activity:  activityPrepare,
		message:   msgPrepare,
	}
}

// observe runs fn under a span and a nested error context, records its
// duration and turns a failure into a persistence error that carries the
// rendered context. The caller's error context is restored afterwards.
func (cfg *config) observe(ctx context.Context, c call, fn func(context.Context) error) error {
	start := time.Now()
	operation := c.operation
	if operation == "" {
		operation = scopesql.Operation(c.query)
	}

	ec := errctx.FromContext(ctx).Store()
	defer ec.Recall()

	ec.Resource(cfg.resource()).
		Object("sqlx." + c.method).
		Activity(c.activity)
	if c.query != "" {
		ec.SQL(c.query)
	}

	ctx, span := cfg.Tracer.Start(ctx, spanName(c.method, operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(cfg.queryAttributes(c.query, operation)...),
	)
	defer span.End()

	err := fn(ctx)

	cfg.Metrics.recordQueryDuration(ctx, time.Since(start), c.method, operation, cfg.baseAttributes(), err)

	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return sqlerr.WrapContext(ec, c.message, err)
}

// spanName is "sqlx.<method>: <operation>", or "sqlx.<method>" when the
// operation is unknown.
func spanName(method, operation string) string {
	if operation == "" {
		return "sqlx." + method
	}
	return "sqlx." + method + ": " + operation
}

// resource names the database for error reports, e.g. "postgresql/users (primary)".
func (cfg *config) resource() string {
	var parts []string
	if cfg.DBSystem != "" {
		parts = append(parts, cfg.DBSystem)
	}
	if cfg.DBName != "" {
		parts = append(parts, cfg.DBName)
	}
	resource := strings.Join(parts, "/")
	if cfg.InstanceName != "" {
		if resource == "" {
			return cfg.InstanceName
		}
		resource += " (" + cfg.InstanceName + ")"
	}
	return resource
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

// queryAttributes returns attributes for query spans.
func (cfg *config) queryAttributes(query, operation string) []attribute.KeyValue {
	attrs := cfg.baseAttributes()

	if !cfg.DisableQuery && query != "" {
		sanitized := query
		if cfg.QuerySanitizer != nil {
			sanitized = cfg.QuerySanitizer(query)
		}
		attrs = append(attrs, attribute.String("db.statement", sanitized))
	}
	if operation != "" {
		attrs = append(attrs, attribute.String("db.operation", operation))
	}

	return attrs
}

package sqlx

import (
	"github.com/kroma-labs/sqlscope/logging"
	scopesql "github.com/kroma-labs/sqlscope/sql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// scope is the instrumentation scope name for OpenTelemetry.
const scope = "github.com/kroma-labs/sqlscope/sqlx"

// config holds the configuration for instrumentation.
type config struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	Tracer  trace.Tracer
	Meter   metric.Meter
	Metrics *metrics

	// DBSystem, DBName and InstanceName label spans and metrics and name
	// the resource in error reports.
	DBSystem     string
	DBName       string
	InstanceName string

	// QuerySanitizer sanitizes SQL queries before adding to spans.
	QuerySanitizer func(query string) string

	// DisableQuery disables recording of SQL queries in spans.
	DisableQuery bool

	// Log is handed to the driver wrapper for statement logging.
	// Nil means the driver wrapper picks its default.
	Log logging.Log

	// Retry controls how Connect retries the initial ping.
	Retry ConnectRetryConfig
}

// newConfig creates a new config with defaults and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
		Retry:          NoConnectRetry(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	return cfg
}

// driverOptions translates cfg into options for the driver wrapper so
// both layers report the same attributes.
func (cfg *config) driverOptions() []scopesql.Option {
	opts := []scopesql.Option{
		scopesql.WithTracerProvider(cfg.TracerProvider),
		scopesql.WithMeterProvider(cfg.MeterProvider),
		scopesql.WithDBSystem(cfg.DBSystem),
		scopesql.WithDBName(cfg.DBName),
		scopesql.WithInstanceName(cfg.InstanceName),
	}
	if cfg.QuerySanitizer != nil {
		opts = append(opts, scopesql.WithQuerySanitizer(cfg.QuerySanitizer))
	}
	if cfg.DisableQuery {
		opts = append(opts, scopesql.WithDisableQuery())
	}
	if cfg.Log != nil {
		opts = append(opts, scopesql.WithLogger(cfg.Log))
	}
	return opts
}

// Option configures the instrumentation.
type Option func(*config)

// WithTracerProvider sets a custom tracer provider.
// If not called, the global provider from otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
// If not called, the global provider from otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.MeterProvider = mp
	}
}

// WithDBSystem sets the database system identifier, e.g. "postgresql".
// It is added as the "db.system" attribute on all spans.
//
// Example:
//
//	db, _ := scopesqlx.Open("postgres", dsn,
//	    scopesqlx.WithDBSystem("postgresql"),
//	)
func WithDBSystem(system string) Option {
	return func(cfg *config) {
		cfg.DBSystem = system
	}
}

// WithDBName sets the database name being accessed.
func WithDBName(name string) Option {
	return func(cfg *config) {
		cfg.DBName = name
	}
}

// WithInstanceName sets an identifier for this specific database connection,
// such as "primary" or "replica-1".
//
// Example:
//
//	writerDB, _ := scopesqlx.Open("postgres", primaryDSN,
//	    scopesqlx.WithInstanceName("primary"),
//	)
//	readerDB, _ := scopesqlx.Open("postgres", replicaDSN,
//	    scopesqlx.WithInstanceName("replica"),
//	)
func WithInstanceName(name string) Option {
	return func(cfg *config) {
		cfg.InstanceName = name
	}
}

// WithQuerySanitizer sets a function that masks literals before queries are
// added to spans.
//
//	db, _ := scopesqlx.Open("postgres", dsn,
//	    scopesqlx.WithQuerySanitizer(scopesqlx.DefaultQuerySanitizer),
//	)
func WithQuerySanitizer(fn func(string) string) Option {
	return func(cfg *config) {
		cfg.QuerySanitizer = fn
	}
}

// WithDisableQuery keeps the "db.statement" attribute off spans.
// "db.operation" is still recorded.
func WithDisableQuery() Option {
	return func(cfg *config) {
		cfg.DisableQuery = true
	}
}

// WithLogger sets the logger that prints statements, parameters and rows.
// It only takes effect for databases opened by Open or Connect.
func WithLogger(log logging.Log) Option {
	return func(cfg *config) {
		cfg.Log = log
	}
}

// WithConnectRetry makes Connect retry the initial ping with exponential
// backoff.
//
// Example:
//
//	db, err := scopesqlx.Connect(ctx, "postgres", dsn,
//	    scopesqlx.WithConnectRetry(scopesqlx.DefaultConnectRetryConfig()),
//	)
func WithConnectRetry(retry ConnectRetryConfig) Option {
	return func(cfg *config) {
		cfg.Retry = retry
	}
}

// DefaultQuerySanitizer replaces literal values with placeholders.
// See the sql package for details.
var DefaultQuerySanitizer = scopesql.DefaultQuerySanitizer

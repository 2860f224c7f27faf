package database

import (
	"context"
	"os"
	"time"

	"github.com/kroma-labs/sqlscope/example/sqlx/internal/config"
	"github.com/kroma-labs/sqlscope/logging"
	scopesql "github.com/kroma-labs/sqlscope/sql"
	scopesqlx "github.com/kroma-labs/sqlscope/sqlx"
	_ "github.com/lib/pq" // Register postgres driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"go.opentelemetry.io/otel"
)

// DB wraps the sqlx database connection with sqlscope instrumentation
type DB struct {
	*scopesqlx.DB
	log zerolog.Logger
}

// New connects to the database, waiting for it to accept connections, and
// registers pool metrics with both OpenTelemetry and reg.
func New(ctx context.Context, reg prometheus.Registerer) (*DB, error) {
	appLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, err
	}
	logCfg := logging.DefaultConfig()
	logCfg.Backend = logging.BackendZerolog
	logCfg.Level = level
	logCfg.Format = "console"

	impls, err := logCfg.Implementations()
	if err != nil {
		return nil, err
	}
	factory := logging.NewFactory(impls...)
	logging.SetDefault(factory)

	stmtLog, err := factory.GetLog("example.users")
	if err != nil {
		return nil, err
	}

	db, err := scopesqlx.Connect(ctx, "postgres", config.DefaultDSN,
		scopesqlx.WithDBSystem(config.DefaultDBSystem),
		scopesqlx.WithDBName(config.DefaultDBName),
		scopesqlx.WithInstanceName(config.DefaultInstance),
		scopesqlx.WithLogger(stmtLog),
		scopesqlx.WithConnectRetry(scopesqlx.DefaultConnectRetryConfig()),
	)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(config.DefaultMaxOpen)
	db.SetMaxIdleConns(config.DefaultMaxIdle)
	db.SetConnMaxLifetime(time.Duration(config.DefaultMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(config.DefaultMaxIdleTime) * time.Second)

	// Attributes (db.system, db.name) are detected from the driver
	err = scopesqlx.RecordPoolMetrics(db, otel.GetMeterProvider().Meter("example-app"))
	if err != nil {
		appLog.Warn().Err(err).Msg("failed to register pool metrics")
	}
	if err := reg.Register(scopesql.NewStatsCollector(db.DB.DB, config.DefaultDBName)); err != nil {
		appLog.Warn().Err(err).Msg("failed to register stats collector")
	}

	return &DB{DB: db, log: appLog}, nil
}

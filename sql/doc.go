// Package sql provides a database/sql driver wrapper that logs every
// statement, its parameters and the rows it returns, and adds
// OpenTelemetry tracing and metrics.
//
// # Features
//
//   - Statement logging: "Preparing:" and "Executing:" lines with the SQL,
//     "Parameters:" with each value and its Go type, "Columns:", "Row:" and
//     "Total:" lines as rows are read
//   - OpenTelemetry tracing with a span per query and per transaction step
//   - Metrics for query latency, rows returned and pool usage, through
//     OpenTelemetry or a Prometheus collector
//   - The SQL of the failing call is kept in the errctx error context
//   - Full compatibility with the database/sql interface
//
// # Quick Start
//
//	import scopesql "github.com/kroma-labs/sqlscope/sql"
//
//	db, err := scopesql.Open("postgres", dsn,
//	    scopesql.WithDBSystem("postgresql"),
//	    scopesql.WithDBName("myapp"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	rows, err := db.QueryContext(ctx, "SELECT id, name FROM users WHERE id = $1", 7)
//
// With the logger at trace level this prints:
//
//	==>  Executing: SELECT id, name FROM users WHERE id = $1
//	==> Parameters: 7(int64)
//	<==    Columns: id, name
//	<==        Row: 7, alice
//	<==      Total: 1
//
// Statements and parameters are logged at debug level, columns and rows at
// trace level. The logger comes from logging.Default() unless WithLogger
// is given.
//
// # Driver Registration
//
// For more control, register a wrapped driver:
//
//	driver := scopesql.WrapDriver(&pq.Driver{},
//	    scopesql.WithDBSystem("postgresql"),
//	)
//	sql.Register("postgres-instrumented", driver)
//
//	db, _ := sql.Open("postgres-instrumented", dsn)
//
// Open registers one wrapped driver per driver name, system, database,
// instance name and logger. Later calls with the same values reuse the
// first registration. Every distinct WithLogger logger adds a registration
// that lives for the rest of the process, so pass long-lived loggers.
//
// # Configuration Options
//
//	db, _ := scopesql.Open("postgres", dsn,
//	    scopesql.WithDBSystem("postgresql"),     // Required: database type
//	    scopesql.WithDBName("users_db"),         // Database name
//	    scopesql.WithInstanceName("primary"),    // Connection identifier
//	    scopesql.WithQuerySanitizer(sanitizer),  // Mask values in spans
//	    scopesql.WithDisableQuery(),             // Omit queries from spans
//	    scopesql.WithLogger(log),                // Statement logger
//	)
//
// # Plain Connections
//
// NewStatement logs statements run on a *sql.DB, *sql.Conn or *sql.Tx that
// was not opened through this package.
//
// # Observability
//
// Traces:
//   - Span per query named after the operation
//   - Attributes: db.system, db.name, db.instance, db.statement,
//     db.operation, db.connection.id
//
// Metrics:
//   - db.client.operation.duration (histogram by operation)
//   - db.client.rows.returned (counter by operation)
//   - pool gauges through RecordPoolMetrics or NewStatsCollector
package sql

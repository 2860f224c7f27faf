// Package sqlx wraps jmoiron/sqlx with statement logging, OpenTelemetry
// tracing and metrics, and error reports that say what was going on.
//
// # Features
//
//   - Open and Connect go through the sql package's driver wrapper, so
//     every statement, parameter list and row is logged
//   - Span per sqlx call (sqlx.Get, sqlx.Tx.Exec, ...) with the driver
//     spans nested below it
//   - Failed calls return a *sqlerr.Error describing the database, the
//     method, the activity and the SQL, wrapping the driver error
//   - Connect can retry the first ping with exponential backoff
//   - Full sqlx API support (Get, Select, NamedExec, etc.)
//
// # Quick Start
//
//	import scopesqlx "github.com/kroma-labs/sqlscope/sqlx"
//
//	db, err := scopesqlx.Connect(ctx, "postgres", dsn,
//	    scopesqlx.WithDBSystem("postgresql"),
//	    scopesqlx.WithDBName("mydb"),
//	    scopesqlx.WithConnectRetry(scopesqlx.DefaultConnectRetryConfig()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	var user User
//	err = db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", 1)
//
// # Error Reports
//
// A failing call renders its error context into the error message:
//
//	### Error querying database.
//	### The error may exist in postgresql/mydb
//	### The error may involve sqlx.Get
//	### The error occurred while executing a query
//	### SQL: SELECT * FROM users WHERE id = $1
//	### Cause: pq: relation "users" does not exist
//
// errors.Is and errors.As still reach the driver error, including
// sql.ErrNoRows.
//
// # Transactions
//
//	tx, err := db.BeginTxx(ctx, nil)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_, err = tx.ExecContext(ctx, "UPDATE accounts SET balance = balance - $1", amount)
//	if err != nil {
//	    return err
//	}
//
//	return tx.Commit()
//
// Commit and Rollback reset the error context attached to the context
// BeginTxx received.
//
// # Observability
//
// Traces:
//   - Span per call: sqlx.Get: SELECT, sqlx.Tx.Commit: COMMIT, ...
//   - Attributes: db.system, db.name, db.instance, db.statement, db.operation
//
// Metrics:
//   - db.client.sqlx.duration (histogram by method and operation)
//   - pool gauges through RecordPoolMetrics
package sqlx

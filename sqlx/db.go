package sqlx

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kroma-labs/sqlscope/errctx"
	scopesql "github.com/kroma-labs/sqlscope/sql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DB wraps *sqlx.DB with tracing, metrics and error context.
// Failed calls return a *sqlerr.Error whose message names the database,
// the method, the activity and the SQL; errors.Is still reaches the driver
// error.
type DB struct {
	*sqlx.DB
	cfg *config

	// wrapped reports whether the driver was wrapped by the sql package,
	// which then logs statements and rows.
	wrapped bool
}

// Open opens a database through the sql package's driver wrapper, so
// statements, parameters and rows are logged, and wraps it with sqlx.
//
// Example:
//
//	db, err := scopesqlx.Open("postgres", dsn,
//	    scopesqlx.WithDBSystem("postgresql"),
//	    scopesqlx.WithDBName("mydb"),
//	)
func Open(driverName, dsn string, opts ...Option) (*DB, error) {
	cfg := newConfig(opts...)

	db, err := scopesql.Open(driverName, dsn, cfg.driverOptions()...)
	if err != nil {
		return nil, err
	}

	return &DB{DB: sqlx.NewDb(db, driverName), cfg: cfg, wrapped: true}, nil
}

// Connect opens a database and verifies it with a ping. With
// WithConnectRetry the ping is retried with exponential backoff.
//
// Example:
//
//	db, err := scopesqlx.Connect(ctx, "postgres", dsn,
//	    scopesqlx.WithDBSystem("postgresql"),
//	    scopesqlx.WithConnectRetry(scopesqlx.DefaultConnectRetryConfig()),
//	)
func Connect(ctx context.Context, driverName, dsn string, opts ...Option) (*DB, error) {
	db, err := Open(driverName, dsn, opts...)
	if err != nil {
		return nil, err
	}

	if err := db.connect(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// connect pings db under a PING span, adding a retry event per failed attempt.
func (db *DB) connect(ctx context.Context) error {
	return db.cfg.observe(ctx, db.pingCall("Connect"), func(ctx context.Context) error {
		span := trace.SpanFromContext(ctx)
		return db.cfg.Retry.ping(ctx, db.DB, func(attempt int, err error, next time.Duration) {
			span.AddEvent("retry", trace.WithAttributes(
				attribute.Int("retry.attempt", attempt),
				attribute.Int64("retry.delay_ms", next.Milliseconds()),
				attribute.String("retry.error", err.Error()),
			))
		})
	})
}

// NewDB wraps an existing *sql.DB with sqlx and instrumentation.
// Statement logging only happens if db was opened through the sql package.
//
// Example:
//
//	sqlDB, _ := scopesql.Open("postgres", dsn)
//	db := scopesqlx.NewDB(sqlDB, "postgres",
//	    scopesqlx.WithDBSystem("postgresql"),
//	)
func NewDB(db *sql.DB, driverName string, opts ...Option) *DB {
	return &DB{
		DB:  sqlx.NewDb(db, driverName),
		cfg: newConfig(opts...),
	}
}

// MustConnect is like Connect but panics on error.
func MustConnect(ctx context.Context, driverName, dsn string, opts ...Option) *DB {
	db, err := Connect(ctx, driverName, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

// MustOpen is like Open but panics on error.
func MustOpen(driverName, dsn string, opts ...Option) *DB {
	db, err := Open(driverName, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

func (db *DB) pingCall(method string) call {
	return call{method: method, operation: "PING", activity: activityPing, message: msgPing}
}

// GetContext executes a query that is expected to return at most one row
// and scans the result into dest. sql.ErrNoRows stays reachable through
// errors.Is.
func (db *DB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return db.cfg.observe(ctx, queryCall("Get", query), func(ctx context.Context) error {
		return db.DB.GetContext(ctx, dest, query, args...)
	})
}

// SelectContext executes a query and scans all results into dest.
func (db *DB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return db.cfg.observe(ctx, queryCall("Select", query), func(ctx context.Context) error {
		return db.DB.SelectContext(ctx, dest, query, args...)
	})
}

// NamedExecContext executes a named query.
func (db *DB) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	var result sql.Result
	err := db.cfg.observe(ctx, updateCall("NamedExec", query), func(ctx context.Context) error {
		var err error
		result, err = db.DB.NamedExecContext(ctx, query, arg)
		return err
	})
	return result, err
}

// NamedQueryContext executes a named query and returns rows.
func (db *DB) NamedQueryContext(ctx context.Context, query string, arg any) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := db.cfg.observe(ctx, queryCall("NamedQuery", query), func(ctx context.Context) error {
		var err error
		rows, err = db.DB.NamedQueryContext(ctx, query, arg)
		return err
	})
	return rows, err
}

// QueryxContext executes a query and returns sqlx.Rows.
func (db *DB) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := db.cfg.observe(ctx, queryCall("Queryx", query), func(ctx context.Context) error {
		var err error
		rows, err = db.DB.QueryxContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// QueryRowxContext executes a query and returns a single sqlx.Row.
// Errors surface on Scan, so they are not wrapped.
func (db *DB) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	var row *sqlx.Row
	_ = db.cfg.observe(ctx, queryCall("QueryRowx", query), func(ctx context.Context) error {
		row = db.DB.QueryRowxContext(ctx, query, args...)
		return nil
	})
	return row
}

// ExecContext executes a query without returning rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := db.cfg.observe(ctx, updateCall("Exec", query), func(ctx context.Context) error {
		var err error
		result, err = db.DB.ExecContext(ctx, query, args...)
		return err
	})
	return result, err
}

// QueryContext executes a query and returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := db.cfg.observe(ctx, queryCall("Query", query), func(ctx context.Context) error {
		var err error
		rows, err = db.DB.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// QueryRowContext executes a query and returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	var row *sql.Row
	_ = db.cfg.observe(ctx, queryCall("QueryRow", query), func(ctx context.Context) error {
		row = db.DB.QueryRowContext(ctx, query, args...)
		return nil
	})
	return row
}

// BeginTxx starts an instrumented transaction. Commit and Rollback close
// the error context's unit of work.
func (db *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	if !errctx.HasSlot(ctx) {
		ctx = errctx.NewContext(ctx)
	}

	var tx *sqlx.Tx
	c := call{method: "BeginTxx", operation: "BEGIN", activity: activityBegin, message: msgBegin}
	err := db.cfg.observe(ctx, c, func(ctx context.Context) error {
		var err error
		tx, err = db.DB.BeginTxx(ctx, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Tx{Tx: tx, cfg: db.cfg, ctx: ctx}, nil
}

// Beginx starts an instrumented transaction with default options.
func (db *DB) Beginx() (*Tx, error) {
	return db.BeginTxx(context.Background(), nil)
}

// MustBeginTx starts a transaction and panics on error.
func (db *DB) MustBeginTx(ctx context.Context, opts *sql.TxOptions) *Tx {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		panic(err)
	}
	return tx
}

// MustBegin starts a transaction and panics on error.
func (db *DB) MustBegin() *Tx {
	return db.MustBeginTx(context.Background(), nil)
}

// PrepareNamedContext prepares an instrumented named statement.
func (db *DB) PrepareNamedContext(ctx context.Context, query string) (*NamedStmt, error) {
	var stmt *sqlx.NamedStmt
	err := db.cfg.observe(ctx, prepareCall("PrepareNamed", query), func(ctx context.Context) error {
		var err error
		stmt, err = db.DB.PrepareNamedContext(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &NamedStmt{NamedStmt: stmt, cfg: db.cfg, query: query}, nil
}

// PrepareNamed prepares a named statement without context.
func (db *DB) PrepareNamed(query string) (*NamedStmt, error) {
	return db.PrepareNamedContext(context.Background(), query)
}

// PreparexContext prepares an instrumented statement.
func (db *DB) PreparexContext(ctx context.Context, query string) (*Stmt, error) {
	var stmt *sqlx.Stmt
	err := db.cfg.observe(ctx, prepareCall("Preparex", query), func(ctx context.Context) error {
		var err error
		stmt, err = db.DB.PreparexContext(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Stmt{Stmt: stmt, cfg: db.cfg, query: query}, nil
}

// Preparex prepares a statement without context.
func (db *DB) Preparex(query string) (*Stmt, error) {
	return db.PreparexContext(context.Background(), query)
}

// Unsafe returns a version of DB that silently ignores missing destination fields.
func (db *DB) Unsafe() *DB {
	return &DB{
		DB:      db.DB.Unsafe(),
		cfg:     db.cfg,
		wrapped: db.wrapped,
	}
}

// PingContext verifies the database connection.
func (db *DB) PingContext(ctx context.Context) error {
	return db.cfg.observe(ctx, db.pingCall("Ping"), func(ctx context.Context) error {
		return db.DB.PingContext(ctx)
	})
}

package sqlx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/kroma-labs/sqlscope/errctx"
)

// Tx wraps *sqlx.Tx with tracing, metrics and error context.
// Commit and Rollback spans are children of the context BeginTxx got.
type Tx struct {
	*sqlx.Tx
	cfg *config
	ctx context.Context
}

// GetContext executes a query that returns at most one row and scans into dest.
func (tx *Tx) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return tx.cfg.observe(ctx, queryCall("Tx.Get", query), func(ctx context.Context) error {
		return tx.Tx.GetContext(ctx, dest, query, args...)
	})
}

// SelectContext executes a query and scans all results into dest.
func (tx *Tx) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return tx.cfg.observe(ctx, queryCall("Tx.Select", query), func(ctx context.Context) error {
		return tx.Tx.SelectContext(ctx, dest, query, args...)
	})
}

// NamedExecContext executes a named query within the transaction.
func (tx *Tx) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	var result sql.Result
	err := tx.cfg.observe(ctx, updateCall("Tx.NamedExec", query), func(ctx context.Context) error {
		var err error
		result, err = tx.Tx.NamedExecContext(ctx, query, arg)
		return err
	})
	return result, err
}

// NamedQuery executes a named query within the transaction.
// sqlx has no context variant, so the transaction's context is used.
func (tx *Tx) NamedQuery(query string, arg any) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := tx.cfg.observe(tx.context(), queryCall("Tx.NamedQuery", query), func(context.Context) error {
		var err error
		rows, err = tx.Tx.NamedQuery(query, arg)
		return err
	})
	return rows, err
}

// QueryxContext executes a query and returns sqlx.Rows.
func (tx *Tx) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := tx.cfg.observe(ctx, queryCall("Tx.Queryx", query), func(ctx context.Context) error {
		var err error
		rows, err = tx.Tx.QueryxContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// QueryRowxContext executes a query and returns a single sqlx.Row.
func (tx *Tx) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	var row *sqlx.Row
	_ = tx.cfg.observe(ctx, queryCall("Tx.QueryRowx", query), func(ctx context.Context) error {
		row = tx.Tx.QueryRowxContext(ctx, query, args...)
		return nil
	})
	return row
}

// ExecContext executes a query without returning rows.
func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := tx.cfg.observe(ctx, updateCall("Tx.Exec", query), func(ctx context.Context) error {
		var err error
		result, err = tx.Tx.ExecContext(ctx, query, args...)
		return err
	})
	return result, err
}

// QueryContext executes a query and returns rows.
func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := tx.cfg.observe(ctx, queryCall("Tx.Query", query), func(ctx context.Context) error {
		var err error
		rows, err = tx.Tx.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// QueryRowContext executes a query and returns a single row.
func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	var row *sql.Row
	_ = tx.cfg.observe(ctx, queryCall("Tx.QueryRow", query), func(ctx context.Context) error {
		row = tx.Tx.QueryRowContext(ctx, query, args...)
		return nil
	})
	return row
}

// PrepareNamedContext prepares a named statement within the transaction.
func (tx *Tx) PrepareNamedContext(ctx context.Context, query string) (*NamedStmt, error) {
	var stmt *sqlx.NamedStmt
	err := tx.cfg.observe(ctx, prepareCall("Tx.PrepareNamed", query), func(ctx context.Context) error {
		var err error
		stmt, err = tx.Tx.PrepareNamedContext(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &NamedStmt{NamedStmt: stmt, cfg: tx.cfg, query: query}, nil
}

// PrepareNamed prepares a named statement within the transaction.
func (tx *Tx) PrepareNamed(query string) (*NamedStmt, error) {
	return tx.PrepareNamedContext(tx.context(), query)
}

// PreparexContext prepares a statement within the transaction.
func (tx *Tx) PreparexContext(ctx context.Context, query string) (*Stmt, error) {
	var stmt *sqlx.Stmt
	err := tx.cfg.observe(ctx, prepareCall("Tx.Preparex", query), func(ctx context.Context) error {
		var err error
		stmt, err = tx.Tx.PreparexContext(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Stmt{Stmt: stmt, cfg: tx.cfg, query: query}, nil
}

// Preparex prepares a statement within the transaction.
func (tx *Tx) Preparex(query string) (*Stmt, error) {
	return tx.PreparexContext(tx.context(), query)
}

// StmtxContext returns a version of the prepared statement bound to this transaction.
func (tx *Tx) StmtxContext(ctx context.Context, stmt *Stmt) *Stmt {
	return &Stmt{
		Stmt:  tx.Tx.StmtxContext(ctx, stmt.Stmt),
		cfg:   tx.cfg,
		query: stmt.query,
	}
}

// Stmtx returns a version of the prepared statement bound to this transaction.
func (tx *Tx) Stmtx(stmt *Stmt) *Stmt {
	return tx.StmtxContext(tx.context(), stmt)
}

// NamedStmtContext returns a version of the named statement bound to this transaction.
func (tx *Tx) NamedStmtContext(ctx context.Context, stmt *NamedStmt) *NamedStmt {
	return &NamedStmt{
		NamedStmt: tx.Tx.NamedStmtContext(ctx, stmt.NamedStmt),
		cfg:       tx.cfg,
		query:     stmt.query,
	}
}

// NamedStmt returns a version of the named statement bound to this transaction.
func (tx *Tx) NamedStmt(stmt *NamedStmt) *NamedStmt {
	return tx.NamedStmtContext(tx.context(), stmt)
}

// Commit commits the transaction and resets the error context: the unit
// of work is over either way.
func (tx *Tx) Commit() error {
	return tx.end(call{
		method:    "Tx.Commit",
		operation: "COMMIT",
		activity:  activityCommit,
		message:   msgCommit,
	}, tx.Tx.Commit)
}

// Rollback aborts the transaction and resets the error context.
func (tx *Tx) Rollback() error {
	return tx.end(call{
		method:    "Tx.Rollback",
		operation: "ROLLBACK",
		activity:  activityRollback,
		message:   msgRollback,
	}, tx.Tx.Rollback)
}

func (tx *Tx) end(c call, fn func() error) error {
	ctx := tx.context()
	err := tx.cfg.observe(ctx, c, func(context.Context) error {
		return fn()
	})
	errctx.FromContext(ctx).Reset()
	return err
}

// Unsafe returns a version of Tx that silently ignores missing destination fields.
func (tx *Tx) Unsafe() *Tx {
	return &Tx{
		Tx:  tx.Tx.Unsafe(),
		cfg: tx.cfg,
		ctx: tx.ctx,
	}
}

func (tx *Tx) context() context.Context {
	if tx.ctx == nil {
		return context.Background()
	}
	return tx.ctx
}

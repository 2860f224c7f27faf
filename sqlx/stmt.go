package sqlx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Stmt wraps *sqlx.Stmt with tracing, metrics and error context.
type Stmt struct {
	*sqlx.Stmt
	cfg   *config
	query string
}

// GetContext executes the prepared statement for a single row.
func (s *Stmt) GetContext(ctx context.Context, dest any, args ...any) error {
	return s.cfg.observe(ctx, queryCall("Stmt.Get", s.query), func(ctx context.Context) error {
		return s.Stmt.GetContext(ctx, dest, args...)
	})
}

// SelectContext executes the prepared statement and scans all rows.
func (s *Stmt) SelectContext(ctx context.Context, dest any, args ...any) error {
	return s.cfg.observe(ctx, queryCall("Stmt.Select", s.query), func(ctx context.Context) error {
		return s.Stmt.SelectContext(ctx, dest, args...)
	})
}

// ExecContext executes the prepared statement.
func (s *Stmt) ExecContext(ctx context.Context, args ...any) (sql.Result, error) {
	var result sql.Result
	err := s.cfg.observe(ctx, updateCall("Stmt.Exec", s.query), func(ctx context.Context) error {
		var err error
		result, err = s.Stmt.ExecContext(ctx, args...)
		return err
	})
	return result, err
}

// QueryContext executes the prepared statement and returns rows.
func (s *Stmt) QueryContext(ctx context.Context, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := s.cfg.observe(ctx, queryCall("Stmt.Query", s.query), func(ctx context.Context) error {
		var err error
		rows, err = s.Stmt.QueryContext(ctx, args...)
		return err
	})
	return rows, err
}

// QueryRowContext executes the prepared statement for a single row.
func (s *Stmt) QueryRowContext(ctx context.Context, args ...any) *sql.Row {
	var row *sql.Row
	_ = s.cfg.observe(ctx, queryCall("Stmt.QueryRow", s.query), func(ctx context.Context) error {
		row = s.Stmt.QueryRowContext(ctx, args...)
		return nil
	})
	return row
}

// QueryxContext executes the prepared statement and returns sqlx.Rows.
func (s *Stmt) QueryxContext(ctx context.Context, args ...any) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := s.cfg.observe(ctx, queryCall("Stmt.Queryx", s.query), func(ctx context.Context) error {
		var err error
		rows, err = s.Stmt.QueryxContext(ctx, args...)
		return err
	})
	return rows, err
}

// QueryRowxContext executes the prepared statement for a single sqlx.Row.
func (s *Stmt) QueryRowxContext(ctx context.Context, args ...any) *sqlx.Row {
	var row *sqlx.Row
	_ = s.cfg.observe(ctx, queryCall("Stmt.QueryRowx", s.query), func(ctx context.Context) error {
		row = s.Stmt.QueryRowxContext(ctx, args...)
		return nil
	})
	return row
}

// Unsafe returns a version of Stmt that silently ignores missing destination fields.
func (s *Stmt) Unsafe() *Stmt {
	return &Stmt{
		Stmt:  s.Stmt.Unsafe(),
		cfg:   s.cfg,
		query: s.query,
	}
}

// NamedStmt wraps *sqlx.NamedStmt with tracing, metrics and error context.
type NamedStmt struct {
	*sqlx.NamedStmt
	cfg   *config
	query string
}

// GetContext executes the named statement for a single row.
func (ns *NamedStmt) GetContext(ctx context.Context, dest any, arg any) error {
	return ns.cfg.observe(ctx, queryCall("NamedStmt.Get", ns.query), func(ctx context.Context) error {
		return ns.NamedStmt.GetContext(ctx, dest, arg)
	})
}

// SelectContext executes the named statement and scans all rows.
func (ns *NamedStmt) SelectContext(ctx context.Context, dest any, arg any) error {
	return ns.cfg.observe(ctx, queryCall("NamedStmt.Select", ns.query), func(ctx context.Context) error {
		return ns.NamedStmt.SelectContext(ctx, dest, arg)
	})
}

// ExecContext executes the named statement.
func (ns *NamedStmt) ExecContext(ctx context.Context, arg any) (sql.Result, error) {
	var result sql.Result
	err := ns.cfg.observe(ctx, updateCall("NamedStmt.Exec", ns.query), func(ctx context.Context) error {
		var err error
		result, err = ns.NamedStmt.ExecContext(ctx, arg)
		return err
	})
	return result, err
}

// QueryContext executes the named statement and returns rows.
func (ns *NamedStmt) QueryContext(ctx context.Context, arg any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := ns.cfg.observe(ctx, queryCall("NamedStmt.Query", ns.query), func(ctx context.Context) error {
		var err error
		rows, err = ns.NamedStmt.QueryContext(ctx, arg)
		return err
	})
	return rows, err
}

// QueryRowContext executes the named statement for a single row.
func (ns *NamedStmt) QueryRowContext(ctx context.Context, arg any) *sqlx.Row {
	var row *sqlx.Row
	_ = ns.cfg.observe(ctx, queryCall("NamedStmt.QueryRow", ns.query), func(ctx context.Context) error {
		row = ns.NamedStmt.QueryRowContext(ctx, arg)
		return nil
	})
	return row
}

// QueryxContext executes the named statement and returns sqlx.Rows.
func (ns *NamedStmt) QueryxContext(ctx context.Context, arg any) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := ns.cfg.observe(ctx, queryCall("NamedStmt.Queryx", ns.query), func(ctx context.Context) error {
		var err error
		rows, err = ns.NamedStmt.QueryxContext(ctx, arg)
		return err
	})
	return rows, err
}

// QueryRowxContext executes the named statement for a single sqlx.Row.
func (ns *NamedStmt) QueryRowxContext(ctx context.Context, arg any) *sqlx.Row {
	var row *sqlx.Row
	_ = ns.cfg.observe(ctx, queryCall("NamedStmt.QueryRowx", ns.query), func(ctx context.Context) error {
		row = ns.NamedStmt.QueryRowxContext(ctx, arg)
		return nil
	})
	return row
}

// MustExecContext executes the named statement and panics on error.
func (ns *NamedStmt) MustExecContext(ctx context.Context, arg any) sql.Result {
	result, err := ns.ExecContext(ctx, arg)
	if err != nil {
		panic(err)
	}
	return result
}

// Unsafe returns a version of NamedStmt that silently ignores missing fields.
func (ns *NamedStmt) Unsafe() *NamedStmt {
	return &NamedStmt{
		NamedStmt: ns.NamedStmt.Unsafe(),
		cfg:       ns.cfg,
		query:     ns.query,
	}
}

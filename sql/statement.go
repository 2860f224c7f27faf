package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/kroma-labs/sqlscope/sqllog"
)

// Compile-time interface checks.
var (
	_ Queryer = (*sql.DB)(nil)
	_ Queryer = (*sql.Conn)(nil)
	_ Queryer = (*sql.Tx)(nil)

	_ sqllog.Statement = (*sqlStatement)(nil)
	_ sqllog.ResultSet = (*sqlRowsResultSet)(nil)
)

// Queryer runs SQL text. *sql.DB, *sql.Conn and *sql.Tx all satisfy it.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// NewStatement returns a logged statement that runs on q. Use it when a
// plain *sql.DB (one not opened through this package) should still print
// its statements, parameters and rows.
//
// Only WithLogger and WithDBSystem are honored; the telemetry options
// apply to wrapped drivers.
//
// Example:
//
//	stmt := scopesql.NewStatement(db, scopesql.WithLogger(log))
//	rs, err := stmt.ExecuteQuery(ctx, "SELECT id, name FROM users", nil)
//	if err != nil {
//	    return err
//	}
//	defer rs.Close()
//	for {
//	    ok, err := rs.Next()
//	    if err != nil || !ok {
//	        break
//	    }
//	}
func NewStatement(q Queryer, opts ...Option) sqllog.Statement {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Log == nil {
		cfg.Log = defaultLog()
	}
	return sqllog.WrapStatement(&sqlStatement{q: q, system: cfg.DBSystem}, cfg.Log, 1)
}

// sqlStatement runs SQL text through database/sql.
type sqlStatement struct {
	q       Queryer
	system  string
	current sqllog.ResultSet
	batch   []string
}

func (s *sqlStatement) Execute(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (bool, error) {
	if err := s.Close(); err != nil {
		return false, err
	}
	rs, err := s.ExecuteQuery(ctx, query, args)
	if err != nil {
		return false, err
	}
	cols, err := rs.Columns()
	if err != nil || len(cols) == 0 {
		return false, errors.Join(err, rs.Close())
	}
	s.current = rs
	return true, nil
}

func (s *sqlStatement) ExecuteUpdate(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Result, error) {
	return s.q.ExecContext(ctx, query, namedArgs(args)...)
}

func (s *sqlStatement) ExecuteQuery(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (sqllog.ResultSet, error) {
	rows, err := s.q.QueryContext(ctx, query, namedArgs(args)...)
	if err != nil {
		return nil, err
	}
	rs, err := newSQLRowsResultSet(rows, s.system)
	if err != nil {
		return nil, errors.Join(err, rows.Close())
	}
	return rs, nil
}

func (s *sqlStatement) AddBatch(query string) error {
	s.batch = append(s.batch, query)
	return nil
}

func (s *sqlStatement) ExecuteBatch(ctx context.Context) ([]int64, error) {
	defer func() { s.batch = nil }()

	counts := make([]int64, 0, len(s.batch))
	for _, query := range s.batch {
		res, err := s.q.ExecContext(ctx, query)
		if err != nil {
			return counts, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = -1
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func (s *sqlStatement) ResultSet() (sqllog.ResultSet, error) {
	return s.current, nil
}

func (s *sqlStatement) Close() error {
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}

// namedArgs turns driver arguments back into database/sql arguments.
func namedArgs(args []driver.NamedValue) []any {
	out := make([]any, len(args))
	for i, nv := range args {
		if nv.Name != "" {
			out[i] = sql.Named(nv.Name, nv.Value)
			continue
		}
		out[i] = nv.Value
	}
	return out
}

// sqlRowsResultSet reads *sql.Rows one row at a time.
type sqlRowsResultSet struct {
	rows *sql.Rows
	cols []sqllog.Column
	buf  []any
	ptrs []any
}

func newSQLRowsResultSet(rows *sql.Rows, system string) (*sqlRowsResultSet, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	r := &sqlRowsResultSet{
		rows: rows,
		cols: make([]sqllog.Column, len(types)),
		buf:  make([]any, len(types)),
		ptrs: make([]any, len(types)),
	}
	for i, ct := range types {
		r.cols[i] = sqllog.Column{
			Label: ct.Name(),
			Type:  sqllog.TypeFromDatabaseName(system, ct.DatabaseTypeName()),
		}
		r.ptrs[i] = &r.buf[i]
	}
	return r, nil
}

func (r *sqlRowsResultSet) Next() (bool, error) {
	if !r.rows.Next() {
		return false, r.rows.Err()
	}
	if err := r.rows.Scan(r.ptrs...); err != nil {
		return false, err
	}
	return true, nil
}

func (r *sqlRowsResultSet) Columns() ([]sqllog.Column, error) {
	return r.cols, nil
}

func (r *sqlRowsResultSet) Value(i int) (any, error) {
	if i < 0 || i >= len(r.buf) {
		return nil, fmt.Errorf("column index %d out of range [0,%d)", i, len(r.buf))
	}
	return r.buf[i], nil
}

func (r *sqlRowsResultSet) String(i int) (string, error) {
	v, err := r.Value(i)
	if err != nil {
		return "", err
	}
	return displayString(v)
}

func (r *sqlRowsResultSet) Close() error {
	return r.rows.Close()
}

package sql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/kroma-labs/sqlscope/sqllog"
)

// The adapters in this file expose driver objects through the sqllog
// capability sets so the loggers can wrap them, and loggedRows turns a
// logged cursor back into a driver.Rows.

// Compile-time interface checks.
var (
	_ sqllog.Connection        = (*connAdapter)(nil)
	_ sqllog.Statement         = (*connStatement)(nil)
	_ sqllog.PreparedStatement = (*stmtAdapter)(nil)
	_ sqllog.ResultSet         = (*rowsResultSet)(nil)

	_ driver.Rows                           = (*loggedRows)(nil)
	_ driver.RowsNextResultSet              = (*loggedRows)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*loggedRows)(nil)
)

var errCannotDisplay = errors.New("value is not valid text")

// connAdapter presents a driver.Conn as an sqllog.Connection. system is
// the db.system value used to classify column types.
type connAdapter struct {
	conn   driver.Conn
	system string
}

func (a connAdapter) Prepare(ctx context.Context, query string) (sqllog.PreparedStatement, error) {
	var stmt driver.Stmt
	var err error

	if preparer, ok := a.conn.(driver.ConnPrepareContext); ok {
		stmt, err = preparer.PrepareContext(ctx, query)
	} else {
		stmt, err = a.conn.Prepare(query)
	}

	if err != nil {
		return nil, err
	}
	return &stmtAdapter{stmt: stmt, system: a.system}, nil
}

func (a connAdapter) Statement() sqllog.Statement {
	return &connStatement{conn: a.conn, system: a.system}
}

func (a connAdapter) Close() error {
	return a.conn.Close()
}

// connStatement runs SQL text directly on a driver.Conn. The connection
// must implement driver.ExecerContext and driver.QueryerContext for the
// respective calls; otherwise they return driver.ErrSkip.
type connStatement struct {
	conn    driver.Conn
	system  string
	current sqllog.ResultSet
	batch   []string
}

func (s *connStatement) Execute(
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

func (s *connStatement) ExecuteUpdate(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Result, error) {
	execer, ok := s.conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	return execer.ExecContext(ctx, query, args)
}

func (s *connStatement) ExecuteQuery(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (sqllog.ResultSet, error) {
	queryer, ok := s.conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	rows, err := queryer.QueryContext(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return newRowsResultSet(rows, s.system), nil
}

func (s *connStatement) AddBatch(query string) error {
	s.batch = append(s.batch, query)
	return nil
}

func (s *connStatement) ExecuteBatch(ctx context.Context) ([]int64, error) {
	defer func() { s.batch = nil }()

	counts := make([]int64, 0, len(s.batch))
	for _, query := range s.batch {
		res, err := s.ExecuteUpdate(ctx, query, nil)
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

func (s *connStatement) ResultSet() (sqllog.ResultSet, error) {
	return s.current, nil
}

func (s *connStatement) Close() error {
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}

// stmtAdapter presents a driver.Stmt as an sqllog.PreparedStatement.
type stmtAdapter struct {
	stmt   driver.Stmt
	system string
}

func (a *stmtAdapter) ExecuteUpdate(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if execer, ok := a.stmt.(driver.StmtExecContext); ok {
		return execer.ExecContext(ctx, args)
	}
	// Fallback to non-context version
	return a.stmt.Exec(namedValueToValue(args)) //nolint:staticcheck // Fallback for older drivers
}

func (a *stmtAdapter) ExecuteQuery(ctx context.Context, args []driver.NamedValue) (sqllog.ResultSet, error) {
	var rows driver.Rows
	var err error

	if queryer, ok := a.stmt.(driver.StmtQueryContext); ok {
		rows, err = queryer.QueryContext(ctx, args)
	} else {
		// Fallback to non-context version
		rows, err = a.stmt.Query(namedValueToValue(args)) //nolint:staticcheck // Fallback for older drivers
	}

	if err != nil {
		return nil, err
	}
	return newRowsResultSet(rows, a.system), nil
}

func (a *stmtAdapter) Close() error {
	return a.stmt.Close()
}

// driverStmt digs the driver.Stmt out of a possibly wrapped statement.
func driverStmt(ps sqllog.PreparedStatement) driver.Stmt {
	for ps != nil {
		switch v := ps.(type) {
		case *stmtAdapter:
			return v.stmt
		case sqllog.Unwrapper[sqllog.PreparedStatement]:
			ps = v.Unwrap()
		default:
			return nil
		}
	}
	return nil
}

// rowsResultSet reads a driver.Rows one row at a time into buf.
type rowsResultSet struct {
	rows   driver.Rows
	system string
	names  []string
	cols   []sqllog.Column
	buf    []driver.Value
}

func newRowsResultSet(rows driver.Rows, system string) *rowsResultSet {
	names := rows.Columns()
	return &rowsResultSet{
		rows:   rows,
		system: system,
		names:  names,
		buf:    make([]driver.Value, len(names)),
	}
}

func (r *rowsResultSet) Next() (bool, error) {
	err := r.rows.Next(r.buf)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *rowsResultSet) Columns() ([]sqllog.Column, error) {
	if r.cols != nil {
		return r.cols, nil
	}

	typed, _ := r.rows.(driver.RowsColumnTypeDatabaseTypeName)
	cols := make([]sqllog.Column, len(r.names))
	for i, name := range r.names {
		cols[i] = sqllog.Column{Label: name, Type: sqllog.TypeOther}
		if typed != nil {
			cols[i].Type = sqllog.TypeFromDatabaseName(r.system, typed.ColumnTypeDatabaseTypeName(i))
		}
	}
	r.cols = cols
	return cols, nil
}

func (r *rowsResultSet) Value(i int) (any, error) {
	if i < 0 || i >= len(r.buf) {
		return nil, fmt.Errorf("column index %d out of range [0,%d)", i, len(r.buf))
	}
	return r.buf[i], nil
}

func (r *rowsResultSet) String(i int) (string, error) {
	v, err := r.Value(i)
	if err != nil {
		return "", err
	}
	return displayString(v)
}

// displayString renders a column value for a row line. Bytes that are
// not valid UTF-8 cannot be displayed.
func displayString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return val, nil
	case []byte:
		if !utf8.Valid(val) {
			return "", errCannotDisplay
		}
		return string(val), nil
	default:
		return fmt.Sprint(val), nil
	}
}

func (r *rowsResultSet) Close() error {
	return r.rows.Close()
}

// nextResultSet moves the underlying rows to the next result set.
func (r *rowsResultSet) nextResultSet() error {
	next, ok := r.rows.(driver.RowsNextResultSet)
	if !ok {
		return io.EOF
	}
	if err := next.NextResultSet(); err != nil {
		return err
	}
	r.names = r.rows.Columns()
	r.cols = nil
	r.buf = make([]driver.Value, len(r.names))
	return nil
}

// rowsOf digs the rowsResultSet out of a possibly wrapped cursor.
func rowsOf(rs sqllog.ResultSet) *rowsResultSet {
	for rs != nil {
		switch v := rs.(type) {
		case *rowsResultSet:
			return v
		case sqllog.Unwrapper[sqllog.ResultSet]:
			rs = v.Unwrap()
		default:
			return nil
		}
	}
	return nil
}

// loggedRows is the driver.Rows handed back to database/sql. Advancing it
// advances the logged cursor, which is where row logging happens.
type loggedRows struct {
	rs      sqllog.ResultSet
	inner   *rowsResultSet
	rewrap  func(sqllog.ResultSet) sqllog.ResultSet
	onClose func(rows int)
	counted int
}

func newLoggedRows(
	rs sqllog.ResultSet,
	rewrap func(sqllog.ResultSet) sqllog.ResultSet,
	onClose func(rows int),
) *loggedRows {
	return &loggedRows{
		rs:      rs,
		inner:   rowsOf(rs),
		rewrap:  rewrap,
		onClose: onClose,
	}
}

func (l *loggedRows) Columns() []string {
	return l.inner.names
}

func (l *loggedRows) Close() error {
	if l.onClose != nil {
		l.onClose(l.rowCount())
		l.onClose = nil
	}
	return l.rs.Close()
}

func (l *loggedRows) Next(dest []driver.Value) error {
	ok, err := l.rs.Next()
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	copy(dest, l.inner.buf)
	return nil
}

func (l *loggedRows) HasNextResultSet() bool {
	next, ok := l.inner.rows.(driver.RowsNextResultSet)
	return ok && next.HasNextResultSet()
}

func (l *loggedRows) NextResultSet() error {
	if err := l.inner.nextResultSet(); err != nil {
		return err
	}
	l.counted += l.currentRows()
	l.rs = l.rewrap(l.inner)
	return nil
}

func (l *loggedRows) ColumnTypeDatabaseTypeName(index int) string {
	if typed, ok := l.inner.rows.(driver.RowsColumnTypeDatabaseTypeName); ok {
		return typed.ColumnTypeDatabaseTypeName(index)
	}
	return ""
}

func (l *loggedRows) currentRows() int {
	if rc, ok := l.rs.(sqllog.RowCounter); ok {
		return rc.RowCount()
	}
	return 0
}

func (l *loggedRows) rowCount() int {
	return l.counted + l.currentRows()
}

// namedValueToValue converts NamedValue slice to Value slice.
func namedValueToValue(named []driver.NamedValue) []driver.Value {
	values := make([]driver.Value, len(named))
	for i, nv := range named {
		values[i] = nv.Value
	}
	return values
}

package sql

import (
	"context"
	"database/sql/driver"
	"io"
)

// fakeResult is a canned driver.Result.
type fakeResult struct {
	lastID   int64
	affected int64
	err      error
}

func (r fakeResult) LastInsertId() (int64, error) { return r.lastID, r.err }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, r.err }

// fakeRows serves fixed rows and optional column database type names.
type fakeRows struct {
	columns []string
	types   []string
	data    [][]driver.Value
	pos     int
	nextErr error
	closed  bool
}

func (r *fakeRows) Columns() []string { return r.columns }

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.nextErr != nil {
		return r.nextErr
	}
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}

func (r *fakeRows) ColumnTypeDatabaseTypeName(index int) string {
	if index < len(r.types) {
		return r.types[index]
	}
	return ""
}

// fakeTx records how it was finished.
type fakeTx struct {
	commitErr   error
	rollbackErr error
	committed   bool
	rolledBack  bool
}

func (t *fakeTx) Commit() error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	return t.rollbackErr
}

// fakeStmt is a prepared statement that records its arguments.
type fakeStmt struct {
	numInput int
	result   driver.Result
	rows     *fakeRows
	err      error
	gotArgs  []driver.NamedValue
	closed   bool
}

func (s *fakeStmt) Close() error {
	s.closed = true
	return nil
}

func (s *fakeStmt) NumInput() int { return s.numInput }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), valueToNamedValue(args))
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), valueToNamedValue(args))
}

func (s *fakeStmt) ExecContext(_ context.Context, args []driver.NamedValue) (driver.Result, error) {
	s.gotArgs = args
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *fakeStmt) QueryContext(_ context.Context, args []driver.NamedValue) (driver.Rows, error) {
	s.gotArgs = args
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

// legacyStmt only implements driver.Stmt.
type legacyStmt struct {
	inner *fakeStmt
}

func (s *legacyStmt) Close() error { return s.inner.Close() }
func (s *legacyStmt) NumInput() int { return s.inner.NumInput() }
func (s *legacyStmt) Exec(args []driver.Value) (driver.Result, error) { return s.inner.Exec(args) }
func (s *legacyStmt) Query(args []driver.Value) (driver.Rows, error) { return s.inner.Query(args) }

// fakeConn implements the context-aware driver interfaces.
type fakeConn struct {
	stmt       *fakeStmt
	tx         *fakeTx
	result     driver.Result
	rows       *fakeRows
	err        error
	pingErr    error
	gotQuery   string
	gotArgs    []driver.NamedValue
	closed     bool
	beginCalls int
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *fakeConn) PrepareContext(_ context.Context, query string) (driver.Stmt, error) {
	c.gotQuery = query
	if c.err != nil {
		return nil, c.err
	}
	return c.stmt, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func (c *fakeConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *fakeConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	c.beginCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.tx, nil
}

func (c *fakeConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.gotQuery = query
	c.gotArgs = args
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func (c *fakeConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.gotQuery = query
	c.gotArgs = args
	if c.err != nil {
		return nil, c.err
	}
	return c.rows, nil
}

func (c *fakeConn) Ping(_ context.Context) error { return c.pingErr }

// basicConn only implements driver.Conn.
type basicConn struct {
	stmt driver.Stmt
}

func (c *basicConn) Prepare(_ string) (driver.Stmt, error) { return c.stmt, nil }
func (c *basicConn) Close() error { return nil }
func (c *basicConn) Begin() (driver.Tx, error) { return &fakeTx{}, nil }

// testDriver is a simple driver that returns a fixed connection.
type testDriver struct {
	conn    driver.Conn
	openErr error
}

func (d *testDriver) Open(_ string) (driver.Conn, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.conn, nil
}

package sqllog

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
)

// fakeResultSet serves rows from memory. Columns listed in unreadable fail
// String with an error.
type fakeResultSet struct {
	cols       []Column
	rows       [][]any
	pos        int
	unreadable map[int]bool
	nextErr    error
	colsErr    error
	closed     bool
}

func (f *fakeResultSet) Next() (bool, error) {
	if f.nextErr != nil {
		return false, f.nextErr
	}
	if f.pos >= len(f.rows) {
		return false, nil
	}
	f.pos++
	return true, nil
}

func (f *fakeResultSet) Columns() ([]Column, error) {
	if f.colsErr != nil {
		return nil, f.colsErr
	}
	return f.cols, nil
}

func (f *fakeResultSet) Value(i int) (any, error) {
	if f.pos == 0 || i >= len(f.cols) {
		return nil, errors.New("no current row")
	}
	return f.rows[f.pos-1][i], nil
}

func (f *fakeResultSet) String(i int) (string, error) {
	if f.unreadable[i] {
		return "", errors.New("cannot convert to string")
	}
	v, err := f.Value(i)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "null", nil
	}
	return fmt.Sprint(v), nil
}

func (f *fakeResultSet) Close() error {
	f.closed = true
	return nil
}

type fakeResult int64

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

// fakeStatement records calls and returns canned results.
type fakeStatement struct {
	calls   []string
	rs      ResultSet
	err     error
	batch   []string
	hasRows bool
}

func (f *fakeStatement) Execute(_ context.Context, query string, _ []driver.NamedValue) (bool, error) {
	f.calls = append(f.calls, "Execute:"+query)
	return f.hasRows, f.err
}

func (f *fakeStatement) ExecuteUpdate(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	f.calls = append(f.calls, "ExecuteUpdate:"+query)
	if f.err != nil {
		return nil, f.err
	}
	return fakeResult(1), nil
}

func (f *fakeStatement) ExecuteQuery(_ context.Context, query string, _ []driver.NamedValue) (ResultSet, error) {
	f.calls = append(f.calls, "ExecuteQuery:"+query)
	return f.rs, f.err
}

func (f *fakeStatement) AddBatch(query string) error {
	f.calls = append(f.calls, "AddBatch:"+query)
	f.batch = append(f.batch, query)
	return f.err
}

func (f *fakeStatement) ExecuteBatch(context.Context) ([]int64, error) {
	f.calls = append(f.calls, "ExecuteBatch")
	counts := make([]int64, len(f.batch))
	for i := range counts {
		counts[i] = 1
	}
	return counts, f.err
}

func (f *fakeStatement) ResultSet() (ResultSet, error) {
	f.calls = append(f.calls, "ResultSet")
	return f.rs, f.err
}

func (f *fakeStatement) Close() error {
	f.calls = append(f.calls, "Close")
	return nil
}

type fakePreparedStatement struct {
	args []driver.NamedValue
	rs   ResultSet
	err  error
}

func (f *fakePreparedStatement) ExecuteUpdate(_ context.Context, args []driver.NamedValue) (driver.Result, error) {
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	return fakeResult(len(args)), nil
}

func (f *fakePreparedStatement) ExecuteQuery(_ context.Context, args []driver.NamedValue) (ResultSet, error) {
	f.args = args
	return f.rs, f.err
}

func (f *fakePreparedStatement) Close() error { return nil }

type fakeConnection struct {
	prepared *fakePreparedStatement
	stmt     *fakeStatement
	err      error
}

func (f *fakeConnection) Prepare(context.Context, string) (PreparedStatement, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prepared, nil
}

func (f *fakeConnection) Statement() Statement { return f.stmt }

func (f *fakeConnection) Close() error { return nil }

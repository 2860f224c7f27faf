// Package sqllog wraps statement-like and cursor-like database objects so
// that every statement executed, every bound parameter and every row
// returned is written to a logging.Log.
//
// A wrapper implements exactly the interface of the object it wraps and
// forwards every call unchanged: same arguments, same results, same errors.
// The only observable difference is the log output.
//
// Request lines (statements, parameters) are written at debug level with a
// "==>" marker. Response lines use "<==": column headers and rows at trace
// level, the final row count at debug level.
//
//	==>  Preparing: SELECT id, name FROM users WHERE id = $1
//	==> Parameters: 7(int64)
//	<==    Columns: id, name
//	<==        Row: 7, alice
//	<==      Total: 1
package sqllog

import (
	"context"
	"database/sql/driver"
	"strconv"
)

// Statement executes ad-hoc SQL text.
type Statement interface {
	// Execute runs query and reports whether it produced a result set,
	// which is then available from ResultSet.
	Execute(ctx context.Context, query string, args []driver.NamedValue) (bool, error)
	ExecuteUpdate(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error)
	ExecuteQuery(ctx context.Context, query string, args []driver.NamedValue) (ResultSet, error)
	// AddBatch queues query for the next ExecuteBatch.
	AddBatch(query string) error
	// ExecuteBatch runs the queued statements and returns their update counts.
	ExecuteBatch(ctx context.Context) ([]int64, error)
	// ResultSet returns the result of the last Execute, or nil.
	ResultSet() (ResultSet, error)
	Close() error
}

// PreparedStatement executes one precompiled statement with fresh arguments.
type PreparedStatement interface {
	ExecuteUpdate(ctx context.Context, args []driver.NamedValue) (driver.Result, error)
	ExecuteQuery(ctx context.Context, args []driver.NamedValue) (ResultSet, error)
	Close() error
}

// Connection creates statements.
type Connection interface {
	Prepare(ctx context.Context, query string) (PreparedStatement, error)
	Statement() Statement
	Close() error
}

// Column describes one result column.
type Column struct {
	Label string
	Type  Type
}

// ResultSet is a forward-only cursor. Column indexes are zero-based.
type ResultSet interface {
	// Next advances to the next row and reports whether there is one.
	Next() (bool, error)
	Columns() ([]Column, error)
	// Value returns the raw value of column i in the current row.
	Value(i int) (any, error)
	// String returns column i of the current row as text.
	String(i int) (string, error)
	Close() error
}

// Unwrapper is implemented by every wrapper in this package.
type Unwrapper[T any] interface {
	Unwrap() T
}

// parameterKey names a bound argument the way it appears in the statement.
func parameterKey(nv driver.NamedValue) string {
	if nv.Name != "" {
		return ":" + nv.Name
	}
	return "$" + strconv.Itoa(nv.Ordinal)
}

// RowCounter is implemented by result sets returned from WrapResultSet.
type RowCounter interface {
	RowCount() int
}

package sqllog

import (
	"strconv"
	"strings"

	"github.com/kroma-labs/sqlscope/logging"
)

// Compile-time interface checks.
var (
	_ ResultSet            = (*resultSetLogger)(nil)
	_ Unwrapper[ResultSet] = (*resultSetLogger)(nil)
)

const (
	blobPlaceholder          = "<<BLOB>>"
	cannotDisplayPlaceholder = "<<Cannot Display>>"
)

type resultSetLogger struct {
	callTrace
	rs ResultSet

	first       bool
	rows        int
	blobColumns map[int]struct{}
}

// WrapResultSet returns rs with row logging. With trace enabled the
// column headers are logged on the first row and every row after that;
// large-object columns print as <<BLOB>>. With debug enabled the row count
// is logged whenever Next reports the end of the rows.
func WrapResultSet(rs ResultSet, log logging.Log, depth int) ResultSet {
	return &resultSetLogger{
		callTrace:   newCallTrace(log, depth),
		rs:          rs,
		first:       true,
		blobColumns: make(map[int]struct{}),
	}
}

func (r *resultSetLogger) Unwrap() ResultSet {
	return r.rs
}

// RowCount returns the number of rows the wrapped cursor has produced.
func (r *resultSetLogger) RowCount() int {
	return r.rows
}

func (r *resultSetLogger) Next() (bool, error) {
	defer r.clearColumns()

	ok, err := r.rs.Next()
	if err != nil {
		return ok, err
	}

	if !ok {
		r.debug("     Total: "+strconv.Itoa(r.rows), false)
		return ok, nil
	}

	r.rows++
	if r.log.IsTraceEnabled() {
		cols, err := r.rs.Columns()
		if err != nil {
			r.log.Warn("Error reading column metadata: " + err.Error())
			return ok, nil
		}
		if r.first {
			r.first = false
			r.printColumnHeaders(cols)
		}
		r.printColumnValues(len(cols))
	}
	return ok, nil
}

func (r *resultSetLogger) printColumnHeaders(cols []Column) {
	labels := make([]string, len(cols))
	for i, col := range cols {
		if col.Type.IsLargeObject() {
			r.blobColumns[i] = struct{}{}
		}
		labels[i] = col.Label
	}
	r.trace("   Columns: "+strings.Join(labels, ", "), false)
}

func (r *resultSetLogger) printColumnValues(n int) {
	values := make([]string, n)
	for i := range values {
		if _, ok := r.blobColumns[i]; ok {
			values[i] = blobPlaceholder
			continue
		}
		s, err := r.rs.String(i)
		if err != nil {
			s = cannotDisplayPlaceholder
		}
		values[i] = s
	}
	r.trace("       Row: "+strings.Join(values, ", "), false)
}

func (r *resultSetLogger) Columns() ([]Column, error) {
	return r.rs.Columns()
}

func (r *resultSetLogger) Value(i int) (any, error) {
	return r.rs.Value(i)
}

func (r *resultSetLogger) String(i int) (string, error) {
	return r.rs.String(i)
}

func (r *resultSetLogger) Close() error {
	return r.rs.Close()
}

package sql

import (
	"context"
	"database/sql/driver"
	"io"
	"testing"

	"github.com/kroma-labs/sqlscope/logging"
	"github.com/kroma-labs/sqlscope/sqllog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowsResultSet(t *testing.T) {
	newRS := func() *rowsResultSet {
		return newRowsResultSet(&fakeRows{
			columns: []string{"id", "data", "note"},
			types:   []string{"INT8", "BYTEA", "VARCHAR(20)"},
			data:    [][]driver.Value{{int64(1), []byte{0xff, 0xfe}, nil}},
		}, "postgresql")
	}

	t.Run("given driver type names, then maps them to column types", func(t *testing.T) {
		cols, err := newRS().Columns()

		require.NoError(t, err)
		assert.Equal(t, []sqllog.Column{
			{Label: "id", Type: sqllog.TypeBigInt},
			{Label: "data", Type: sqllog.TypeBinary},
			{Label: "note", Type: sqllog.TypeVarChar},
		}, cols)
	})

	t.Run("given a row, then renders each value", func(t *testing.T) {
		rs := newRS()
		ok, err := rs.Next()
		require.NoError(t, err)
		require.True(t, ok)

		id, err := rs.String(0)
		require.NoError(t, err)
		assert.Equal(t, "1", id)

		_, err = rs.String(1)
		assert.ErrorIs(t, err, errCannotDisplay)

		note, err := rs.String(2)
		require.NoError(t, err)
		assert.Equal(t, "null", note)

		_, err = rs.Value(3)
		assert.Error(t, err)
	})

	t.Run("given end of rows, then returns false without error", func(t *testing.T) {
		rs := newRS()
		_, _ = rs.Next()

		ok, err := rs.Next()

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("given driver error, then returns it", func(t *testing.T) {
		rs := newRowsResultSet(&fakeRows{columns: []string{"id"}, nextErr: assert.AnError}, "")

		ok, err := rs.Next()

		assert.ErrorIs(t, err, assert.AnError)
		assert.False(t, ok)
	})
}

func TestConnStatement(t *testing.T) {
	t.Run("given conn without execer, then returns ErrSkip", func(t *testing.T) {
		stmt := &connStatement{conn: &basicConn{}}

		_, err := stmt.ExecuteUpdate(context.Background(), "DELETE FROM t", nil)
		assert.ErrorIs(t, err, driver.ErrSkip)

		_, err = stmt.ExecuteQuery(context.Background(), "SELECT 1", nil)
		assert.ErrorIs(t, err, driver.ErrSkip)
	})

	t.Run("given batch, then executes each statement and reports counts", func(t *testing.T) {
		conn := &fakeConn{result: fakeResult{affected: 4}}
		stmt := &connStatement{conn: conn}

		require.NoError(t, stmt.AddBatch("UPDATE a SET x = 1"))
		require.NoError(t, stmt.AddBatch("UPDATE b SET x = 1"))
		counts, err := stmt.ExecuteBatch(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []int64{4, 4}, counts)
		assert.Equal(t, "UPDATE b SET x = 1", conn.gotQuery)
		assert.Empty(t, stmt.batch)
	})

	t.Run("given statement without columns, then Execute reports no result set", func(t *testing.T) {
		conn := &fakeConn{rows: &fakeRows{}}
		stmt := &connStatement{conn: conn}

		hasRows, err := stmt.Execute(context.Background(), "CREATE TABLE t (id int)", nil)

		require.NoError(t, err)
		assert.False(t, hasRows)
		assert.True(t, conn.rows.closed)
	})

	t.Run("given a second Execute, then closes the previous result set", func(t *testing.T) {
		first := &fakeRows{columns: []string{"id"}, data: [][]driver.Value{{int64(1)}}}
		second := &fakeRows{columns: []string{"id"}, data: [][]driver.Value{{int64(2)}}}
		conn := &fakeConn{rows: first}
		stmt := &connStatement{conn: conn}

		hasRows, err := stmt.Execute(context.Background(), "SELECT id FROM t", nil)
		require.NoError(t, err)
		require.True(t, hasRows)

		conn.rows = second
		hasRows, err = stmt.Execute(context.Background(), "SELECT id FROM t", nil)
		require.NoError(t, err)
		require.True(t, hasRows)

		assert.True(t, first.closed)
		assert.False(t, second.closed)

		require.NoError(t, stmt.Close())
		assert.True(t, second.closed)
	})

	t.Run("given a system, then classifies columns for it", func(t *testing.T) {
		rows := &fakeRows{columns: []string{"name"}, types: []string{"TEXT"}}
		conn := &fakeConn{rows: rows}

		pg, err := (&connStatement{conn: conn, system: "postgresql"}).ExecuteQuery(context.Background(), "SELECT name FROM t", nil)
		require.NoError(t, err)
		pgCols, err := pg.Columns()
		require.NoError(t, err)

		my, err := (&connStatement{conn: conn, system: "mysql"}).ExecuteQuery(context.Background(), "SELECT name FROM t", nil)
		require.NoError(t, err)
		myCols, err := my.Columns()
		require.NoError(t, err)

		assert.Equal(t, sqllog.TypeVarChar, pgCols[0].Type)
		assert.Equal(t, sqllog.TypeLongVarChar, myCols[0].Type)
	})
}

func TestOtelConn_ErrSkip(t *testing.T) {
	t.Run("given conn without context support, then lets database/sql fall back", func(t *testing.T) {
		rec := logging.NewRecorder(logging.LevelDebug)
		conn := newOtelConn(&basicConn{}, newConfig(WithLogger(rec)))
		rec.Reset()

		_, err := conn.ExecContext(context.Background(), "DELETE FROM t", nil)
		assert.ErrorIs(t, err, driver.ErrSkip)

		_, err = conn.QueryContext(context.Background(), "SELECT 1", nil)
		assert.ErrorIs(t, err, driver.ErrSkip)

		assert.Empty(t, rec.Messages())
	})

	t.Run("given conn, then logs open and close with its id", func(t *testing.T) {
		rec := logging.NewRecorder(logging.LevelDebug)
		inner := &fakeConn{}
		conn := newOtelConn(inner, newConfig(WithLogger(rec)))

		require.NoError(t, conn.Close())

		assert.True(t, inner.closed)
		assert.Equal(t, []string{
			"Opening connection [" + conn.id + "]",
			"Closing connection [" + conn.id + "]",
		}, rec.Messages())
	})
}

func TestLoggedRows(t *testing.T) {
	t.Run("given rows read to the end, then reports the count once on close", func(t *testing.T) {
		rows := &fakeRows{
			columns: []string{"n"},
			data:    [][]driver.Value{{int64(1)}, {int64(2)}},
		}
		var closedWith []int
		rs := sqllog.WrapResultSet(newRowsResultSet(rows, ""), logging.Nop(), 1)
		lr := newLoggedRows(rs, nil, func(n int) { closedWith = append(closedWith, n) })

		dest := make([]driver.Value, 1)
		require.NoError(t, lr.Next(dest))
		assert.Equal(t, int64(1), dest[0])
		require.NoError(t, lr.Next(dest))
		assert.Equal(t, int64(2), dest[0])
		assert.ErrorIs(t, lr.Next(dest), io.EOF)

		require.NoError(t, lr.Close())
		require.NoError(t, lr.Close())

		assert.Equal(t, []int{2}, closedWith)
		assert.True(t, rows.closed)
		assert.Equal(t, []string{"n"}, lr.Columns())
		assert.False(t, lr.HasNextResultSet())
		assert.ErrorIs(t, lr.NextResultSet(), io.EOF)
	})

	t.Run("given typed rows, then forwards the database type name", func(t *testing.T) {
		rows := &fakeRows{columns: []string{"n"}, types: []string{"INT4"}}
		lr := newLoggedRows(newRowsResultSet(rows, ""), nil, nil)

		assert.Equal(t, "INT4", lr.ColumnTypeDatabaseTypeName(0))
	})
}

func TestDriverStmt(t *testing.T) {
	t.Run("given wrapped prepared statement, then finds the driver statement", func(t *testing.T) {
		stmt := &fakeStmt{}
		ps := sqllog.WrapPreparedStatement(&stmtAdapter{stmt: stmt}, logging.Nop(), 1)

		assert.Equal(t, driver.Stmt(stmt), driverStmt(ps))
	})

	t.Run("given nil, then returns nil", func(t *testing.T) {
		assert.Nil(t, driverStmt(nil))
	})
}

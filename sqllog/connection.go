package sqllog

import (
	"context"

	"github.com/kroma-labs/sqlscope/logging"
)

// Compile-time interface checks.
var (
	_ Connection            = (*connectionLogger)(nil)
	_ Unwrapper[Connection] = (*connectionLogger)(nil)
)

type connectionLogger struct {
	callTrace
	conn Connection
}

// WrapConnection returns conn with statement logging. Prepared statements
// log their SQL when prepared and their parameters on every execution.
func WrapConnection(conn Connection, log logging.Log, depth int) Connection {
	return &connectionLogger{
		callTrace: newCallTrace(log, depth),
		conn:      conn,
	}
}

func (c *connectionLogger) Unwrap() Connection {
	return c.conn
}

func (c *connectionLogger) Prepare(ctx context.Context, query string) (PreparedStatement, error) {
	if c.log.IsDebugEnabled() {
		c.debug(" Preparing: "+CollapseWhitespace(query), true)
	}
	stmt, err := c.conn.Prepare(ctx, query)
	if stmt == nil {
		return nil, err
	}
	return WrapPreparedStatement(stmt, c.log, c.depth), err
}

func (c *connectionLogger) Statement() Statement {
	stmt := c.conn.Statement()
	if stmt == nil {
		return nil
	}
	return WrapStatement(stmt, c.log, c.depth)
}

func (c *connectionLogger) Close() error {
	return c.conn.Close()
}

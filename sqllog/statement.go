package sqllog

import (
	"context"
	"database/sql/driver"

	"github.com/kroma-labs/sqlscope/logging"
)

// Compile-time interface checks.
var (
	_ Statement                    = (*statementLogger)(nil)
	_ Unwrapper[Statement]         = (*statementLogger)(nil)
	_ PreparedStatement            = (*preparedStatementLogger)(nil)
	_ Unwrapper[PreparedStatement] = (*preparedStatementLogger)(nil)
)

type statementLogger struct {
	callTrace
	stmt Statement
}

// WrapStatement returns stmt with statement logging. Calls that run SQL
// log it at debug level before delegating; result sets coming back are
// wrapped with WrapResultSet.
func WrapStatement(stmt Statement, log logging.Log, depth int) Statement {
	return &statementLogger{
		callTrace: newCallTrace(log, depth),
		stmt:      stmt,
	}
}

func (s *statementLogger) Unwrap() Statement {
	return s.stmt
}

func (s *statementLogger) logExecuting(query string, args []driver.NamedValue) {
	if !s.log.IsDebugEnabled() {
		return
	}
	s.debug(" Executing: "+CollapseWhitespace(query), true)
	if len(args) > 0 {
		for _, nv := range args {
			s.set(parameterKey(nv), nv.Value)
		}
		s.debug("Parameters: "+s.parameterValues(), true)
		s.clearColumns()
	}
}

func (s *statementLogger) Execute(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (bool, error) {
	s.logExecuting(query, args)
	return s.stmt.Execute(ctx, query, args)
}

func (s *statementLogger) ExecuteUpdate(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Result, error) {
	s.logExecuting(query, args)
	return s.stmt.ExecuteUpdate(ctx, query, args)
}

func (s *statementLogger) ExecuteQuery(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (ResultSet, error) {
	s.logExecuting(query, args)
	rs, err := s.stmt.ExecuteQuery(ctx, query, args)
	return s.wrapResultSet(rs), err
}

func (s *statementLogger) AddBatch(query string) error {
	s.logExecuting(query, nil)
	return s.stmt.AddBatch(query)
}

func (s *statementLogger) ExecuteBatch(ctx context.Context) ([]int64, error) {
	return s.stmt.ExecuteBatch(ctx)
}

func (s *statementLogger) ResultSet() (ResultSet, error) {
	rs, err := s.stmt.ResultSet()
	return s.wrapResultSet(rs), err
}

func (s *statementLogger) Close() error {
	return s.stmt.Close()
}

func (s *statementLogger) wrapResultSet(rs ResultSet) ResultSet {
	if rs == nil {
		return nil
	}
	return WrapResultSet(rs, s.log, s.depth)
}

type preparedStatementLogger struct {
	callTrace
	stmt PreparedStatement
}

// WrapPreparedStatement returns stmt with parameter logging: every
// execution logs its bound arguments at debug level before delegating.
func WrapPreparedStatement(stmt PreparedStatement, log logging.Log, depth int) PreparedStatement {
	return &preparedStatementLogger{
		callTrace: newCallTrace(log, depth),
		stmt:      stmt,
	}
}

func (p *preparedStatementLogger) Unwrap() PreparedStatement {
	return p.stmt
}

func (p *preparedStatementLogger) logParameters(args []driver.NamedValue) {
	if !p.log.IsDebugEnabled() {
		return
	}
	for _, nv := range args {
		p.set(parameterKey(nv), nv.Value)
	}
	p.debug("Parameters: "+p.parameterValues(), true)
	p.clearColumns()
}

func (p *preparedStatementLogger) ExecuteUpdate(
	ctx context.Context,
	args []driver.NamedValue,
) (driver.Result, error) {
	p.logParameters(args)
	return p.stmt.ExecuteUpdate(ctx, args)
}

func (p *preparedStatementLogger) ExecuteQuery(
	ctx context.Context,
	args []driver.NamedValue,
) (ResultSet, error) {
	p.logParameters(args)
	rs, err := p.stmt.ExecuteQuery(ctx, args)
	if rs == nil {
		return nil, err
	}
	return WrapResultSet(rs, p.log, p.depth), err
}

func (p *preparedStatementLogger) Close() error {
	return p.stmt.Close()
}

package sqllog

import (
	"context"
	"reflect"
	"strings"

	"github.com/kroma-labs/sqlscope/logging"
)

// callTrace is the state an interceptor accumulates during one call cycle:
// the column (or parameter) values seen so far, plus the logger and the
// nesting depth used to indent its lines.
type callTrace struct {
	log   logging.Log
	depth int

	columnMap    map[string]any
	columnNames  []string
	columnValues []any
}

func newCallTrace(log logging.Log, depth int) callTrace {
	if log == nil {
		log = logging.Nop()
	}
	return callTrace{
		log:       log,
		depth:     depth,
		columnMap: make(map[string]any),
	}
}

func (c *callTrace) set(key string, value any) {
	c.columnMap[key] = value
	c.columnNames = append(c.columnNames, key)
	c.columnValues = append(c.columnValues, value)
}

// column returns the last value recorded for key.
func (c *callTrace) column(key string) (any, bool) {
	v, ok := c.columnMap[key]
	return v, ok
}

// parameterValues renders the recorded values as "v1(type1), v2(type2)".
func (c *callTrace) parameterValues() string {
	parts := make([]string, len(c.columnValues))
	for i, v := range c.columnValues {
		if v == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = describe(v) + "(" + typeName(v) + ")"
	}
	return strings.Join(parts, ", ")
}

// columnNamesString renders the recorded keys as "[k1, k2]".
func (c *callTrace) columnNamesString() string {
	return "[" + strings.Join(c.columnNames, ", ") + "]"
}

func (c *callTrace) clearColumns() {
	clear(c.columnMap)
	c.columnNames = c.columnNames[:0]
	c.columnValues = c.columnValues[:0]
}

func (c *callTrace) debug(text string, inbound bool) {
	if c.log.IsDebugEnabled() {
		c.log.Debug(prefix(inbound, c.depth) + text)
	}
}

func (c *callTrace) trace(text string, inbound bool) {
	if c.log.IsTraceEnabled() {
		c.log.Trace(prefix(inbound, c.depth) + text)
	}
}

// prefix builds the 2*depth+2 wide marker in front of every line:
// "==> " for a request at depth 1, "<== " for a response.
func prefix(inbound bool, depth int) string {
	if depth < 1 {
		depth = 1
	}
	buf := make([]byte, depth*2+2)
	for i := range buf {
		buf[i] = '='
	}
	buf[len(buf)-1] = ' '
	if inbound {
		buf[depth*2] = '>'
	} else {
		buf[0] = '<'
	}
	return string(buf)
}

// CollapseWhitespace joins the whitespace-separated tokens of s with
// single spaces, so a multi-line statement fits on one log line.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

type depthKey struct{}

// WithDepth returns a copy of ctx carrying the nesting depth used to
// indent trace lines for calls made under it.
func WithDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey{}, depth)
}

// Nested returns a copy of ctx one level deeper than ctx.
func Nested(ctx context.Context) context.Context {
	return WithDepth(ctx, DepthFromContext(ctx)+1)
}

// DepthFromContext returns the nesting depth carried by ctx, at least 1.
func DepthFromContext(ctx context.Context) int {
	if ctx == nil {
		return 1
	}
	if d, ok := ctx.Value(depthKey{}).(int); ok && d > 1 {
		return d
	}
	return 1
}

package sqllog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kroma-labs/sqlscope/logging"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPrefix(t *testing.T) {
	tests := []struct {
		name    string
		depth   int
		inbound bool
		want    string
	}{
		{name: "given depth 1 inbound, then arrow points right", depth: 1, inbound: true, want: "==> "},
		{name: "given depth 1 outbound, then arrow points left", depth: 1, inbound: false, want: "<== "},
		{name: "given depth 2 inbound, then widens", depth: 2, inbound: true, want: "====> "},
		{name: "given depth 2 outbound, then widens", depth: 2, inbound: false, want: "<==== "},
		{name: "given depth 0, then clamps to 1", depth: 0, inbound: true, want: "==> "},
		{name: "given negative depth, then clamps to 1", depth: -3, inbound: false, want: "<== "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := prefix(tt.inbound, tt.depth)

			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("given any depth, then length is 2*max(depth,1)+2 and markers differ only in arrow", func(t *testing.T) {
		for depth := -1; depth <= 6; depth++ {
			in, out := prefix(true, depth), prefix(false, depth)
			d := max(depth, 1)

			assert.Len(t, in, 2*d+2)
			assert.Len(t, out, 2*d+2)
			assert.Equal(t,
				strings.Replace(in, ">", "=", 1),
				strings.Replace(out, "<", "=", 1),
			)
		}
	})
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "given runs of spaces, then collapses", in: "select 1  from   t", want: "select 1 from t"},
		{name: "given newlines and tabs, then collapses", in: "\n\tselect *\n\tfrom t\r\n", want: "select * from t"},
		{name: "given clean input, then identity", in: "select 1 from t", want: "select 1 from t"},
		{name: "given blank input, then empty", in: " \t\n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CollapseWhitespace(tt.in)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, CollapseWhitespace(got))
		})
	}
}

func TestCallTrace_ParameterValues(t *testing.T) {
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		values []any
		want   string
	}{
		{
			name:   "given scalars, then renders value with type",
			values: []any{int64(7), "alice", true},
			want:   "7(int64), alice(string), true(bool)",
		},
		{
			name:   "given nil, then renders literal null",
			values: []any{nil, 1.5},
			want:   "null, 1.5(float64)",
		},
		{
			name:   "given slice, then renders as array with type string",
			values: []any{[]string{"a", "b"}},
			want:   "[a, b]([]string)",
		},
		{
			name:   "given nested arrays, then recurses",
			values: []any{[][]int{{1, 2}, {3}}},
			want:   "[[1, 2], [3]]([][]int)",
		},
		{
			name:   "given pq typed array, then uses named type",
			values: []any{pq.Int64Array{4, 5}},
			want:   "[4, 5](Int64Array)",
		},
		{
			name:   "given pq generic array, then introspects wrapped slice",
			values: []any{pq.GenericArray{A: []float64{1.5, 2}}},
			want:   "[1.5, 2](GenericArray)",
		},
		{
			name:   "given pq generic array over non array, then falls back to plain form",
			values: []any{pq.GenericArray{A: 42}},
			want:   "{42}(GenericArray)",
		},
		{
			name:   "given array with nil element, then renders null",
			values: []any{[]any{1, nil}},
			want:   "[1, null]([]interface {})",
		},
		{
			name:   "given time, then renders with named type",
			values: []any{stamp},
			want:   stamp.String() + "(Time)",
		},
		{
			name:   "given bytes, then treated as scalar",
			values: []any{[]byte("hi")},
			want:   "[104 105]([]uint8)",
		},
		{
			name: "given no values, then empty",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCallTrace(logging.Nop(), 1)
			for i, v := range tt.values {
				c.set(string(rune('a'+i)), v)
			}

			assert.Equal(t, tt.want, c.parameterValues())
		})
	}
}

func TestCallTrace_Columns(t *testing.T) {
	c := newCallTrace(nil, 1)

	c.set("id", 1)
	c.set("name", "a")
	c.set("id", 2)

	v, ok := c.column("id")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, "[id, name, id]", c.columnNamesString())
	assert.Equal(t, "1(int), a(string), 2(int)", c.parameterValues())

	c.clearColumns()

	_, ok = c.column("id")
	assert.False(t, ok)
	assert.Equal(t, "[]", c.columnNamesString())
	assert.Equal(t, "", c.parameterValues())
}

func TestCallTrace_LevelGating(t *testing.T) {
	tests := []struct {
		name  string
		level logging.Level
		want  []string
	}{
		{name: "given trace level, then both lines", level: logging.LevelTrace, want: []string{"==> d", "<== t"}},
		{name: "given debug level, then debug only", level: logging.LevelDebug, want: []string{"==> d"}},
		{name: "given info level, then nothing", level: logging.LevelInfo, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := logging.NewRecorder(tt.level)
			c := newCallTrace(rec, 1)

			c.debug("d", true)
			c.trace("t", false)

			assert.Equal(t, tt.want, rec.Messages())
		})
	}
}

func TestDepthFromContext(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, 1, DepthFromContext(ctx))
	assert.Equal(t, 1, DepthFromContext(WithDepth(ctx, 0)))
	assert.Equal(t, 3, DepthFromContext(WithDepth(ctx, 3)))
	assert.Equal(t, 2, DepthFromContext(Nested(ctx)))
	assert.Equal(t, 4, DepthFromContext(Nested(WithDepth(ctx, 3))))
}

func TestTypeFromDatabaseName(t *testing.T) {
	tests := []struct {
		system    string
		in        string
		want      Type
		wantLarge bool
	}{
		{in: "BLOB", want: TypeBlob, wantLarge: true},
		{in: "bytea", want: TypeBinary, wantLarge: true},
		{in: "TEXT", want: TypeLongVarChar, wantLarge: true},
		{system: "mysql", in: "TEXT", want: TypeLongVarChar, wantLarge: true},
		{system: "mysql", in: "MEDIUMTEXT", want: TypeLongVarChar, wantLarge: true},
		{system: "mysql", in: "LONGTEXT", want: TypeLongVarChar, wantLarge: true},
		{system: "postgresql", in: "TEXT", want: TypeVarChar},
		{system: "postgres", in: "text", want: TypeVarChar},
		{system: "postgresql", in: "CITEXT", want: TypeVarChar},
		{system: "postgresql", in: "NAME", want: TypeVarChar},
		{system: "postgresql", in: "BYTEA", want: TypeBinary, wantLarge: true},
		{in: "VARBINARY(255)", want: TypeVarBinary, wantLarge: true},
		{in: "NCLOB", want: TypeNClob, wantLarge: true},
		{in: "NTEXT", want: TypeLongNVarChar, wantLarge: true},
		{in: "IMAGE", want: TypeLongVarBinary, wantLarge: true},
		{in: "CLOB", want: TypeClob, wantLarge: true},
		{in: "VARCHAR(32)", want: TypeVarChar},
		{in: "INT4", want: TypeInteger},
		{in: "_INT4", want: TypeArray},
		{in: "TIMESTAMPTZ", want: TypeTimestamp},
		{in: "", want: TypeOther},
		{in: "GEOMETRY", want: TypeOther},
	}

	for _, tt := range tests {
		t.Run("given "+tt.system+" "+tt.in+", then maps", func(t *testing.T) {
			got := TypeFromDatabaseName(tt.system, tt.in)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLarge, got.IsLargeObject())
		})
	}
}

package sqllog

import (
	"strings"
)

// Type is a generic SQL type code. Values match the JDBC java.sql.Types
// constants so that codes reported by bridges and tooling line up.
type Type int

const (
	TypeBit           Type = -7
	TypeTinyInt       Type = -6
	TypeSmallInt      Type = 5
	TypeInteger       Type = 4
	TypeBigInt        Type = -5
	TypeFloat         Type = 6
	TypeReal          Type = 7
	TypeDouble        Type = 8
	TypeNumeric       Type = 2
	TypeDecimal       Type = 3
	TypeChar          Type = 1
	TypeVarChar       Type = 12
	TypeLongVarChar   Type = -1
	TypeDate          Type = 91
	TypeTime          Type = 92
	TypeTimestamp     Type = 93
	TypeBinary        Type = -2
	TypeVarBinary     Type = -3
	TypeLongVarBinary Type = -4
	TypeNull          Type = 0
	TypeOther         Type = 1111
	TypeArray         Type = 2003
	TypeBlob          Type = 2004
	TypeClob          Type = 2005
	TypeBoolean       Type = 16
	TypeNChar         Type = -15
	TypeNVarChar      Type = -9
	TypeLongNVarChar  Type = -16
	TypeNClob         Type = 2011
)

// IsLargeObject reports whether values of t are too big to print inline.
func (t Type) IsLargeObject() bool {
	switch t {
	case TypeBinary, TypeBlob, TypeClob, TypeLongNVarChar,
		TypeLongVarBinary, TypeLongVarChar, TypeNClob, TypeVarBinary:
		return true
	default:
		return false
	}
}

var databaseTypeNames = map[string]Type{
	"BIT":               TypeBit,
	"TINYINT":           TypeTinyInt,
	"INT2":              TypeSmallInt,
	"SMALLINT":          TypeSmallInt,
	"INT":               TypeInteger,
	"INT4":              TypeInteger,
	"INTEGER":           TypeInteger,
	"MEDIUMINT":         TypeInteger,
	"INT8":              TypeBigInt,
	"BIGINT":            TypeBigInt,
	"FLOAT":             TypeFloat,
	"FLOAT4":            TypeReal,
	"REAL":              TypeReal,
	"FLOAT8":            TypeDouble,
	"DOUBLE":            TypeDouble,
	"DOUBLE PRECISION":  TypeDouble,
	"NUMERIC":           TypeNumeric,
	"DECIMAL":           TypeDecimal,
	"CHAR":              TypeChar,
	"BPCHAR":            TypeChar,
	"CHARACTER":         TypeChar,
	"VARCHAR":           TypeVarChar,
	"CHARACTER VARYING": TypeVarChar,
	"NAME":              TypeVarChar,
	"TEXT":              TypeLongVarChar,
	"TINYTEXT":          TypeLongVarChar,
	"MEDIUMTEXT":        TypeLongVarChar,
	"LONGTEXT":          TypeLongVarChar,
	"NTEXT":             TypeLongNVarChar,
	"NCHAR":             TypeNChar,
	"NVARCHAR":          TypeNVarChar,
	"DATE":              TypeDate,
	"TIME":              TypeTime,
	"TIMETZ":            TypeTime,
	"TIMESTAMP":         TypeTimestamp,
	"TIMESTAMPTZ":       TypeTimestamp,
	"DATETIME":          TypeTimestamp,
	"BINARY":            TypeBinary,
	"BYTEA":             TypeBinary,
	"VARBINARY":         TypeVarBinary,
	"IMAGE":             TypeLongVarBinary,
	"BLOB":              TypeBlob,
	"TINYBLOB":          TypeBlob,
	"MEDIUMBLOB":        TypeBlob,
	"LONGBLOB":          TypeBlob,
	"CLOB":              TypeClob,
	"NCLOB":             TypeNClob,
	"BOOL":              TypeBoolean,
	"BOOLEAN":           TypeBoolean,
	"ARRAY":             TypeArray,
	"NULL":              TypeNull,
}

// systemTypeNames overrides databaseTypeNames for one database system.
// Postgres TEXT is unbounded but is an ordinary string type there, so it
// prints inline; MySQL TEXT keeps the long character type.
var systemTypeNames = map[string]map[string]Type{
	"postgresql": {
		"TEXT":   TypeVarChar,
		"CITEXT": TypeVarChar,
	},
}

// systemAliases folds alternative db.system spellings onto one key.
var systemAliases = map[string]string{
	"postgres":    "postgresql",
	"pg":          "postgresql",
	"pgx":         "postgresql",
	"cockroachdb": "postgresql",
}

// TypeFromDatabaseName maps a driver's DatabaseTypeName (as returned by
// driver.RowsColumnTypeDatabaseTypeName) to a Type. system is the db.system
// value of the connection, e.g. "postgresql" or "mysql"; the same name can
// mean different types on different systems. Length suffixes such as
// "VARCHAR(32)" are ignored. Postgres array names ("_INT4") map to
// TypeArray. Unknown names map to TypeOther.
func TypeFromDatabaseName(system, name string) Type {
	name = strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if name == "" {
		return TypeOther
	}
	if strings.HasPrefix(name, "_") || strings.HasSuffix(name, "[]") {
		return TypeArray
	}

	system = strings.ToLower(strings.TrimSpace(system))
	if alias, ok := systemAliases[system]; ok {
		system = alias
	}
	if t, ok := systemTypeNames[system][name]; ok {
		return t
	}
	if t, ok := databaseTypeNames[name]; ok {
		return t
	}
	return TypeOther
}

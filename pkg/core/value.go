package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ValueKind identifies which member of a Value is set.
type ValueKind int

// Value kinds.
const (
	ValueNull ValueKind = iota
	ValueInt
	ValueFloat
	ValueText
	ValueDate
	ValueBinary
)

// String returns the lowercase name of the kind.
func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	case ValueText:
		return "text"
	case ValueDate:
		return "date"
	case ValueBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Value is a single column value read from one engine and written to another.
// The zero Value is Null.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	t    time.Time
	b    []byte
}

// Null returns the SQL NULL value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: ValueInt, i: v} }

// Float returns a floating point value.
func Float(v float64) Value { return Value{kind: ValueFloat, f: v} }

// Text returns a text value.
func Text(v string) Value { return Value{kind: ValueText, s: v} }

// Date returns a date/time value.
func Date(v time.Time) Value { return Value{kind: ValueDate, t: v} }

// Binary returns a binary value. The slice is copied.
func Binary(v []byte) Value {
	if v == nil {
		return Value{kind: ValueBinary, b: []byte{}}
	}
	return Value{kind: ValueBinary, b: bytes.Clone(v)}
}

// Bool returns 1 for true and 0 for false.
func Bool(v bool) Value {
	if v {
		return Int(1)
	}
	return Int(0)
}

// Kind returns the kind of v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool { return v.kind == ValueNull }

// AsInt returns the integer member.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == ValueInt }

// AsFloat returns the floating point member.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == ValueFloat }

// AsText returns the text member.
func (v Value) AsText() (string, bool) { return v.s, v.kind == ValueText }

// AsDate returns the date member.
func (v Value) AsDate() (time.Time, bool) { return v.t, v.kind == ValueDate }

// AsBinary returns the binary member.
func (v Value) AsBinary() ([]byte, bool) { return v.b, v.kind == ValueBinary }

// Arg returns v as a database/sql argument. Null becomes nil.
func (v Value) Arg() any {
	switch v.kind {
	case ValueInt:
		return v.i
	case ValueFloat:
		return v.f
	case ValueText:
		return v.s
	case ValueDate:
		return v.t
	case ValueBinary:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether v and o have the same kind and member.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueInt:
		return v.i == o.i
	case ValueFloat:
		return v.f == o.f
	case ValueText:
		return v.s == o.s
	case ValueDate:
		return v.t.Equal(o.t)
	case ValueBinary:
		return bytes.Equal(v.b, o.b)
	default:
		return true
	}
}

// String renders v for display.
func (v Value) String() string {
	switch v.kind {
	case ValueInt:
		return strconv.FormatInt(v.i, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case ValueText:
		return v.s
	case ValueDate:
		return v.t.Format(time.RFC3339Nano)
	case ValueBinary:
		return "0x" + strings.ToUpper(hex.EncodeToString(v.b))
	default:
		return "NULL"
	}
}

// Database type names, as reported by sql.ColumnType.DatabaseTypeName, that
// need more than the driver's Go type to classify.
var (
	integerTypes = map[string]bool{
		"TINYINT": true, "SMALLINT": true, "MEDIUMINT": true, "INT": true,
		"INTEGER": true, "BIGINT": true, "YEAR": true,
	}
	floatTypes = map[string]bool{
		"FLOAT": true, "DOUBLE": true, "REAL": true,
	}
	binaryTypes = map[string]bool{
		"BINARY": true, "VARBINARY": true, "IMAGE": true, "BLOB": true,
		"TINYBLOB": true, "MEDIUMBLOB": true, "LONGBLOB": true,
		"GEOMETRY": true, "UDT": true,
	}
)

// FromDriver converts a value scanned into *any to a Value.
// dbType is the column's DatabaseTypeName and may be empty.
//
// Booleans become Int 0/1. Unsigned values above MaxInt64 (BIGINT UNSIGNED)
// become their decimal Text. Exact numerics (DECIMAL, NUMERIC, MONEY) arrive as
// text from both drivers and stay Text so no precision is lost. Byte slices are
// Binary only for binary column types; for unknown types they are Text when
// they hold valid UTF-8.
func FromDriver(src any, dbType string) (Value, error) {
	t := strings.TrimPrefix(strings.ToUpper(dbType), "UNSIGNED ")

	switch v := src.(type) {
	case nil:
		return Null(), nil
	case int64:
		return Int(v), nil
	case int32:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int:
		return Int(int64(v)), nil
	case uint64:
		return fromUint(v), nil
	case uint:
		return fromUint(uint64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case bool:
		return Bool(v), nil
	case float64:
		return Float(v), nil
	case float32:
		return Float(float64(v)), nil
	case string:
		return Text(v), nil
	case time.Time:
		return Date(v), nil
	case []byte:
		return fromBytes(v, t)
	default:
		return Null(), fmt.Errorf("unsupported driver value %T for column type %q", src, dbType)
	}
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Text(strconv.FormatUint(u, 10))
	}
	return Int(int64(u))
}

func fromBytes(b []byte, dbType string) (Value, error) {
	switch {
	case integerTypes[dbType]:
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			if u, uerr := strconv.ParseUint(string(b), 10, 64); uerr == nil {
				return fromUint(u), nil
			}
			return Null(), fmt.Errorf("failed to parse %s value %q: %w", dbType, b, err)
		}
		return Int(n), nil
	case floatTypes[dbType]:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return Null(), fmt.Errorf("failed to parse %s value %q: %w", dbType, b, err)
		}
		return Float(f), nil
	case binaryTypes[dbType]:
		return Binary(b), nil
	case dbType == "" && !utf8.Valid(b):
		return Binary(b), nil
	default:
		return Text(string(b)), nil
	}
}

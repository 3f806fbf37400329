// Package value implements the sum type scenario command payloads are built
// from (§3), and the semantic-equality/canonicalization rules the diff
// engine compares decoded backend documents with (§4.2).
package value

import (
	"fmt"
	"math/big"
	"regexp"
)

// Kind tags which branch of the Value sum type is populated.
type Kind string

const (
	KindNull        Kind = "null"
	KindBool        Kind = "bool"
	KindInt32       Kind = "int32"
	KindInt64       Kind = "int64"
	KindDouble      Kind = "double"
	KindDecimal     Kind = "decimal"
	KindString      Kind = "string"
	KindBytes       Kind = "bytes"
	KindDateTimeMs  Kind = "dateTimeMs"
	KindObjectIDHex Kind = "objectIdHex"
	KindArray       Kind = "array"
	KindObject      Kind = "object"
)

// Value is the recursive sum type command payloads are built from: one of
// Null, Bool, Int32, Int64, Double, Decimal, String, Bytes, DateTimeMs,
// ObjectIdHex, Array(Value), or Object(map[string]Value). The zero Value is
// Null.
type Value struct {
	kind Kind

	b    bool
	i32  int32
	i64  int64
	f64  float64
	dec  string
	str  string
	bin  []byte
	dtMs int64
	oid  string
	arr  []Value
	obj  map[string]Value
}

func (v Value) Kind() Kind { return v.kind }

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int32(i int32) Value { return Value{kind: KindInt32, i32: i} }

func Int64(i int64) Value { return Value{kind: KindInt64, i64: i} }

func Double(f float64) Value { return Value{kind: KindDouble, f64: f} }

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// Decimal builds a Decimal128-like value from its canonical decimal text
// (e.g. "1.000"). Returns an error if s isn't parseable as an arbitrary-
// precision decimal, since a malformed Decimal is a construction-time error,
// not a comparison-time one.
func Decimal(s string) (Value, error) {
	if !decimalPattern.MatchString(s) {
		return Value{}, fmt.Errorf("value: invalid decimal literal %q", s)
	}
	if _, ok := new(big.Rat).SetString(s); !ok {
		return Value{}, fmt.Errorf("value: invalid decimal literal %q", s)
	}
	return Value{kind: KindDecimal, dec: s}, nil
}

func String(s string) Value { return Value{kind: KindString, str: s} }

func Bytes(b []byte) Value {
	cp := append([]byte(nil), b...)
	return Value{kind: KindBytes, bin: cp}
}

// DateTimeMs builds a date value from milliseconds since the Unix epoch.
func DateTimeMs(ms int64) Value { return Value{kind: KindDateTimeMs, dtMs: ms} }

var objectIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// ObjectIDHex builds an ObjectId value from its 24-character lowercase hex
// representation.
func ObjectIDHex(hex string) (Value, error) {
	if !objectIDPattern.MatchString(hex) {
		return Value{}, fmt.Errorf("value: invalid ObjectId hex %q", hex)
	}
	return Value{kind: KindObjectIDHex, oid: hex}, nil
}

func Array(items ...Value) Value {
	cp := append([]Value(nil), items...)
	return Value{kind: KindArray, arr: cp}
}

func Object(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindObject, obj: cp}
}

// DateTimeMillis distinguishes a date value from a plain integer once it has
// left the Value sum type, so a millisecond count and a date at the same
// instant are never accidentally treated as numerically equal.
type DateTimeMillis int64

// ObjectIDHexText distinguishes an ObjectId's hex text from a plain string
// once it has left the Value sum type, per §4.2's "any other type mismatch
// is unequal" — an ObjectId and a string never compare equal even when their
// text matches.
type ObjectIDHexText string

// Decimal128Text carries a Decimal128's canonical decimal text after
// leaving the Value sum type (or after a backend decodes one off the
// wire), so numericRat can fold it into the same arbitrary-precision
// comparison as Int32/Int64/Double.
type Decimal128Text string

// ToAny converts v into the normalized representation Equal and the diff
// engine's canonicalizer operate on: nil, bool, int32, int64, float64,
// Decimal128Text, string, []byte, DateTimeMillis, ObjectIDHexText,
// []any, or map[string]any. This is the single funnel every Value-typed
// payload passes through before comparison (§9 "all boundary conversions
// funnel through a single codec").
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt32:
		return v.i32
	case KindInt64:
		return v.i64
	case KindDouble:
		return v.f64
	case KindDecimal:
		return Decimal128Text(v.dec)
	case KindString:
		return v.str
	case KindBytes:
		return v.bin
	case KindDateTimeMs:
		return DateTimeMillis(v.dtMs)
	case KindObjectIDHex:
		return ObjectIDHexText(v.oid)
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.ToAny()
		}
		return out
	default:
		return nil
	}
}

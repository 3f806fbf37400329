package value

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// wireValue is Value's on-disk shape for replay bundles: every branch keeps
// its Kind tag explicitly, rather than round-tripping through ToAny's plain
// JSON numbers, so Int32 and Double (for example) survive a save/load cycle
// distinguishably instead of collapsing to whichever numeric type
// encoding/json happens to decode a bare number into.
type wireValue struct {
	Kind  Kind             `json:"kind"`
	Bool  bool             `json:"bool,omitempty"`
	I32   int32            `json:"i32,omitempty"`
	I64   int64            `json:"i64,omitempty"`
	F64   float64          `json:"f64,omitempty"`
	Str   string           `json:"str,omitempty"`
	Bin   string           `json:"bin,omitempty"`
	Arr   []Value          `json:"arr,omitempty"`
	Obj   map[string]Value `json:"obj,omitempty"`
}

// MarshalJSON implements json.Marshaler so a Value round-trips through
// replay-bundle persistence without losing which Kind produced it.
func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Kind: v.kind}
	switch v.kind {
	case KindBool:
		w.Bool = v.b
	case KindInt32:
		w.I32 = v.i32
	case KindInt64:
		w.I64 = v.i64
	case KindDouble:
		w.F64 = v.f64
	case KindDecimal:
		w.Str = v.dec
	case KindString:
		w.Str = v.str
	case KindBytes:
		w.Bin = base64.StdEncoding.EncodeToString(v.bin)
	case KindDateTimeMs:
		w.I64 = v.dtMs
	case KindObjectIDHex:
		w.Str = v.oid
	case KindArray:
		w.Arr = v.arr
	case KindObject:
		w.Obj = v.obj
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler, the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(b []byte) error {
	var w wireValue
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "", KindNull:
		*v = Null()
	case KindBool:
		*v = Bool(w.Bool)
	case KindInt32:
		*v = Int32(w.I32)
	case KindInt64:
		*v = Int64(w.I64)
	case KindDouble:
		*v = Double(w.F64)
	case KindDecimal:
		dec, err := Decimal(w.Str)
		if err != nil {
			return fmt.Errorf("value: decode decimal: %w", err)
		}
		*v = dec
	case KindString:
		*v = String(w.Str)
	case KindBytes:
		bin, err := base64.StdEncoding.DecodeString(w.Bin)
		if err != nil {
			return fmt.Errorf("value: decode bytes: %w", err)
		}
		*v = Bytes(bin)
	case KindDateTimeMs:
		*v = DateTimeMs(w.I64)
	case KindObjectIDHex:
		oid, err := ObjectIDHex(w.Str)
		if err != nil {
			return fmt.Errorf("value: decode objectId: %w", err)
		}
		*v = oid
	case KindArray:
		*v = Array(w.Arr...)
	case KindObject:
		*v = Object(w.Obj)
	default:
		return fmt.Errorf("value: unknown kind %q", w.Kind)
	}
	return nil
}

package value

import (
	"bytes"
	"encoding/json"
	"math/big"
)

// Equal implements §4.2's semantic equality over the normalized document
// shapes Value.ToAny and the backend adapters' response normalization
// produce: Null≡Null; any two numeric-category values compare equal iff
// their arbitrary-precision decimal representations match (so
// Int32(1) == Double(1.0) == Decimal128Text("1.000")); strings, booleans,
// byte strings, dates, and ObjectIds compare by value within their own
// category; objects are equal iff they share a key set and every child is
// equal; arrays compare pairwise by index; any other type pairing is
// unequal.
func Equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if ar, aOK := numericRat(a); aOK {
		br, bOK := numericRat(b)
		return bOK && ar.Cmp(br) == 0
	}
	if _, bOK := numericRat(b); bOK {
		return false
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case DateTimeMillis:
		bv, ok := b.(DateTimeMillis)
		return ok && av == bv
	case ObjectIDHexText:
		bv, ok := b.(ObjectIDHexText)
		return ok && av == bv
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v1 := range av {
			v2, present := bv[k]
			if !present || !Equal(v1, v2) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// AsFloat64 reports the float64 value of v if v belongs to the numeric
// category, used by response-success classification ("ok == 1.0") where an
// exact decimal comparison would be overkill.
func AsFloat64(v any) (float64, bool) {
	r, ok := numericRat(v)
	if !ok {
		return 0, false
	}
	f, _ := r.Float64()
	return f, true
}

// numericRat extracts an arbitrary-precision rational from v if v belongs to
// the numeric category (int, int32, int64, float32, float64, json.Number,
// Decimal128Text). NaN and Inf floats are never numerically equal to
// anything, including themselves, so they report ok=false.
func numericRat(v any) (*big.Rat, bool) {
	switch t := v.(type) {
	case int:
		return big.NewRat(int64(t), 1), true
	case int32:
		return big.NewRat(int64(t), 1), true
	case int64:
		return big.NewRat(t, 1), true
	case float32:
		r := new(big.Rat)
		rr, ok := r.SetFloat64(float64(t))
		if !ok {
			return nil, false
		}
		return rr, true
	case float64:
		r := new(big.Rat)
		rr, ok := r.SetFloat64(t)
		if !ok {
			return nil, false
		}
		return rr, true
	case json.Number:
		r, ok := new(big.Rat).SetString(string(t))
		return r, ok
	case Decimal128Text:
		r, ok := new(big.Rat).SetString(string(t))
		return r, ok
	default:
		return nil, false
	}
}

package scenario

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/midagedev/jongodb-differ/internal/value"
)

// BuildCommandDocument translates a ScenarioCommand into the ordered wire
// document a backend sends, per §4.1's "payload-to-command translation":
// the command value is chosen in priority order — payload[commandName],
// then payload["collection"], then payload["commandValue"], else the
// integer 1 — the consumed key is removed, and the remaining payload
// entries are appended in declaration order. If no payload entry is
// exactly "$db", defaultDB is injected as the final field.
func BuildCommandDocument(cmd ScenarioCommand, defaultDB string) (bson.D, error) {
	commandValue, consumedKey, err := commandValueOf(cmd)
	if err != nil {
		return nil, err
	}

	doc := bson.D{{Key: cmd.CommandName, Value: commandValue}}
	hasDB := false
	for _, f := range cmd.Payload {
		if f.Key == consumedKey {
			continue
		}
		if f.Key == "$db" {
			hasDB = true
		}
		bv, err := toBSONValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("scenario: command %q field %q: %w", cmd.CommandName, f.Key, err)
		}
		doc = append(doc, bson.E{Key: f.Key, Value: bv})
	}
	if !hasDB {
		doc = append(doc, bson.E{Key: "$db", Value: defaultDB})
	}
	return doc, nil
}

func commandValueOf(cmd ScenarioCommand) (any, string, error) {
	for _, key := range []string{cmd.CommandName, "collection", "commandValue"} {
		if key == "" {
			continue
		}
		if v, ok := cmd.Get(key); ok {
			bv, err := toBSONValue(v)
			if err != nil {
				return nil, "", fmt.Errorf("scenario: command %q value field %q: %w", cmd.CommandName, key, err)
			}
			return bv, key, nil
		}
	}
	return int32(1), "", nil
}

// toBSONValue converts a Value into a mongo-driver bson-compatible value by
// way of value.Value.ToAny's normalized representation — the same funnel
// the diff engine's comparisons use, so a command built here and a response
// decoded off the wire are directly comparable once both pass through it.
func toBSONValue(v value.Value) (any, error) {
	return normalizedToBSON(v.ToAny())
}

func normalizedToBSON(a any) (any, error) {
	switch t := a.(type) {
	case nil:
		return nil, nil
	case bool, int32, int64, float64, string:
		return t, nil
	case []byte:
		return primitive.Binary{Subtype: 0x00, Data: t}, nil
	case value.Decimal128Text:
		d, err := primitive.ParseDecimal128(string(t))
		if err != nil {
			return nil, fmt.Errorf("invalid decimal128 %q: %w", t, err)
		}
		return d, nil
	case value.DateTimeMillis:
		return primitive.NewDateTimeFromTime(time.UnixMilli(int64(t))), nil
	case value.ObjectIDHexText:
		oid, err := primitive.ObjectIDFromHex(string(t))
		if err != nil {
			return nil, fmt.Errorf("invalid ObjectId hex %q: %w", t, err)
		}
		return oid, nil
	case []any:
		arr := make(bson.A, len(t))
		for i, e := range t {
			cv, err := normalizedToBSON(e)
			if err != nil {
				return nil, err
			}
			arr[i] = cv
		}
		return arr, nil
	case map[string]any:
		m := bson.M{}
		for k, e := range t {
			cv, err := normalizedToBSON(e)
			if err != nil {
				return nil, err
			}
			m[k] = cv
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported normalized value type %T", a)
	}
}

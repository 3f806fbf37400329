package backend

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/midagedev/jongodb-differ/internal/value"
)

// DecodeDocument turns a raw wire response into the normalized map[string]any
// shape value.Equal expects — the same funnel scenario.BuildCommandDocument
// uses on the way in, applied here on the way out, so a command built from a
// Scenario and a response read off either backend land in one comparable
// representation.
func DecodeDocument(raw bson.Raw) (map[string]any, error) {
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("backend: decode response: %w", err)
	}
	out, _ := normalizeBSON(d).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func normalizeBSON(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeBSON(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalizeBSON(e)
		}
		return m
	case bson.A:
		arr := make([]any, len(t))
		for i, e := range t {
			arr[i] = normalizeBSON(e)
		}
		return arr
	case primitive.ObjectID:
		return value.ObjectIDHexText(t.Hex())
	case primitive.DateTime:
		return value.DateTimeMillis(int64(t))
	case primitive.Decimal128:
		return value.Decimal128Text(t.String())
	case primitive.Binary:
		return append([]byte(nil), t.Data...)
	case primitive.Timestamp:
		return map[string]any{"t": int64(t.T), "i": int64(t.I)}
	case primitive.Null:
		return nil
	case primitive.Undefined:
		return nil
	case nil:
		return nil
	default:
		return t
	}
}

// NormalizeReferenceResponse applies §4.1's countDocuments shape equalization:
// read n from either the direct response or cursor.firstBatch[0].n and
// normalize to {n, count, ok}.
func NormalizeReferenceResponse(commandName string, doc map[string]any) map[string]any {
	if !strings.EqualFold(commandName, "countDocuments") {
		return doc
	}
	n, ok := extractCount(doc)
	if !ok {
		return doc
	}
	out := map[string]any{"n": n, "count": n}
	if okField, present := doc["ok"]; present {
		out["ok"] = okField
	}
	return out
}

func extractCount(doc map[string]any) (any, bool) {
	if n, ok := doc["n"]; ok {
		return n, true
	}
	cursor, ok := doc["cursor"].(map[string]any)
	if !ok {
		return nil, false
	}
	firstBatch, ok := cursor["firstBatch"].([]any)
	if !ok || len(firstBatch) == 0 {
		return nil, false
	}
	first, ok := firstBatch[0].(map[string]any)
	if !ok {
		return nil, false
	}
	n, ok := first["n"]
	return n, ok
}

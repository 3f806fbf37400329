// Package store provides the atomic filesystem primitives shared by every
// artifact-producing component: canonical JSON encoding, atomic single-writer
// file replace, JSONL append, directory locking, and content hashing.
package store

import (
	"bytes"
	"encoding/json"
	"sort"
)

// CanonicalJSON encodes v as JSON with keys sorted lexicographically at every
// level (per spec.md §6's "Canonical JSON" file format), HTML escaping
// disabled for artifact legibility, and no surrounding whitespace.
func CanonicalJSON(v any) ([]byte, error) {
	ordered, err := toOrderedValue(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ordered); err != nil {
		return nil, err
	}
	b := buf.Bytes()
	if len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}
	return b, nil
}

// toOrderedValue round-trips v through encoding/json so arbitrary struct
// values are normalized to map[string]any/[]any/scalars, then recursively
// rewrites maps into orderedMap so json.Marshal visits keys in sorted order.
// encoding/json already sorts map[string]T keys at marshal time, but that
// guarantee only applies when Go's marshaler itself walks the map; once a
// map has been generically decoded into any, we make the ordering explicit
// and total at every nesting depth ourselves.
func toOrderedValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return orderValue(generic), nil
}

func orderValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		om := orderedMap{keys: keys, values: make(map[string]any, len(x))}
		for _, k := range keys {
			om.values[k] = orderValue(x[k])
		}
		return om
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = orderValue(e)
		}
		return out
	default:
		return x
	}
}

// orderedMap marshals its keys in a fixed, pre-sorted order.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func (m orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

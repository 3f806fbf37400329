package fixture

import "sort"

// CanonicalizeDocument returns a deep copy of doc as a plain
// map[string]any/[]any/scalar tree. Go maps carry no key order, so the copy
// does not fix one either; byte-level artifacts get their deterministic key
// order from store.CanonicalJSON, which sorts keys when encoding.
func CanonicalizeDocument(doc map[string]any) map[string]any {
	return canonicalizeValue(doc).(map[string]any)
}

func canonicalizeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = canonicalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = canonicalizeValue(e)
		}
		return out
	default:
		return x
	}
}

// FieldNames returns the distinct dotted field paths present anywhere in
// doc, sorted. Nested objects contribute "parent.child"; arrays do not
// contribute an index-qualified path, only the shared shape of their
// elements (fixture drift cares about schema, not array length).
func FieldNames(doc map[string]any) []string {
	set := map[string]struct{}{}
	collectFieldNames("", doc, set)
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectFieldNames(prefix string, v any, out map[string]struct{}) {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			out[path] = struct{}{}
			collectFieldNames(path, val, out)
		}
	case []any:
		for _, e := range x {
			collectFieldNames(prefix, e, out)
		}
	}
}

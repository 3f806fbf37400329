// Package fixture implements the Fixture Artifact Pipeline (§4.6): capturing
// collections to portable and fast on-disk encodings, tracking them with a
// manifest, sanitizing captured documents, and diffing fixture sets for
// drift.
package fixture

import "sort"

// CollectionSet maps a fully-qualified namespace ("<db>.<coll>") to its
// documents.
type CollectionSet map[string][]map[string]any

// SortedNamespaces returns the set's namespaces in lexicographic order, the
// canonical ordering every encoding and hash in this package uses.
func (c CollectionSet) SortedNamespaces() []string {
	out := make([]string, 0, len(c))
	for ns := range c {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// DocumentCount returns the total document count across all namespaces.
func (c CollectionSet) DocumentCount() int {
	n := 0
	for _, docs := range c {
		n += len(docs)
	}
	return n
}

package fixture

import (
	"fmt"
	"sort"

	"github.com/midagedev/jongodb-differ/internal/store"
)

const (
	// ManifestSchemaVersion is the JSON schema version of manifest.json
	// itself. A manifest with an unsupported schemaVersion is treated as
	// absent by Load (portable-only fallback).
	ManifestSchemaVersion = 1

	// ArtifactFormatVersion versions the portable+fast payload layout as a
	// pair. A manifest whose artifactFormatVersion does not match ours is a
	// hard error: we do not know how to interpret either file.
	ArtifactFormatVersion = 1
)

// NamespaceManifest records one namespace's shape and the files backing it.
type NamespaceManifest struct {
	Namespace     string   `json:"namespace"`
	DocumentCount int      `json:"documentCount"`
	FieldNames    []string `json:"fieldNames"`
}

// ManifestTotals rolls up Namespaces into the collection/document counts
// §3/§4.6 list alongside the per-namespace breakdown, so a reader doesn't
// have to sum Namespaces by hand.
type ManifestTotals struct {
	CollectionCount int `json:"collectionCount"`
	DocumentCount   int `json:"documentCount"`
}

// ManifestV1 is the artifact manifest written alongside the portable and
// (optionally) fast encodings.
type ManifestV1 struct {
	SchemaVersion         int                  `json:"schemaVersion"`
	ArtifactFormatVersion int                  `json:"artifactFormatVersion"`
	PortableFormatVersion int                  `json:"portableFormatVersion"`
	FixtureVersion        string               `json:"fixtureVersion"`
	DataSchemaHash        string               `json:"dataSchemaHash"`
	Namespaces            []NamespaceManifest  `json:"namespaces"`
	Totals                ManifestTotals       `json:"totals"`
	Portable              PortableFileManifest `json:"portable"`
	Fast                  *FastFileManifest    `json:"fast,omitempty"`
	Changelog             []string             `json:"changelog,omitempty"`
}

type PortableFileManifest struct {
	File          string `json:"file"`
	SHA256        string `json:"sha256"`
	DocumentCount int    `json:"documentCount"`
}

// BuildManifestTotals sums namespaces into the manifest-level rollup.
func BuildManifestTotals(namespaces []NamespaceManifest) ManifestTotals {
	t := ManifestTotals{CollectionCount: len(namespaces)}
	for _, n := range namespaces {
		t.DocumentCount += n.DocumentCount
	}
	return t
}

// FastFileManifest is present only when a fast snapshot was generated for
// the current engine. Load regenerates it (in place, leaving Portable and
// DataSchemaHash untouched) whenever EngineVersion or FastFormatVersion
// drifts from the running engine.
type FastFileManifest struct {
	File             string `json:"file"`
	SHA256           string `json:"sha256"`
	Documents        int    `json:"documents"`
	EngineVersion    string `json:"engineVersion"`
	FastFormatVersion int   `json:"fastFormatVersion"`
	UpdatedAt        string `json:"updatedAt"`
}

// BuildNamespaceManifests derives one NamespaceManifest per namespace in
// set, sorted by namespace.
func BuildNamespaceManifests(set CollectionSet) []NamespaceManifest {
	namespaces := set.SortedNamespaces()
	out := make([]NamespaceManifest, 0, len(namespaces))
	fieldSet := map[string]struct{}{}
	for _, ns := range namespaces {
		for k := range fieldSet {
			delete(fieldSet, k)
		}
		for _, doc := range set[ns] {
			for _, f := range FieldNames(doc) {
				fieldSet[f] = struct{}{}
			}
		}
		fields := make([]string, 0, len(fieldSet))
		for f := range fieldSet {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		out = append(out, NamespaceManifest{
			Namespace:     ns,
			DocumentCount: len(set[ns]),
			FieldNames:    fields,
		})
	}
	return out
}

// DataSchemaHash derives a hash stable under document key reordering and
// sensitive to schema or cardinality changes: the sorted namespace list,
// each namespace's sorted distinct field names, and its document count.
func DataSchemaHash(namespaces []NamespaceManifest) (string, error) {
	b, err := store.CanonicalJSON(namespaces)
	if err != nil {
		return "", fmt.Errorf("fixture: hash data schema: %w", err)
	}
	return store.SHA256Hex(b), nil
}

// Changelog compares prev against next's namespace manifests, per §4.6:
// collection-count delta, total-document delta, per-namespace delta. A nil
// prev yields a single "initial artifact publication" entry; no deltas
// yields a single "no collection-level delta" entry.
func Changelog(prev, next []NamespaceManifest) []string {
	if prev == nil {
		return []string{"initial artifact publication"}
	}

	prevByNS := map[string]NamespaceManifest{}
	for _, n := range prev {
		prevByNS[n.Namespace] = n
	}
	nextByNS := map[string]NamespaceManifest{}
	for _, n := range next {
		nextByNS[n.Namespace] = n
	}

	var entries []string
	if d := len(next) - len(prev); d != 0 {
		entries = append(entries, fmt.Sprintf("collection count changed by %+d (now %d)", d, len(next)))
	}

	prevDocs, nextDocs := 0, 0
	for _, n := range prev {
		prevDocs += n.DocumentCount
	}
	for _, n := range next {
		nextDocs += n.DocumentCount
	}
	if d := nextDocs - prevDocs; d != 0 {
		entries = append(entries, fmt.Sprintf("total document count changed by %+d (now %d)", d, nextDocs))
	}

	namespaces := map[string]struct{}{}
	for ns := range prevByNS {
		namespaces[ns] = struct{}{}
	}
	for ns := range nextByNS {
		namespaces[ns] = struct{}{}
	}
	sortedNS := make([]string, 0, len(namespaces))
	for ns := range namespaces {
		sortedNS = append(sortedNS, ns)
	}
	sort.Strings(sortedNS)

	for _, ns := range sortedNS {
		p, hasPrev := prevByNS[ns]
		n, hasNext := nextByNS[ns]
		switch {
		case !hasPrev:
			entries = append(entries, fmt.Sprintf("namespace %s added (%d docs)", ns, n.DocumentCount))
		case !hasNext:
			entries = append(entries, fmt.Sprintf("namespace %s removed (had %d docs)", ns, p.DocumentCount))
		case p.DocumentCount != n.DocumentCount:
			entries = append(entries, fmt.Sprintf("namespace %s document count changed by %+d (now %d)", ns, n.DocumentCount-p.DocumentCount, n.DocumentCount))
		}
	}

	if len(entries) == 0 {
		return []string{"no collection-level delta"}
	}
	return entries
}

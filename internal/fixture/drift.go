package fixture

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/midagedev/jongodb-differ/internal/store"
)

// DriftStatus classifies a single document's fate between two captures.
type DriftStatus string

const (
	DriftAdded     DriftStatus = "ADDED"
	DriftRemoved   DriftStatus = "REMOVED"
	DriftChanged   DriftStatus = "CHANGED"
	DriftUnchanged DriftStatus = "UNCHANGED"
)

// DocDrift is one document's classification within a namespace.
type DocDrift struct {
	Key    string
	Status DriftStatus
}

// NamespaceDrift is the full per-namespace drift breakdown plus its score:
// (added+removed+changed) / max(1, baseline document count). The
// denominator is the prior capture's document count, not the union of both
// captures' keys — §8's end-to-end scenario 6 (baseline 100, +20 added, 0
// removed, 10 changed) pins Score at 0.30 (30/100), which only the baseline
// count reproduces; a union-count denominator (120) would understate it.
type NamespaceDrift struct {
	Namespace string
	Docs      []DocDrift
	Added     int
	Removed   int
	Changed   int
	Unchanged int
	Score     float64
}

// Report is the full drift analysis across every namespace present in
// either snapshot.
type Report struct {
	Namespaces []NamespaceDrift
}

// docKey returns doc's "_id" field stringified, or, absent that, a blake3
// digest of its canonical JSON — giving every document a stable identity
// even when the source collection has no _id captured. blake3 is used here
// purely as the drift analyzer's internal dedup key; the externally-visible
// manifest and portable-file hashes stay sha256 (see manifest.go, io.go).
func docKey(doc map[string]any) (string, error) {
	if id, ok := doc["_id"]; ok {
		return fmt.Sprintf("%v", id), nil
	}
	b, err := store.CanonicalJSON(CanonicalizeDocument(doc))
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(b)
	return "blake3:" + hex.EncodeToString(sum[:]), nil
}

// Analyze diffs prev against next, namespace by namespace.
func Analyze(prev, next CollectionSet) (Report, error) {
	namespaces := map[string]struct{}{}
	for ns := range prev {
		namespaces[ns] = struct{}{}
	}
	for ns := range next {
		namespaces[ns] = struct{}{}
	}

	var report Report
	for _, ns := range sortedKeys(namespaces) {
		nd, err := analyzeNamespace(ns, prev[ns], next[ns])
		if err != nil {
			return Report{}, err
		}
		report.Namespaces = append(report.Namespaces, nd)
	}
	return report, nil
}

func analyzeNamespace(ns string, prevDocs, nextDocs []map[string]any) (NamespaceDrift, error) {
	prevByKey := map[string][]byte{}
	for _, d := range prevDocs {
		k, err := docKey(d)
		if err != nil {
			return NamespaceDrift{}, err
		}
		b, err := store.CanonicalJSON(CanonicalizeDocument(d))
		if err != nil {
			return NamespaceDrift{}, err
		}
		prevByKey[k] = b
	}
	nextByKey := map[string][]byte{}
	for _, d := range nextDocs {
		k, err := docKey(d)
		if err != nil {
			return NamespaceDrift{}, err
		}
		b, err := store.CanonicalJSON(CanonicalizeDocument(d))
		if err != nil {
			return NamespaceDrift{}, err
		}
		nextByKey[k] = b
	}

	keys := map[string]struct{}{}
	for k := range prevByKey {
		keys[k] = struct{}{}
	}
	for k := range nextByKey {
		keys[k] = struct{}{}
	}

	nd := NamespaceDrift{Namespace: ns}
	for _, k := range sortedKeys(keys) {
		pb, hasPrev := prevByKey[k]
		nb, hasNext := nextByKey[k]
		var status DriftStatus
		switch {
		case !hasPrev:
			status = DriftAdded
			nd.Added++
		case !hasNext:
			status = DriftRemoved
			nd.Removed++
		case string(pb) != string(nb):
			status = DriftChanged
			nd.Changed++
		default:
			status = DriftUnchanged
			nd.Unchanged++
		}
		nd.Docs = append(nd.Docs, DocDrift{Key: k, Status: status})
	}

	baseline := len(prevDocs)
	if baseline == 0 {
		baseline = 1
	}
	nd.Score = float64(nd.Added+nd.Removed+nd.Changed) / float64(baseline)
	return nd, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Thresholds gates a drift Report into a pass/warn/fail verdict.
// failThreshold must be >= warnThreshold; Validate enforces this.
type Thresholds struct {
	WarnScore float64
	FailScore float64
}

func (t Thresholds) Validate() error {
	if t.FailScore < t.WarnScore {
		return fmt.Errorf("fixture: failThreshold (%v) must be >= warnThreshold (%v)", t.FailScore, t.WarnScore)
	}
	return nil
}

// Verdict classifies report's worst per-namespace score against t.
func (t Thresholds) Verdict(report Report) string {
	worst := 0.0
	for _, nd := range report.Namespaces {
		if nd.Score > worst {
			worst = nd.Score
		}
	}
	switch {
	case worst >= t.FailScore:
		return "FAIL"
	case worst >= t.WarnScore:
		return "WARN"
	default:
		return "PASS"
	}
}

package fixture

import (
	"fmt"
	"testing"
)

func TestAnalyze_ClassifiesAddedRemovedChangedUnchanged(t *testing.T) {
	prev := CollectionSet{
		"app.widgets": {
			{"_id": "w1", "name": "gadget"},
			{"_id": "w2", "name": "gizmo"},
		},
	}
	next := CollectionSet{
		"app.widgets": {
			{"_id": "w1", "name": "gadget"},
			{"_id": "w2", "name": "gizmo-renamed"},
			{"_id": "w3", "name": "new-thing"},
		},
	}
	report, err := Analyze(prev, next)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(report.Namespaces) != 1 {
		t.Fatalf("expected 1 namespace, got %d", len(report.Namespaces))
	}
	nd := report.Namespaces[0]
	if nd.Added != 1 || nd.Changed != 1 || nd.Unchanged != 1 || nd.Removed != 0 {
		t.Fatalf("unexpected drift breakdown: %+v", nd)
	}
	if nd.Score <= 0 || nd.Score >= 1 {
		t.Fatalf("expected score in (0,1), got %v", nd.Score)
	}
}

func TestAnalyze_DetectsRemovedDocuments(t *testing.T) {
	prev := CollectionSet{"app.widgets": {{"_id": "w1"}, {"_id": "w2"}}}
	next := CollectionSet{"app.widgets": {{"_id": "w1"}}}
	report, err := Analyze(prev, next)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Namespaces[0].Removed != 1 {
		t.Fatalf("expected 1 removed doc, got %+v", report.Namespaces[0])
	}
}

func TestAnalyze_DriftScoreUsesBaselineCountDenominator(t *testing.T) {
	// Spec end-to-end scenario 6: baseline 100 docs, +20 added, 0 removed,
	// 10 changed => Score = 0.30 (denominator is the baseline count, 100,
	// not the 120-key union of both captures).
	prev := CollectionSet{"db.users": make([]map[string]any, 100)}
	for i := 0; i < 100; i++ {
		prev["db.users"][i] = map[string]any{"_id": fmt.Sprintf("u%d", i), "n": int32(i)}
	}
	next := CollectionSet{"db.users": make([]map[string]any, 0, 120)}
	for i := 0; i < 100; i++ {
		n := int32(i)
		if i < 10 {
			n = int32(-1) // changed value for the first 10 docs
		}
		next["db.users"] = append(next["db.users"], map[string]any{"_id": fmt.Sprintf("u%d", i), "n": n})
	}
	for i := 100; i < 120; i++ {
		next["db.users"] = append(next["db.users"], map[string]any{"_id": fmt.Sprintf("u%d", i), "n": int32(i)})
	}

	report, err := Analyze(prev, next)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	nd := report.Namespaces[0]
	if nd.Added != 20 || nd.Removed != 0 || nd.Changed != 10 {
		t.Fatalf("unexpected drift breakdown: %+v", nd)
	}
	if nd.Score != 0.30 {
		t.Fatalf("expected Score=0.30, got %v", nd.Score)
	}

	th := Thresholds{WarnScore: 0.15, FailScore: 0.30}
	if got := th.Verdict(report); got != "FAIL" {
		t.Fatalf("expected FAIL verdict per the pinned scenario, got %s", got)
	}
}

func TestThresholds_ValidateRejectsFailBelowWarn(t *testing.T) {
	th := Thresholds{WarnScore: 0.5, FailScore: 0.2}
	if err := th.Validate(); err == nil {
		t.Fatalf("expected error when failThreshold < warnThreshold")
	}
}

func TestThresholds_VerdictClassifiesByWorstNamespace(t *testing.T) {
	th := Thresholds{WarnScore: 0.2, FailScore: 0.5}
	report := Report{Namespaces: []NamespaceDrift{{Namespace: "a", Score: 0.1}, {Namespace: "b", Score: 0.6}}}
	if got := th.Verdict(report); got != "FAIL" {
		t.Fatalf("expected FAIL, got %s", got)
	}
	report2 := Report{Namespaces: []NamespaceDrift{{Namespace: "a", Score: 0.3}}}
	if got := th.Verdict(report2); got != "WARN" {
		t.Fatalf("expected WARN, got %s", got)
	}
	report3 := Report{Namespaces: []NamespaceDrift{{Namespace: "a", Score: 0.0}}}
	if got := th.Verdict(report3); got != "PASS" {
		t.Fatalf("expected PASS, got %s", got)
	}
}

func TestDocKey_FallsBackToContentHashWhenNoID(t *testing.T) {
	doc := map[string]any{"name": "no-id-doc"}
	k, err := docKey(doc)
	if err != nil {
		t.Fatalf("docKey: %v", err)
	}
	if len(k) < 7 || k[:7] != "blake3:" {
		t.Fatalf("expected blake3:-prefixed fallback key, got %q", k)
	}
}

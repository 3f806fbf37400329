package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/midagedev/jongodb-differ/internal/diffengine"
	"github.com/midagedev/jongodb-differ/internal/harness"
	"github.com/midagedev/jongodb-differ/internal/qualitygate"
)

func sampleDifferentialReport() harness.DifferentialReport {
	return harness.DifferentialReport{
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		LeftBackend: "in-process", RightBackend: "reference",
		Results: []diffengine.DiffResult{
			{ScenarioID: "s1", LeftBackend: "in-process", RightBackend: "reference", Status: diffengine.StatusMatch},
			{ScenarioID: "s2", LeftBackend: "in-process", RightBackend: "reference", Status: diffengine.StatusMismatch,
				Entries: []diffengine.DiffEntry{{Path: "$[0].n", Left: int32(1), Right: int32(2), Note: "value differs"}}},
			{ScenarioID: "s3", LeftBackend: "in-process", RightBackend: "reference", Status: diffengine.StatusError, ErrorMessage: "boom"},
		},
	}
}

func TestWriteDifferentialReportJSON_WritesCanonicalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	if err := WriteDifferentialReportJSON(path, sampleDifferentialReport()); err != nil {
		t.Fatalf("WriteDifferentialReportJSON: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written report: %v", err)
	}
	if !strings.Contains(string(raw), `"ScenarioID":"s2"`) {
		t.Fatalf("expected written report to contain scenario s2, got %s", raw)
	}
}

func TestRenderDifferentialMarkdown_SkipsMatchesAndRendersMismatchAndError(t *testing.T) {
	md := RenderDifferentialMarkdown(sampleDifferentialReport())
	if strings.Contains(md, "MATCH: s1") {
		t.Fatalf("expected MATCH results to be skipped, got:\n%s", md)
	}
	if !strings.Contains(md, "MISMATCH: s2") {
		t.Fatalf("expected MISMATCH section for s2, got:\n%s", md)
	}
	if !strings.Contains(md, "ERROR: s3") || !strings.Contains(md, "boom") {
		t.Fatalf("expected ERROR section for s3 with its message, got:\n%s", md)
	}
	if !strings.Contains(md, "| 3 | 1 | 1 | 1 |") {
		t.Fatalf("expected totals row 3/1/1/1, got:\n%s", md)
	}
}

func TestWriteQualityGateReportJSON_WritesCanonicalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gate.json")
	r := QualityGateReport{
		GeneratedAt: "2026-01-02T03:04:05Z",
		Metrics:     QualityGateMetrics{CompatibilityPassRate: 0.99, FlakeRate: 0.001, P95LatencyMillis: 4.2, ReproTimeP50Minutes: 1.0},
		GateResults: []qualitygate.GateResult{{Name: "compatibility-pass-rate", Metric: 0.99, Operator: ">=", Threshold: 0.95, Pass: true}},
	}
	if err := WriteQualityGateReportJSON(path, r); err != nil {
		t.Fatalf("WriteQualityGateReportJSON: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written gate report: %v", err)
	}
	if !strings.Contains(string(raw), `"compatibilityPassRate":0.99`) {
		t.Fatalf("expected metrics in written report, got %s", raw)
	}
}

func TestRenderQualityGateMarkdown_RendersEachPresentSection(t *testing.T) {
	r := QualityGateReport{
		GeneratedAt: "2026-01-02T03:04:05Z",
		GateResults: []qualitygate.GateResult{{Name: "flake-rate", Metric: 0.001, Operator: "<=", Threshold: 0.005, Pass: true}},
		R3: &qualitygate.R3FailureLedger{Pass: false, Entries: []qualitygate.LedgerEntry{{SuiteID: "suite-a", ScenarioID: "s1", Status: diffengine.StatusMismatch, Track: qualitygate.TrackQueryUpdate}}},
	}
	md := RenderQualityGateMarkdown(r)
	if !strings.Contains(md, "Standard Gates") {
		t.Fatalf("expected standard gates section, got:\n%s", md)
	}
	if !strings.Contains(md, "R3 Failure Ledger") || !strings.Contains(md, "suite-a/s1") {
		t.Fatalf("expected R3 section with the failing entry, got:\n%s", md)
	}
}

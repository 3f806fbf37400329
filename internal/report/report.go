// Package report renders the harness's DifferentialReport and the quality
// gate's aggregator outputs to JSON and Markdown, for the CLI's human- and
// machine-readable output modes.
package report

import (
	"fmt"
	"strings"

	"github.com/midagedev/jongodb-differ/internal/diffengine"
	"github.com/midagedev/jongodb-differ/internal/harness"
	"github.com/midagedev/jongodb-differ/internal/qualitygate"
	"github.com/midagedev/jongodb-differ/internal/store"
)

// WriteDifferentialReportJSON renders r as canonical JSON and writes it to
// path atomically.
func WriteDifferentialReportJSON(path string, r harness.DifferentialReport) error {
	b, err := store.CanonicalJSON(r)
	if err != nil {
		return fmt.Errorf("report: encode differential report: %w", err)
	}
	return store.WriteFileAtomic(path, b)
}

// RenderDifferentialMarkdown renders r as a human-readable Markdown
// summary: a totals table, then one section per non-MATCH result with its
// diff entries rendered via diffengine.RenderHuman.
func RenderDifferentialMarkdown(r harness.DifferentialReport) string {
	total, match, mismatch, errCount := r.Counters()

	var b strings.Builder
	fmt.Fprintf(&b, "# Differential Report\n\n")
	fmt.Fprintf(&b, "- generated: %s\n", r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(&b, "- left: %s\n", r.LeftBackend)
	fmt.Fprintf(&b, "- right: %s\n\n", r.RightBackend)

	fmt.Fprintf(&b, "| total | match | mismatch | error |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", total, match, mismatch, errCount)

	for _, dr := range r.Results {
		if dr.Status == diffengine.StatusMatch {
			continue
		}
		fmt.Fprintf(&b, "## %s: %s\n\n", dr.Status, dr.ScenarioID)
		if dr.Status == diffengine.StatusError {
			fmt.Fprintf(&b, "%s\n\n", dr.ErrorMessage)
			continue
		}
		for _, e := range dr.Entries {
			fmt.Fprintf(&b, "- `%s`: %s\n", e.Path, diffengine.RenderHuman(e))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// QualityGateReport is the rolled-up §4.7 QualityGateReport: the standard
// gates plus whichever R1/R2/R3 aggregator reports were run in this
// invocation (any of which may be nil when not applicable).
type QualityGateReport struct {
	GeneratedAt string                              `json:"generatedAt"`
	Metrics     QualityGateMetrics                  `json:"metrics"`
	GateResults []qualitygate.GateResult            `json:"gateResults"`
	R1          *qualitygate.R1Report               `json:"r1,omitempty"`
	R2Scorecard *qualitygate.R2Scorecard            `json:"r2Scorecard,omitempty"`
	R2Canary    *qualitygate.R2CanaryCertification  `json:"r2Canary,omitempty"`
	R3          *qualitygate.R3FailureLedger        `json:"r3,omitempty"`
}

// QualityGateMetrics mirrors §4.7's QualityGateReport.metrics object.
type QualityGateMetrics struct {
	CompatibilityPassRate float64 `json:"compatibilityPassRate"`
	FlakeRate             float64 `json:"flakeRate"`
	P95LatencyMillis      float64 `json:"p95LatencyMillis"`
	ReproTimeP50Minutes   float64 `json:"reproTimeP50Minutes"`
}

// WriteQualityGateReportJSON renders r as canonical JSON and writes it to
// path atomically.
func WriteQualityGateReportJSON(path string, r QualityGateReport) error {
	b, err := store.CanonicalJSON(r)
	if err != nil {
		return fmt.Errorf("report: encode quality gate report: %w", err)
	}
	return store.WriteFileAtomic(path, b)
}

// RenderQualityGateMarkdown renders r's standard gates and whichever
// aggregator sections are present.
func RenderQualityGateMarkdown(r QualityGateReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Quality Gate Report\n\n")
	fmt.Fprintf(&b, "- generated: %s\n\n", r.GeneratedAt)

	renderGateTable(&b, "Standard Gates", r.GateResults)

	if r.R1 != nil {
		renderGateTable(&b, "R1 Automation", r.R1.Gates)
	}
	if r.R2Scorecard != nil {
		renderGateTable(&b, "R2 Scorecard", r.R2Scorecard.Gates)
		if len(r.R2Scorecard.SupportManifest) > 0 {
			fmt.Fprintf(&b, "### Support Manifest\n\n| feature | status | note |\n|---|---|---|\n")
			for _, f := range r.R2Scorecard.SupportManifest {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", f.Feature, f.Status, f.Note)
			}
			b.WriteString("\n")
		}
	}
	if r.R2Canary != nil {
		renderGateTable(&b, "R2 Canary Certification", r.R2Canary.Gates)
	}
	if r.R3 != nil {
		fmt.Fprintf(&b, "### R3 Failure Ledger\n\n")
		if r.R3.Pass {
			fmt.Fprintf(&b, "PASS: no failures across any configured suite.\n\n")
		} else {
			for _, e := range r.R3.Entries {
				fmt.Fprintf(&b, "- [%s] %s/%s: %s\n", e.Track, e.SuiteID, e.ScenarioID, e.Status)
			}
			for _, s := range r.R3.MissingSuite {
				fmt.Fprintf(&b, "- MISSING SUITE: %s\n", s)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func renderGateTable(b *strings.Builder, title string, gates []qualitygate.GateResult) {
	fmt.Fprintf(b, "## %s\n\n| gate | metric | operator | threshold | result |\n|---|---|---|---|---|\n", title)
	for _, g := range gates {
		result := "PASS"
		if !g.Pass {
			result = "FAIL"
		}
		fmt.Fprintf(b, "| %s | %v | %s | %v | %s |\n", g.Name, g.Metric, g.Operator, g.Threshold, result)
	}
	b.WriteString("\n")
}

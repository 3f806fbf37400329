package qualitygate

import (
	"context"
	"fmt"
	"strings"

	"github.com/midagedev/jongodb-differ/internal/diffengine"
	"github.com/midagedev/jongodb-differ/internal/harness"
	"github.com/midagedev/jongodb-differ/internal/scenario"
)

// Track is one of the R3 failure-ledger priority buckets.
type Track string

const (
	TrackTxn         Track = "txn"
	TrackDistinct    Track = "distinct"
	TrackAggregation Track = "aggregation"
	TrackQueryUpdate Track = "query_update"
	TrackProtocol    Track = "protocol"
)

var crudCommands = map[string]struct{}{
	"find": {}, "insert": {}, "update": {}, "delete": {}, "findAndModify": {}, "countDocuments": {},
}

var txnCommands = map[string]struct{}{
	"startTransaction": {}, "commitTransaction": {}, "abortTransaction": {},
}

// ClassifyTrack assigns a track to a non-MATCH result in priority order:
// txn, then distinct, then aggregation, then query_update, then protocol.
func ClassifyTrack(suitePath, sourcePath string, commands []scenario.ScenarioCommand) Track {
	haystack := strings.ToLower(suitePath + " " + sourcePath)
	if strings.Contains(haystack, "transaction") {
		return TrackTxn
	}
	for _, c := range commands {
		if _, ok := txnCommands[c.CommandName]; ok {
			return TrackTxn
		}
		if _, ok := c.Get("txnNumber"); ok {
			return TrackTxn
		}
	}

	if strings.Contains(haystack, "distinct") {
		return TrackDistinct
	}
	for _, c := range commands {
		if c.CommandName == "distinct" {
			return TrackDistinct
		}
	}

	if strings.Contains(haystack, "aggregat") {
		return TrackAggregation
	}
	for _, c := range commands {
		if c.CommandName == "aggregate" {
			return TrackAggregation
		}
	}

	for _, c := range commands {
		if _, ok := crudCommands[c.CommandName]; ok {
			return TrackQueryUpdate
		}
	}

	return TrackProtocol
}

// LedgerEntry is one non-MATCH failure, tracked and traced back to its
// suite.
type LedgerEntry struct {
	SuiteID    string            `json:"suiteId"`
	ScenarioID string            `json:"scenarioId"`
	Status     diffengine.Status `json:"status"`
	Track      Track             `json:"track"`
}

// Suite is one configured corpus entry for the R3 failure ledger: a suite
// id, the scenarios to re-run, and the suite/source paths used for track
// classification.
type Suite struct {
	ID         string
	SuitePath  string
	SourcePath string
	Scenarios  []scenario.Scenario
	Commands   map[string][]scenario.ScenarioCommand // scenario id -> commands, for track classification
}

// R3FailureLedger is the R3 failure-ledger gate's result: re-run every
// configured suite, collect non-MATCH results, classify each into a track.
// The gate fails if any entries exist, or if any suite could not be run.
type R3FailureLedger struct {
	Entries      []LedgerEntry `json:"entries"`
	MissingSuite []string      `json:"missingSuites,omitempty"`
	Pass         bool          `json:"pass"`
}

// RunR3FailureLedger re-runs each suite through h and builds the ledger.
func RunR3FailureLedger(ctx context.Context, h *harness.Harness, suites []Suite) (R3FailureLedger, error) {
	var ledger R3FailureLedger
	for _, suite := range suites {
		if len(suite.Scenarios) == 0 {
			ledger.MissingSuite = append(ledger.MissingSuite, suite.ID)
			continue
		}
		report, err := h.Run(ctx, suite.Scenarios)
		if err != nil {
			return R3FailureLedger{}, fmt.Errorf("qualitygate: run suite %s: %w", suite.ID, err)
		}
		for _, dr := range report.Results {
			if dr.Status == diffengine.StatusMatch {
				continue
			}
			track := ClassifyTrack(suite.SuitePath, suite.SourcePath, suite.Commands[dr.ScenarioID])
			ledger.Entries = append(ledger.Entries, LedgerEntry{SuiteID: suite.ID, ScenarioID: dr.ScenarioID, Status: dr.Status, Track: track})
		}
	}
	ledger.Pass = len(ledger.Entries) == 0 && len(ledger.MissingSuite) == 0
	return ledger, nil
}

// PoCSummary is one backend's benchmark summary for the in-process PoC
// gate.
type PoCSummary struct {
	P95Millis  float64
	Throughput float64
}

// PoCDecision is the in-process PoC gate's GO/NO_GO decision.
type PoCDecision struct {
	P95ImprovementRatio        float64 `json:"p95ImprovementRatio"`
	ThroughputImprovementRatio float64 `json:"throughputImprovementRatio"`
	TraceUseful                bool    `json:"traceUseful"`
	Decision                   string  `json:"decision"`
}

// EvaluatePoCGate computes p95ImprovementRatio = (tcpP95-inP95)/tcpP95 and
// throughputImprovementRatio = (inTp-tcpTp)/tcpTp, and decides GO iff
// traceUseful and at least one ratio meets its threshold.
func EvaluatePoCGate(tcp, inProcess PoCSummary, traceUseful bool, p95Threshold, throughputThreshold float64) PoCDecision {
	p95Ratio := 0.0
	if tcp.P95Millis != 0 {
		p95Ratio = (tcp.P95Millis - inProcess.P95Millis) / tcp.P95Millis
	}
	tpRatio := 0.0
	if tcp.Throughput != 0 {
		tpRatio = (inProcess.Throughput - tcp.Throughput) / tcp.Throughput
	}

	decision := "NO_GO"
	if traceUseful && (p95Ratio >= p95Threshold || tpRatio >= throughputThreshold) {
		decision = "GO"
	}
	return PoCDecision{P95ImprovementRatio: p95Ratio, ThroughputImprovementRatio: tpRatio, TraceUseful: traceUseful, Decision: decision}
}

package qualitygate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/midagedev/jongodb-differ/internal/backend"
	"github.com/midagedev/jongodb-differ/internal/diffengine"
	"github.com/midagedev/jongodb-differ/internal/harness"
	"github.com/midagedev/jongodb-differ/internal/scenario"
)

// R1Metrics are the live Prometheus gauges the R1 benchmarker publishes, so
// an operator dashboard can watch cold-start/reset/crud-p95/flake-rate
// trend over repeated runs rather than only reading the one-shot report.
type R1Metrics struct {
	ColdStartMillis prometheus.Gauge
	ResetMillis     prometheus.Gauge
	CrudP95Millis   prometheus.Gauge
	FlakeRate       prometheus.Gauge
}

// NewR1Metrics registers the R1 gauges with reg.
func NewR1Metrics(reg prometheus.Registerer) (*R1Metrics, error) {
	m := &R1Metrics{
		ColdStartMillis: prometheus.NewGauge(prometheus.GaugeOpts{Name: "jongodb_differ_r1_cold_start_millis", Help: "Last measured in-process backend cold-start latency in milliseconds."}),
		ResetMillis:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "jongodb_differ_r1_reset_millis", Help: "Last measured in-process backend reset latency in milliseconds."}),
		CrudP95Millis:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "jongodb_differ_r1_crud_p95_millis", Help: "Last measured in-process backend CRUD p95 latency in milliseconds."}),
		FlakeRate:       prometheus.NewGauge(prometheus.GaugeOpts{Name: "jongodb_differ_r1_flake_rate", Help: "Last measured flake rate across the re-run scenario corpus."}),
	}
	for _, c := range []prometheus.Collector{m.ColdStartMillis, m.ResetMillis, m.CrudP95Millis, m.FlakeRate} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("qualitygate: register R1 metric: %w", err)
		}
	}
	return m, nil
}

// BenchmarkSummary is the result of one in-process backend benchmarking
// pass: cold-start, reset, then warmup followed by measured CRUD op
// latencies.
type BenchmarkSummary struct {
	ColdStartMillis float64
	ResetMillis     float64
	CrudSamplesMs   []float64
}

// Benchmark runs coldStart, then reset, then warmupOps (discarded) followed
// by measuredOps CRUD operations (timed) against b, using resetFn to clear
// state between the cold-start and warmup phases.
func Benchmark(ctx context.Context, b backend.Backend, s scenario.Scenario, resetFn func(context.Context) error, warmupOps, measuredOps int) (BenchmarkSummary, error) {
	coldStart := time.Now()
	b.Execute(ctx, s)
	coldStartElapsed := time.Since(coldStart)

	resetStart := time.Now()
	if resetFn != nil {
		if err := resetFn(ctx); err != nil {
			return BenchmarkSummary{}, fmt.Errorf("qualitygate: reset: %w", err)
		}
	}
	resetElapsed := time.Since(resetStart)

	for i := 0; i < warmupOps; i++ {
		b.Execute(ctx, s)
	}

	samples := make([]float64, 0, measuredOps)
	for i := 0; i < measuredOps; i++ {
		start := time.Now()
		b.Execute(ctx, s)
		samples = append(samples, float64(time.Since(start).Microseconds())/1000.0)
	}

	return BenchmarkSummary{
		ColdStartMillis: float64(coldStartElapsed.Microseconds()) / 1000.0,
		ResetMillis:     float64(resetElapsed.Microseconds()) / 1000.0,
		CrudSamplesMs:   samples,
	}, nil
}

// Fingerprint reduces a DiffResult to the tuple the flake evaluator
// compares across re-runs: (status, errorMessage, entries' [path|leftJson|
// rightJson|note]).
func Fingerprint(dr diffengine.DiffResult) string {
	type entryFP struct {
		Path  string `json:"path"`
		Left  string `json:"leftJson"`
		Right string `json:"rightJson"`
		Note  string `json:"note"`
	}
	entries := make([]entryFP, 0, len(dr.Entries))
	for _, e := range dr.Entries {
		leftJSON, _ := json.Marshal(e.Left)
		rightJSON, _ := json.Marshal(e.Right)
		entries = append(entries, entryFP{Path: e.Path, Left: string(leftJSON), Right: string(rightJSON), Note: e.Note})
	}
	payload, _ := json.Marshal(struct {
		Status  diffengine.Status `json:"status"`
		Message string            `json:"errorMessage"`
		Entries []entryFP         `json:"entries"`
	}{Status: dr.Status, Message: dr.ErrorMessage, Entries: entries})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// FlakeResult is the flake evaluator's per-run result.
type FlakeResult struct {
	Runs           int
	FlakyScenarios int
	TotalScenarios int
	FlakeRate      float64
}

// EvaluateFlake re-runs scenarios through h runs times and counts how many
// scenarios' fingerprints changed across runs.
func EvaluateFlake(ctx context.Context, h *harness.Harness, scenarios []scenario.Scenario, runs int) (FlakeResult, error) {
	if runs < 1 {
		return FlakeResult{}, fmt.Errorf("qualitygate: flake evaluator requires at least 1 run, got %d", runs)
	}
	fingerprintsByScenario := map[string]map[string]struct{}{}
	for i := 0; i < runs; i++ {
		report, err := h.Run(ctx, scenarios)
		if err != nil {
			return FlakeResult{}, fmt.Errorf("qualitygate: flake evaluator run %d: %w", i, err)
		}
		for _, dr := range report.Results {
			set, ok := fingerprintsByScenario[dr.ScenarioID]
			if !ok {
				set = map[string]struct{}{}
				fingerprintsByScenario[dr.ScenarioID] = set
			}
			set[Fingerprint(dr)] = struct{}{}
		}
	}
	flaky := 0
	for _, set := range fingerprintsByScenario {
		if len(set) > 1 {
			flaky++
		}
	}
	total := len(fingerprintsByScenario)
	rate := 0.0
	if total > 0 {
		rate = float64(flaky) / float64(total)
	}
	return FlakeResult{Runs: runs, FlakyScenarios: flaky, TotalScenarios: total, FlakeRate: rate}, nil
}

// R1Report is the four-gate R1 automation report (§4.7): cold-start ≤
// 150ms, reset ≤ 10ms, crud-p95 ≤ 5ms, flake-rate ≤ 0.002.
type R1Report struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Benchmark   BenchmarkSummary   `json:"benchmark"`
	Flake       FlakeResult        `json:"flake"`
	Gates       []GateResult       `json:"gates"`
	AllPass     bool               `json:"allPass"`
}

// RunR1 composes Benchmark and EvaluateFlake into the fixed four-gate R1
// report, optionally publishing the measured values to metrics.
func RunR1(ctx context.Context, b backend.Backend, bench scenario.Scenario, resetFn func(context.Context) error, warmupOps, measuredOps int, h *harness.Harness, flakeScenarios []scenario.Scenario, flakeRuns int, metrics *R1Metrics) (R1Report, error) {
	summary, err := Benchmark(ctx, b, bench, resetFn, warmupOps, measuredOps)
	if err != nil {
		return R1Report{}, err
	}
	flake, err := EvaluateFlake(ctx, h, flakeScenarios, flakeRuns)
	if err != nil {
		return R1Report{}, err
	}
	crudP95 := Percentile(summary.CrudSamplesMs, 0.95)

	gates := []Gate{
		{Name: "cold-start", Metric: summary.ColdStartMillis, Operator: OpLTE, Threshold: 150},
		{Name: "reset", Metric: summary.ResetMillis, Operator: OpLTE, Threshold: 10},
		{Name: "crud-p95", Metric: crudP95, Operator: OpLTE, Threshold: 5},
		{Name: "flake-rate", Metric: flake.FlakeRate, Operator: OpLTE, Threshold: 0.002},
	}
	results, allPass := EvaluateAll(gates)

	if metrics != nil {
		metrics.ColdStartMillis.Set(summary.ColdStartMillis)
		metrics.ResetMillis.Set(summary.ResetMillis)
		metrics.CrudP95Millis.Set(crudP95)
		metrics.FlakeRate.Set(flake.FlakeRate)
	}

	return R1Report{GeneratedAt: time.Now(), Benchmark: summary, Flake: flake, Gates: results, AllPass: allPass}, nil
}

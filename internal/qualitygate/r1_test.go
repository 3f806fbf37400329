package qualitygate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/midagedev/jongodb-differ/internal/backend"
	"github.com/midagedev/jongodb-differ/internal/diffengine"
	"github.com/midagedev/jongodb-differ/internal/harness"
	"github.com/midagedev/jongodb-differ/internal/scenario"
	"github.com/midagedev/jongodb-differ/internal/value"
)

type fakeBenchBackend struct{ name string }

func (f *fakeBenchBackend) Name() string { return f.name }
func (f *fakeBenchBackend) Execute(ctx context.Context, s scenario.Scenario) backend.Outcome {
	return backend.Success([]map[string]any{{"ok": float64(1)}})
}

func mustPingScenario(t *testing.T) scenario.Scenario {
	t.Helper()
	cmd, err := scenario.NewScenarioCommand("ping", []scenario.PayloadField{{Key: "commandValue", Value: value.Int32(1)}})
	if err != nil {
		t.Fatalf("NewScenarioCommand: %v", err)
	}
	s, err := scenario.NewScenario("bench-scenario", "", []scenario.ScenarioCommand{cmd})
	if err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	return s
}

func TestBenchmark_ProducesColdStartResetAndSamples(t *testing.T) {
	b := &fakeBenchBackend{name: "in-process"}
	s := mustPingScenario(t)
	resetCalls := 0
	summary, err := Benchmark(context.Background(), b, s, func(ctx context.Context) error {
		resetCalls++
		return nil
	}, 2, 5)
	if err != nil {
		t.Fatalf("Benchmark: %v", err)
	}
	if resetCalls != 1 {
		t.Fatalf("expected reset called once, got %d", resetCalls)
	}
	if len(summary.CrudSamplesMs) != 5 {
		t.Fatalf("expected 5 measured samples, got %d", len(summary.CrudSamplesMs))
	}
}

func TestFingerprint_StableForIdenticalDiffResults(t *testing.T) {
	dr := diffengine.DiffResult{ScenarioID: "s1", Status: diffengine.StatusMismatch, Entries: []diffengine.DiffEntry{{Path: "$[0].n", Left: int32(1), Right: int32(2), Note: "value differs"}}}
	if Fingerprint(dr) != Fingerprint(dr) {
		t.Fatalf("expected fingerprint to be stable")
	}
}

func TestFingerprint_DiffersWhenEntriesDiffer(t *testing.T) {
	a := diffengine.DiffResult{ScenarioID: "s1", Status: diffengine.StatusMismatch, Entries: []diffengine.DiffEntry{{Path: "$[0].n", Left: int32(1), Right: int32(2)}}}
	b := diffengine.DiffResult{ScenarioID: "s1", Status: diffengine.StatusMismatch, Entries: []diffengine.DiffEntry{{Path: "$[0].n", Left: int32(1), Right: int32(3)}}}
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("expected different entries to produce different fingerprints")
	}
}

func TestEvaluateFlake_ZeroFlakeRateWhenBackendsAreDeterministic(t *testing.T) {
	left := &fakeBenchBackend{name: "in-process"}
	right := &fakeBenchBackend{name: "reference"}
	h := harness.New(left, right, 2)
	s := mustPingScenario(t)

	result, err := EvaluateFlake(context.Background(), h, []scenario.Scenario{s}, 3)
	if err != nil {
		t.Fatalf("EvaluateFlake: %v", err)
	}
	if result.FlakeRate != 0 {
		t.Fatalf("expected 0 flake rate for deterministic backends, got %v", result.FlakeRate)
	}
	if result.TotalScenarios != 1 {
		t.Fatalf("expected 1 scenario tracked, got %d", result.TotalScenarios)
	}
}

func TestEvaluateFlake_RejectsZeroRuns(t *testing.T) {
	h := harness.New(&fakeBenchBackend{name: "a"}, &fakeBenchBackend{name: "b"}, 1)
	if _, err := EvaluateFlake(context.Background(), h, nil, 0); err == nil {
		t.Fatalf("expected error for zero runs")
	}
}

func TestRunR1_ProducesFourGates(t *testing.T) {
	b := &fakeBenchBackend{name: "in-process"}
	s := mustPingScenario(t)
	h := harness.New(b, &fakeBenchBackend{name: "reference"}, 1)

	report, err := RunR1(context.Background(), b, s, nil, 1, 3, h, []scenario.Scenario{s}, 2, nil)
	require.NoError(t, err)
	require.Len(t, report.Gates, 4)
	require.True(t, report.AllPass, "expected all gates to pass with a trivially fast fake backend: %+v", report.Gates)
}

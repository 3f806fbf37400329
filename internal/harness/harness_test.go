package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/midagedev/jongodb-differ/internal/backend"
	"github.com/midagedev/jongodb-differ/internal/diffengine"
	"github.com/midagedev/jongodb-differ/internal/scenario"
	"github.com/midagedev/jongodb-differ/internal/value"
)

type fakeBackend struct {
	name    string
	outcome func(s scenario.Scenario) backend.Outcome
}

func (f *fakeBackend) Name() string { return f.name }
func (f *fakeBackend) Execute(ctx context.Context, s scenario.Scenario) backend.Outcome {
	return f.outcome(s)
}

func mustScenario(t *testing.T, id string) scenario.Scenario {
	t.Helper()
	cmd, err := scenario.NewScenarioCommand("ping", []scenario.PayloadField{{Key: "commandValue", Value: value.Int32(1)}})
	if err != nil {
		t.Fatalf("NewScenarioCommand: %v", err)
	}
	s, err := scenario.NewScenario(id, "", []scenario.ScenarioCommand{cmd})
	if err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	return s
}

func TestHarness_RunPreservesScenarioOrderUnderParallelism(t *testing.T) {
	scenarios := []scenario.Scenario{
		mustScenario(t, "s1"),
		mustScenario(t, "s2"),
		mustScenario(t, "s3"),
	}
	left := &fakeBackend{name: "in-process", outcome: func(s scenario.Scenario) backend.Outcome {
		return backend.Success([]map[string]any{{"ok": float64(1), "id": s.ID}})
	}}
	right := &fakeBackend{name: "reference", outcome: func(s scenario.Scenario) backend.Outcome {
		return backend.Success([]map[string]any{{"ok": float64(1), "id": s.ID}})
	}}
	h := New(left, right, 8)
	report, err := h.Run(context.Background(), scenarios)
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	for i, id := range []string{"s1", "s2", "s3"} {
		require.Equal(t, id, report.Results[i].ScenarioID, "expected results ordered by scenario order, got %+v", report.Results)
	}
}

func TestHarness_CountersTallyStatuses(t *testing.T) {
	report := DifferentialReport{Results: []diffengine.DiffResult{
		{Status: diffengine.StatusMatch},
		{Status: diffengine.StatusMismatch},
		{Status: diffengine.StatusError},
		{Status: diffengine.StatusMatch},
	}}
	total, match, mismatch, errorCount := report.Counters()
	require.Equal(t, 4, total)
	require.Equal(t, 2, match)
	require.Equal(t, 1, mismatch)
	require.Equal(t, 1, errorCount)
}

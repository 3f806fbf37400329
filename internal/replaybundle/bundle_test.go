package replaybundle

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/midagedev/jongodb-differ/internal/backend"
	"github.com/midagedev/jongodb-differ/internal/scenario"
	"github.com/midagedev/jongodb-differ/internal/value"
)

func mustCommand(t *testing.T) scenario.ScenarioCommand {
	t.Helper()
	cmd, err := scenario.NewScenarioCommand("find", []scenario.PayloadField{
		{Key: "find", Value: value.String("widgets")},
	})
	if err != nil {
		t.Fatalf("NewScenarioCommand: %v", err)
	}
	return cmd
}

func TestSaveLoad_RoundTripsBundle(t *testing.T) {
	dir := t.TempDir()
	probe, err := NewReplayProbe("$.commandResults[0].ok", float64(1))
	if err != nil {
		t.Fatalf("NewReplayProbe: %v", err)
	}
	bundle := NewReplayBundle("suite-a", "MISMATCH", "scenario-1", "n mismatch", []scenario.ScenarioCommand{mustCommand(t)}, probe)

	if err := Save(dir, bundle); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := filepath.Abs(Dir(dir, bundle.FailureID)); err != nil {
		t.Fatalf("Dir: %v", err)
	}

	loaded, err := Load(dir, bundle.FailureID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.FailureID != "suite-a::mismatch::scenario-1" {
		t.Fatalf("unexpected failureId: %s", loaded.FailureID)
	}
	if len(loaded.Commands) != 1 || loaded.Commands[0].CommandName != "find" {
		t.Fatalf("unexpected commands: %+v", loaded.Commands)
	}
	if loaded.Probe.Path != "$.commandResults[0].ok" {
		t.Fatalf("unexpected probe: %+v", loaded.Probe)
	}

	result, err := Replay(context.Background(), &fakeBackend{}, loaded)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !result.ProbeMatched {
		t.Fatalf("expected probe to match after replay, got %+v", result)
	}
	if result.RequestID == "" {
		t.Fatalf("expected a non-empty synthetic request id")
	}
}

func TestSave_ManifestListsFailureIDOnce(t *testing.T) {
	dir := t.TempDir()
	probe, _ := NewReplayProbe("$.success", true)
	bundle := NewReplayBundle("suite-a", "ERROR", "scenario-2", "boom", []scenario.ScenarioCommand{mustCommand(t)}, probe)
	if err := Save(dir, bundle); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(dir, bundle); err != nil {
		t.Fatalf("Save (second write): %v", err)
	}
	m, err := loadManifest(dir)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	count := 0
	for _, id := range m.FailureIDs {
		if id == bundle.FailureID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected failureId listed exactly once, got %d", count)
	}
}

type fakeBackend struct{}

func (f *fakeBackend) Name() string { return "in-process" }
func (f *fakeBackend) Execute(ctx context.Context, s scenario.Scenario) backend.Outcome {
	return backend.Success([]map[string]any{{"ok": float64(1)}})
}

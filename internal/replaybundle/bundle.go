package replaybundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/midagedev/jongodb-differ/internal/runid"
	"github.com/midagedev/jongodb-differ/internal/scenario"
	"github.com/midagedev/jongodb-differ/internal/store"
	"github.com/midagedev/jongodb-differ/internal/value"
)

// ReplayBundle is §3's ReplayBundle record: a failing scenario's commands
// plus the probe a replay must satisfy to count as verified.
type ReplayBundle struct {
	FailureID string
	Status    string
	Message   string
	Commands  []scenario.ScenarioCommand
	Probe     ReplayProbe
}

// NewReplayBundle builds a bundle for a DiffResult-shaped failure, deriving
// the stable failureId per §3: suiteId::lower(status)::scenarioId.
func NewReplayBundle(suiteID, status, scenarioID, message string, commands []scenario.ScenarioCommand, probe ReplayProbe) ReplayBundle {
	return ReplayBundle{
		FailureID: runid.FailureID(suiteID, status, scenarioID),
		Status:    status,
		Message:   message,
		Commands:  commands,
		Probe:     probe,
	}
}

// bundleFileV1/manifestEntryV1/manifestV1 are the on-disk shapes: each
// bundle is one canonical JSON file named after its failureId, and a
// manifest.json indexes them all by failureId.
type bundleFileV1 struct {
	FailureID     string                     `json:"failureId"`
	Status        string                     `json:"status"`
	Message       string                     `json:"message"`
	Commands      []scenarioCommandV1        `json:"commands"`
	ProbePath     string                     `json:"probePath"`
	ProbeExpected any                        `json:"probeExpectedValue"`
}

type scenarioCommandV1 struct {
	CommandName string                   `json:"commandName"`
	Payload     []scenarioPayloadFieldV1 `json:"payload"`
}

type scenarioPayloadFieldV1 struct {
	Key   string      `json:"key"`
	Value value.Value `json:"value"`
}

type manifestV1 struct {
	SchemaVersion int      `json:"schemaVersion"`
	FailureIDs    []string `json:"failureIds"`
}

// Dir returns the on-disk path a bundle with the given failureId is stored
// at, directly under bundleDir (failureId's "::" separators are filesystem-
// safe across POSIX and Windows, so no further escaping is needed).
func Dir(bundleDir, failureID string) string {
	return filepath.Join(bundleDir, failureID+".json")
}

// Save writes the bundle to bundleDir/<failureId>.json and appends failureId
// to bundleDir/manifest.json if not already present. Both writes are atomic
// single-writer operations via the store package.
func Save(bundleDir string, b ReplayBundle) error {
	file := bundleFileV1{
		FailureID:     b.FailureID,
		Status:        b.Status,
		Message:       b.Message,
		ProbePath:     b.Probe.Path,
		ProbeExpected: b.Probe.ExpectedValue,
	}
	for _, cmd := range b.Commands {
		cv := scenarioCommandV1{CommandName: cmd.CommandName}
		for _, f := range cmd.Payload {
			cv.Payload = append(cv.Payload, scenarioPayloadFieldV1{Key: f.Key, Value: f.Value})
		}
		file.Commands = append(file.Commands, cv)
	}

	b2, err := store.CanonicalJSON(file)
	if err != nil {
		return fmt.Errorf("replaybundle: encode %s: %w", b.FailureID, err)
	}
	if err := store.WriteFileAtomic(Dir(bundleDir, b.FailureID), b2); err != nil {
		return fmt.Errorf("replaybundle: write %s: %w", b.FailureID, err)
	}
	return appendManifest(bundleDir, b.FailureID)
}

func manifestPath(bundleDir string) string {
	return filepath.Join(bundleDir, "manifest.json")
}

func appendManifest(bundleDir, failureID string) error {
	m, err := loadManifest(bundleDir)
	if err != nil {
		return err
	}
	for _, id := range m.FailureIDs {
		if id == failureID {
			return nil
		}
	}
	m.FailureIDs = append(m.FailureIDs, failureID)
	b, err := store.CanonicalJSON(m)
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(manifestPath(bundleDir), b)
}

func loadManifest(bundleDir string) (manifestV1, error) {
	b, err := os.ReadFile(manifestPath(bundleDir))
	if os.IsNotExist(err) {
		return manifestV1{SchemaVersion: 1}, nil
	}
	if err != nil {
		return manifestV1{}, err
	}
	var m manifestV1
	if err := json.Unmarshal(b, &m); err != nil {
		return manifestV1{}, fmt.Errorf("replaybundle: decode manifest: %w", err)
	}
	return m, nil
}

// Load reads back the bundle stored under failureId.
func Load(bundleDir, failureID string) (ReplayBundle, error) {
	b, err := os.ReadFile(Dir(bundleDir, failureID))
	if err != nil {
		return ReplayBundle{}, fmt.Errorf("replaybundle: read %s: %w", failureID, err)
	}
	var file bundleFileV1
	if err := json.Unmarshal(b, &file); err != nil {
		return ReplayBundle{}, fmt.Errorf("replaybundle: decode %s: %w", failureID, err)
	}

	var commands []scenario.ScenarioCommand
	for _, cv := range file.Commands {
		var payload []scenario.PayloadField
		for _, f := range cv.Payload {
			payload = append(payload, scenario.PayloadField{Key: f.Key, Value: f.Value})
		}
		cmd, err := scenario.NewScenarioCommand(cv.CommandName, payload)
		if err != nil {
			return ReplayBundle{}, fmt.Errorf("replaybundle: rebuild command for %s: %w", failureID, err)
		}
		commands = append(commands, cmd)
	}

	probe, err := NewReplayProbe(file.ProbePath, file.ProbeExpected)
	if err != nil {
		return ReplayBundle{}, fmt.Errorf("replaybundle: rebuild probe for %s: %w", failureID, err)
	}

	return ReplayBundle{
		FailureID: file.FailureID,
		Status:    file.Status,
		Message:   file.Message,
		Commands:  commands,
		Probe:     probe,
	}, nil
}

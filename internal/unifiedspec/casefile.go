package unifiedspec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/midagedev/jongodb-differ/internal/runid"
	"github.com/midagedev/jongodb-differ/internal/scenario"
	"github.com/midagedev/jongodb-differ/internal/value"
)

// caseFileV1 is one on-disk unified-spec case, parsed from either YAML or
// JSON depending on file extension, mirroring the suite file's dual-parse
// convention.
type caseFileV1 struct {
	Version           int                  `json:"version" yaml:"version"`
	CaseID            string               `json:"caseId" yaml:"caseId"`
	Description       string               `json:"description" yaml:"description"`
	RunOnRequirements []runOnRequirementV1 `json:"runOnRequirements" yaml:"runOnRequirements"`
	Commands          []commandV1          `json:"commands" yaml:"commands"`
}

type runOnRequirementV1 struct {
	MinServerVersion string   `json:"minServerVersion" yaml:"minServerVersion"`
	MaxServerVersion string   `json:"maxServerVersion" yaml:"maxServerVersion"`
	Topologies       []string `json:"topologies" yaml:"topologies"`
	Serverless       *bool    `json:"serverless" yaml:"serverless"`
}

type commandV1 struct {
	CommandName string          `json:"commandName" yaml:"commandName"`
	Payload     []payloadFieldV1 `json:"payload" yaml:"payload"`
}

type payloadFieldV1 struct {
	Key   string      `json:"key" yaml:"key"`
	Value value.Value `json:"value" yaml:"value"`
}

// parseCaseFile reads and validates one spec case file, dispatching to YAML
// or JSON by extension (default JSON).
func parseCaseFile(path string) (caseFileV1, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return caseFileV1{}, err
	}

	var c caseFileV1
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return caseFileV1{}, fmt.Errorf("unifiedspec: invalid case yaml %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &c); err != nil {
			return caseFileV1{}, fmt.Errorf("unifiedspec: invalid case json %s: %w", path, err)
		}
	}

	if c.Version == 0 {
		c.Version = 1
	}
	if c.Version != 1 {
		return caseFileV1{}, fmt.Errorf("unifiedspec: %s: unsupported case version %d (expected 1)", path, c.Version)
	}
	c.CaseID = runid.SanitizeComponent(strings.TrimSpace(c.CaseID))
	if c.CaseID == "" {
		return caseFileV1{}, fmt.Errorf("unifiedspec: %s: missing/invalid caseId", path)
	}
	if len(c.Commands) == 0 {
		return caseFileV1{}, fmt.Errorf("unifiedspec: %s: case %q has no commands", path, c.CaseID)
	}
	return c, nil
}

func (c caseFileV1) runOnRequirements() []RunOnRequirement {
	out := make([]RunOnRequirement, len(c.RunOnRequirements))
	for i, r := range c.RunOnRequirements {
		out[i] = RunOnRequirement{
			MinServerVersion: r.MinServerVersion,
			MaxServerVersion: r.MaxServerVersion,
			Topologies:       r.Topologies,
			Serverless:       r.Serverless,
		}
	}
	return out
}

func (c caseFileV1) toScenario() (scenario.Scenario, error) {
	commands := make([]scenario.ScenarioCommand, 0, len(c.Commands))
	for _, cv := range c.Commands {
		payload := make([]scenario.PayloadField, 0, len(cv.Payload))
		for _, f := range cv.Payload {
			payload = append(payload, scenario.PayloadField{Key: f.Key, Value: f.Value})
		}
		cmd, err := scenario.NewScenarioCommand(cv.CommandName, payload)
		if err != nil {
			return scenario.Scenario{}, err
		}
		commands = append(commands, cmd)
	}
	return scenario.NewScenario(c.CaseID, c.Description, commands)
}

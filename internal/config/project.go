package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/midagedev/jongodb-differ/internal/store"
)

const (
	ProjectConfigSchemaV1    = 1
	DefaultProjectConfigPath = "jongodb-differ.config.json"
)

// ProjectConfigV1 is the per-repo config created by `jongodb-differ init`.
type ProjectConfigV1 struct {
	SchemaVersion int                   `json:"schemaVersion"`
	OutRoot       string                `json:"outRoot"`
	MongoURI      string                `json:"mongoUri,omitempty"`
	ImportProfile string                `json:"importProfile,omitempty"`
	Sanitization  *SanitizationConfigV1 `json:"sanitization,omitempty"`
}

type InitResult struct {
	OK           bool   `json:"ok"`
	ConfigPath   string `json:"configPath"`
	OutRoot      string `json:"outRoot"`
	Created      bool   `json:"created"`
	OutRootReady bool   `json:"outRootReady"`
}

// InitProject creates configPath (defaulting to DefaultProjectConfigPath) and
// the outRoot layout: runs/ (per-run DiffResult + QualityGateReport
// artifacts), bundles/ (persisted ReplayBundle directories), fixtures/ (the
// fixture artifact pipeline's portable + fast encodings), tmp/ (scratch space
// for in-flight writers before the atomic rename into place).
func InitProject(configPath string, outRoot string) (*InitResult, error) {
	if strings.TrimSpace(configPath) == "" {
		configPath = DefaultProjectConfigPath
	}
	if strings.TrimSpace(outRoot) == "" {
		outRoot = ".jongodb-differ"
	}

	for _, sub := range []string{"runs", "bundles", "fixtures", "tmp"} {
		if err := os.MkdirAll(filepath.Join(outRoot, sub), 0o755); err != nil {
			return nil, err
		}
	}

	created := false
	if _, err := os.Stat(configPath); err == nil {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		var existing ProjectConfigV1
		if err := json.Unmarshal(raw, &existing); err != nil {
			return nil, err
		}
		if existing.SchemaVersion != ProjectConfigSchemaV1 {
			return nil, fmt.Errorf("existing config has unsupported schemaVersion=%d", existing.SchemaVersion)
		}
		if strings.TrimSpace(existing.OutRoot) == "" {
			return nil, fmt.Errorf("existing config outRoot is empty")
		}
		if existing.OutRoot != outRoot {
			return nil, fmt.Errorf("existing config outRoot=%q does not match requested outRoot=%q", existing.OutRoot, outRoot)
		}
	} else if os.IsNotExist(err) {
		cfg := ProjectConfigV1{
			SchemaVersion: ProjectConfigSchemaV1,
			OutRoot:       outRoot,
			ImportProfile: "compat",
		}
		if err := store.WriteJSONAtomic(configPath, cfg); err != nil {
			return nil, err
		}
		created = true
	} else if err != nil {
		return nil, err
	}

	return &InitResult{
		OK:           true,
		ConfigPath:   configPath,
		OutRoot:      outRoot,
		Created:      created,
		OutRootReady: true,
	}, nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Merged is the fully resolved configuration for a CLI invocation, built by
// layering CLI flags over environment variables over the project config file
// over the global config file over hardcoded defaults (spec.md's AMBIENT
// STACK: "flag > env var > project config > global config > default").
type Merged struct {
	OutRoot string
	// Source is informational for operator UX/debugging: "flag", an env var
	// name, a config file path, or "default".
	Source string

	MongoURI       string
	MongoURISource string

	ImportProfile       string
	ImportProfileSource string
}

func DefaultGlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".jongodb-differ", "config.json"), nil
}

type GlobalConfigV1 struct {
	SchemaVersion int                   `json:"schemaVersion"`
	OutRoot       string                `json:"outRoot,omitempty"`
	MongoURI      string                `json:"mongoUri,omitempty"`
	ImportProfile string                `json:"importProfile,omitempty"`
	Sanitization  *SanitizationConfigV1 `json:"sanitization,omitempty"`
}

// FlagOverrides carries the CLI flag values a subcommand parsed, so
// LoadMerged can apply them at the top of the precedence chain without every
// caller re-implementing the merge.
type FlagOverrides struct {
	OutRoot       string
	MongoURI      string
	ImportProfile string
}

func LoadMerged(flags FlagOverrides) (Merged, error) {
	projectCfg, hasProjectCfg, err := loadProject(DefaultProjectConfigPath)
	if err != nil {
		return Merged{}, err
	}
	globalPath, err := DefaultGlobalConfigPath()
	if err != nil {
		return Merged{}, err
	}
	globalCfg, hasGlobalCfg, err := loadGlobal(globalPath)
	if err != nil {
		return Merged{}, err
	}

	res := Merged{
		OutRoot:             ".jongodb-differ",
		Source:              "default",
		ImportProfile:       DefaultImportProfile(),
		ImportProfileSource: "default",
	}

	if v := strings.TrimSpace(flags.OutRoot); v != "" {
		res.OutRoot = v
		res.Source = "flag"
	} else if v := strings.TrimSpace(os.Getenv("JONGODB_OUT_ROOT")); v != "" {
		res.OutRoot = v
		res.Source = "env:JONGODB_OUT_ROOT"
	} else if hasProjectCfg && strings.TrimSpace(projectCfg.OutRoot) != "" {
		res.OutRoot = projectCfg.OutRoot
		res.Source = DefaultProjectConfigPath
	} else if hasGlobalCfg && strings.TrimSpace(globalCfg.OutRoot) != "" {
		res.OutRoot = globalCfg.OutRoot
		res.Source = globalPath
	}

	if v := strings.TrimSpace(flags.MongoURI); v != "" {
		res.MongoURI = v
		res.MongoURISource = "flag"
	} else if v := strings.TrimSpace(os.Getenv("JONGODB_REAL_MONGOD_URI")); v != "" {
		res.MongoURI = v
		res.MongoURISource = "env:JONGODB_REAL_MONGOD_URI"
	} else if hasProjectCfg && strings.TrimSpace(projectCfg.MongoURI) != "" {
		res.MongoURI = projectCfg.MongoURI
		res.MongoURISource = DefaultProjectConfigPath
	} else if hasGlobalCfg && strings.TrimSpace(globalCfg.MongoURI) != "" {
		res.MongoURI = globalCfg.MongoURI
		res.MongoURISource = globalPath
	}

	if v := NormalizeImportProfile(flags.ImportProfile); v != "" {
		res.ImportProfile = v
		res.ImportProfileSource = "flag"
	} else if v := NormalizeImportProfile(os.Getenv("JONGODB_IMPORT_PROFILE")); v != "" {
		res.ImportProfile = v
		res.ImportProfileSource = "env:JONGODB_IMPORT_PROFILE"
	} else if v := NormalizeImportProfile(projectCfg.ImportProfile); hasProjectCfg && v != "" {
		res.ImportProfile = v
		res.ImportProfileSource = DefaultProjectConfigPath
	} else if v := NormalizeImportProfile(globalCfg.ImportProfile); hasGlobalCfg && v != "" {
		res.ImportProfile = v
		res.ImportProfileSource = globalPath
	}

	return res, nil
}

func loadProject(path string) (ProjectConfigV1, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ProjectConfigV1{}, false, nil
		}
		return ProjectConfigV1{}, false, err
	}
	var cfg ProjectConfigV1
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ProjectConfigV1{}, false, err
	}
	if cfg.SchemaVersion != ProjectConfigSchemaV1 {
		return ProjectConfigV1{}, false, fmt.Errorf("project config unsupported schemaVersion=%d", cfg.SchemaVersion)
	}
	if strings.TrimSpace(cfg.OutRoot) == "" {
		return ProjectConfigV1{}, false, fmt.Errorf("project config outRoot is empty")
	}
	return cfg, true, nil
}

func loadGlobal(path string) (GlobalConfigV1, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return GlobalConfigV1{}, false, nil
		}
		return GlobalConfigV1{}, false, err
	}
	var cfg GlobalConfigV1
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return GlobalConfigV1{}, false, err
	}
	if cfg.SchemaVersion != 1 {
		return GlobalConfigV1{}, false, fmt.Errorf("global config unsupported schemaVersion=%d", cfg.SchemaVersion)
	}
	return cfg, true, nil
}

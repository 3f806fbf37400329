package unifiedspec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/midagedev/jongodb-differ/internal/config"
	"github.com/midagedev/jongodb-differ/internal/scenario"
)

// ImportedScenario is §4.5's per-case import record.
type ImportedScenario struct {
	CaseID     string
	SourcePath string
	Scenario   scenario.Scenario
	Skipped    bool
	SkipReason string
}

// Import walks specRoot for case files (**/*.json, **/*.yml, **/*.yaml),
// extracts each case's runOn constraints, and filters against ctx per the
// import profile: STRICT rejects the whole import on the first unsupported
// case; COMPAT retains it, marked Skipped with a reason.
func Import(specRoot string, profile string, ctx RunOnContext) ([]ImportedScenario, error) {
	profile = config.NormalizeImportProfile(profile)
	if profile == "" {
		profile = config.DefaultImportProfile()
	}

	fsys := os.DirFS(specRoot)
	var paths []string
	for _, pattern := range []string{"**/*.json", "**/*.yml", "**/*.yaml"} {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("unifiedspec: glob %s: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}

	var out []ImportedScenario
	for _, rel := range paths {
		full := filepath.Join(specRoot, rel)
		c, err := parseCaseFile(full)
		if err != nil {
			return nil, err
		}

		s, err := c.toScenario()
		if err != nil {
			return nil, fmt.Errorf("unifiedspec: %s: build scenario: %w", full, err)
		}

		imported := ImportedScenario{CaseID: c.CaseID, SourcePath: full, Scenario: s}
		if !AnySatisfied(c.runOnRequirements(), ctx) {
			reason := fmt.Sprintf("no runOn requirement satisfied by server %s topology %s serverless=%v", ctx.ServerVersion, ctx.Topology, ctx.Serverless)
			if profile == config.ImportProfileStrict {
				return nil, fmt.Errorf("unifiedspec: %s: case %q unsupported under strict profile: %s", full, c.CaseID, reason)
			}
			imported.Skipped = true
			imported.SkipReason = reason
		}
		out = append(out, imported)
	}
	return out, nil
}

package unifiedspec

import (
	"context"
	"fmt"

	"github.com/midagedev/jongodb-differ/internal/backend"
	"github.com/midagedev/jongodb-differ/internal/diffengine"
	"github.com/midagedev/jongodb-differ/internal/harness"
	"github.com/midagedev/jongodb-differ/internal/replaybundle"
	"github.com/midagedev/jongodb-differ/internal/scenario"
)

// RunCorpus feeds the non-skipped imported scenarios through h, then
// materializes a replay bundle for every non-MATCH DiffResult and replays up
// to replayLimit of them through replayBackend, per §4.5: "materialize up to
// replayLimit failure replays (stopping when capacity is reached) and a full
// set of replay bundles (one per non-MATCH result)."
func RunCorpus(ctx context.Context, suiteID string, imported []ImportedScenario, h *harness.Harness, bundleDir string, replayLimit int, replayBackend backend.Backend) (harness.DifferentialReport, []replaybundle.ReplayResult, error) {
	byID := make(map[string]ImportedScenario, len(imported))
	var active []scenario.Scenario
	for _, s := range imported {
		if s.Skipped {
			continue
		}
		byID[s.CaseID] = s
		active = append(active, s.Scenario)
	}

	report, err := h.Run(ctx, active)
	if err != nil {
		return harness.DifferentialReport{}, nil, fmt.Errorf("unifiedspec: run corpus: %w", err)
	}

	var replays []replaybundle.ReplayResult
	for _, dr := range report.Results {
		if dr.Status == diffengine.StatusMatch {
			continue
		}
		src, ok := byID[dr.ScenarioID]
		if !ok {
			continue
		}

		message := dr.ErrorMessage
		if dr.Status == diffengine.StatusMismatch {
			message = fmt.Sprintf("%d diff entries", len(dr.Entries))
		}
		probe, err := replaybundle.NewReplayProbe("$.success", dr.Status != diffengine.StatusError)
		if err != nil {
			return harness.DifferentialReport{}, nil, fmt.Errorf("unifiedspec: build probe for %s: %w", dr.ScenarioID, err)
		}
		bundle := replaybundle.NewReplayBundle(suiteID, string(dr.Status), dr.ScenarioID, message, src.Scenario.Commands, probe)
		if err := replaybundle.Save(bundleDir, bundle); err != nil {
			return harness.DifferentialReport{}, nil, fmt.Errorf("unifiedspec: save bundle %s: %w", bundle.FailureID, err)
		}

		if replayBackend != nil && len(replays) < replayLimit {
			result, err := replaybundle.Replay(ctx, replayBackend, bundle)
			if err != nil {
				return harness.DifferentialReport{}, nil, fmt.Errorf("unifiedspec: replay bundle %s: %w", bundle.FailureID, err)
			}
			replays = append(replays, result)
		}
	}

	return report, replays, nil
}

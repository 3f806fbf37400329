package replaybundle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/midagedev/jongodb-differ/internal/backend"
	"github.com/midagedev/jongodb-differ/internal/scenario"
)

// ReplayResult is the outcome of re-executing a bundle's commands through a
// chosen backend and checking the probe.
type ReplayResult struct {
	RequestID    string
	FailureID    string
	Outcome      backend.Outcome
	ProbeMatched bool
}

// Replay re-executes the bundle's recorded command sequence via b and
// evaluates the replay probe against the resulting outcome. Each replay
// carries a synthetic request id, for correlating replay attempts in logs
// independent of the failureId they target.
func Replay(ctx context.Context, b backend.Backend, bundle ReplayBundle) (ReplayResult, error) {
	s, err := scenario.NewScenario(bundle.FailureID, bundle.Message, bundle.Commands)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replaybundle: rebuild scenario for %s: %w", bundle.FailureID, err)
	}
	outcome := b.Execute(ctx, s)
	return ReplayResult{
		RequestID:    uuid.NewString(),
		FailureID:    bundle.FailureID,
		Outcome:      outcome,
		ProbeMatched: bundle.Probe.Matches(outcome),
	}, nil
}

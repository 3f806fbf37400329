// Package backend adapts a Scenario into the two execution surfaces the
// differential harness compares: an in-process wire-ingress adapter and a
// real-server reference adapter. Both produce the same Outcome shape so the
// diff engine never has to know which backend it is looking at.
package backend

import (
	"context"

	"github.com/midagedev/jongodb-differ/internal/scenario"
)

// Backend executes a Scenario end to end and reports its outcome.
type Backend interface {
	Name() string
	Execute(ctx context.Context, s scenario.Scenario) Outcome
}

// Outcome is §3's ScenarioOutcome: either Success with one commandResult per
// command, in command order, or Failure with a non-blank errorMessage.
// Invariant: success ⇔ errorMessage is absent.
type Outcome struct {
	Success        bool
	CommandResults []map[string]any
	ErrorMessage   string
}

func Success(results []map[string]any) Outcome {
	return Outcome{Success: true, CommandResults: results}
}

func Failure(errorMessage string) Outcome {
	return Outcome{Success: false, ErrorMessage: errorMessage}
}

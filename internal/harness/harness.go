// Package harness runs the Differential Harness (§4.3): for each scenario,
// execute both backends (order fixed: left, right) and diff the outcomes.
// Scenarios are independent and may run in parallel, but the property §5
// requires — parallelism never changes the DifferentialReport as long as
// output ordering is preserved — is upheld by writing each result into its
// scenario's own slot rather than appending as results complete.
package harness

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/midagedev/jongodb-differ/internal/backend"
	"github.com/midagedev/jongodb-differ/internal/diffengine"
	"github.com/midagedev/jongodb-differ/internal/scenario"
)

// DifferentialReport is §3's report: a run's results in harness order plus
// the derived MATCH/MISMATCH/ERROR counters.
type DifferentialReport struct {
	GeneratedAt  time.Time
	LeftBackend  string
	RightBackend string
	Results      []diffengine.DiffResult
}

// Counters returns the total/match/mismatch/error counts derived from Results.
func (r DifferentialReport) Counters() (total, match, mismatch, errorCount int) {
	total = len(r.Results)
	for _, res := range r.Results {
		switch res.Status {
		case diffengine.StatusMatch:
			match++
		case diffengine.StatusMismatch:
			mismatch++
		case diffengine.StatusError:
			errorCount++
		}
	}
	return
}

// Harness executes a fixed ordered pair of backends over a scenario list.
type Harness struct {
	Left        backend.Backend
	Right       backend.Backend
	Parallelism int
}

func New(left, right backend.Backend, parallelism int) *Harness {
	return &Harness{Left: left, Right: right, Parallelism: parallelism}
}

// Run executes scenarios with up to Parallelism concurrent in flight,
// independent of each other, and returns results in scenario order.
func (h *Harness) Run(ctx context.Context, scenarios []scenario.Scenario) (DifferentialReport, error) {
	results := make([]diffengine.DiffResult, len(scenarios))

	limit := h.Parallelism
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			results[i] = h.runOne(gctx, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DifferentialReport{}, err
	}

	return DifferentialReport{
		GeneratedAt:  time.Now().UTC(),
		LeftBackend:  h.Left.Name(),
		RightBackend: h.Right.Name(),
		Results:      results,
	}, nil
}

func (h *Harness) runOne(ctx context.Context, s scenario.Scenario) diffengine.DiffResult {
	left := h.Left.Execute(ctx, s)
	right := h.Right.Execute(ctx, s)
	return diffengine.Diff(s.ID, h.Left.Name(), h.Right.Name(), left, right)
}

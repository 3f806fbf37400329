// Package gc implements retention cleanup for a project's outRoot/runs
// directory: age-based and total-size-based deletion of unpinned runs.
package gc

import (
	"os"
	"time"

	"github.com/midagedev/jongodb-differ/internal/runstore"
)

// RunSummary is one run's retention-relevant facts, echoed back in Result.
type RunSummary struct {
	RunID     string    `json:"runId"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
	Pinned    bool      `json:"pinned"`
	Bytes     int64     `json:"bytes"`
}

type Result struct {
	OK          bool         `json:"ok"`
	OutRoot     string       `json:"outRoot"`
	DryRun      bool         `json:"dryRun"`
	Deleted     []RunSummary `json:"deleted,omitempty"`
	Kept        []RunSummary `json:"kept,omitempty"`
	TotalBefore int64        `json:"totalBeforeBytes"`
	TotalAfter  int64        `json:"totalAfterBytes"`
}

type Opts struct {
	OutRoot       string
	Now           time.Time
	MaxAgeDays    int
	MaxTotalBytes int64
	DryRun        bool
}

// Run evaluates every run under opts.OutRoot/runs against the age and
// total-size thresholds, deleting the oldest unpinned runs first, per
// spec.md's retention policy: pinned runs are never deleted.
func Run(opts Opts) (Result, error) {
	outRoot := opts.OutRoot
	if outRoot == "" {
		outRoot = ".jongodb-differ"
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	infos, err := runstore.ListRuns(outRoot)
	if err != nil {
		return Result{}, err
	}

	var total int64
	for _, r := range infos {
		total += r.Bytes
	}
	res := Result{OK: true, OutRoot: outRoot, DryRun: opts.DryRun, TotalBefore: total, TotalAfter: total}

	shouldDelete := make(map[string]bool)
	if opts.MaxAgeDays > 0 {
		cutoff := now.Add(-time.Duration(opts.MaxAgeDays) * 24 * time.Hour)
		for _, r := range infos {
			if r.Pinned {
				continue
			}
			if !r.CreatedAt.IsZero() && r.CreatedAt.Before(cutoff) {
				shouldDelete[r.RunID] = true
			}
		}
	}

	if opts.MaxTotalBytes > 0 && total > opts.MaxTotalBytes {
		for _, r := range infos {
			if total <= opts.MaxTotalBytes {
				break
			}
			if r.Pinned || shouldDelete[r.RunID] {
				continue
			}
			shouldDelete[r.RunID] = true
			total -= r.Bytes
		}
	}

	for _, r := range infos {
		summary := RunSummary{RunID: r.RunID, Path: r.Path, CreatedAt: r.CreatedAt, Pinned: r.Pinned, Bytes: r.Bytes}
		if shouldDelete[r.RunID] {
			res.Deleted = append(res.Deleted, summary)
			res.TotalAfter -= r.Bytes
			if !opts.DryRun {
				if err := os.RemoveAll(r.Path); err != nil {
					return Result{}, err
				}
			}
		} else {
			res.Kept = append(res.Kept, summary)
		}
	}
	return res, nil
}

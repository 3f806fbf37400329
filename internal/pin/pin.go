// Package pin flips a run's retention-exempt flag, protecting it from gc.
package pin

import (
	"strings"

	"github.com/midagedev/jongodb-differ/internal/runstore"
)

type Result struct {
	OK     bool   `json:"ok"`
	RunID  string `json:"runId"`
	Pinned bool   `json:"pinned"`
	Path   string `json:"path"`
}

type Opts struct {
	OutRoot string
	RunID   string
	Pinned  bool
}

// Set pins or unpins opts.RunID under opts.OutRoot/runs.
func Set(opts Opts) (Result, error) {
	outRoot := strings.TrimSpace(opts.OutRoot)
	if outRoot == "" {
		outRoot = ".jongodb-differ"
	}

	meta, dir, err := runstore.SetPinned(outRoot, opts.RunID, opts.Pinned)
	if err != nil {
		return Result{}, err
	}
	return Result{OK: true, RunID: meta.RunID, Pinned: meta.Pinned, Path: dir}, nil
}

// Package runstore manages the per-run directory layout under a project's
// outRoot/runs/<runId>/: minting run ids, recording run metadata (creation
// time, pin state), and listing runs for the gc and pin commands.
package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/midagedev/jongodb-differ/internal/runid"
	"github.com/midagedev/jongodb-differ/internal/store"
)

const RunMetaSchemaV1 = 1

// RunMetaV1 is run.json: the one artifact every run directory carries,
// regardless of which reports (differential, quality-gate) it also holds.
type RunMetaV1 struct {
	SchemaVersion int       `json:"schemaVersion"`
	RunID         string    `json:"runId"`
	CreatedAt     time.Time `json:"createdAt"`
	Pinned        bool      `json:"pinned"`
}

// RunInfo augments RunMetaV1 with filesystem facts gc/doctor need.
type RunInfo struct {
	RunMetaV1
	Path  string
	Bytes int64
}

// CreateRunDir mints a new run id, creates outRoot/runs/<runId>/, and writes
// its run.json. Returns the run id and its directory.
func CreateRunDir(outRoot string, now time.Time) (string, string, error) {
	id, err := runid.NewRunID(now)
	if err != nil {
		return "", "", fmt.Errorf("runstore: mint run id: %w", err)
	}
	dir := filepath.Join(outRoot, "runs", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("runstore: create run dir: %w", err)
	}
	meta := RunMetaV1{SchemaVersion: RunMetaSchemaV1, RunID: id, CreatedAt: now.UTC()}
	if err := store.WriteJSONAtomic(filepath.Join(dir, "run.json"), meta); err != nil {
		return "", "", fmt.Errorf("runstore: write run.json: %w", err)
	}
	return id, dir, nil
}

// ReadRunMeta reads and validates runDir/run.json.
func ReadRunMeta(runDir string) (RunMetaV1, error) {
	raw, err := os.ReadFile(filepath.Join(runDir, "run.json"))
	if err != nil {
		return RunMetaV1{}, err
	}
	var meta RunMetaV1
	if err := json.Unmarshal(raw, &meta); err != nil {
		return RunMetaV1{}, fmt.Errorf("runstore: invalid run.json: %w", err)
	}
	if meta.SchemaVersion != RunMetaSchemaV1 {
		return RunMetaV1{}, fmt.Errorf("runstore: unsupported run.json schemaVersion=%d", meta.SchemaVersion)
	}
	return meta, nil
}

// SetPinned flips the pinned flag for runID under outRoot/runs, rejecting
// symlink escapes out of the runs directory.
func SetPinned(outRoot, runID string, pinned bool) (RunMetaV1, string, error) {
	runID = strings.TrimSpace(runID)
	if !runid.IsValidRunID(runID) {
		return RunMetaV1{}, "", fmt.Errorf("runstore: invalid run id %q", runID)
	}

	runsDir := filepath.Join(outRoot, "runs")
	runDir := filepath.Join(runsDir, runID)
	if err := requireContained(runsDir, runDir); err != nil {
		return RunMetaV1{}, "", err
	}

	meta, err := ReadRunMeta(runDir)
	if err != nil {
		return RunMetaV1{}, "", err
	}
	meta.Pinned = pinned
	if err := store.WriteJSONAtomic(filepath.Join(runDir, "run.json"), meta); err != nil {
		return RunMetaV1{}, "", fmt.Errorf("runstore: write run.json: %w", err)
	}
	return meta, runDir, nil
}

// ListRuns enumerates outRoot/runs, skipping directories without a valid
// run.json (e.g. left over from an interrupted CreateRunDir), sorted by
// creation time then run id.
func ListRuns(outRoot string) ([]RunInfo, error) {
	runsDir := filepath.Join(outRoot, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(runsDir, e.Name())
		meta, err := ReadRunMeta(dir)
		if err != nil {
			continue
		}
		size, _ := dirSize(dir)
		runs = append(runs, RunInfo{RunMetaV1: meta, Path: dir, Bytes: size})
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].RunID < runs[j].RunID
		}
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
	return runs, nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

func requireContained(root, target string) error {
	rootEval, err := filepath.EvalSymlinks(root)
	if err != nil {
		rootEval = filepath.Clean(root)
	}
	targetEval, err := filepath.EvalSymlinks(target)
	if err != nil {
		targetEval = filepath.Clean(target)
	}
	if targetEval != rootEval && !strings.HasPrefix(targetEval, rootEval+string(filepath.Separator)) {
		return fmt.Errorf("runstore: path %q escapes %q", target, root)
	}
	return nil
}

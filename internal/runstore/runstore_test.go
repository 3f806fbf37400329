package runstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCreateRunDir_WritesValidRunMeta(t *testing.T) {
	outRoot := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	id, dir, err := CreateRunDir(outRoot, now)
	if err != nil {
		t.Fatalf("CreateRunDir: %v", err)
	}
	if filepath.Base(dir) != id {
		t.Fatalf("expected dir to be named after run id, got %s vs %s", dir, id)
	}

	meta, err := ReadRunMeta(dir)
	if err != nil {
		t.Fatalf("ReadRunMeta: %v", err)
	}
	if meta.RunID != id || meta.Pinned {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestSetPinned_TogglesAndPersists(t *testing.T) {
	outRoot := t.TempDir()
	id, _, err := CreateRunDir(outRoot, time.Now())
	if err != nil {
		t.Fatalf("CreateRunDir: %v", err)
	}

	meta, _, err := SetPinned(outRoot, id, true)
	if err != nil {
		t.Fatalf("SetPinned: %v", err)
	}
	if !meta.Pinned {
		t.Fatalf("expected pinned=true")
	}

	runs, err := ListRuns(outRoot)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || !runs[0].Pinned {
		t.Fatalf("expected 1 pinned run, got %+v", runs)
	}
}

func TestSetPinned_RejectsInvalidRunID(t *testing.T) {
	outRoot := t.TempDir()
	if _, _, err := SetPinned(outRoot, "not-a-ulid", true); err == nil {
		t.Fatalf("expected error for invalid run id")
	}
}

func TestListRuns_SkipsDirsWithoutRunMeta(t *testing.T) {
	outRoot := t.TempDir()
	if _, _, err := CreateRunDir(outRoot, time.Now()); err != nil {
		t.Fatalf("CreateRunDir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(outRoot, "runs", "stray"), 0o755); err != nil {
		t.Fatalf("mkdir stray: %v", err)
	}

	runs, err := ListRuns(outRoot)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 valid run, got %+v", runs)
	}
}

func TestListRuns_EmptyWhenNoRunsDir(t *testing.T) {
	runs, err := ListRuns(t.TempDir())
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %+v", runs)
	}
}

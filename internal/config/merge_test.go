package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMerged_PrecedenceFlagEnvProjectGlobalDefault(t *testing.T) {
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	m, err := LoadMerged(FlagOverrides{})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}
	if m.OutRoot != ".jongodb-differ" || m.Source != "default" {
		t.Fatalf("unexpected default: %+v", m)
	}

	home := filepath.Join(dir, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Setenv("HOME", home)
	globalPath, err := DefaultGlobalConfigPath()
	if err != nil {
		t.Fatalf("DefaultGlobalConfigPath: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(globalPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(globalPath, []byte(`{"schemaVersion":1,"outRoot":".out-global"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err = LoadMerged(FlagOverrides{})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}
	if m.OutRoot != ".out-global" {
		t.Fatalf("unexpected global: %+v", m)
	}

	if err := os.WriteFile(DefaultProjectConfigPath, []byte(`{"schemaVersion":1,"outRoot":".out-project"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err = LoadMerged(FlagOverrides{})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}
	if m.OutRoot != ".out-project" {
		t.Fatalf("unexpected project: %+v", m)
	}

	t.Setenv("JONGODB_OUT_ROOT", ".out-env")
	m, err = LoadMerged(FlagOverrides{})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}
	if m.OutRoot != ".out-env" {
		t.Fatalf("unexpected env: %+v", m)
	}

	m, err = LoadMerged(FlagOverrides{OutRoot: ".out-flag"})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}
	if m.OutRoot != ".out-flag" {
		t.Fatalf("unexpected flag: %+v", m)
	}
}

func TestLoadMerged_ImportProfilePrecedence(t *testing.T) {
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Setenv("HOME", filepath.Join(dir, "home"))

	m, err := LoadMerged(FlagOverrides{})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}
	if m.ImportProfile != ImportProfileCompat {
		t.Fatalf("expected default compat profile, got %+v", m)
	}

	t.Setenv("JONGODB_IMPORT_PROFILE", "STRICT")
	m, err = LoadMerged(FlagOverrides{})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}
	if m.ImportProfile != ImportProfileStrict || m.ImportProfileSource != "env:JONGODB_IMPORT_PROFILE" {
		t.Fatalf("unexpected env-sourced profile: %+v", m)
	}

	m, err = LoadMerged(FlagOverrides{ImportProfile: "compat"})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}
	if m.ImportProfile != ImportProfileCompat || m.ImportProfileSource != "flag" {
		t.Fatalf("expected flag to win over env: %+v", m)
	}
}

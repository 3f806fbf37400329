package validate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/midagedev/jongodb-differ/internal/config"
	"github.com/midagedev/jongodb-differ/internal/fixture"
)

func TestValidatePath_MissingDirectory(t *testing.T) {
	_, err := ValidatePath(filepath.Join(t.TempDir(), "missing"), true)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsCliError(err, "JD_E_USAGE") {
		t.Fatalf("expected JD_E_USAGE, got: %v", err)
	}
}

func TestValidatePath_SpecRoot_NoCaseFiles(t *testing.T) {
	dir := t.TempDir()
	r, err := ValidatePath(dir, false)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if r.OK {
		t.Fatalf("expected not-OK result, got %+v", r)
	}
	if len(r.Errors) != 1 || r.Errors[0].Code != "JD_E_MISSING_ARTIFACT" {
		t.Fatalf("unexpected errors: %+v", r.Errors)
	}
}

func TestValidatePath_SpecRoot_ValidCase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "case1.json"), `{"caseId":"insert-one","commands":[{"commandName":"insert","payload":[]}]}`)

	r, err := ValidatePath(dir, true)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if !r.OK {
		t.Fatalf("expected OK, got %+v", r)
	}
	if r.Target != "unified-spec-root" {
		t.Fatalf("expected unified-spec-root target, got %s", r.Target)
	}
}

func TestValidatePath_SpecRoot_MissingCaseIDAndEmptyCommands(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.json"), `{"commands":[]}`)

	r, err := ValidatePath(dir, false)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if r.OK {
		t.Fatalf("expected not-OK result")
	}
	if len(r.Errors) != 1 || r.Errors[0].Code != "JD_E_SCHEMA" {
		t.Fatalf("unexpected errors: %+v", r.Errors)
	}
}

func TestValidatePath_SpecRoot_DuplicateCaseID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"caseId":"dup","commands":[{"commandName":"ping","payload":[]}]}`)
	writeFile(t, filepath.Join(dir, "b.json"), `{"caseId":"dup","commands":[{"commandName":"ping","payload":[]}]}`)

	r, err := ValidatePath(dir, false)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if r.OK {
		t.Fatalf("expected not-OK result")
	}
	if len(r.Errors) != 1 || r.Errors[0].Code != "JD_E_DUPLICATE_CASE_ID" {
		t.Fatalf("unexpected errors: %+v", r.Errors)
	}
}

func TestValidatePath_FixtureArtifact_ValidManifest(t *testing.T) {
	dir := t.TempDir()
	set := fixture.CollectionSet{"db.coll": {{"_id": "1", "n": float64(1)}}}
	manifest, err := fixture.Save(dir, set, "v1", nil, time.Time{}, nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = manifest

	r, err := ValidatePath(dir, true)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if !r.OK {
		t.Fatalf("expected OK, got %+v", r)
	}
	if r.Target != "fixture-artifact" {
		t.Fatalf("expected fixture-artifact target, got %s", r.Target)
	}
}

func TestValidatePath_FixtureArtifact_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	set := fixture.CollectionSet{"db.coll": {{"_id": "1", "n": float64(1)}}}
	manifest, err := fixture.Save(dir, set, "v1", nil, time.Time{}, nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifest.Portable.File), []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("corrupt portable file: %v", err)
	}

	r, err := ValidatePath(dir, false)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if r.OK {
		t.Fatalf("expected not-OK result after corrupting the portable file")
	}
	found := false
	for _, e := range r.Errors {
		if e.Code == "JD_E_CHECKSUM" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected JD_E_CHECKSUM among errors, got %+v", r.Errors)
	}
}

func TestValidatePath_FixtureArtifact_MissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manifest.json"), `{"schemaVersion":1,"artifactFormatVersion":1}`)

	r, err := ValidatePath(dir, false)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if r.OK {
		t.Fatalf("expected not-OK result")
	}
	if len(r.Errors) != 1 || r.Errors[0].Code != "JD_E_SCHEMA" {
		t.Fatalf("unexpected errors: %+v", r.Errors)
	}
}

func TestValidatePath_ProjectConfig_Valid(t *testing.T) {
	dir := t.TempDir()
	cfg := config.ProjectConfigV1{SchemaVersion: config.ProjectConfigSchemaV1, OutRoot: ".jongodb-differ"}
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	writeFile(t, filepath.Join(dir, config.DefaultProjectConfigPath), string(raw))

	r, err := ValidatePath(dir, true)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if !r.OK {
		t.Fatalf("expected OK, got %+v", r)
	}
	if r.Target != "project-config" {
		t.Fatalf("expected project-config target, got %s", r.Target)
	}
}

func TestValidatePath_ProjectConfig_InvalidSanitizationRule(t *testing.T) {
	dir := t.TempDir()
	raw := `{"schemaVersion":1,"outRoot":".jongodb-differ","sanitization":{"extraRules":[{"id":"","fieldPath":"x","action":"DROP"}]}}`
	writeFile(t, filepath.Join(dir, config.DefaultProjectConfigPath), raw)

	r, err := ValidatePath(dir, false)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if r.OK {
		t.Fatalf("expected not-OK result")
	}
	if len(r.Errors) != 1 || r.Errors[0].Code != "JD_E_SANITIZATION_RULES" {
		t.Fatalf("unexpected errors: %+v", r.Errors)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Package validate checks an on-disk artifact directory — a fixture
// artifact, a unified-spec case root, or a project config — against this
// module's schemas, accumulating Findings rather than aborting on the first
// problem, in strict or lenient profile.
package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/midagedev/jongodb-differ/internal/config"
	"github.com/midagedev/jongodb-differ/internal/fixture"
	"github.com/midagedev/jongodb-differ/internal/store"
)

// CliError is a user-facing error carrying a stable code for exit-code and
// `--json` consumers.
type CliError struct {
	Code    string
	Message string
	Path    string
}

func (e *CliError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCliError reports whether err is a *CliError with the given code.
func IsCliError(err error, code string) bool {
	ce, ok := err.(*CliError)
	return ok && ce.Code == code
}

// Finding is one accumulated validation problem or warning.
type Finding struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// Result is ValidatePath's report: OK iff Errors is empty (Strict also
// requires Warnings to be empty).
type Result struct {
	OK       bool      `json:"ok"`
	Strict   bool      `json:"strict"`
	Target   string    `json:"target"`
	Path     string    `json:"path"`
	Errors   []Finding `json:"errors,omitempty"`
	Warnings []Finding `json:"warnings,omitempty"`
}

func (r *Result) fail(code, message, path string) {
	r.Errors = append(r.Errors, Finding{Code: code, Message: message, Path: path})
}

func (r *Result) warn(code, message, path string) {
	r.Warnings = append(r.Warnings, Finding{Code: code, Message: message, Path: path})
}

// ValidatePath dispatches on the contents of dir: a manifest.json makes it a
// fixture artifact directory, a jongodb-differ.config.json makes it a
// project config, otherwise it is treated as a unified-spec case root.
func ValidatePath(dir string, strict bool) (Result, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Result{}, &CliError{Code: "JD_E_USAGE", Message: "target is not a directory", Path: dir}
	}

	switch {
	case fileExists(filepath.Join(dir, "manifest.json")):
		return validateFixtureArtifact(dir, strict), nil
	case fileExists(filepath.Join(dir, config.DefaultProjectConfigPath)):
		return validateProjectConfig(dir, strict), nil
	default:
		return validateSpecRoot(dir, strict)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func validateFixtureArtifact(dir string, strict bool) Result {
	r := Result{Strict: strict, Target: "fixture-artifact", Path: dir}

	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		r.fail("JD_E_MISSING_ARTIFACT", "cannot read manifest.json", dir)
		return finalize(r)
	}

	if err := fixture.ValidateManifestSchema(raw); err != nil {
		r.fail("JD_E_SCHEMA", err.Error(), filepath.Join(dir, "manifest.json"))
		return finalize(r)
	}

	var m fixture.ManifestV1
	if err := json.Unmarshal(raw, &m); err != nil {
		r.fail("JD_E_INVALID_JSON", err.Error(), filepath.Join(dir, "manifest.json"))
		return finalize(r)
	}

	if m.ArtifactFormatVersion != fixture.ArtifactFormatVersion {
		r.fail("JD_E_SCHEMA_UNSUPPORTED",
			fmt.Sprintf("unsupported artifactFormatVersion %d (expected %d)", m.ArtifactFormatVersion, fixture.ArtifactFormatVersion),
			dir)
	}

	if m.Portable.File == "" {
		r.fail("JD_E_SCHEMA", "manifest is missing portable.file", dir)
	} else if err := requireContained(dir, m.Portable.File); err != nil {
		r.fail("JD_E_PATH_ESCAPE", err.Error(), m.Portable.File)
	} else if portable, err := os.ReadFile(filepath.Join(dir, m.Portable.File)); err != nil {
		r.fail("JD_E_MISSING_ARTIFACT", "portable file referenced by manifest is missing", m.Portable.File)
	} else if !store.VerifySHA256(portable, m.Portable.SHA256) {
		r.fail("JD_E_CHECKSUM", fmt.Sprintf("portable file sha256 mismatch: manifest declares %s", m.Portable.SHA256), m.Portable.File)
	}

	if m.Fast != nil {
		if err := requireContained(dir, m.Fast.File); err != nil {
			r.fail("JD_E_PATH_ESCAPE", err.Error(), m.Fast.File)
		} else if fast, err := os.ReadFile(filepath.Join(dir, m.Fast.File)); err != nil {
			r.warn("JD_W_MISSING_FAST", "fast snapshot referenced by manifest is missing; portable fallback is required on load", m.Fast.File)
		} else if !store.VerifySHA256(fast, m.Fast.SHA256) {
			r.fail("JD_E_CHECKSUM", fmt.Sprintf("fast file sha256 mismatch: manifest declares %s", m.Fast.SHA256), m.Fast.File)
		}
	}

	if len(m.Namespaces) == 0 {
		r.warn("JD_W_EMPTY_ARTIFACT", "manifest declares zero namespaces", dir)
	}

	return finalize(r)
}

func validateProjectConfig(dir string, strict bool) Result {
	r := Result{Strict: strict, Target: "project-config", Path: dir}

	path := filepath.Join(dir, config.DefaultProjectConfigPath)
	raw, err := os.ReadFile(path)
	if err != nil {
		r.fail("JD_E_MISSING_ARTIFACT", "cannot read project config", path)
		return finalize(r)
	}

	var cfg config.ProjectConfigV1
	if err := json.Unmarshal(raw, &cfg); err != nil {
		r.fail("JD_E_INVALID_JSON", err.Error(), path)
		return finalize(r)
	}
	if cfg.SchemaVersion != config.ProjectConfigSchemaV1 {
		r.fail("JD_E_SCHEMA_UNSUPPORTED", fmt.Sprintf("unsupported schemaVersion %d", cfg.SchemaVersion), path)
	}
	if strings.TrimSpace(cfg.OutRoot) == "" {
		r.fail("JD_E_SCHEMA", "outRoot is missing", path)
	}
	if cfg.Sanitization != nil {
		if err := config.ValidateSanitizationRules(cfg.Sanitization.ExtraRules); err != nil {
			r.fail("JD_E_SANITIZATION_RULES", err.Error(), path)
		}
	}

	return finalize(r)
}

func validateSpecRoot(dir string, strict bool) (Result, error) {
	r := Result{Strict: strict, Target: "unified-spec-root", Path: dir}

	fsys := os.DirFS(dir)
	var paths []string
	for _, pattern := range []string{"**/*.json", "**/*.yml", "**/*.yaml"} {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return Result{}, &CliError{Code: "JD_E_USAGE", Message: err.Error(), Path: dir}
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		r.fail("JD_E_MISSING_ARTIFACT", "no case files found (**/*.json, **/*.yml, **/*.yaml)", dir)
		return finalize(r), nil
	}

	seen := map[string]string{} // caseId -> first source path
	for _, rel := range paths {
		full := filepath.Join(dir, rel)
		if err := requireContained(dir, rel); err != nil {
			r.fail("JD_E_PATH_ESCAPE", err.Error(), full)
			continue
		}

		raw, err := os.ReadFile(full)
		if err != nil {
			r.fail("JD_E_MISSING_ARTIFACT", err.Error(), full)
			continue
		}

		caseID, commandCount, err := parseCaseIDAndCommandCount(full, raw)
		if err != nil {
			r.fail("JD_E_INVALID_JSON", err.Error(), full)
			continue
		}
		if caseID == "" {
			r.fail("JD_E_SCHEMA", "missing/invalid caseId", full)
			continue
		}
		if commandCount == 0 {
			r.fail("JD_E_SCHEMA", fmt.Sprintf("case %q has no commands", caseID), full)
			continue
		}
		if prior, ok := seen[caseID]; ok {
			r.fail("JD_E_DUPLICATE_CASE_ID", fmt.Sprintf("case id %q also defined in %s", caseID, prior), full)
			continue
		}
		seen[caseID] = full
	}

	return finalize(r), nil
}

// parseCaseIDAndCommandCount decodes just enough of a case file's shape
// (JSON or YAML, by extension) to validate id presence and non-empty
// commands, without constructing scenario.Scenario or requiring runOn
// requirements to be satisfiable against any particular server context.
func parseCaseIDAndCommandCount(path string, raw []byte) (string, int, error) {
	var shape struct {
		CaseID   string `json:"caseId" yaml:"caseId"`
		Commands []any  `json:"commands" yaml:"commands"`
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &shape); err != nil {
			return "", 0, err
		}
	default:
		if err := json.Unmarshal(raw, &shape); err != nil {
			return "", 0, err
		}
	}
	return strings.TrimSpace(shape.CaseID), len(shape.Commands), nil
}

func finalize(r Result) Result {
	r.OK = len(r.Errors) == 0 && (!r.Strict || len(r.Warnings) == 0)
	return r
}

// requireContained ensures rel resolves to a path inside root, rejecting
// symlink or ".." escapes.
func requireContained(root, rel string) error {
	full := filepath.Join(root, rel)
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		resolvedRoot = root
	}
	resolvedFull, err := filepath.EvalSymlinks(full)
	if err != nil {
		resolvedFull = full
	}
	if resolvedFull != resolvedRoot && !strings.HasPrefix(resolvedFull, resolvedRoot+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes artifact root %q", rel, root)
	}
	return nil
}

// Package contract publishes the CLI's stable machine-readable surface:
// the artifact/schema versions, commands, and error codes a CI pipeline can
// depend on without re-deriving them from --help text.
package contract

import (
	"github.com/midagedev/jongodb-differ/internal/fixture"
	"github.com/midagedev/jongodb-differ/internal/runstore"
)

type Artifact struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"` // json|ndjson.gz|binary
	SchemaVersion  int    `json:"schemaVersion"`
	PathPattern    string `json:"pathPattern"`
	RequiredFields []string `json:"requiredFields"`
}

type Command struct {
	ID      string `json:"id"`
	Usage   string `json:"usage"`
	Summary string `json:"summary"`
}

type ErrorCode struct {
	Code    string `json:"code"`
	Summary string `json:"summary"`
}

type Contract struct {
	Name      string      `json:"name"`
	Version   string      `json:"version"`
	Artifacts []Artifact  `json:"artifacts"`
	Commands  []Command   `json:"commands"`
	Errors    []ErrorCode `json:"errors"`
}

// Build assembles the contract for the given CLI version.
func Build(version string) Contract {
	return Contract{
		Name:    "jongodb-differ",
		Version: version,
		Artifacts: []Artifact{
			{ID: "run-meta", Kind: "json", SchemaVersion: runstore.RunMetaSchemaV1,
				PathPattern: "<outRoot>/runs/<runId>/run.json", RequiredFields: []string{"schemaVersion", "runId", "createdAt", "pinned"}},
			{ID: "differential-report", Kind: "json", SchemaVersion: 1,
				PathPattern: "<outRoot>/runs/<runId>/differential-report.json", RequiredFields: []string{"generatedAt", "leftBackend", "rightBackend", "results"}},
			{ID: "quality-gate-report", Kind: "json", SchemaVersion: 1,
				PathPattern: "<outRoot>/runs/<runId>/quality-gate-report.json", RequiredFields: []string{"generatedAt", "metrics", "gateResults"}},
			{ID: "fixture-manifest", Kind: "json", SchemaVersion: fixture.ManifestSchemaVersion,
				PathPattern: "<fixtureDir>/manifest.json", RequiredFields: []string{"schemaVersion", "artifactFormatVersion", "portableFormatVersion", "dataSchemaHash", "namespaces", "totals", "portable"}},
			{ID: "fixture-portable", Kind: "ndjson.gz", SchemaVersion: fixture.ArtifactFormatVersion,
				PathPattern: "<fixtureDir>/fixture.ndjson.gz", RequiredFields: nil},
			{ID: "fixture-fast", Kind: "binary", SchemaVersion: int(fixture.FastVersion),
				PathPattern: "<fixtureDir>/fixture.fast", RequiredFields: nil},
			{ID: "replay-bundle", Kind: "json", SchemaVersion: 1,
				PathPattern: "<bundleDir>/<failureId>.json", RequiredFields: []string{"failureId", "status", "message", "commands", "probePath", "probeExpectedValue"}},
		},
		Commands: []Command{
			{ID: "init", Usage: "jongodb-differ init [--out-root .jongodb-differ] [--config jongodb-differ.config.json] [--json]", Summary: "Initialize the project output root and config."},
			{ID: "corpus", Usage: "jongodb-differ corpus --spec-root <dir> --left-uri <uri> --right-uri <uri> [--replay-limit N] --json", Summary: "Import a unified spec root and run it through the differential harness."},
			{ID: "replay", Usage: "jongodb-differ replay --bundle-dir <dir> --failure-id <id> --uri <uri> --json", Summary: "Replay a persisted failure bundle against a backend."},
			{ID: "fixture refresh", Usage: "jongodb-differ fixture refresh --dir <fixtureDir> --candidates <file> --mode full|incremental [--approve] [--json]", Summary: "Refresh a fixture artifact from freshly captured candidate data."},
			{ID: "fixture sanitize", Usage: "jongodb-differ fixture sanitize --dir <fixtureDir> --seed <seed> [--json]", Summary: "Apply sanitization rules to a fixture artifact and lint for PII."},
			{ID: "gate", Usage: "jongodb-differ gate standard --compat-pass-rate F --flake-rate F --p95-latency-millis F --repro-time-p50-minutes F --json", Summary: "Evaluate the four standard quality gates. R1/R2/R3 aggregators are library-only APIs for embedders."},
			{ID: "validate", Usage: "jongodb-differ validate [--strict] [--json] <dir>", Summary: "Validate a fixture artifact, project config, or unified-spec root."},
			{ID: "report", Usage: "jongodb-differ report [--json] <runDir>", Summary: "Render a run's differential and quality-gate reports as Markdown."},
			{ID: "doctor", Usage: "jongodb-differ doctor [--out-root <dir>] [--json]", Summary: "Check environment/config sanity."},
			{ID: "gc", Usage: "jongodb-differ gc [--max-age-days N] [--max-total-bytes N] [--dry-run] [--json]", Summary: "Retention cleanup of unpinned runs."},
			{ID: "pin", Usage: "jongodb-differ pin --run-id <runId> --on|--off [--json]", Summary: "Exempt (or re-expose) a run from gc."},
			{ID: "contract", Usage: "jongodb-differ contract --json", Summary: "Print this contract."},
		},
		Errors: []ErrorCode{
			{Code: "JD_E_USAGE", Summary: "invalid CLI invocation"},
			{Code: "JD_E_IO", Summary: "filesystem or I/O failure"},
			{Code: "JD_E_MISSING_ARTIFACT", Summary: "a required artifact file is absent"},
			{Code: "JD_E_INVALID_JSON", Summary: "an artifact's JSON does not parse"},
			{Code: "JD_E_SCHEMA", Summary: "an artifact fails its required-field/shape check"},
			{Code: "JD_E_SCHEMA_UNSUPPORTED", Summary: "an artifact declares an unsupported schema/format version"},
			{Code: "JD_E_CHECKSUM", Summary: "a file's sha256 does not match its manifest entry"},
			{Code: "JD_E_PATH_ESCAPE", Summary: "a manifest or case file references a path outside its root"},
			{Code: "JD_E_DUPLICATE_CASE_ID", Summary: "two unified-spec case files declare the same caseId"},
			{Code: "JD_E_SANITIZATION_RULES", Summary: "a sanitization rule fails validation"},
			{Code: "JD_E_GATE_FAIL", Summary: "a quality gate evaluated to FAIL, or a fixture refresh left breaking changes unapproved"},
		},
	}
}

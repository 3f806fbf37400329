package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	portableFileName = "fixture.ndjson.gz"
	fastFileName     = "fixture.fast"
	manifestFileName = "manifest.json"
)

// EngineInfo identifies the running engine for fast-snapshot gating.
type EngineInfo struct {
	Version string
}

// Save writes set to dir as a portable NDJSON.gz artifact plus a manifest,
// and (when engine is non-nil) a fast binary snapshot for the current
// engine, stamped with now. prevManifest, if non-nil, is used to compute the
// changelog.
func Save(dir string, set CollectionSet, fixtureVersion string, engine *EngineInfo, now time.Time, prevManifest *ManifestV1) (ManifestV1, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ManifestV1{}, fmt.Errorf("fixture: mkdir %s: %w", dir, err)
	}

	portableBytes, err := EncodePortable(set)
	if err != nil {
		return ManifestV1{}, fmt.Errorf("fixture: encode portable: %w", err)
	}
	portablePath := filepath.Join(dir, portableFileName)
	portableSHA, err := writeFileSHA256(portablePath, portableBytes)
	if err != nil {
		return ManifestV1{}, err
	}

	namespaces := BuildNamespaceManifests(set)
	schemaHash, err := DataSchemaHash(namespaces)
	if err != nil {
		return ManifestV1{}, err
	}

	var prevNamespaces []NamespaceManifest
	if prevManifest != nil {
		prevNamespaces = prevManifest.Namespaces
	}

	m := ManifestV1{
		SchemaVersion:         ManifestSchemaVersion,
		ArtifactFormatVersion: ArtifactFormatVersion,
		PortableFormatVersion: ArtifactFormatVersion,
		FixtureVersion:        fixtureVersion,
		DataSchemaHash:        schemaHash,
		Namespaces:            namespaces,
		Totals:                BuildManifestTotals(namespaces),
		Portable:              PortableFileManifest{File: portableFileName, SHA256: portableSHA, DocumentCount: set.DocumentCount()},
		Changelog:             Changelog(prevNamespaces, namespaces),
	}

	if engine != nil {
		fastBytes, err := EncodeFast(set)
		if err != nil {
			return ManifestV1{}, fmt.Errorf("fixture: encode fast: %w", err)
		}
		fastPath := filepath.Join(dir, fastFileName)
		fastSHA, err := writeFileSHA256(fastPath, fastBytes)
		if err != nil {
			return ManifestV1{}, err
		}
		m.Fast = &FastFileManifest{
			File:              fastFileName,
			SHA256:            fastSHA,
			Documents:         set.DocumentCount(),
			EngineVersion:     engine.Version,
			FastFormatVersion: int(FastVersion),
			UpdatedAt:         formatUpdatedAt(now),
		}
	}

	if err := writeManifest(dir, m); err != nil {
		return ManifestV1{}, err
	}
	return m, nil
}

// formatUpdatedAt stamps a fast-snapshot write time as RFC3339 UTC; a zero
// now (callers that don't have a clock to inject) leaves the field empty
// rather than lying with a fabricated timestamp.
func formatUpdatedAt(now time.Time) string {
	if now.IsZero() {
		return ""
	}
	return now.UTC().Format(time.RFC3339)
}

// Load reads a fixture artifact from dir per §4.6's Load logic: manifest
// absent or with an unsupported schemaVersion falls back to the portable
// NDJSON file directly; an unsupported artifactFormatVersion is a hard
// error; the fast file is used only when both its fastFormatVersion and
// engineVersion match the running engine, otherwise the portable file is
// used (with sha256 verification), optionally regenerating the fast
// snapshot in place (stamped with now).
func Load(dir string, engine *EngineInfo, now time.Time) (CollectionSet, *ManifestV1, error) {
	manifestPath := filepath.Join(dir, manifestFileName)
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("fixture: read manifest: %w", err)
		}
		set, loadErr := loadPortableOnly(dir)
		return set, nil, loadErr
	}

	if err := ValidateManifestSchema(raw); err != nil {
		return nil, nil, err
	}

	var m ManifestV1
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("fixture: manifest is not valid json: %w", err)
	}
	if m.SchemaVersion != ManifestSchemaVersion {
		set, loadErr := loadPortableOnly(dir)
		return set, nil, loadErr
	}
	if m.ArtifactFormatVersion != ArtifactFormatVersion {
		return nil, nil, fmt.Errorf("fixture: unsupported artifactFormatVersion %d", m.ArtifactFormatVersion)
	}

	if engine != nil && m.Fast != nil && m.Fast.FastFormatVersion == int(FastVersion) && m.Fast.EngineVersion == engine.Version {
		fastBytes, err := os.ReadFile(filepath.Join(dir, m.Fast.File))
		if err == nil {
			set, decErr := DecodeFast(fastBytes)
			if decErr == nil {
				return set, &m, nil
			}
		}
	}

	portableBytes, err := os.ReadFile(filepath.Join(dir, m.Portable.File))
	if err != nil {
		return nil, nil, fmt.Errorf("fixture: read portable file: %w", err)
	}
	if err := verifySHA256(portableBytes, m.Portable.SHA256); err != nil {
		return nil, nil, err
	}
	set, err := DecodePortable(portableBytes)
	if err != nil {
		return nil, nil, err
	}

	if engine != nil && (m.Fast == nil || m.Fast.FastFormatVersion != int(FastVersion) || m.Fast.EngineVersion != engine.Version) {
		if regenErr := regenerateFastSnapshot(dir, set, engine, now, &m); regenErr == nil {
			_ = writeManifest(dir, m)
		}
	}

	return set, &m, nil
}

func regenerateFastSnapshot(dir string, set CollectionSet, engine *EngineInfo, now time.Time, m *ManifestV1) error {
	fastBytes, err := EncodeFast(set)
	if err != nil {
		return err
	}
	fastSHA, err := writeFileSHA256(filepath.Join(dir, fastFileName), fastBytes)
	if err != nil {
		return err
	}
	m.Fast = &FastFileManifest{
		File:              fastFileName,
		SHA256:            fastSHA,
		Documents:         set.DocumentCount(),
		EngineVersion:     engine.Version,
		FastFormatVersion: int(FastVersion),
		UpdatedAt:         formatUpdatedAt(now),
	}
	return nil
}

// RequireFixtureVersion aborts with an explicit regeneration instruction
// when required is non-empty and does not match manifest's fixtureVersion.
func RequireFixtureVersion(manifest *ManifestV1, required string) error {
	if required == "" {
		return nil
	}
	if manifest == nil {
		return fmt.Errorf("fixture: required fixtureVersion %q declared but no manifest was found; regenerate the fixture", required)
	}
	if manifest.FixtureVersion != required {
		return fmt.Errorf("fixture: required fixtureVersion %q does not match manifest's %q; regenerate the fixture", required, manifest.FixtureVersion)
	}
	return nil
}

func loadPortableOnly(dir string) (CollectionSet, error) {
	portableBytes, err := os.ReadFile(filepath.Join(dir, portableFileName))
	if err != nil {
		return nil, fmt.Errorf("fixture: no manifest and no portable fallback file: %w", err)
	}
	return DecodePortable(portableBytes)
}

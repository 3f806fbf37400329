package config

import "strings"

// Import profiles gate how strictly the unified-spec importer treats
// documents it can't fully translate (spec.md §4.5): STRICT fails the whole
// import on the first unsupported case, COMPAT keeps that case marked as
// skipped together with the reason.
const (
	ImportProfileStrict = "strict"
	ImportProfileCompat = "compat"
)

func DefaultImportProfile() string {
	return ImportProfileCompat
}

// NormalizeImportProfile lower-cases and validates raw, returning "" if it
// doesn't name a known profile.
func NormalizeImportProfile(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case ImportProfileStrict, ImportProfileCompat:
		return v
	default:
		return ""
	}
}

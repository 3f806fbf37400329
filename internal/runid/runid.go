// Package runid mints and validates identifiers for corpus runs, scenario
// ids, and failure-bundle directories.
package runid

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	reInvalid = regexp.MustCompile(`[^a-z0-9-]+`)
	reDashes  = regexp.MustCompile(`-+`)
)

// NewRunID mints a ULID-based run identifier: lexicographically sortable by
// creation time, monotonic within the same millisecond.
func NewRunID(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now.UTC()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsValidRunID reports whether s parses as a ULID.
func IsValidRunID(s string) bool {
	_, err := ulid.ParseStrict(strings.TrimSpace(s))
	return err == nil
}

// SanitizeComponent normalizes s into the lower-kebab-case alphabet used for
// scenario ids, sanitization rule ids, and reference-backend database names:
// lowercase, [a-z0-9-] only, dashes collapsed, no leading/trailing dash.
func SanitizeComponent(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "_", "-")
	v = reInvalid.ReplaceAllString(v, "-")
	v = reDashes.ReplaceAllString(v, "-")
	v = strings.Trim(v, "-")
	return v
}

// ReferenceDatabaseName derives the reference-backend database name for a
// scenario per spec.md §4.1: "prefix_<sanitized-scenario-id>", truncated to
// at most 40 characters to stay under MongoDB's 64-byte database name limit
// with room for the driver's own suffixes.
func ReferenceDatabaseName(prefix, scenarioID string) string {
	sanitized := SanitizeComponent(scenarioID)
	if sanitized == "" {
		sanitized = "scenario"
	}
	name := prefix + "_" + sanitized
	const maxLen = 40
	if len(name) > maxLen {
		name = name[:maxLen]
	}
	return strings.TrimRight(name, "-_")
}

// FailureID builds the stable failure id for a DiffResult per spec.md §4.4:
// `suiteId::lower(status)::scenarioId`.
func FailureID(suiteID, status, scenarioID string) string {
	return fmt.Sprintf("%s::%s::%s", suiteID, strings.ToLower(status), scenarioID)
}

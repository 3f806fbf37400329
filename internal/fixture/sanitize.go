package fixture

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/midagedev/jongodb-differ/internal/config"
)

// defaultVolatileFields are dropped after rule application regardless of
// any configured rule, per §4.6's "server-assigned version tokens, etc."
var defaultVolatileFields = map[string]struct{}{
	"updatedAt":   {},
	"lastModified": {},
	"_version":    {},
	"__v":         {},
}

// ApplyRules sanitizes doc in place (on a copy) by matching each rule's
// FieldPath against every dotted path in doc (an exact match, or, for a
// "*"-suffixed prefix, anything nested under that prefix), then dropping
// the default volatile fields, and finally re-canonicalizing the result.
// All pseudonymization is a pure function of (seed, the field's original
// value) so repeated runs with the same seed produce byte-identical output.
func ApplyRules(doc map[string]any, rules []config.SanitizationRuleV1, seed string) map[string]any {
	out := CanonicalizeDocument(doc)
	for _, r := range rules {
		applyRule(out, "", r, seed)
	}
	dropVolatileFields(out, "")
	return CanonicalizeDocument(out)
}

func applyRule(v any, prefix string, r config.SanitizationRuleV1, seed string) {
	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	for k, val := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if ruleMatches(r.FieldPath, path) {
			m[k] = sanitizeValue(r, seed, path, val)
			continue
		}
		if nested, ok := val.(map[string]any); ok {
			applyRule(nested, path, r, seed)
		}
		if arr, ok := val.([]any); ok {
			for _, e := range arr {
				if nested, ok := e.(map[string]any); ok {
					applyRule(nested, path, r, seed)
				}
			}
		}
	}
}

func ruleMatches(rulePath, fieldPath string) bool {
	if strings.HasSuffix(rulePath, ".*") {
		prefix := strings.TrimSuffix(rulePath, ".*")
		return fieldPath == prefix || strings.HasPrefix(fieldPath, prefix+".")
	}
	if rulePath == "*" {
		return true
	}
	return rulePath == fieldPath
}

func sanitizeValue(r config.SanitizationRuleV1, seed, fieldPath string, val any) any {
	switch r.Action {
	case config.ActionDrop:
		return nil
	case config.ActionNullify:
		return nil
	case config.ActionHash:
		return "sha256:" + hashHex(seed, val)
	case config.ActionTokenize:
		return "tok_" + hashHex(seed, val)[:16]
	case config.ActionFake:
		return fakeValue(r.FakeKind, seed, val)
	default:
		return val
	}
}

func hashHex(seed string, val any) string {
	sum := sha256.Sum256([]byte(seed + "::" + stringifyForHash(val)))
	return hex.EncodeToString(sum[:])
}

func stringifyForHash(val any) string {
	switch x := val.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// fakeValue derives a deterministic synthetic value from (seed, val) using a
// fixed small vocabulary per FakeKind. The vocabulary index comes from the
// same seeded hash every other rule action uses, so two fixture captures
// with matching seeds always fake the same field to the same value.
func fakeValue(kind config.FakeKind, seed string, val any) string {
	h := hashHex(seed, val)
	idx64, _ := strconv.ParseUint(h[:8], 16, 64)
	idx := int(idx64)

	switch kind {
	case config.FakeEmail:
		names := []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi"}
		domains := []string{"example.com", "example.org", "example.net"}
		return fmt.Sprintf("%s@%s", names[idx%len(names)], domains[(idx/len(names))%len(domains)])
	case config.FakePhone:
		return fmt.Sprintf("+1-555-%04d", idx%10000)
	case config.FakeName:
		first := []string{"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Sam", "Drew"}
		last := []string{"Smith", "Johnson", "Lee", "Brown", "Garcia", "Davis", "Wilson", "Clark"}
		return fmt.Sprintf("%s %s", first[idx%len(first)], last[(idx/len(first))%len(last)])
	default: // FakeGeneric
		return fmt.Sprintf("fake_%08x", idx64)
	}
}

func dropVolatileFields(v any, prefix string) {
	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	for k, val := range m {
		if _, volatile := defaultVolatileFields[k]; volatile {
			delete(m, k)
			continue
		}
		if nested, ok := val.(map[string]any); ok {
			dropVolatileFields(nested, k)
		}
	}
}

// piiPatterns are the three default PII lint patterns (§4.6): email, phone,
// SSN-like.
var piiPatterns = map[string]*regexp.Regexp{
	"email": regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	"phone": regexp.MustCompile(`(\+?\d{1,2}[-.\s])?\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}`),
	"ssn":   regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
}

// PIIViolation is one lint hit.
type PIIViolation struct {
	File   string
	Line   int
	Kind   string
	Sample string
}

// String renders the violation in the fixed "file:line type=<kind>
// sample=<match>" format.
func (v PIIViolation) String() string {
	return fmt.Sprintf("%s:%d type=%s sample=%s", v.File, v.Line, v.Kind, v.Sample)
}

// LintPII scans canonicalJSON line-by-line (as produced by the portable
// encoder, one document per line) for the default PII patterns.
func LintPII(file string, canonicalJSON []byte) []PIIViolation {
	var out []PIIViolation
	lines := strings.Split(string(canonicalJSON), "\n")
	kinds := make([]string, 0, len(piiPatterns))
	for k := range piiPatterns {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for i, line := range lines {
		for _, kind := range kinds {
			if m := piiPatterns[kind].FindString(line); m != "" {
				out = append(out, PIIViolation{File: file, Line: i + 1, Kind: kind, Sample: m})
			}
		}
	}
	return out
}

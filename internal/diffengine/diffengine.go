// Package diffengine canonicalizes and compares two ScenarioOutcomes,
// producing the DiffEntry/DiffResult records §4.2 and §3 define.
package diffengine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/midagedev/jongodb-differ/internal/backend"
	"github.com/midagedev/jongodb-differ/internal/value"
)

type Status string

const (
	StatusMatch    Status = "MATCH"
	StatusMismatch Status = "MISMATCH"
	StatusError    Status = "ERROR"
)

// DiffEntry is one material divergence found by the walk, at path (using
// ".field" for object keys and "[i]" for array indices, rooted at "$").
type DiffEntry struct {
	Path  string
	Left  any
	Right any
	Note  string
}

// DiffResult is §3's per-scenario comparison outcome. A scenario produces
// exactly one.
type DiffResult struct {
	ScenarioID   string
	LeftBackend  string
	RightBackend string
	Status       Status
	Entries      []DiffEntry
	ErrorMessage string
}

// Diff compares two ScenarioOutcomes for the same scenario. Per §4.2's
// Status rule: ERROR if either side failed execution (that side's message
// becomes errorMessage, left preferred when both failed since left runs
// first); otherwise the two commandResults arrays are walked pairwise and
// the result is MISMATCH if any entry was found, MATCH otherwise.
func Diff(scenarioID, leftBackend, rightBackend string, left, right backend.Outcome) DiffResult {
	if !left.Success || !right.Success {
		msg := left.ErrorMessage
		if left.Success {
			msg = right.ErrorMessage
		}
		return DiffResult{
			ScenarioID:   scenarioID,
			LeftBackend:  leftBackend,
			RightBackend: rightBackend,
			Status:       StatusError,
			ErrorMessage: msg,
		}
	}

	var entries []DiffEntry
	ln, rn := len(left.CommandResults), len(right.CommandResults)
	if ln != rn {
		entries = append(entries, DiffEntry{
			Path: "$",
			Note: fmt.Sprintf("commandResults length differs: %d vs %d", ln, rn),
		})
	} else {
		for i := 0; i < ln; i++ {
			entries = append(entries, Walk(fmt.Sprintf("$[%d]", i), left.CommandResults[i], right.CommandResults[i])...)
		}
	}

	status := StatusMatch
	if len(entries) > 0 {
		status = StatusMismatch
	}
	return DiffResult{
		ScenarioID:   scenarioID,
		LeftBackend:  leftBackend,
		RightBackend: rightBackend,
		Status:       status,
		Entries:      entries,
	}
}

// Walk compares two canonicalized trees rooted at path, emitting one
// DiffEntry per divergence. Maps are compared key-by-key in lexicographic
// order (the canonicalization §4.2 requires); a key-set or length mismatch
// emits a single entry at the shortest discriminating path and does not
// descend further into that subtree.
func Walk(path string, left, right any) []DiffEntry {
	if value.Equal(left, right) {
		return nil
	}

	lm, lIsMap := left.(map[string]any)
	rm, rIsMap := right.(map[string]any)
	if lIsMap && rIsMap {
		if note, differs := keySetNote(lm, rm); differs {
			return []DiffEntry{{Path: path, Left: left, Right: right, Note: note}}
		}
		var entries []DiffEntry
		for _, k := range sortedKeys(lm) {
			entries = append(entries, Walk(path+"."+k, lm[k], rm[k])...)
		}
		return entries
	}

	la, lIsArr := left.([]any)
	ra, rIsArr := right.([]any)
	if lIsArr && rIsArr {
		if len(la) != len(ra) {
			return []DiffEntry{{Path: path, Left: left, Right: right, Note: fmt.Sprintf("array length differs: %d vs %d", len(la), len(ra))}}
		}
		var entries []DiffEntry
		for i := range la {
			entries = append(entries, Walk(fmt.Sprintf("%s[%d]", path, i), la[i], ra[i])...)
		}
		return entries
	}

	if lIsMap != rIsMap || lIsArr != rIsArr {
		return []DiffEntry{{Path: path, Left: left, Right: right, Note: fmt.Sprintf("shape mismatch: left is %s, right is %s", shapeName(left), shapeName(right))}}
	}
	return []DiffEntry{{Path: path, Left: left, Right: right}}
}

// keySetNote reports whether a and b's key sets differ and, if so, names the
// keys present on only one side, per §8 scenario 2's requirement that the
// note mention the extra key by name.
func keySetNote(a, b map[string]any) (string, bool) {
	var leftOnly, rightOnly []string
	for k := range a {
		if _, ok := b[k]; !ok {
			leftOnly = append(leftOnly, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			rightOnly = append(rightOnly, k)
		}
	}
	if len(leftOnly) == 0 && len(rightOnly) == 0 {
		return "", false
	}
	sort.Strings(leftOnly)
	sort.Strings(rightOnly)

	var parts []string
	if len(leftOnly) > 0 {
		parts = append(parts, fmt.Sprintf("left has extra key%s: %s", plural(len(leftOnly)), strings.Join(leftOnly, ", ")))
	}
	if len(rightOnly) > 0 {
		parts = append(parts, fmt.Sprintf("right has extra key%s: %s", plural(len(rightOnly)), strings.Join(rightOnly, ", ")))
	}
	return "key set differs: " + strings.Join(parts, "; "), true
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func shapeName(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

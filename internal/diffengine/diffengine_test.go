package diffengine

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/midagedev/jongodb-differ/internal/backend"
)

func TestDiff_MatchWhenCommandResultsEqual(t *testing.T) {
	left := backend.Success([]map[string]any{{"ok": float64(1), "n": int32(1)}})
	right := backend.Success([]map[string]any{{"ok": float64(1), "n": int64(1)}})
	result := Diff("s1", "in-process", "reference", left, right)
	if result.Status != StatusMatch {
		t.Fatalf("expected MATCH (1 == 1 across numeric kinds), got %s entries=%+v", result.Status, result.Entries)
	}
}

func TestDiff_MismatchOnFieldDivergence(t *testing.T) {
	left := backend.Success([]map[string]any{{"ok": float64(1), "n": int32(1)}})
	right := backend.Success([]map[string]any{{"ok": float64(1), "n": int32(2)}})
	result := Diff("s1", "in-process", "reference", left, right)
	if result.Status != StatusMismatch {
		t.Fatalf("expected MISMATCH, got %s", result.Status)
	}
	want := []DiffEntry{{Path: "$[0].n", Left: int32(1), Right: int32(2)}}
	if diff := cmp.Diff(want, result.Entries); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}
}

func TestDiff_ErrorWhenEitherSideFails(t *testing.T) {
	left := backend.Failure("command 'insert' failed at index 0: boom (code=1, codeName=X)")
	right := backend.Success([]map[string]any{{"ok": float64(1)}})
	result := Diff("s1", "in-process", "reference", left, right)
	if result.Status != StatusError {
		t.Fatalf("expected ERROR, got %s", result.Status)
	}
	if result.ErrorMessage != left.ErrorMessage {
		t.Fatalf("expected left's error message, got %q", result.ErrorMessage)
	}
	if len(result.Entries) != 0 {
		t.Fatalf("expected no entries on ERROR, got %+v", result.Entries)
	}
}

func TestWalk_ShapeMismatchStopsAtShortestPath(t *testing.T) {
	left := map[string]any{"a": map[string]any{"b": int32(1), "c": int32(2)}}
	right := map[string]any{"a": map[string]any{"b": int32(1)}}
	entries := Walk("$", left, right)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one shape-mismatch entry, got %+v", entries)
	}
	if entries[0].Path != "$.a" || entries[0].Note != "key set differs: left has extra key: c" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestWalk_KeySetNoteNamesExtraKeyOnRight(t *testing.T) {
	// §8 end-to-end scenario 2: L:{ok:1,x:{a:1}} vs R:{ok:1,x:{a:1,b:2}}.
	left := map[string]any{"ok": int32(1), "x": map[string]any{"a": int32(1)}}
	right := map[string]any{"ok": int32(1), "x": map[string]any{"a": int32(1), "b": int32(2)}}
	entries := Walk("$", left, right)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %+v", entries)
	}
	if entries[0].Path != "$.x" {
		t.Fatalf("expected entry at $.x, got %q", entries[0].Path)
	}
	if !strings.Contains(entries[0].Note, "b") || !strings.Contains(entries[0].Note, "right") {
		t.Fatalf("expected note to mention the extra key b on the right, got %q", entries[0].Note)
	}
}

func TestWalk_ArrayLengthMismatchEmitsSingleEntry(t *testing.T) {
	entries := Walk("$[0].items", []any{int32(1), int32(2)}, []any{int32(1)})
	if len(entries) != 1 || entries[0].Path != "$[0].items" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestDiff_CommandResultsLengthMismatch(t *testing.T) {
	left := backend.Success([]map[string]any{{"ok": float64(1)}, {"ok": float64(1)}})
	right := backend.Success([]map[string]any{{"ok": float64(1)}})
	result := Diff("s1", "in-process", "reference", left, right)
	if result.Status != StatusMismatch {
		t.Fatalf("expected MISMATCH, got %s", result.Status)
	}
	if len(result.Entries) != 1 || result.Entries[0].Path != "$" {
		t.Fatalf("unexpected entries: %+v", result.Entries)
	}
}

package runid

import (
	"strings"
	"testing"
	"time"
)

func TestNewRunID_IsValidAndSortable(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, err := NewRunID(now)
	if err != nil {
		t.Fatalf("NewRunID: %v", err)
	}
	if !IsValidRunID(a) {
		t.Fatalf("expected %q to be a valid run id", a)
	}

	b, err := NewRunID(now.Add(time.Second))
	if err != nil {
		t.Fatalf("NewRunID: %v", err)
	}
	if !(a < b) {
		t.Fatalf("expected run ids to sort by creation time: %q then %q", a, b)
	}
}

func TestIsValidRunID_RejectsGarbage(t *testing.T) {
	if IsValidRunID("not-a-ulid") {
		t.Fatalf("expected garbage string to be invalid")
	}
}

func TestSanitizeComponent(t *testing.T) {
	cases := map[string]string{
		"Hello World":   "hello-world",
		"a__b--c":       "a-b-c",
		"  trim-me--  ": "trim-me",
		"already-ok":    "already-ok",
	}
	for in, want := range cases {
		if got := SanitizeComponent(in); got != want {
			t.Fatalf("SanitizeComponent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReferenceDatabaseName_TruncatesAndSanitizes(t *testing.T) {
	name := ReferenceDatabaseName("jgd", "My Scenario With A Very Long Descriptive Name Indeed")
	if !strings.HasPrefix(name, "jgd_") {
		t.Fatalf("expected jgd_ prefix, got %q", name)
	}
	if len(name) > 40 {
		t.Fatalf("expected name truncated to 40 chars, got %d: %q", len(name), name)
	}
}

func TestFailureID_LowercasesStatus(t *testing.T) {
	got := FailureID("crud-suite", "MISMATCH", "insert-duplicate-key")
	want := "crud-suite::mismatch::insert-duplicate-key"
	if got != want {
		t.Fatalf("FailureID = %q, want %q", got, want)
	}
}

package replaybundle

import (
	"testing"

	"github.com/midagedev/jongodb-differ/internal/backend"
)

func TestNewReplayProbe_RejectsMalformedPaths(t *testing.T) {
	cases := []string{"$.", "$[", "$[abc]", "no-dollar"}
	for _, p := range cases {
		if _, err := NewReplayProbe(p, nil); err == nil {
			t.Fatalf("expected error for malformed path %q", p)
		}
	}
}

func TestReplayProbe_MatchesSuccessPath(t *testing.T) {
	probe, err := NewReplayProbe("$.commandResults[0].ok", float64(1))
	if err != nil {
		t.Fatalf("NewReplayProbe: %v", err)
	}
	outcome := backend.Success([]map[string]any{{"ok": float64(1)}})
	if !probe.Matches(outcome) {
		t.Fatalf("expected probe to match")
	}
}

func TestReplayProbe_MissingKeyYieldsNullAndOnlyMatchesNilExpected(t *testing.T) {
	probe, err := NewReplayProbe("$.commandResults[0].missing", nil)
	if err != nil {
		t.Fatalf("NewReplayProbe: %v", err)
	}
	outcome := backend.Success([]map[string]any{{"ok": float64(1)}})
	if !probe.Matches(outcome) {
		t.Fatalf("expected missing key to read as null and match a nil expectedValue")
	}

	probeNonNil, err := NewReplayProbe("$.commandResults[0].missing", float64(1))
	if err != nil {
		t.Fatalf("NewReplayProbe: %v", err)
	}
	if probeNonNil.Matches(outcome) {
		t.Fatalf("expected missing key not to match a non-nil expectedValue")
	}
}

func TestReplayProbe_OutOfRangeIndexYieldsNull(t *testing.T) {
	probe, err := NewReplayProbe("$.commandResults[5].ok", nil)
	if err != nil {
		t.Fatalf("NewReplayProbe: %v", err)
	}
	outcome := backend.Success([]map[string]any{{"ok": float64(1)}})
	if !probe.Matches(outcome) {
		t.Fatalf("expected out-of-range index to read as null")
	}
}

func TestReplayProbe_RootPathReadsSuccessField(t *testing.T) {
	probe, err := NewReplayProbe("$.success", true)
	if err != nil {
		t.Fatalf("NewReplayProbe: %v", err)
	}
	if !probe.Matches(backend.Success(nil)) {
		t.Fatalf("expected $.success to read true on a successful outcome")
	}
}

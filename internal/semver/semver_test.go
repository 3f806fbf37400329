package semver

import "testing"

func TestParse_AcceptsMajorMinorOnly(t *testing.T) {
	v, ok := Parse("6.0")
	if !ok || v.Major != 6 || v.Minor != 0 || v.Patch != 0 {
		t.Fatalf("unexpected parse: %+v ok=%v", v, ok)
	}
}

func TestCompare_OrdersByMajorMinorPatch(t *testing.T) {
	a, _ := Parse("5.9.2")
	b, _ := Parse("6.0.0")
	if Compare(a, b) != -1 {
		t.Fatalf("expected 5.9.2 < 6.0.0")
	}
}

func TestCompare_PrereleaseIsLowerThanRelease(t *testing.T) {
	pre, _ := Parse("6.0.0-rc1")
	release, _ := Parse("6.0.0")
	if Compare(pre, release) != -1 {
		t.Fatalf("expected prerelease < release")
	}
}

func TestInRange_HonorsMinAndMax(t *testing.T) {
	v, _ := Parse("6.0")
	if !InRange(v, "5.0", "7.0") {
		t.Fatalf("expected 6.0 in [5.0, 7.0]")
	}
	if InRange(v, "6.1", "") {
		t.Fatalf("expected 6.0 below min 6.1 to fail")
	}
	if InRange(v, "", "5.9") {
		t.Fatalf("expected 6.0 above max 5.9 to fail")
	}
}

func TestInRange_UnboundedWhenEmpty(t *testing.T) {
	v, _ := Parse("100.0")
	if !InRange(v, "", "") {
		t.Fatalf("expected unbounded range to accept anything")
	}
}

package doctor

import (
	"testing"
)

func TestRun_ReportsOKWithNoProjectConfig(t *testing.T) {
	res, err := Run(t.TempDir())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected OK result, got %+v", res)
	}
	ids := map[string]bool{}
	for _, c := range res.Checks {
		ids[c.ID] = true
		if !c.OK {
			t.Fatalf("expected every check to pass, got %+v", c)
		}
	}
	for _, want := range []string{"write_access", "project_config", "sanitization_config", "reference_backend"} {
		if !ids[want] {
			t.Fatalf("expected a %q check, got %+v", want, res.Checks)
		}
	}
}

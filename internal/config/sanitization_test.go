package config

import "testing"

func TestValidateSanitizationRules_RejectsInvalidAction(t *testing.T) {
	rules := []SanitizationRuleV1{{ID: "mask-email", FieldPath: "user.email", Action: "ERASE"}}
	if err := ValidateSanitizationRules(rules); err == nil {
		t.Fatalf("expected error for invalid action")
	}
}

func TestValidateSanitizationRules_RejectsNonCanonicalID(t *testing.T) {
	rules := []SanitizationRuleV1{{ID: "Mask Email", FieldPath: "user.email", Action: ActionHash}}
	if err := ValidateSanitizationRules(rules); err == nil {
		t.Fatalf("expected error for non-canonical id")
	}
}

func TestValidateSanitizationRules_AcceptsValidRule(t *testing.T) {
	rules := []SanitizationRuleV1{{ID: "mask-email", FieldPath: "user.email", Action: ActionHash}}
	if err := ValidateSanitizationRules(rules); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateSanitizationRules_FakeActionRequiresValidFakeKind(t *testing.T) {
	withoutKind := []SanitizationRuleV1{{ID: "fake-name", FieldPath: "user.name", Action: ActionFake}}
	if err := ValidateSanitizationRules(withoutKind); err == nil {
		t.Fatalf("expected error for FAKE action missing fakeKind")
	}
	withKind := []SanitizationRuleV1{{ID: "fake-name", FieldPath: "user.name", Action: ActionFake, FakeKind: FakeName}}
	if err := ValidateSanitizationRules(withKind); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeImportProfile(t *testing.T) {
	if NormalizeImportProfile("STRICT") != ImportProfileStrict {
		t.Fatalf("expected STRICT to normalize to strict")
	}
	if NormalizeImportProfile("bogus") != "" {
		t.Fatalf("expected unknown profile to normalize to empty string")
	}
}

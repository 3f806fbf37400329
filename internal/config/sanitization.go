package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/midagedev/jongodb-differ/internal/runid"
)

// SanitizationAction is one of the fixture sanitizer's field-level actions
// (spec.md §4.6).
type SanitizationAction string

const (
	ActionDrop     SanitizationAction = "DROP"
	ActionNullify  SanitizationAction = "NULLIFY"
	ActionHash     SanitizationAction = "HASH"
	ActionTokenize SanitizationAction = "TOKENIZE"
	ActionFake     SanitizationAction = "FAKE"
)

func (a SanitizationAction) Valid() bool {
	switch a {
	case ActionDrop, ActionNullify, ActionHash, ActionTokenize, ActionFake:
		return true
	default:
		return false
	}
}

// FakeKind selects the synthetic-value generator a FAKE action uses.
type FakeKind string

const (
	FakeEmail   FakeKind = "EMAIL"
	FakePhone   FakeKind = "PHONE"
	FakeName    FakeKind = "NAME"
	FakeGeneric FakeKind = "GENERIC"
)

func (k FakeKind) Valid() bool {
	switch k {
	case FakeEmail, FakePhone, FakeName, FakeGeneric:
		return true
	default:
		return false
	}
}

// SanitizationRuleV1 matches a dotted field path (e.g. "user.email") or a
// "*"-suffixed prefix (e.g. "payment.*") within a captured document and
// applies Action to it. FakeKind is required (and only meaningful) when
// Action is FAKE.
type SanitizationRuleV1 struct {
	ID          string             `json:"id"`
	FieldPath   string             `json:"fieldPath"`
	Action      SanitizationAction `json:"action"`
	FakeKind    FakeKind           `json:"fakeKind,omitempty"`
	PIIReported bool               `json:"piiReported,omitempty"`
}

type SanitizationConfigV1 struct {
	ExtraRules []SanitizationRuleV1 `json:"extraRules,omitempty"`
}

// LoadSanitizationMerged loads configured extra sanitization rules from the
// global config (~/.jongodb-differ/config.json) then the project config
// (jongodb-differ.config.json), with project rules overriding global rules
// on ID collision.
func LoadSanitizationMerged() ([]SanitizationRuleV1, error) {
	merged := map[string]SanitizationRuleV1{}

	if p, err := DefaultGlobalConfigPath(); err == nil {
		if raw, err := os.ReadFile(p); err == nil {
			var g GlobalConfigV1
			if err := json.Unmarshal(raw, &g); err != nil {
				return nil, fmt.Errorf("invalid global config json: %w", err)
			}
			if g.SchemaVersion != 1 {
				return nil, fmt.Errorf("global config unsupported schemaVersion=%d", g.SchemaVersion)
			}
			if g.Sanitization != nil {
				for _, r := range g.Sanitization.ExtraRules {
					merged[strings.TrimSpace(r.ID)] = r
				}
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if raw, err := os.ReadFile(DefaultProjectConfigPath); err == nil {
		var p ProjectConfigV1
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("invalid project config json: %w", err)
		}
		if p.SchemaVersion != ProjectConfigSchemaV1 {
			return nil, fmt.Errorf("project config unsupported schemaVersion=%d", p.SchemaVersion)
		}
		if p.Sanitization != nil {
			for _, r := range p.Sanitization.ExtraRules {
				merged[strings.TrimSpace(r.ID)] = r
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	var out []SanitizationRuleV1
	for _, r := range merged {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if err := ValidateSanitizationRules(out); err != nil {
		return nil, err
	}
	return out, nil
}

func ValidateSanitizationRules(rules []SanitizationRuleV1) error {
	if len(rules) == 0 {
		return nil
	}
	if len(rules) > 128 {
		return fmt.Errorf("too many sanitization rules (max 128)")
	}
	seen := map[string]bool{}
	for _, r := range rules {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return fmt.Errorf("sanitization rule id is missing")
		}
		if runid.SanitizeComponent(id) != id {
			return fmt.Errorf("sanitization rule id %q is not canonical (use lowercase kebab-case)", id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate sanitization rule id %q", id)
		}
		seen[id] = true

		if strings.TrimSpace(r.FieldPath) == "" {
			return fmt.Errorf("sanitization rule %q fieldPath is missing", id)
		}
		if !r.Action.Valid() {
			return fmt.Errorf("sanitization rule %q has invalid action %q", id, r.Action)
		}
		if r.Action == ActionFake && !r.FakeKind.Valid() {
			return fmt.Errorf("sanitization rule %q has FAKE action but invalid fakeKind %q", id, r.FakeKind)
		}
	}
	return nil
}

// DefaultGlobalDir returns ~/.jongodb-differ.
func DefaultGlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".jongodb-differ"), nil
}

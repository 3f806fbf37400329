// Package scenario models the immutable Scenario/ScenarioCommand catalog
// entries that drive the differential harness, and the §4.1 payload-to-
// command translation that turns a command's declared Value payload into
// the ordered wire document a backend actually sends.
package scenario

import (
	"fmt"
	"strings"

	"github.com/midagedev/jongodb-differ/internal/value"
)

// PayloadField is one entry of a ScenarioCommand's payload, in the order it
// was declared. Commands keep payload order (rather than a plain Go map)
// because §4.1's translation rule appends "remaining payload entries... in
// insertion order" into the constructed command document.
type PayloadField struct {
	Key   string
	Value value.Value
}

// ScenarioCommand is one command in a Scenario: a name plus an ordered
// payload of Values.
type ScenarioCommand struct {
	CommandName string
	Payload     []PayloadField
}

// NewScenarioCommand validates and builds a ScenarioCommand. commandName
// must be non-blank; payload keys must be non-blank and unique.
func NewScenarioCommand(commandName string, payload []PayloadField) (ScenarioCommand, error) {
	if strings.TrimSpace(commandName) == "" {
		return ScenarioCommand{}, fmt.Errorf("scenario: command name is blank")
	}
	seen := make(map[string]bool, len(payload))
	cp := make([]PayloadField, len(payload))
	for i, f := range payload {
		if strings.TrimSpace(f.Key) == "" {
			return ScenarioCommand{}, fmt.Errorf("scenario: command %q has a blank payload key", commandName)
		}
		if seen[f.Key] {
			return ScenarioCommand{}, fmt.Errorf("scenario: command %q has duplicate payload key %q", commandName, f.Key)
		}
		seen[f.Key] = true
		cp[i] = f
	}
	return ScenarioCommand{CommandName: commandName, Payload: cp}, nil
}

// Get returns the payload value at key and whether it was present.
func (c ScenarioCommand) Get(key string) (value.Value, bool) {
	for _, f := range c.Payload {
		if f.Key == key {
			return f.Value, true
		}
	}
	return value.Value{}, false
}

// Scenario is an immutable, catalog-sourced test case: a unique id plus a
// non-empty ordered sequence of commands.
type Scenario struct {
	ID          string
	Description string
	Commands    []ScenarioCommand
}

// NewScenario validates and builds a Scenario. id must be non-blank;
// commands must be non-empty.
func NewScenario(id, description string, commands []ScenarioCommand) (Scenario, error) {
	if strings.TrimSpace(id) == "" {
		return Scenario{}, fmt.Errorf("scenario: id is blank")
	}
	if len(commands) == 0 {
		return Scenario{}, fmt.Errorf("scenario %q: must have at least one command", id)
	}
	cp := append([]ScenarioCommand(nil), commands...)
	return Scenario{ID: id, Description: description, Commands: cp}, nil
}

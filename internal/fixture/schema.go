package fixture

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// manifestSchema is the JSON Schema for manifest.json (§4.6's FixtureBundle
// manifest fields), used to reject a hand-edited or corrupt manifest before
// Load ever tries to interpret it.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schemaVersion", "artifactFormatVersion", "dataSchemaHash", "namespaces", "portable"],
  "properties": {
    "schemaVersion": {"type": "integer", "minimum": 1},
    "artifactFormatVersion": {"type": "integer", "minimum": 1},
    "portableFormatVersion": {"type": "integer", "minimum": 1},
    "fixtureVersion": {"type": "string"},
    "dataSchemaHash": {"type": "string"},
    "namespaces": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["namespace", "documentCount", "fieldNames"],
        "properties": {
          "namespace": {"type": "string"},
          "documentCount": {"type": "integer", "minimum": 0},
          "fieldNames": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "totals": {
      "type": "object",
      "properties": {
        "collectionCount": {"type": "integer", "minimum": 0},
        "documentCount": {"type": "integer", "minimum": 0}
      }
    },
    "portable": {
      "type": "object",
      "required": ["file", "sha256"],
      "properties": {
        "file": {"type": "string"},
        "sha256": {"type": "string"},
        "documentCount": {"type": "integer", "minimum": 0}
      }
    },
    "fast": {
      "type": "object",
      "required": ["file", "sha256", "documents", "engineVersion", "fastFormatVersion"],
      "properties": {
        "file": {"type": "string"},
        "sha256": {"type": "string"},
        "documents": {"type": "integer", "minimum": 0},
        "engineVersion": {"type": "string"},
        "fastFormatVersion": {"type": "integer", "minimum": 1},
        "updatedAt": {"type": "string"}
      }
    },
    "changelog": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledManifestSchema *jsonschema.Schema

func init() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("manifest.schema.json", bytes.NewReader([]byte(manifestSchema))); err != nil {
		panic(fmt.Sprintf("fixture: invalid embedded manifest schema: %v", err))
	}
	s, err := c.Compile("manifest.schema.json")
	if err != nil {
		panic(fmt.Sprintf("fixture: compile embedded manifest schema: %v", err))
	}
	compiledManifestSchema = s
}

// ValidateManifestSchema validates raw manifest JSON bytes against the
// FixtureBundle manifest schema.
func ValidateManifestSchema(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("fixture: manifest is not valid json: %w", err)
	}
	if err := compiledManifestSchema.Validate(v); err != nil {
		return fmt.Errorf("fixture: manifest failed schema validation: %w", err)
	}
	return nil
}

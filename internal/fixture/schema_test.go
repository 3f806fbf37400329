package fixture

import "testing"

func TestValidateManifestSchema_AcceptsWellFormedManifest(t *testing.T) {
	raw := []byte(`{
		"schemaVersion": 1,
		"artifactFormatVersion": 1,
		"dataSchemaHash": "abc123",
		"namespaces": [{"namespace":"app.widgets","documentCount":2,"fieldNames":["name"]}],
		"portable": {"file":"fixture.ndjson.gz","sha256":"deadbeef"}
	}`)
	if err := ValidateManifestSchema(raw); err != nil {
		t.Fatalf("expected valid manifest to pass, got %v", err)
	}
}

func TestValidateManifestSchema_RejectsMissingRequiredField(t *testing.T) {
	raw := []byte(`{"schemaVersion": 1}`)
	if err := ValidateManifestSchema(raw); err == nil {
		t.Fatalf("expected error for manifest missing required fields")
	}
}

func TestValidateManifestSchema_RejectsMalformedJSON(t *testing.T) {
	if err := ValidateManifestSchema([]byte(`{not json`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}

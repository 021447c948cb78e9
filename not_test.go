package jsonschema

import (
	"testing"
)

// TestNotWithRefAndDefinitions is a regression test for evaluateNot: it used
// to stamp the nested result's evaluation/schema location with "/oneOf"
// instead of "/not", which this test would not have caught by IsValid()
// alone but does exercise the $ref-inside-not resolution path that bug sat
// next to.
func TestNotWithRefAndDefinitions(t *testing.T) {
	schemaJSON := `{
		"$schema": "http://json-schema.org/draft-04/schema#",
		"type": "object",
		"definitions": {
			"positiveNumber": {
				"minimum": 0
			}
		},
		"properties": {
			"not_positive_number": {
				"type": "number",
				"not": {
					"$ref": "#/definitions/positiveNumber"
				}
			}
		},
		"required": ["not_positive_number"]
	}`

	tests := []struct {
		name     string
		dataJSON string
		valid    bool
	}{
		{
			name:     "negative number matches not(positive)",
			dataJSON: `{"not_positive_number": -3}`,
			valid:    true,
		},
		{
			name:     "positive number fails not(positive)",
			dataJSON: `{"not_positive_number": 5}`,
			valid:    false,
		},
		{
			name:     "zero fails not(positive), since minimum:0 matches zero",
			dataJSON: `{"not_positive_number": 0}`,
			valid:    false,
		},
	}

	compiler := NewCompiler()
	schema, err := compiler.Compile([]byte(schemaJSON))
	if err != nil {
		t.Fatalf("Failed to compile schema: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.ValidateJSON([]byte(tt.dataJSON))
			if result.IsValid() != tt.valid {
				t.Errorf("Expected valid=%v, got valid=%v", tt.valid, result.IsValid())
				for path, err := range result.GetDetailedErrors() {
					t.Logf("  Error at %s: %s", path, err)
				}
			}
		})
	}
}

// TestDefinitionsBackwardCompatibility exercises "definitions" reached through
// a "$ref"; the schema has no "not" keyword.
func TestDefinitionsBackwardCompatibility(t *testing.T) {
	schemaJSON := `{
		"$schema": "http://json-schema.org/draft-04/schema#",
		"type": "object",
		"definitions": {
			"positiveInteger": {
				"type": "integer",
				"minimum": 1
			}
		},
		"properties": {
			"count": {
				"$ref": "#/definitions/positiveInteger"
			}
		}
	}`

	tests := []struct {
		name     string
		dataJSON string
		valid    bool
	}{
		{
			name:     "valid positive integer",
			dataJSON: `{"count": 5}`,
			valid:    true,
		},
		{
			name:     "invalid: zero",
			dataJSON: `{"count": 0}`,
			valid:    false,
		},
		{
			name:     "invalid: negative",
			dataJSON: `{"count": -1}`,
			valid:    false,
		},
		{
			name:     "invalid: float",
			dataJSON: `{"count": 3.14}`,
			valid:    false,
		},
	}

	compiler := NewCompiler()
	schema, err := compiler.Compile([]byte(schemaJSON))
	if err != nil {
		t.Fatalf("Failed to compile schema: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.ValidateJSON([]byte(tt.dataJSON))
			if result.IsValid() != tt.valid {
				t.Errorf("Expected valid=%v, got valid=%v", tt.valid, result.IsValid())
				for path, err := range result.GetDetailedErrors() {
					t.Logf("  Error at %s: %s", path, err)
				}
			}
		})
	}
}

// TestNotEvaluationPathUsesNotKeyword guards directly against the
// copy-paste defect where evaluateNot stamped its nested result's
// evaluation/schema location with "/oneOf" instead of "/not".
func TestNotEvaluationPathUsesNotKeyword(t *testing.T) {
	compiler := NewCompiler()
	schema, err := compiler.Compile([]byte(`{"not": {"type": "string"}}`))
	if err != nil {
		t.Fatalf("Failed to compile schema: %v", err)
	}

	result := schema.Validate(42)
	if !result.IsValid() {
		t.Fatalf("expected 42 to satisfy not:{type:string}")
	}

	result = schema.Validate("nope")
	if result.IsValid() {
		t.Fatalf("expected \"nope\" to fail not:{type:string}")
	}

	found := false
	for _, detail := range result.Details {
		if detail.EvaluationPath == "/not" {
			found = true
		}
		if detail.EvaluationPath == "/oneOf" {
			t.Fatalf("not's nested result carried a /oneOf evaluation path")
		}
	}
	if !found {
		t.Fatalf("expected a nested result with evaluation path /not, got %+v", result.Details)
	}
}

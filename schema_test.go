package jsonschema

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRootSchema(t *testing.T) {
	compiler := NewCompiler()
	root := &Schema{ID: "root"}
	child := &Schema{ID: "child"}
	grandChild := &Schema{ID: "grandChild"}

	child.initializeSchema(compiler, root)
	grandChild.initializeSchema(compiler, child)

	if grandChild.getRootSchema().ID != "root" {
		t.Errorf("Expected root schema ID to be 'root', got '%s'", grandChild.getRootSchema().ID)
	}
}

func TestSchemaInitialization(t *testing.T) {
	compiler := NewCompiler().SetDefaultBaseURI("http://default.com/")

	tests := []struct {
		name            string
		id              string
		expectedID      string
		expectedURI     string
		expectedBaseURI string
	}{
		{
			name:            "Schema with absolute id",
			id:              "http://example.com/schema",
			expectedID:      "http://example.com/schema",
			expectedURI:     "http://example.com/schema",
			expectedBaseURI: "http://example.com/",
		},
		{
			name:            "Schema with relative id",
			id:              "schema",
			expectedID:      "schema",
			expectedURI:     "http://default.com/schema",
			expectedBaseURI: "http://default.com/",
		},
		{
			name:            "Schema without id",
			id:              "",
			expectedID:      "",
			expectedURI:     "",
			expectedBaseURI: "http://default.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schemaJSON := createTestSchemaJSON(tt.id, map[string]string{"name": "string"}, []string{"name"})
			schema, err := compiler.Compile([]byte(schemaJSON))

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedID, schema.ID)
			assert.Equal(t, tt.expectedURI, schema.uri)
			assert.Equal(t, tt.expectedBaseURI, schema.baseURI)
		})
	}
}

func TestSetCompiler(t *testing.T) {
	customCompiler := NewCompiler()

	schema := &Schema{}
	result := schema.SetCompiler(customCompiler)
	assert.Same(t, schema, result, "SetCompiler should return the schema for chaining")
	assert.Same(t, customCompiler, schema.compiler, "Schema should have the custom compiler set")
}

func TestGetCompiler(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func() *Schema
	}{
		{
			name: "Schema with custom compiler",
			setupFunc: func() *Schema {
				customCompiler := NewCompiler()
				schema := &Schema{}
				schema.SetCompiler(customCompiler)
				return schema
			},
		},
		{
			name: "Schema without compiler, no parent",
			setupFunc: func() *Schema {
				return &Schema{}
			},
		},
		{
			name: "Child schema inherits from parent",
			setupFunc: func() *Schema {
				customCompiler := NewCompiler()
				parent := &Schema{}
				parent.SetCompiler(customCompiler)

				child := &Schema{parent: parent}
				return child
			},
		},
		{
			name: "Nested inheritance chain",
			setupFunc: func() *Schema {
				customCompiler := NewCompiler()

				grandparent := &Schema{}
				grandparent.SetCompiler(customCompiler)

				parent := &Schema{parent: grandparent}
				child := &Schema{parent: parent}

				return child
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := tt.setupFunc()
			result := schema.GetCompiler()

			assert.NotNil(t, result, "GetCompiler should never return nil")
			assert.IsType(t, &Compiler{}, result, "GetCompiler should return a Compiler")
		})
	}
}

func TestCompilerInheritanceFallsBackToDefault(t *testing.T) {
	schema := &Schema{}
	assert.Same(t, defaultCompiler, schema.GetCompiler(), "Schema without a compiler or parent should fall back to the package default")
}

func TestSchemaUnresolvedRefs(t *testing.T) {
	compiler := NewCompiler()

	refSchemaJSON := `{
		"id": "http://example.com/ref",
		"type": "object",
		"properties": {
			"userInfo": {"$ref": "http://example.com/base"}
		}
	}`

	schema, err := compiler.Compile([]byte(refSchemaJSON))
	require.NoError(t, err, "Failed to resolve reference")

	unresolved := schema.GetUnresolvedReferenceURIs()
	assert.Len(t, unresolved, 1, "Should have 1 unresolved ref")
	assert.Equal(t, []string{"http://example.com/base"}, unresolved, "Should have correct unresolved schema")
}

func TestDeterministicMarshal(t *testing.T) {
	schema := &Schema{
		Type: SchemaType{"object"},
		Properties: &SchemaMap{
			"name": &Schema{Type: SchemaType{"string"}},
			"age":  &Schema{Type: SchemaType{"number"}},
		},
	}

	data, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"object"`)
	assert.Contains(t, string(data), `"properties"`)
}

func TestSchemaRoundTrip(t *testing.T) {
	original := &Schema{
		ID:   "https://example.com/test",
		Type: SchemaType{"object"},
		Properties: &SchemaMap{
			"name": &Schema{Type: SchemaType{"string"}},
			"age":  &Schema{Type: SchemaType{"number"}},
			"tags": &Schema{Type: SchemaType{"array"}, ItemsSchema: &Schema{Type: SchemaType{"string"}}},
		},
		Required: []string{"age", "name"},
		Definitions: map[string]*Schema{
			"address": {
				Type: SchemaType{"object"},
				Properties: &SchemaMap{
					"street": &Schema{Type: SchemaType{"string"}},
					"city":   &Schema{Type: SchemaType{"string"}},
				},
			},
		},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var roundTrip Schema
	err = json.Unmarshal(data, &roundTrip)
	require.NoError(t, err)

	assert.Equal(t, original.ID, roundTrip.ID)
	assert.Equal(t, original.Type, roundTrip.Type)
	assert.Equal(t, []string{"age", "name"}, roundTrip.Required)
	assert.NotNil(t, roundTrip.Properties)
	assert.NotNil(t, roundTrip.Definitions)

	data2, err := json.Marshal(&roundTrip)
	require.NoError(t, err)

	assert.JSONEq(t, string(data), string(data2), "Round-trip should produce identical JSON")
}

func TestCompiledSchemaRoundTrip(t *testing.T) {
	compiler := NewCompiler()
	schemaJSON := `{
		"id": "https://example.com/person",
		"type": "object",
		"properties": {
			"firstName": {"type": "string"},
			"lastName": {"type": "string"},
			"age": {"type": "integer", "minimum": 0}
		},
		"required": ["firstName", "lastName"],
		"definitions": {
			"address": {
				"type": "object",
				"properties": {
					"street": {"type": "string"},
					"city": {"type": "string"}
				}
			}
		}
	}`

	schema, err := compiler.Compile([]byte(schemaJSON))
	require.NoError(t, err)

	marshaled, err := json.Marshal(schema)
	require.NoError(t, err)

	var unmarshaled Schema
	err = json.Unmarshal(marshaled, &unmarshaled)
	require.NoError(t, err)

	remarshaled, err := json.Marshal(&unmarshaled)
	require.NoError(t, err)

	assert.JSONEq(t, string(marshaled), string(remarshaled), "Compiled schema round-trip should be stable")
}

// TestSchemaMarshalDeterminism tests that MarshalJSON produces the same output
// across repeated calls, including for the map-valued definitions/dependencies fields.
func TestSchemaMarshalDeterminism(t *testing.T) {
	schema := &Schema{
		Type: SchemaType{"object"},
		Definitions: map[string]*Schema{
			"ZType": {Type: SchemaType{"string"}},
			"AType": {Type: SchemaType{"number"}},
			"MType": {Type: SchemaType{"boolean"}},
		},
		Properties: &SchemaMap{
			"zebra":  &Schema{Type: SchemaType{"string"}},
			"apple":  &Schema{Type: SchemaType{"number"}},
			"monkey": &Schema{Type: SchemaType{"boolean"}},
		},
		Dependencies: map[string]*DependencyValue{
			"whenZ": {Names: []string{"reqA", "reqB"}},
			"whenA": {Names: []string{"reqC", "reqD"}},
		},
	}

	results := make([]string, 0, 10)
	for range 10 {
		data, err := json.Marshal(schema)
		require.NoError(t, err)
		results = append(results, string(data))
	}

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i], "Serialization %d differs from first", i)
	}

	firstResult := results[0]
	aTypePos := findStringPosition(firstResult, `"AType"`)
	mTypePos := findStringPosition(firstResult, `"MType"`)
	zTypePos := findStringPosition(firstResult, `"ZType"`)

	require.NotEqual(t, -1, aTypePos, "AType not found in JSON")
	require.NotEqual(t, -1, mTypePos, "MType not found in JSON")
	require.NotEqual(t, -1, zTypePos, "ZType not found in JSON")

	assert.Less(t, aTypePos, mTypePos, "AType should appear before MType")
	assert.Less(t, mTypePos, zTypePos, "MType should appear before ZType")
}

// TestSchemaMapMarshalDeterminism tests that SchemaMap type produces deterministic JSON.
func TestSchemaMapMarshalDeterminism(t *testing.T) {
	schemaMap := SchemaMap{
		"zoo":    &Schema{Type: SchemaType{"string"}},
		"bar":    &Schema{Type: SchemaType{"number"}},
		"alpha":  &Schema{Type: SchemaType{"boolean"}},
		"nested": &Schema{Type: SchemaType{"object"}},
	}

	results := make([]string, 0, 10)
	for range 10 {
		data, err := json.Marshal(schemaMap)
		require.NoError(t, err)
		results = append(results, string(data))
	}

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i], "SchemaMap serialization %d differs from first", i)
	}

	firstResult := results[0]
	assert.Contains(t, firstResult, `"alpha"`)
	assert.Contains(t, firstResult, `"bar"`)
	assert.Contains(t, firstResult, `"nested"`)
	assert.Contains(t, firstResult, `"zoo"`)

	alphaPos := findStringPosition(firstResult, `"alpha"`)
	barPos := findStringPosition(firstResult, `"bar"`)
	nestedPos := findStringPosition(firstResult, `"nested"`)
	zooPos := findStringPosition(firstResult, `"zoo"`)

	assert.Less(t, alphaPos, barPos, "alpha should appear before bar")
	assert.Less(t, barPos, nestedPos, "bar should appear before nested")
	assert.Less(t, nestedPos, zooPos, "nested should appear before zoo")
}

func findStringPosition(s, substr string) int {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// TestRequiredFieldOrderPreserved tests that the required field preserves
// caller-provided ordering rather than re-sorting it.
func TestRequiredFieldOrderPreserved(t *testing.T) {
	schema := &Schema{
		Type: SchemaType{"object"},
		Properties: &SchemaMap{
			"metadata":   &Schema{Type: SchemaType{"string"}},
			"spec":       &Schema{Type: SchemaType{"object"}},
			"apiVersion": &Schema{Type: SchemaType{"string"}},
			"kind":       &Schema{Type: SchemaType{"string"}},
		},
		Required: []string{"apiVersion", "kind", "metadata", "spec"},
	}

	results := make(map[string]int)
	for range 20 {
		data, err := json.Marshal(schema)
		require.NoError(t, err)
		results[string(data)]++
	}

	assert.Equal(t, 1, len(results), "Expected deterministic serialization, but got %d unique results", len(results))

	for result := range results {
		var parsed map[string]any
		err := json.Unmarshal([]byte(result), &parsed)
		require.NoError(t, err)

		requiredArray, ok := parsed["required"].([]any)
		require.True(t, ok)
		requiredStrings := make([]string, len(requiredArray))
		for i, v := range requiredArray {
			requiredStrings[i] = v.(string)
		}

		expected := []string{"apiVersion", "kind", "metadata", "spec"}
		assert.Equal(t, expected, requiredStrings, "Required fields order should be preserved")
	}
}

// TestDependencyNamesOrderPreserved tests that the property-list form of
// "dependencies" preserves caller-provided ordering.
func TestDependencyNamesOrderPreserved(t *testing.T) {
	schema := &Schema{
		Type: SchemaType{"object"},
		Dependencies: map[string]*DependencyValue{
			"creditCard": {Names: []string{"cardNumber", "cvv", "expiryDate"}},
		},
	}

	results := make(map[string]int)
	for range 20 {
		data, err := json.Marshal(schema)
		require.NoError(t, err)
		results[string(data)]++
	}

	assert.Equal(t, 1, len(results), "Expected deterministic serialization for dependencies")

	for result := range results {
		var parsed map[string]any
		err := json.Unmarshal([]byte(result), &parsed)
		require.NoError(t, err)

		deps, ok := parsed["dependencies"].(map[string]any)
		require.True(t, ok)
		creditCardDeps, ok := deps["creditCard"].([]any)
		require.True(t, ok)

		depStrings := make([]string, len(creditCardDeps))
		for i, v := range creditCardDeps {
			depStrings[i] = v.(string)
		}

		expected := []string{"cardNumber", "cvv", "expiryDate"}
		assert.Equal(t, expected, depStrings, "Dependency names order should be preserved")
	}
}

// TestNestedRequiredFieldOrderPreserved tests that nested schemas also preserve
// their own required field ordering independently.
func TestNestedRequiredFieldOrderPreserved(t *testing.T) {
	schema := &Schema{
		Type: SchemaType{"object"},
		Properties: &SchemaMap{
			"metadata": &Schema{
				Type: SchemaType{"object"},
				Properties: &SchemaMap{
					"name":        &Schema{Type: SchemaType{"string"}},
					"namespace":   &Schema{Type: SchemaType{"string"}},
					"labels":      &Schema{Type: SchemaType{"object"}},
					"annotations": &Schema{Type: SchemaType{"object"}},
				},
				Required: []string{"annotations", "labels", "name", "namespace"},
			},
			"spec": &Schema{
				Type: SchemaType{"object"},
				Properties: &SchemaMap{
					"replicas": &Schema{Type: SchemaType{"integer"}},
					"selector": &Schema{Type: SchemaType{"object"}},
				},
				Required: []string{"replicas", "selector"},
			},
		},
		Required: []string{"metadata", "spec"},
	}

	data, err := json.Marshal(schema)
	require.NoError(t, err)

	var parsed map[string]any
	err = json.Unmarshal(data, &parsed)
	require.NoError(t, err)

	properties := parsed["properties"].(map[string]any)

	metadata := properties["metadata"].(map[string]any)
	metadataRequired := metadata["required"].([]any)
	requiredStrings := make([]string, len(metadataRequired))
	for i, v := range metadataRequired {
		requiredStrings[i] = v.(string)
	}
	assert.Equal(t, []string{"annotations", "labels", "name", "namespace"}, requiredStrings)

	spec := properties["spec"].(map[string]any)
	specRequired := spec["required"].([]any)
	specStrings := make([]string, len(specRequired))
	for i, v := range specRequired {
		specStrings[i] = v.(string)
	}
	assert.Equal(t, []string{"replicas", "selector"}, specStrings)
}

// TestRequiredValidationStillWorks verifies required-property checking works
// regardless of the order fields were declared in.
func TestRequiredValidationStillWorks(t *testing.T) {
	schema := &Schema{
		Type: SchemaType{"object"},
		Properties: &SchemaMap{
			"name":  &Schema{Type: SchemaType{"string"}},
			"email": &Schema{Type: SchemaType{"string"}},
			"age":   &Schema{Type: SchemaType{"number"}},
		},
		Required: []string{"name", "email", "age"},
	}

	compiler := NewCompiler()
	schema.SetCompiler(compiler)
	schema.initializeSchema(compiler, nil)

	validData := map[string]interface{}{"name": "John", "email": "john@example.com", "age": 30}
	result := schema.Validate(validData)
	assert.True(t, result.IsValid(), "Valid data should pass validation")

	invalidData := map[string]interface{}{"name": "John", "age": 30}
	result = schema.Validate(invalidData)
	assert.False(t, result.IsValid(), "Data missing required field should fail validation")

	assert.Equal(t, []string{"name", "email", "age"}, schema.Required, "Required slice should not be modified by validation")
}

package jsonschema

// evaluateNot checks if the data fails to conform to the schema or boolean specified in the not attribute.
// According to JSON Schema Draft-04:
//   - The "not" keyword's value must be either a boolean or a valid JSON Schema.
//   - An instance is valid against this keyword if it fails to validate successfully against the schema.
//
// Reference: https://json-schema.org/draft-04/json-schema-validation#anchor91
func evaluateNot(schema *Schema, instance interface{}, depth int) (*EvaluationResult, *EvaluationError) {
	if schema.Not == nil {
		return nil, nil // No 'not' constraints to validate against
	}

	result, _ := schema.Not.evaluate(instance, depth+1)

	if result != nil {
		//nolint:errcheck
		result.SetEvaluationPath("/not").
			SetSchemaLocation(schema.GetSchemaLocation("/not")).
			SetInstanceLocation("")

		if result.IsValid() {
			return result, NewEvaluationError("not", "not_schema_mismatch", "Value should not match the not schema")
		}
	}

	return result, nil
}

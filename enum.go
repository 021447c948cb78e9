package jsonschema

// evaluateEnum checks if the data's value matches one of the enumerated values specified in the schema.
// According to JSON Schema Draft-04:
//   - The value of the "enum" keyword must be an array with at least one element.
//   - An instance validates successfully against this keyword if its value is equal to one of the elements in the array.
//   - Elements in the array might be of any type, including null.
//
// Equality follows the same deep-equality rule as "uniqueItems": numbers compare by
// mathematical value, but values of different JSON kinds never compare equal.
//
// Reference: https://json-schema.org/draft-04/json-schema-validation#anchor76
func evaluateEnum(schema *Schema, instance interface{}) *EvaluationError {
	if len(schema.Enum) > 0 {
		for _, enumValue := range schema.Enum {
			if deepEqual(instance, enumValue) {
				return nil // Match found.
			}
		}
		// No match found.
		return NewEvaluationError("enum", "value_not_in_enum", "Value should match one of the values specified by the enum")
	}
	return nil
}

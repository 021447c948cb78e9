package jsonschema

import (
	"fmt"
)

// evaluateAnyOf checks if the data conforms to at least one of the schemas specified in the anyOf attribute.
// According to JSON Schema Draft-04:
//   - The "anyOf" keyword's value must be a non-empty array, where each item is either a valid JSON Schema or a boolean.
//   - An instance validates successfully against this keyword if it validates successfully against at least one schema or is true for any boolean in this array.
//
// Reference: https://json-schema.org/draft-04/json-schema-validation#anchor85
func evaluateAnyOf(schema *Schema, data interface{}, depth int) ([]*EvaluationResult, *EvaluationError) {
	if len(schema.AnyOf) == 0 {
		return nil, nil // No anyOf constraints to validate against.
	}

	var valid bool
	results := []*EvaluationResult{}

	for i, subSchema := range schema.AnyOf {
		if subSchema == nil {
			continue
		}

		result, _ := subSchema.evaluate(data, depth+1)
		if result != nil {
			results = append(results, result.SetEvaluationPath(fmt.Sprintf("/anyOf/%d", i)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/anyOf/%d", i))).
				SetInstanceLocation(""),
			)

			if result.IsValid() {
				valid = true
			}
		}
	}

	if valid {
		return results, nil // Return nil only if at least one schema succeeds
	}
	return results, NewEvaluationError("anyOf", "any_of_item_mismatch", "Value does not match anyOf schema")
}

package jsonschema

import (
	"fmt"
	"strconv"
	"strings"
)

// evaluateAllOf checks if the data conforms to all schemas specified in the allOf attribute.
// According to JSON Schema Draft-04:
//   - The "allOf" keyword's value must be a non-empty array, where each item is a valid JSON Schema or a boolean.
//   - An instance validates successfully against this keyword if it validates successfully against all schemas or booleans in this array.
//
// Reference: https://json-schema.org/draft-04/json-schema-validation#anchor82
func evaluateAllOf(schema *Schema, instance interface{}, depth int) ([]*EvaluationResult, *EvaluationError) {
	if len(schema.AllOf) == 0 {
		return nil, nil // No allOf constraints to validate against.
	}

	invalidIndexes := []string{}
	results := []*EvaluationResult{}

	for i, subSchema := range schema.AllOf {
		if subSchema == nil {
			continue
		}

		result, _ := subSchema.evaluate(instance, depth+1)
		if result != nil {
			results = append(results, result.SetEvaluationPath(fmt.Sprintf("/allOf/%d", i)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/allOf/%d", i))).
				SetInstanceLocation(""),
			)

			if !result.IsValid() {
				invalidIndexes = append(invalidIndexes, strconv.Itoa(i))
			}
		}
	}

	if len(invalidIndexes) == 0 {
		return results, nil
	}

	return results, NewEvaluationError("allOf", "all_of_item_mismatch", "Value does not match the allOf schema at index {indexs}", map[string]interface{}{
		"indexs": strings.Join(invalidIndexes, ", "),
	})
}

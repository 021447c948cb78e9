package jsonschema

import (
	"fmt"
	"strconv"
	"strings"
)

// evaluateOneOf checks if the data conforms to exactly one of the schemas specified in the oneOf attribute.
// According to JSON Schema Draft-04:
//   - The "oneOf" keyword's value must be a non-empty array, where each item is either a valid JSON Schema or a boolean.
//   - An instance validates successfully against this keyword if it validates successfully against exactly one schema or is true for exactly one boolean in this array.
//
// Reference: https://json-schema.org/draft-04/json-schema-validation#anchor88
func evaluateOneOf(schema *Schema, instance interface{}, depth int) ([]*EvaluationResult, *EvaluationError) {
	if len(schema.OneOf) == 0 {
		return nil, nil // No oneOf constraints to validate against.
	}

	validIndexes := []string{}
	results := []*EvaluationResult{}

	for i, subSchema := range schema.OneOf {
		if subSchema == nil {
			continue
		}

		result, _ := subSchema.evaluate(instance, depth+1)
		if result != nil {
			results = append(results, result.SetEvaluationPath(fmt.Sprintf("/oneOf/%d", i)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/oneOf/%d", i))).
				SetInstanceLocation(""),
			)

			if result.IsValid() {
				validIndexes = append(validIndexes, strconv.Itoa(i))
			}
		}
	}

	if len(validIndexes) == 1 {
		return results, nil
	}

	if len(validIndexes) > 1 {
		return results, NewEvaluationError("oneOf", "one_of_multiple_matches", "Value should match exactly one schema but matches multiple at indexes {matches}", map[string]interface{}{
			"matches": strings.Join(validIndexes, ", "),
		})
	}
	return results, NewEvaluationError("oneOf", "one_of_item_mismatch", "Value does not match the oneOf schema")
}

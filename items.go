package jsonschema

import (
	"fmt"
	"strconv"
	"strings"
)

// evaluateItems checks if the data's array items conform to the constraints
// specified by the "items" and "additionalItems" keywords.
//
// Draft-04 gives "items" two forms:
//   - A single schema: every element of the instance array must conform to it.
//   - An array of schemas (a tuple): element i must conform to ItemsTuple[i].
//     Elements beyond the tuple's length are governed by "additionalItems":
//     a schema validates them, false rejects them, and an absent or true
//     value leaves them unconstrained.
//
// Reference: https://json-schema.org/draft-04/json-schema-validation#anchor37
func evaluateItems(schema *Schema, array []interface{}, depth int) ([]*EvaluationResult, *EvaluationError) {
	if schema.ItemsSchema == nil && len(schema.ItemsTuple) == 0 {
		return nil, nil
	}

	invalidIndexes := []string{}
	results := []*EvaluationResult{}

	evaluateAt := func(itemSchema *Schema, i int, path string) {
		if itemSchema == nil {
			return
		}
		item := array[i]
		result, _ := itemSchema.evaluate(item, depth+1)
		if result == nil {
			return
		}
		//nolint:errcheck
		result.SetEvaluationPath(path).
			SetSchemaLocation(schema.GetSchemaLocation(path)).
			SetInstanceLocation(fmt.Sprintf("/%d", i))

		results = append(results, result)
		if !result.IsValid() {
			invalidIndexes = append(invalidIndexes, strconv.Itoa(i))
		}
	}

	if schema.ItemsSchema != nil {
		for i := range array {
			evaluateAt(schema.ItemsSchema, i, fmt.Sprintf("/items/%d", i))
		}
	} else {
		tupleLen := len(schema.ItemsTuple)
		for i := range array {
			if i < tupleLen {
				evaluateAt(schema.ItemsTuple[i], i, fmt.Sprintf("/items/%d", i))
				continue
			}

			if schema.AdditionalItems == nil {
				continue
			}
			if schema.AdditionalItems.Boolean != nil && !*schema.AdditionalItems.Boolean {
				invalidIndexes = append(invalidIndexes, strconv.Itoa(i))
				continue
			}
			evaluateAt(schema.AdditionalItems, i, fmt.Sprintf("/additionalItems/%d", i))
		}
	}

	if len(invalidIndexes) == 1 {
		return results, NewEvaluationError("items", "item_mismatch", "Item at index {index} does not match the schema", map[string]interface{}{
			"index": invalidIndexes[0],
		})
	} else if len(invalidIndexes) > 1 {
		return results, NewEvaluationError("items", "items_mismatch", "Items at index {indexs} do not match the schema", map[string]interface{}{
			"indexs": strings.Join(invalidIndexes, ", "),
		})
	}
	return results, nil
}

package jsonschema

import (
	"fmt"
	"slices"
	"strings"
)

// evaluateProperties checks if the properties in the data object conform to the schemas specified in the schema's properties attribute.
// According to JSON Schema Draft-04:
//   - The value of "properties" must be an object, with each value being a valid JSON Schema.
//   - Validation succeeds if, for each name that appears in both the instance and as a name within this keyword's value, the child instance for that name successfully validates against the corresponding schema.
//   - Properties named here but absent from the instance are not validated; "required" is what enforces presence.
//
// Reference: https://json-schema.org/draft-04/json-schema-validation#anchor64
func evaluateProperties(schema *Schema, object map[string]any, depth int) ([]*EvaluationResult, *EvaluationError) {
	if schema.Properties == nil {
		return nil, nil // No properties defined, nothing to do.
	}

	invalidProperties := []string{}
	results := []*EvaluationResult{}

	for propName, propSchema := range *schema.Properties {
		propValue, exists := object[propName]
		if !exists {
			continue
		}

		result, _ := propSchema.evaluate(propValue, depth+1)
		if result != nil {
			//nolint:errcheck
			result.SetEvaluationPath(fmt.Sprintf("/properties/%s", propName)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/properties/%s", propName))).
				SetInstanceLocation(fmt.Sprintf("/%s", propName))

			results = append(results, result)

			if !result.IsValid() {
				invalidProperties = append(invalidProperties, propName)
			}
		}
	}

	if len(invalidProperties) == 1 {
		return results, NewEvaluationError("properties", "property_mismatch", "Property {property} does not match the schema", map[string]any{
			"property": fmt.Sprintf("'%s'", invalidProperties[0]),
		})
	} else if len(invalidProperties) > 1 {
		slices.Sort(invalidProperties)
		quotedProperties := make([]string, len(invalidProperties))
		for i, prop := range invalidProperties {
			quotedProperties[i] = fmt.Sprintf("'%s'", prop)
		}
		return results, NewEvaluationError("properties", "properties_mismatch", "Properties {properties} do not match their schemas", map[string]any{
			"properties": strings.Join(quotedProperties, ", "),
		})
	}

	return results, nil
}

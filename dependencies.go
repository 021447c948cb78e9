package jsonschema

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// DependencyValue is the polymorphic value of a single key in the
// "dependencies" keyword: either a list of property names that must also be
// present (property dependency), or a schema the whole instance must
// validate against (schema dependency).
type DependencyValue struct {
	Names  []string
	Schema *Schema
}

// UnmarshalJSON dispatches on the JSON value's shape: an array means a
// property dependency, anything else (object or boolean) means a schema
// dependency.
func (d *DependencyValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(data, &d.Names)
	}

	schema := &Schema{}
	if err := json.Unmarshal(data, schema); err != nil {
		return err
	}
	d.Schema = schema
	return nil
}

// MarshalJSON serializes back to whichever form was parsed.
func (d DependencyValue) MarshalJSON() ([]byte, error) {
	if d.Schema != nil {
		return json.Marshal(d.Schema)
	}
	return json.Marshal(d.Names)
}

// evaluateDependencies checks the "dependencies" keyword: for each key of
// the schema's dependencies map that is present on the instance object, if
// the dependency value is a name list, every named property must also be
// present; if it is a schema, the whole instance object must validate
// against it.
//
// Reference: https://json-schema.org/draft-04/json-schema-validation#rfc.section.5.4.5
func evaluateDependencies(schema *Schema, object map[string]any, depth int) ([]*EvaluationResult, *EvaluationError) {
	if len(schema.Dependencies) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(schema.Dependencies))
	for key := range schema.Dependencies {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var results []*EvaluationResult
	var missingOwners []string
	missingByOwner := map[string][]string{}
	var schemaMismatches []string

	for _, key := range keys {
		if _, present := object[key]; !present {
			continue
		}
		dep := schema.Dependencies[key]
		if dep == nil {
			continue
		}

		if dep.Names != nil {
			var missing []string
			for _, name := range dep.Names {
				if _, ok := object[name]; !ok {
					missing = append(missing, name)
				}
			}
			if len(missing) > 0 {
				missingOwners = append(missingOwners, key)
				missingByOwner[key] = missing
			}
			continue
		}

		if dep.Schema != nil {
			result, _ := dep.Schema.evaluate(object, depth+1)
			if result != nil {
				//nolint:errcheck
				result.SetEvaluationPath(fmt.Sprintf("/dependencies/%s", key)).
					SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/dependencies/%s", key))).
					SetInstanceLocation("")
				results = append(results, result)
				if !result.IsValid() {
					schemaMismatches = append(schemaMismatches, key)
				}
			}
		}
	}

	if len(missingOwners) == 0 && len(schemaMismatches) == 0 {
		return results, nil
	}

	var parts []string
	for _, owner := range missingOwners {
		parts = append(parts, fmt.Sprintf("%s requires %s", owner, strings.Join(missingByOwner[owner], ", ")))
	}
	for _, owner := range schemaMismatches {
		parts = append(parts, fmt.Sprintf("%s requires the whole instance to match its dependency schema", owner))
	}

	return results, NewEvaluationError("dependencies", "dependency_mismatch", "Dependency constraints not satisfied: {details}", map[string]any{
		"details": strings.Join(parts, "; "),
	})
}

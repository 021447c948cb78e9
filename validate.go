package jsonschema

import (
	"reflect"

	"github.com/goccy/go-json"
)

// Validate checks if the given instance conforms to the schema, returning a
// tree of evaluation results mirroring the schema's combinator structure.
// instance may already be the decoded JSON value model (map[string]interface{},
// []interface{}, string, float64/int, bool, nil), raw JSON bytes (including
// json.RawMessage or any other []byte-based type), or an arbitrary Go value
// (struct, a differently-typed map, a slice of structs, ...) that is
// converted through a JSON round-trip before evaluation.
func (s *Schema) Validate(instance interface{}) *EvaluationResult {
	if data, ok := convertToByteSlice(instance); ok {
		return s.ValidateJSON(data)
	}

	switch instance.(type) {
	case nil, bool, string,
		float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		[]interface{}, map[string]interface{}:
		result, _ := s.evaluate(instance, 0)
		return result
	}

	return s.ValidateStruct(instance)
}

// ValidateJSON decodes raw JSON bytes into the value model and validates it.
func (s *Schema) ValidateJSON(data []byte) *EvaluationResult {
	result := NewEvaluationResult(s)

	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		//nolint:errcheck
		result.AddError(NewEvaluationError("$schema", "invalid_json", "Instance is not valid JSON: {error}", map[string]interface{}{
			"error": err.Error(),
		}))
		return result
	}

	evalResult, _ := s.evaluate(instance, 0)
	return evalResult
}

// ValidateMap validates an already-decoded JSON object directly, without a
// JSON round-trip.
func (s *Schema) ValidateMap(data map[string]interface{}) *EvaluationResult {
	result, _ := s.evaluate(interface{}(data), 0)
	return result
}

// ValidateStruct converts an arbitrary Go value (struct, a differently-typed
// map, slice, primitive) into the JSON value model by marshaling and
// re-unmarshaling it through the configured JSON codec, then validates the
// result. This is the general fallback Validate uses for any instance that
// isn't already byte-slice data or a value from the decoded JSON model.
func (s *Schema) ValidateStruct(data interface{}) *EvaluationResult {
	result := NewEvaluationResult(s)

	encoded, err := json.Marshal(data)
	if err != nil {
		//nolint:errcheck
		result.AddError(NewEvaluationError("$schema", "invalid_struct", "Instance could not be converted for validation: {error}", map[string]interface{}{
			"error": err.Error(),
		}))
		return result
	}

	var instance interface{}
	if err := json.Unmarshal(encoded, &instance); err != nil {
		//nolint:errcheck
		result.AddError(NewEvaluationError("$schema", "invalid_struct", "Instance could not be converted for validation: {error}", map[string]interface{}{
			"error": err.Error(),
		}))
		return result
	}

	evalResult, _ := s.evaluate(instance, 0)
	return evalResult
}

// isByteSlice reports whether data is []byte, json.RawMessage, or any other
// type definition whose underlying type is a byte slice.
func isByteSlice(data interface{}) bool {
	if data == nil {
		return false
	}
	rv := reflect.ValueOf(data)
	return rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8
}

// convertToByteSlice extracts the underlying []byte from data if it is a
// byte-slice-based type, copying it to a plain []byte.
func convertToByteSlice(data interface{}) ([]byte, bool) {
	if !isByteSlice(data) {
		return nil, false
	}
	rv := reflect.ValueOf(data)
	out := make([]byte, rv.Len())
	reflect.Copy(reflect.ValueOf(out), rv)
	return out, true
}

// evaluate is the validation kernel: it dispatches a single schema node
// against a single instance value, recursing through $ref and the
// combinator/keyword structure. depth counts total recursion (instance
// descent plus non-consuming $ref hops); once it exceeds the compiler's
// configured limit, evaluation aborts with DepthExceeded rather than
// recursing further.
func (s *Schema) evaluate(instance interface{}, depth int) (*EvaluationResult, *EvaluationError) {
	result := NewEvaluationResult(s)

	if depth > s.GetCompiler().maxDepth() {
		err := NewEvaluationError("$ref", "depth_exceeded", "Maximum recursion depth of {max_depth} exceeded", map[string]interface{}{
			"max_depth": s.GetCompiler().maxDepth(),
		})
		//nolint:errcheck
		result.AddError(err)
		return result, err
	}

	if s.Boolean != nil {
		if err := s.evaluateBoolean(instance); err != nil {
			//nolint:errcheck
			result.AddError(err)
			return result, err
		}
		return result, nil
	}

	if s.PatternProperties != nil && s.compiledPatterns == nil {
		s.compilePatterns()
	}

	// $ref overrides any sibling keywords on the same schema node: resolve
	// and validate against the target only, then return immediately.
	if s.Ref != "" {
		if s.ResolvedRef == nil {
			err := NewEvaluationError("$ref", "ref_unresolved", "Reference {ref} could not be resolved", map[string]interface{}{
				"ref": s.Ref,
			})
			//nolint:errcheck
			result.AddError(err)
			return result, err
		}

		refResult, refErr := s.ResolvedRef.evaluate(instance, depth+1)
		if refResult != nil {
			//nolint:errcheck
			result.AddDetail(refResult)

			if !refResult.IsValid() {
				err := NewEvaluationError("$ref", "ref_mismatch", "Value does not match the reference schema")
				//nolint:errcheck
				result.AddError(err)
				return result, err
			}
		}
		return result, refErr
	}

	// Validation keywords for any instance type.
	if s.Type != nil {
		if err := evaluateType(s, instance); err != nil {
			//nolint:errcheck
			result.AddError(err)
		}
	}

	if s.Enum != nil {
		if err := evaluateEnum(s, instance); err != nil {
			//nolint:errcheck
			result.AddError(err)
		}
	}

	// Validation keywords for applying subschemas with logical operations.
	if s.AllOf != nil {
		allOfResults, allOfError := evaluateAllOf(s, instance, depth)
		for _, allOfResult := range allOfResults {
			//nolint:errcheck
			result.AddDetail(allOfResult)
		}
		if allOfError != nil {
			//nolint:errcheck
			result.AddError(allOfError)
		}
	}

	if s.AnyOf != nil {
		anyOfResults, anyOfError := evaluateAnyOf(s, instance, depth)
		for _, anyOfResult := range anyOfResults {
			//nolint:errcheck
			result.AddDetail(anyOfResult)
		}
		if anyOfError != nil {
			//nolint:errcheck
			result.AddError(anyOfError)
		}
	}

	if s.OneOf != nil {
		oneOfResults, oneOfError := evaluateOneOf(s, instance, depth)
		for _, oneOfResult := range oneOfResults {
			//nolint:errcheck
			result.AddDetail(oneOfResult)
		}
		if oneOfError != nil {
			//nolint:errcheck
			result.AddError(oneOfError)
		}
	}

	if s.Not != nil {
		notResult, notError := evaluateNot(s, instance, depth)
		if notResult != nil {
			//nolint:errcheck
			result.AddDetail(notResult)
		}
		if notError != nil {
			//nolint:errcheck
			result.AddError(notError)
		}
	}

	// Validation keywords for numeric instances (number and integer).
	if s.MultipleOf != nil || s.Maximum != nil || s.Minimum != nil {
		numericErrors := evaluateNumeric(s, instance)
		for _, numericError := range numericErrors {
			//nolint:errcheck
			result.AddError(numericError)
		}
	}

	// Validation keywords for strings.
	if s.MaxLength != nil || s.MinLength != nil || s.Pattern != nil {
		stringErrors := evaluateString(s, instance)
		for _, stringError := range stringErrors {
			//nolint:errcheck
			result.AddError(stringError)
		}
	}

	// Validation keywords for arrays.
	if s.ItemsSchema != nil || len(s.ItemsTuple) > 0 || s.AdditionalItems != nil ||
		s.MaxItems != nil || s.MinItems != nil || s.UniqueItems != nil {
		arrayResults, arrayErrors := evaluateArray(s, instance, depth)
		for _, arrayResult := range arrayResults {
			//nolint:errcheck
			result.AddDetail(arrayResult)
		}
		for _, arrayError := range arrayErrors {
			//nolint:errcheck
			result.AddError(arrayError)
		}
	}

	// Validation keywords for objects.
	if s.Properties != nil ||
		s.PatternProperties != nil ||
		s.AdditionalProperties != nil ||
		s.MaxProperties != nil ||
		s.MinProperties != nil ||
		len(s.Required) > 0 ||
		len(s.Dependencies) > 0 {
		objectResults, objectErrors := evaluateObject(s, instance, depth)
		for _, objectResult := range objectResults {
			//nolint:errcheck
			result.AddDetail(objectResult)
		}
		for _, objectError := range objectErrors {
			//nolint:errcheck
			result.AddError(objectError)
		}
	}

	return result, nil
}

// evaluateBoolean handles the two boolean-schema constants: `true` matches
// every instance, `false` matches none.
func (s *Schema) evaluateBoolean(instance interface{}) *EvaluationError {
	if s.Boolean == nil {
		return nil
	}

	if *s.Boolean {
		return nil
	}

	return NewEvaluationError("schema", "false_schema_mismatch", "No values are allowed because the schema is set to 'false'")
}

// evaluateObject groups the validation of all object-specific keywords.
func evaluateObject(schema *Schema, data interface{}, depth int) ([]*EvaluationResult, []*EvaluationError) {
	object, ok := data.(map[string]interface{})
	if !ok {
		return nil, nil
	}

	results := []*EvaluationResult{}
	errors := []*EvaluationError{}

	if schema.Properties != nil {
		propertiesResults, propertiesError := evaluateProperties(schema, object, depth)
		if propertiesResults != nil {
			results = append(results, propertiesResults...)
		}
		if propertiesError != nil {
			errors = append(errors, propertiesError)
		}
	}

	if schema.PatternProperties != nil {
		patternPropertiesResults, patternPropertiesError := evaluatePatternProperties(schema, object, depth)
		if patternPropertiesResults != nil {
			results = append(results, patternPropertiesResults...)
		}
		if patternPropertiesError != nil {
			errors = append(errors, patternPropertiesError)
		}
	}

	if schema.AdditionalProperties != nil {
		additionalPropertiesResults, additionalPropertiesError := evaluateAdditionalProperties(schema, object, depth)
		if additionalPropertiesResults != nil {
			results = append(results, additionalPropertiesResults...)
		}
		if additionalPropertiesError != nil {
			errors = append(errors, additionalPropertiesError)
		}
	}

	if schema.MaxProperties != nil {
		if err := evaluateMaxProperties(schema, object); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.MinProperties != nil {
		if err := evaluateMinProperties(schema, object); err != nil {
			errors = append(errors, err)
		}
	}

	if len(schema.Required) > 0 {
		if err := evaluateRequired(schema, object); err != nil {
			errors = append(errors, err)
		}
	}

	if len(schema.Dependencies) > 0 {
		dependencyResults, dependencyError := evaluateDependencies(schema, object, depth)
		if dependencyResults != nil {
			results = append(results, dependencyResults...)
		}
		if dependencyError != nil {
			errors = append(errors, dependencyError)
		}
	}

	return results, errors
}

// evaluateNumeric groups the validation of all numeric-specific keywords.
func evaluateNumeric(schema *Schema, data interface{}) []*EvaluationError {
	dataType := getDataType(data)
	if dataType != "number" && dataType != "integer" {
		return nil
	}

	errors := []*EvaluationError{}

	value := NewRat(data)
	if value == nil {
		errors = append(errors, NewEvaluationError("type", "invalid_numeric", "Value is {actual_type} but should be numeric", map[string]interface{}{
			"actual_type": dataType,
		}))
		return errors
	}

	if schema.MultipleOf != nil {
		if err := evaluateMultipleOf(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.Maximum != nil {
		if err := evaluateMaximum(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.Minimum != nil {
		if err := evaluateMinimum(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// evaluateString groups the validation of all string-specific keywords.
func evaluateString(schema *Schema, data interface{}) []*EvaluationError {
	value, ok := data.(string)
	if !ok {
		return nil
	}

	errors := []*EvaluationError{}

	if schema.MaxLength != nil {
		if err := evaluateMaxLength(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.MinLength != nil {
		if err := evaluateMinLength(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.Pattern != nil {
		if err := evaluatePattern(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// evaluateArray groups the validation of all array-specific keywords.
func evaluateArray(schema *Schema, data interface{}, depth int) ([]*EvaluationResult, []*EvaluationError) {
	items, ok := data.([]interface{})
	if !ok {
		return nil, nil
	}

	results := []*EvaluationResult{}
	errors := []*EvaluationError{}

	if schema.ItemsSchema != nil || len(schema.ItemsTuple) > 0 {
		itemsResults, itemsError := evaluateItems(schema, items, depth)
		if itemsResults != nil {
			results = append(results, itemsResults...)
		}
		if itemsError != nil {
			errors = append(errors, itemsError)
		}
	}

	if schema.MaxItems != nil {
		if err := evaluateMaxItems(schema, items); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.MinItems != nil {
		if err := evaluateMinItems(schema, items); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.UniqueItems != nil && *schema.UniqueItems {
		if err := evaluateUniqueItems(schema, items); err != nil {
			errors = append(errors, err)
		}
	}

	return results, errors
}

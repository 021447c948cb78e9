package jsonschema

// EvaluateMinimum checks if the numeric data's value meets or exceeds the minimum value specified in the schema.
// Draft-04 pairs "minimum" with the boolean "exclusiveMinimum": when exclusiveMinimum is true the
// comparison is strict (instance > minimum); otherwise it is inclusive (instance >= minimum).
//
// Reference: https://json-schema.org/draft-04/json-schema-validation#anchor21
func evaluateMinimum(schema *Schema, value *Rat) *EvaluationError {
	if schema.Minimum == nil {
		return nil
	}
	cmp := value.Cmp(schema.Minimum.Rat)
	exclusive := schema.ExclusiveMinimum != nil && *schema.ExclusiveMinimum
	if cmp < 0 || (exclusive && cmp == 0) {
		code := "value_below_minimum"
		message := "{value} should be at least {minimum}"
		if exclusive {
			code = "value_below_exclusive_minimum"
			message = "{value} should be greater than {minimum}"
		}
		return NewEvaluationError("minimum", code, message, map[string]interface{}{
			"value":   FormatRat(value),
			"minimum": FormatRat(schema.Minimum),
		})
	}
	return nil
}

package jsonschema

// EvaluateMaximum checks if the numeric data's value does not exceed the maximum value specified in the schema.
// Draft-04 pairs "maximum" with the boolean "exclusiveMaximum": when exclusiveMaximum is true the
// comparison is strict (instance < maximum); otherwise it is inclusive (instance <= maximum).
//
// Reference: https://json-schema.org/draft-04/json-schema-validation#anchor17
func evaluateMaximum(schema *Schema, value *Rat) *EvaluationError {
	if schema.Maximum == nil {
		return nil
	}
	cmp := value.Cmp(schema.Maximum.Rat)
	exclusive := schema.ExclusiveMaximum != nil && *schema.ExclusiveMaximum
	if cmp > 0 || (exclusive && cmp == 0) {
		code := "value_above_maximum"
		message := "{value} should be at most {maximum}"
		if exclusive {
			code = "value_above_exclusive_maximum"
			message = "{value} should be less than {maximum}"
		}
		return NewEvaluationError("maximum", code, message, map[string]interface{}{
			"value":   FormatRat(value),
			"maximum": FormatRat(schema.Maximum),
		})
	}
	return nil
}

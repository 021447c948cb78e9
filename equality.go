package jsonschema

// deepEqual implements the JSON deep-equality rule shared by "enum" and
// "uniqueItems": numbers compare by mathematical value regardless of how
// they were decoded (1 equals 1.0), but values of different JSON kinds are
// never equal to each other (0 does not equal false, 1 does not equal true).
func deepEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv

	case string:
		bv, ok := b.(string)
		return ok && av == bv

	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, exists := bv[k]
			if !exists || !deepEqual(v, other) {
				return false
			}
		}
		return true

	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	}

	// a is not a string here; NewRat would parse a numeric string b.
	if _, isString := b.(string); isString {
		return false
	}

	aRat := NewRat(a)
	bRat := NewRat(b)
	if aRat != nil && bRat != nil {
		return aRat.Cmp(bRat.Rat) == 0
	}

	return false
}

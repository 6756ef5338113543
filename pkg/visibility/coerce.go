package visibility

import (
	"reflect"
	"strconv"
	"strings"
)

// IsEmpty reports whether a field value counts as not filled: nil, empty
// strings, empty collections and composite objects whose members are all
// empty (e.g. a range {from:"", to:""}). false and 0 are filled.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		for _, member := range v {
			if !IsEmpty(member) {
				return false
			}
		}
		return true
	case bool:
		return false
	}
	if _, ok := numberOf(value); ok {
		return false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// numberOf accepts numeric kinds only.
func numberOf(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// coerceNumber extends numberOf with numeric strings, which is how numeric
// inputs commonly store their value.
func coerceNumber(value any) (float64, bool) {
	if n, ok := numberOf(value); ok {
		return n, true
	}
	if s, ok := value.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	}
	return 0, false
}

// valuesEqual compares decoded values, treating every numeric kind as
// float64 so 3 and 3.0 compare equal.
func valuesEqual(a, b any) bool {
	if an, ok := numberOf(a); ok {
		bn, ok := numberOf(b)
		return ok && an == bn
	}
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for key, value := range av {
			other, exists := bv[key]
			if !exists || !valuesEqual(value, other) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Equal exposes the comparison used by equals/oneOf so callers (stores,
// reconcilers) agree on value identity.
func Equal(a, b any) bool {
	return valuesEqual(a, b)
}

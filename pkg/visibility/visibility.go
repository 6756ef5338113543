package visibility

import "strings"

// Values exposes current field values to rule evaluation. A missing id reports
// ok=false and evaluates as an undefined value.
type Values interface {
	Get(id string) (any, bool)
}

// ValuesFunc adapts a function into Values.
type ValuesFunc func(id string) (any, bool)

// Get delegates to the underlying function.
func (fn ValuesFunc) Get(id string) (any, bool) {
	if fn == nil {
		return nil, false
	}
	return fn(id)
}

// MapValues serves values from a plain map. Ids are matched exactly first and
// then as dotted paths into nested maps (e.g. "range.from").
type MapValues map[string]any

// Get implements Values.
func (m MapValues) Get(id string) (any, bool) {
	return lookupMap(m, id)
}

// Evaluator decides whether a rule holds against a set of values.
type Evaluator interface {
	Eval(rule Rule, values Values) bool
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(rule Rule, values Values) bool

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(rule Rule, values Values) bool {
	return fn(rule, values)
}

// Standard returns the built-in evaluator backed by the operator table.
func Standard() Evaluator {
	return EvaluatorFunc(func(rule Rule, values Values) bool {
		return rule.Evaluate(values)
	})
}

func lookupMap(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || strings.TrimSpace(path) == "" {
		return nil, false
	}

	// Prefer exact match for dotted keys.
	if v, ok := values[path]; ok {
		return v, true
	}

	parts := strings.Split(path, ".")
	var current any = values
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		typed, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := typed[part]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

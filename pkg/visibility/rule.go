package visibility

import (
	"fmt"
	"sort"
)

// Condition is one group of operator keys applied to a single field value.
// Every recognised key must hold. Unrecognised keys (errorMessage, ...) are
// ignored.
type Condition map[string]any

// Predicate maps a referenced field id to the conditions its value must
// satisfy. All fields, and all conditions per field, must hold.
type Predicate map[string][]Condition

// Rule is a disjunction of predicates: the rule holds when any predicate does.
// A nil or empty rule always holds.
type Rule []Predicate

// ParseRule decodes a raw showIf payload. Accepted shapes are a list of
// predicate objects or a single predicate object. A nil payload yields a nil
// rule.
func ParseRule(raw any) (Rule, error) {
	switch typed := raw.(type) {
	case nil:
		return nil, nil
	case Rule:
		return typed, nil
	case []any:
		rule := make(Rule, 0, len(typed))
		for i, entry := range typed {
			if entry == nil {
				continue
			}
			fields, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("visibility: rule entry %d must be an object, got %T", i, entry)
			}
			predicate, err := parsePredicate(fields)
			if err != nil {
				return nil, fmt.Errorf("visibility: rule entry %d: %w", i, err)
			}
			rule = append(rule, predicate)
		}
		return rule, nil
	case map[string]any:
		predicate, err := parsePredicate(typed)
		if err != nil {
			return nil, fmt.Errorf("visibility: %w", err)
		}
		return Rule{predicate}, nil
	default:
		return nil, fmt.Errorf("visibility: unsupported rule type %T", raw)
	}
}

// MustParseRule panics when the payload cannot be parsed. Useful for tests.
func MustParseRule(raw any) Rule {
	rule, err := ParseRule(raw)
	if err != nil {
		panic(err)
	}
	return rule
}

func parsePredicate(fields map[string]any) (Predicate, error) {
	predicate := make(Predicate, len(fields))
	for id, raw := range fields {
		conditions, err := parseConditions(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", id, err)
		}
		predicate[id] = conditions
	}
	return predicate, nil
}

func parseConditions(raw any) ([]Condition, error) {
	switch typed := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []Condition{Condition(typed)}, nil
	case []any:
		out := make([]Condition, 0, len(typed))
		for i, item := range typed {
			if item == nil {
				continue
			}
			condition, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("condition %d must be an object, got %T", i, item)
			}
			out = append(out, Condition(condition))
		}
		return out, nil
	case []Condition:
		return typed, nil
	default:
		return nil, fmt.Errorf("conditions must be a list, got %T", raw)
	}
}

// Evaluate reports whether any predicate of the rule holds.
func (r Rule) Evaluate(values Values) bool {
	if len(r) == 0 {
		return true
	}
	for _, predicate := range r {
		if predicate.Evaluate(values) {
			return true
		}
	}
	return false
}

// Evaluate reports whether every referenced field satisfies its conditions.
func (p Predicate) Evaluate(values Values) bool {
	for _, id := range p.ids() {
		value := lookupValue(values, id)
		for _, condition := range p[id] {
			if !condition.Evaluate(value, values) {
				return false
			}
		}
	}
	return true
}

// Evaluate applies every recognised operator of the condition to value.
// values gives nested operators (when) access to sibling fields.
func (c Condition) Evaluate(value any, values Values) bool {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		op, ok := lookupOperator(key)
		if !ok {
			continue
		}
		if !op(value, c[key], values) {
			return false
		}
	}
	return true
}

// Dependencies lists every field id the rule reads, sorted and de-duplicated.
func (r Rule) Dependencies() []string {
	seen := make(map[string]struct{})
	for _, predicate := range r {
		for id, conditions := range predicate {
			seen[id] = struct{}{}
			for _, condition := range conditions {
				collectWhenDependencies(condition, seen)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func collectWhenDependencies(condition Condition, seen map[string]struct{}) {
	when, ok := condition[OpWhen].(map[string]any)
	if !ok {
		return
	}
	for id, raw := range when {
		seen[id] = struct{}{}
		clause, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, branch := range []string{"is", "then", "otherwise"} {
			conditions, err := parseConditions(clause[branch])
			if err != nil {
				continue
			}
			for _, nested := range conditions {
				collectWhenDependencies(nested, seen)
			}
		}
	}
}

func (p Predicate) ids() []string {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func lookupValue(values Values, id string) any {
	if values == nil {
		return nil
	}
	value, ok := values.Get(id)
	if !ok {
		return nil
	}
	return value
}

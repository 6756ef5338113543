package visibility

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Operator names understood by Condition.Evaluate.
const (
	OpFilled    = "filled"
	OpEmpty     = "empty"
	OpRequired  = "required"
	OpEquals    = "equals"
	OpNotEquals = "notEquals"
	OpOneOf     = "oneOf"
	OpNotOneOf  = "notOneOf"
	OpMin       = "min"
	OpMax       = "max"
	OpLength    = "length"
	OpLessThan  = "lessThan"
	OpMoreThan  = "moreThan"
	OpPositive  = "positive"
	OpNegative  = "negative"
	OpInteger   = "integer"
	OpMatches   = "matches"
	OpEmail     = "email"
	OpURL       = "url"
	OpUUID      = "uuid"
	OpIncludes  = "includes"
	OpWhen      = "when"
)

// operatorFunc evaluates one operator. value is the referenced field's value,
// param the operator argument from the condition.
type operatorFunc func(value, param any, values Values) bool

var operators map[string]operatorFunc

// The table is filled in init because opWhen recurses into Condition.Evaluate,
// which reads the table.
func init() {
	operators = map[string]operatorFunc{
		OpFilled:    opFilled,
		OpEmpty:     opEmpty,
		OpRequired:  opRequired,
		OpEquals:    opEquals,
		OpNotEquals: func(value, param any, _ Values) bool { return !valuesEqual(value, param) },
		OpOneOf:     opOneOf,
		OpNotOneOf:  func(value, param any, values Values) bool { return !opOneOf(value, param, values) },
		OpMin:       sizeOperator(func(size, bound float64) bool { return size >= bound }),
		OpMax:       sizeOperator(func(size, bound float64) bool { return size <= bound }),
		OpLength:    sizeOperator(func(size, bound float64) bool { return size == bound }),
		OpLessThan:  numberOperator(func(n, bound float64) bool { return n < bound }),
		OpMoreThan:  numberOperator(func(n, bound float64) bool { return n > bound }),
		OpPositive:  signOperator(func(n float64) bool { return n > 0 }),
		OpNegative:  signOperator(func(n float64) bool { return n < 0 }),
		OpInteger:   signOperator(func(n float64) bool { return n == float64(int64(n)) }),
		OpMatches:   stringOperator(matchesPattern),
		OpEmail:     flagStringOperator(isEmail),
		OpURL:       flagStringOperator(isURL),
		OpUUID:      flagStringOperator(isUUID),
		OpIncludes:  opIncludes,
		OpWhen:      opWhen,
	}
}

func lookupOperator(name string) (operatorFunc, bool) {
	op, ok := operators[name]
	return op, ok
}

// Operators lists the recognised operator names.
func Operators() []string {
	names := make([]string, 0, len(operators))
	for name := range operators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsOperator reports whether name is a recognised operator key.
func IsOperator(name string) bool {
	_, ok := operators[name]
	return ok
}

func opFilled(value, param any, _ Values) bool {
	want, ok := param.(bool)
	if !ok {
		return false
	}
	return IsEmpty(value) != want
}

func opEmpty(value, param any, _ Values) bool {
	want, ok := param.(bool)
	if !ok {
		return false
	}
	return IsEmpty(value) == want
}

func opRequired(value, param any, _ Values) bool {
	if want, ok := param.(bool); ok && !want {
		return true
	}
	return !IsEmpty(value)
}

func opEquals(value, param any, _ Values) bool {
	return valuesEqual(value, param)
}

func opOneOf(value, param any, _ Values) bool {
	candidates, ok := param.([]any)
	if !ok {
		return false
	}
	for _, candidate := range candidates {
		if valuesEqual(value, candidate) {
			return true
		}
	}
	return false
}

func opIncludes(value, param any, _ Values) bool {
	switch typed := value.(type) {
	case string:
		needle, ok := param.(string)
		return ok && strings.Contains(typed, needle)
	case nil:
		return false
	}
	items, ok := asSlice(value)
	if !ok {
		return false
	}
	for _, item := range items {
		if valuesEqual(item, param) {
			return true
		}
	}
	return false
}

// opWhen evaluates {fieldId: {is, then, otherwise}}. is selects the branch by
// testing the referenced field; the chosen branch is applied to value.
func opWhen(value, param any, values Values) bool {
	branches, err := WhenBranches(param, values)
	if err != nil {
		return false
	}
	for _, branch := range branches {
		for _, condition := range branch {
			if !condition.Evaluate(value, values) {
				return false
			}
		}
	}
	return true
}

// WhenBranches resolves a when parameter to the branch selected for each
// referenced field, ordered by field id. A clause picks then when the
// referenced value matches is and otherwise when it does not.
func WhenBranches(param any, values Values) ([][]Condition, error) {
	clauses, ok := param.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("visibility: when must be an object, got %T", param)
	}
	ids := make([]string, 0, len(clauses))
	for id := range clauses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	branches := make([][]Condition, 0, len(ids))
	for _, id := range ids {
		clause, ok := clauses[id].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("visibility: when clause %q must be an object, got %T", id, clauses[id])
		}
		other := lookupValue(values, id)

		matched := false
		switch is := clause["is"].(type) {
		case []any, map[string]any:
			conditions, err := parseConditions(is)
			if err != nil {
				return nil, err
			}
			matched = true
			for _, condition := range conditions {
				if !condition.Evaluate(other, values) {
					matched = false
					break
				}
			}
		default:
			matched = valuesEqual(other, is)
		}

		branch := clause["otherwise"]
		if matched {
			branch = clause["then"]
		}
		conditions, err := parseConditions(branch)
		if err != nil {
			return nil, err
		}
		branches = append(branches, conditions)
	}
	return branches, nil
}

// sizeOperator compares string rune length, numeric value or collection
// length against a numeric bound.
func sizeOperator(cmp func(size, bound float64) bool) operatorFunc {
	return func(value, param any, _ Values) bool {
		bound, ok := numberOf(param)
		if !ok {
			return false
		}
		size, ok := sizeOf(value)
		if !ok {
			return false
		}
		return cmp(size, bound)
	}
}

func numberOperator(cmp func(n, bound float64) bool) operatorFunc {
	return func(value, param any, _ Values) bool {
		bound, ok := numberOf(param)
		if !ok {
			return false
		}
		n, ok := coerceNumber(value)
		if !ok {
			return false
		}
		return cmp(n, bound)
	}
}

func signOperator(check func(n float64) bool) operatorFunc {
	return func(value, param any, _ Values) bool {
		if want, ok := param.(bool); ok && !want {
			return true
		}
		n, ok := coerceNumber(value)
		if !ok {
			return false
		}
		return check(n)
	}
}

func stringOperator(check func(value string, param any) bool) operatorFunc {
	return func(value, param any, _ Values) bool {
		text, ok := value.(string)
		if !ok {
			return false
		}
		return check(text, param)
	}
}

// flagStringOperator wraps format checks toggled by a boolean parameter.
// A false flag disables the check for any value type.
func flagStringOperator(check func(value string) bool) operatorFunc {
	return func(value, param any, _ Values) bool {
		if want, ok := param.(bool); ok && !want {
			return true
		}
		text, ok := value.(string)
		return ok && check(text)
	}
}

func sizeOf(value any) (float64, bool) {
	switch typed := value.(type) {
	case nil:
		return 0, false
	case string:
		return float64(utf8.RuneCountInString(typed)), true
	case bool:
		return 0, false
	}
	if n, ok := numberOf(value); ok {
		return n, true
	}
	if items, ok := asSlice(value); ok {
		return float64(len(items)), true
	}
	return 0, false
}

func asSlice(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

var patternCache sync.Map

func matchesPattern(value string, param any) bool {
	raw, ok := param.(string)
	if !ok || raw == "" {
		return false
	}
	re, err := compilePattern(raw)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

// compilePattern accepts either a bare pattern or the /pattern/flags literal
// form. Supported flags: i, m, s.
func compilePattern(raw string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(raw); ok {
		return cached.(*regexp.Regexp), nil
	}

	pattern := raw
	if strings.HasPrefix(raw, "/") {
		if end := strings.LastIndex(raw, "/"); end > 0 {
			pattern = raw[1:end]
			var flags strings.Builder
			for _, flag := range raw[end+1:] {
				switch flag {
				case 'i', 'm', 's':
					flags.WriteRune(flag)
				}
			}
			if flags.Len() > 0 {
				pattern = "(?" + flags.String() + ")" + pattern
			}
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(raw, re)
	return re, nil
}

func isEmail(value string) bool {
	if value == "" || strings.ContainsAny(value, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}
	at := strings.LastIndex(value, "@")
	return at > 0 && strings.Contains(value[at+1:], ".")
}

func isURL(value string) bool {
	parsed, err := url.ParseRequestURI(value)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

func isUUID(value string) bool {
	if len(value) != 36 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// AttrValidation is the node attribute holding field rules.
const AttrValidation = "validation"

const keyErrorMessage = "errorMessage"

// Rule keys checked by upload widgets before a file leaves the client. The
// value validator ignores them.
const (
	KeyFileType    = "fileType"
	KeyMaxSizeInKb = "maxSizeInKb"
)

func leafKey(key string) bool {
	return key == KeyFileType || key == KeyMaxSizeInKb
}

var defaultMessages = map[string]string{
	visibility.OpRequired: "This field is required",
	visibility.OpFilled:   "This field is required",
	visibility.OpEmail:    "Invalid email address",
	visibility.OpURL:      "Invalid URL",
	visibility.OpUUID:     "Invalid UUID",
	visibility.OpMatches:  "Invalid format",
	visibility.OpInteger:  "Must be a whole number",
	visibility.OpPositive: "Must be a positive number",
	visibility.OpNegative: "Must be a negative number",
	visibility.OpOneOf:    "Invalid selection",
}

// Rules decodes the validation attribute of a node.
func Rules(node *schema.Node) ([]visibility.Condition, error) {
	raw, ok := node.Attr(AttrValidation)
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("validation: rules must be a list, got %T", raw)
	}
	rules := make([]visibility.Condition, 0, len(list))
	for i, item := range list {
		rule, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("validation: rule %d must be an object, got %T", i, item)
		}
		rules = append(rules, visibility.Condition(rule))
	}
	return rules, nil
}

// Validate checks value against the rules declared on node and returns the
// message of the first failing rule. Rules other than required pass on empty
// values. A when rule resolves its branches and checks each branch rule the
// same way, so branch messages and the empty short-circuit apply inside it.
func Validate(node *schema.Node, value any, values visibility.Values) (string, bool) {
	rules, err := Rules(node)
	if err != nil {
		return err.Error(), false
	}
	empty := visibility.IsEmpty(value)
	for _, rule := range rules {
		if message, ok := checkRule(rule, value, empty, values); !ok {
			return message, false
		}
	}
	return "", true
}

func checkRule(rule visibility.Condition, value any, empty bool, values visibility.Values) (string, bool) {
	if required, ok := rule[visibility.OpRequired].(bool); ok && required && empty {
		return messageFor(rule, visibility.OpRequired), false
	}

	keys := make([]string, 0, len(rule))
	for key := range rule {
		if key == keyErrorMessage || !visibility.IsOperator(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key == visibility.OpWhen {
			if message, ok := checkWhen(rule, value, empty, values); !ok {
				return message, false
			}
			continue
		}
		if empty {
			continue
		}
		if !(visibility.Condition{key: rule[key]}).Evaluate(value, values) {
			return messageFor(rule, key), false
		}
	}
	return "", true
}

// checkWhen validates value against the selected branches of rule's when
// clause. The rule's own errorMessage wins over branch messages.
func checkWhen(rule visibility.Condition, value any, empty bool, values visibility.Values) (string, bool) {
	branches, err := visibility.WhenBranches(rule[visibility.OpWhen], values)
	if err != nil {
		return messageFor(rule, visibility.OpWhen), false
	}
	for _, branch := range branches {
		for _, nested := range branch {
			message, ok := checkRule(nested, value, empty, values)
			if ok {
				continue
			}
			if override, has := rule[keyErrorMessage].(string); has && strings.TrimSpace(override) != "" {
				return override, false
			}
			return message, false
		}
	}
	return "", true
}

func messageFor(rule visibility.Condition, op string) string {
	if message, ok := rule[keyErrorMessage].(string); ok && strings.TrimSpace(message) != "" {
		return message
	}
	if message, ok := defaultMessages[op]; ok {
		return message
	}
	switch op {
	case visibility.OpMin, visibility.OpMax, visibility.OpLength,
		visibility.OpLessThan, visibility.OpMoreThan:
		return fmt.Sprintf("Must satisfy %s %v", op, rule[op])
	}
	return "Invalid value"
}

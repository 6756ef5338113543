package registry

import (
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// OptionValues extracts the value of every {label, value} entry of an option
// list. Bare scalars count as their own value.
func OptionValues(raw any) ([]any, bool) {
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	values := make([]any, 0, len(list))
	for _, item := range list {
		switch typed := item.(type) {
		case map[string]any:
			if value, ok := typed["value"]; ok {
				values = append(values, value)
			}
		default:
			values = append(values, typed)
		}
	}
	return values, true
}

func containsValue(options []any, value any) bool {
	for _, option := range options {
		if visibility.Equal(option, value) {
			return true
		}
	}
	return false
}

// ReconcileSingleOption clears a select/radio value whose option disappeared.
func ReconcileSingleOption(node *schema.Node, value any) (any, bool) {
	raw, ok := node.Attr("options")
	if !ok || visibility.IsEmpty(value) {
		return value, false
	}
	options, ok := OptionValues(raw)
	if !ok || containsValue(options, value) {
		return value, false
	}
	return "", true
}

// ReconcileMultiOption drops selections whose options disappeared.
func ReconcileMultiOption(node *schema.Node, value any) (any, bool) {
	raw, ok := node.Attr("options")
	if !ok {
		return value, false
	}
	selected, ok := value.([]any)
	if !ok || len(selected) == 0 {
		return value, false
	}
	options, ok := OptionValues(raw)
	if !ok {
		return value, false
	}
	kept := make([]any, 0, len(selected))
	for _, item := range selected {
		if containsValue(options, item) {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(selected) {
		return value, false
	}
	return kept, true
}

// ReconcileRangeOption clears each side of a {from, to} value independently
// when its option list no longer contains it.
func ReconcileRangeOption(node *schema.Node, value any) (any, bool) {
	raw, ok := node.Attr("options")
	if !ok {
		return value, false
	}
	sides, ok := raw.(map[string]any)
	if !ok {
		return value, false
	}
	current, ok := value.(map[string]any)
	if !ok {
		return value, false
	}

	out := make(map[string]any, len(current))
	changed := false
	for key, selected := range current {
		out[key] = selected
		if visibility.IsEmpty(selected) {
			continue
		}
		options, ok := OptionValues(sides[key])
		if !ok {
			continue
		}
		if !containsValue(options, selected) {
			out[key] = ""
			changed = true
		}
	}
	if !changed {
		return value, false
	}
	return out, true
}

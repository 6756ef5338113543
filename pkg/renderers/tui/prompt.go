package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

type option struct {
	label string
	value any
}

// promptField asks for one field until the answer passes the field's own
// validation rules, then writes it through the field binding.
func (r *Renderer) promptField(ctx context.Context, form *engine.Form, field engine.Element) error {
	binding, ok := form.Bind(field.ID)
	if !ok {
		return nil
	}
	node := schema.NodeFromMap(field.Schema)
	values := visibility.ValuesFunc(form.Value)

	for {
		value, err := r.ask(ctx, field)
		if err != nil {
			return err
		}
		if message, ok := validation.Validate(node, value, values); !ok {
			_ = r.driver.Info(ctx, r.theme.ErrorPrefix+fmt.Sprintf("Invalid %s: %s", displayLabel(field), message))
			continue
		}
		if err := binding.OnChange(engine.ChangeEvent{Target: engine.ChangeTarget{Value: value}}); err != nil {
			return fmt.Errorf("tui: write %s: %w", field.ID, err)
		}
		return nil
	}
}

func (r *Renderer) ask(ctx context.Context, field engine.Element) (any, error) {
	label := r.theme.PromptPrefix + displayLabel(field)
	help := displayHelp(field)
	options, _ := field.Attr("options")

	switch r.widgets.MustResolve(field) {
	case widgets.WidgetPassword:
		return r.driver.Password(ctx, InputConfig{Message: label, Help: help})
	case widgets.WidgetTextarea:
		return r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: formatValue(field.Value), Help: help})
	case widgets.WidgetNumber:
		return r.askNumber(ctx, label, help, field.Value)
	case widgets.WidgetToggle:
		current, _ := field.Value.(bool)
		return r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current, Help: help})
	case widgets.WidgetSelect, widgets.WidgetRadio:
		return r.askOne(ctx, label, help, optionEntries(options), field.Value)
	case widgets.WidgetMultiSelect, widgets.WidgetChips:
		return r.askMany(ctx, label, help, optionEntries(options), field.Value)
	case widgets.WidgetRange:
		from, err := r.askOne(ctx, label+" (from)", help, optionEntries(member(options, "from")), member(field.Value, "from"))
		if err != nil {
			return nil, err
		}
		to, err := r.askOne(ctx, label+" (to)", help, optionEntries(member(options, "to")), member(field.Value, "to"))
		if err != nil {
			return nil, err
		}
		return map[string]any{"from": from, "to": to}, nil
	case widgets.WidgetDateRange:
		return r.askPair(ctx, label, help, field.Value, "from", "to")
	case widgets.WidgetContact:
		return r.askPair(ctx, label, help, field.Value, "countryCode", "contactNumber")
	case widgets.WidgetLocation:
		address, err := r.driver.Input(ctx, InputConfig{Message: label, Default: formatValue(member(field.Value, "address")), Help: help})
		if err != nil || address == "" {
			return nil, err
		}
		return map[string]any{"address": address}, nil
	default:
		return r.driver.Input(ctx, InputConfig{Message: label, Default: formatValue(field.Value), Help: help})
	}
}

func (r *Renderer) askNumber(ctx context.Context, label, help string, current any) (any, error) {
	response, err := r.driver.Input(ctx, InputConfig{
		Message: label,
		Default: formatValue(current),
		Help:    help,
		Validator: func(raw string) error {
			if strings.TrimSpace(raw) == "" {
				return nil
			}
			_, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, nil
	}
	number, err := strconv.ParseFloat(response, 64)
	if err != nil {
		return nil, fmt.Errorf("tui: %q is not a number: %w", response, err)
	}
	return number, nil
}

func (r *Renderer) askOne(ctx context.Context, label, help string, options []option, current any) (any, error) {
	if len(options) == 0 {
		return r.driver.Input(ctx, InputConfig{Message: label, Default: formatValue(current), Help: help})
	}
	index, err := r.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      optionLabels(options),
		DefaultIndex: optionIndex(options, current),
		Help:         help,
	})
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(options) {
		return "", nil
	}
	return options[index].value, nil
}

func (r *Renderer) askMany(ctx context.Context, label, help string, options []option, current any) (any, error) {
	var defaults []int
	if list, ok := current.([]any); ok {
		for _, item := range list {
			if idx := optionIndex(options, item); idx >= 0 {
				defaults = append(defaults, idx)
			}
		}
	}
	indices, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:  label,
		Options:  optionLabels(options),
		Defaults: defaults,
		Help:     help,
	})
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx].value)
		}
	}
	return out, nil
}

func (r *Renderer) askPair(ctx context.Context, label, help string, current any, first, second string) (any, error) {
	a, err := r.driver.Input(ctx, InputConfig{Message: label + " (" + first + ")", Default: formatValue(member(current, first)), Help: help})
	if err != nil {
		return nil, err
	}
	b, err := r.driver.Input(ctx, InputConfig{Message: label + " (" + second + ")", Default: formatValue(member(current, second)), Help: help})
	if err != nil {
		return nil, err
	}
	return map[string]any{first: a, second: b}, nil
}

func optionEntries(raw any) []option {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]option, 0, len(list))
	for _, item := range list {
		switch typed := item.(type) {
		case map[string]any:
			value, ok := typed["value"]
			if !ok {
				continue
			}
			label := formatValue(typed["label"])
			if label == "" {
				label = formatValue(value)
			}
			out = append(out, option{label: label, value: value})
		default:
			out = append(out, option{label: formatValue(typed), value: typed})
		}
	}
	return out
}

func optionLabels(options []option) []string {
	out := make([]string, len(options))
	for i, opt := range options {
		out[i] = opt.label
	}
	return out
}

func optionIndex(options []option, value any) int {
	for i, opt := range options {
		if visibility.Equal(opt.value, value) {
			return i
		}
	}
	return -1
}

func member(value any, key string) any {
	m, _ := value.(map[string]any)
	return m[key]
}

func displayLabel(field engine.Element) string {
	if label := strings.TrimSpace(field.Label()); label != "" {
		return label
	}
	return field.ID
}

func elementTitle(el engine.Element) string {
	if title, _ := el.Schema["title"].(string); strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return strings.TrimSpace(el.Label())
}

func displayHelp(field engine.Element) string {
	for _, key := range []string{"helpText", "description", "placeholder"} {
		if text, _ := field.Schema[key].(string); strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case []any:
		parts := make([]string, len(typed))
		for i, item := range typed {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+"="+formatValue(typed[key]))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(typed)
	}
}

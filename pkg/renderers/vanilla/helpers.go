package vanilla

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

func componentControlID(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return "fe-" + strings.Join(strings.Fields(trimmed), "-")
}

func sanitizeClassList(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	tokens := strings.Fields(value)
	keep := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.HasPrefix(token, "fe-") {
			continue
		}
		keep = append(keep, token)
	}
	return strings.Join(keep, " ")
}

// labelSupportsFor reports whether the widget renders a single focusable
// control the label can point at.
func labelSupportsFor(widget string) bool {
	switch widget {
	case widgets.WidgetRadio, widgets.WidgetChips, widgets.WidgetButton:
		return false
	default:
		return true
	}
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return fmt.Sprint(typed)
	}
}

func stringAttr(el engine.Element, key string) string {
	value, ok := el.Attr(key)
	if !ok {
		return ""
	}
	return stringValue(value)
}

func boolAttr(el engine.Element, key string) bool {
	value, _ := el.Schema[key].(bool)
	return value
}

// isRequired looks for a required rule in the validation list.
func isRequired(el engine.Element) bool {
	rules, _ := el.Schema["validation"].([]any)
	for _, raw := range rules {
		rule, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if required, _ := rule["required"].(bool); required {
			return true
		}
	}
	return false
}

// selectedSet flattens a scalar or list value into a set of option values.
func selectedSet(value any) map[string]struct{} {
	out := make(map[string]struct{})
	switch typed := value.(type) {
	case nil:
	case []any:
		for _, item := range typed {
			out[stringValue(item)] = struct{}{}
		}
	case []string:
		for _, item := range typed {
			out[item] = struct{}{}
		}
	default:
		if s := stringValue(typed); s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}

// optionList converts a schema option list into template rows, flagging the
// entries present in value.
func optionList(raw any, value any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	values, _ := registry.OptionValues(raw)
	selected := selectedSet(value)
	rows := make([]map[string]any, 0, len(values))
	index := 0
	for _, item := range list {
		var label string
		switch typed := item.(type) {
		case map[string]any:
			if _, ok := typed["value"]; !ok {
				continue
			}
			label = stringValue(typed["label"])
		default:
			label = stringValue(typed)
		}
		optionValue := stringValue(values[index])
		index++
		if label == "" {
			label = optionValue
		}
		_, isSelected := selected[optionValue]
		rows = append(rows, map[string]any{
			"label":    label,
			"value":    optionValue,
			"selected": isSelected,
		})
	}
	return rows
}

func member(value any, key string) any {
	m, _ := value.(map[string]any)
	return m[key]
}

type rendererTheme struct {
	Name         string
	Variant      string
	Partials     map[string]string
	CSSVarsStyle string
	AssetURL     func(string) string
}

func buildThemeContext(cfg *theme.RendererConfig) rendererTheme {
	if cfg == nil {
		return rendererTheme{}
	}
	return rendererTheme{
		Name:         cfg.Theme,
		Variant:      cfg.Variant,
		Partials:     cfg.Partials,
		CSSVarsStyle: cssVarsStyle(cfg.CSSVars),
		AssetURL:     cfg.AssetURL,
	}
}

func (t rendererTheme) data() map[string]any {
	return map[string]any{
		"name":         t.Name,
		"variant":      t.Variant,
		"cssVarsStyle": t.CSSVarsStyle,
	}
}

// partial returns the template name registered for key by the theme, or the
// fallback.
func (t rendererTheme) partial(key, fallback string) string {
	if name := strings.TrimSpace(t.Partials[key]); name != "" {
		return name
	}
	return fallback
}

func (t rendererTheme) stylesheet() string {
	if t.AssetURL == nil {
		return ""
	}
	return t.AssetURL(StylesheetName)
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(".formengine-form {\n")
	for _, key := range keys {
		name := key
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(strings.NewReplacer("<", "", ">", "", ";", "", "}", "").Replace(vars[key]))
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

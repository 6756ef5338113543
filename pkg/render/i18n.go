package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formengine/pkg/engine"
)

// ErrMissingTranslator is passed to MissingTranslationHandler when a key is
// present but no translator was configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a translation key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides what to show for a key that could not be
// translated.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// localisable schema attributes and the key attribute that translates them.
var translatedAttributes = [][2]string{
	{"label", "labelKey"},
	{"placeholder", "placeholderKey"},
	{"description", "descriptionKey"},
	{"helpText", "helpTextKey"},
	{"title", "titleKey"},
}

// Localize returns a copy of tree with every `*Key` attribute translated into
// its display attribute. Text children of an element declaring textKey are
// translated too. Translation is best-effort: failures fall back to the
// declared text through opts.OnMissing.
func Localize(tree engine.Element, opts RenderOptions) engine.Element {
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	return localizeElement(tree, opts.Locale, opts.Translator, onMissing)
}

func localizeElement(el engine.Element, locale string, t Translator, onMissing MissingTranslationHandler) engine.Element {
	if len(el.Schema) > 0 {
		schema := make(map[string]any, len(el.Schema))
		for key, value := range el.Schema {
			schema[key] = value
		}
		for _, pair := range translatedAttributes {
			key, _ := schema[pair[1]].(string)
			if strings.TrimSpace(key) == "" {
				continue
			}
			fallback, _ := schema[pair[0]].(string)
			schema[pair[0]] = translate(locale, key, fallback, t, onMissing)
		}
		el.Schema = schema
	}

	textKey, _ := el.Schema["textKey"].(string)
	if len(el.Children) > 0 {
		children := make([]engine.Element, len(el.Children))
		for i, child := range el.Children {
			if child.Kind == engine.KindText && strings.TrimSpace(textKey) != "" {
				child.Text = translate(locale, textKey, child.Text, t, onMissing)
			}
			children[i] = localizeElement(child, locale, t, onMissing)
		}
		el.Children = children
	}
	return el
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	args := []any{map[string]any{"default": fallback}}
	if t == nil {
		return onMissing(locale, key, args, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, args, err)
}

// missingTranslationDefault keeps the declared text, falling back to the key.
func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		values, ok := arg.(map[string]any)
		if !ok {
			continue
		}
		if fallback, ok := values["default"].(string); ok && strings.TrimSpace(fallback) != "" {
			return fallback
		}
	}
	return key
}

// TemplateFuncs returns a translate(key, ...args) helper for template
// engines, bound to one locale.
func TemplateFuncs(t Translator, locale string, onMissing MissingTranslationHandler) map[string]any {
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	return map[string]any{
		"translate": func(key string, args ...any) string {
			key = strings.TrimSpace(key)
			if key == "" {
				return ""
			}
			if t == nil {
				return onMissing(locale, key, args, ErrMissingTranslator)
			}
			msg, err := t.Translate(locale, key, args...)
			if err != nil || strings.TrimSpace(msg) == "" {
				return onMissing(locale, key, args, err)
			}
			return msg
		},
	}
}

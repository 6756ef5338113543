package render_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formengine/pkg/render"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestLocalize_UsesKeysAndFallbacks(t *testing.T) {
	t.Parallel()

	tree := sampleTree()
	localized := render.Localize(tree, render.RenderOptions{
		Locale:     "es",
		Translator: stubTranslator{"main.text": "Letra pequeña"},
	})

	main := localized.Children[0]
	if got := main.Children[0].Label(); got != "Name" {
		t.Fatalf("missing translation should keep the declared label, got %q", got)
	}
	if got := main.Children[2].Text; got != "Letra pequeña" {
		t.Fatalf("text child not translated: %q", got)
	}
	if tree.Children[0].Children[2].Text != "Fine print" {
		t.Fatalf("Localize mutated its input")
	}
}

func TestLocalize_OnMissing(t *testing.T) {
	t.Parallel()

	var missing []string
	localized := render.Localize(sampleTree(), render.RenderOptions{
		OnMissing: func(locale, key string, _ []any, err error) string {
			if !errors.Is(err, render.ErrMissingTranslator) {
				t.Errorf("unexpected error: %v", err)
			}
			missing = append(missing, key)
			return "[" + key + "]"
		},
	})
	if got := localized.Children[0].Children[0].Label(); got != "[fields.name]" {
		t.Fatalf("label = %q", got)
	}
	if len(missing) != 2 {
		t.Fatalf("expected two missing keys, got %v", missing)
	}
}

func TestTemplateFuncs(t *testing.T) {
	t.Parallel()

	funcs := render.TemplateFuncs(stubTranslator{"hi": "hola"}, "es", nil)
	translate := funcs["translate"].(func(string, ...any) string)
	if got := translate("hi"); got != "hola" {
		t.Fatalf("translate = %q", got)
	}
	if got := translate("nope"); got != "nope" {
		t.Fatalf("missing key should fall back to the key, got %q", got)
	}
}

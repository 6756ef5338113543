package render

import (
	theme "github.com/goliatone/go-theme"
)

// RenderOptions describe per-request data that renderers can use to customise
// their output without touching the form itself.
type RenderOptions struct {
	// Action and Method populate the HTML form element. Method defaults to
	// POST; verbs browsers cannot submit are sent as POST plus a hidden
	// _method input.
	Action string
	Method string
	// Hidden inputs emitted alongside the visible fields (CSRF tokens,
	// versions). See Hidden and MergeHiddenFields.
	Hidden map[string]string
	// Errors carries server-side validation feedback keyed by field path.
	// Paths are mapped onto the tree with MapErrorPayload; unknown paths are
	// shown as form-level errors.
	Errors map[string][]string
	// Theme supplies resolved theme configuration (partials, tokens, CSS
	// variables, asset URLs).
	Theme *theme.RendererConfig

	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}

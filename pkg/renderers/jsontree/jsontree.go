// Package jsontree renders the mounted tree as a JSON document for client
// side hydration and snapshot tooling.
package jsontree

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// Option customises the renderer configuration.
type Option func(*Renderer)

// WithIndent pretty prints the payload.
func WithIndent(indent string) Option {
	return func(r *Renderer) {
		r.indent = indent
	}
}

// WithWidgets annotates field nodes with the widget chosen by reg.
func WithWidgets(reg *widgets.Registry) Option {
	return func(r *Renderer) {
		r.widgets = reg
	}
}

// Renderer serialises the render tree with request metadata.
type Renderer struct {
	indent  string
	widgets *widgets.Registry
}

// New constructs a JSON tree renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Name identifies the renderer inside the registry.
func (r *Renderer) Name() string {
	return "json"
}

// ContentType returns the MIME type for generated documents.
func (r *Renderer) ContentType() string {
	return "application/json"
}

// Payload is the document written by Render.
type Payload struct {
	ID      string            `json:"id,omitempty"`
	Action  string            `json:"action,omitempty"`
	Method  string            `json:"method"`
	Hidden  map[string]string `json:"hidden,omitempty"`
	Errors  *Errors           `json:"errors,omitempty"`
	Theme   *Theme            `json:"theme,omitempty"`
	Widgets map[string]string `json:"widgets,omitempty"`
	Tree    engine.Element    `json:"tree"`
}

// Errors carries server feedback mapped onto field ids.
type Errors struct {
	Form   []string            `json:"form,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// Theme is the serialisable subset of a go-theme renderer config.
type Theme struct {
	Name     string            `json:"name,omitempty"`
	Variant  string            `json:"variant,omitempty"`
	Partials map[string]string `json:"partials,omitempty"`
	Tokens   map[string]string `json:"tokens,omitempty"`
	CSSVars  map[string]string `json:"cssVars,omitempty"`
}

// Render encodes tree plus options as a Payload.
func (r *Renderer) Render(ctx context.Context, tree engine.Element, options render.RenderOptions) ([]byte, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	method, override := render.FormMethod(options.Method)
	if override != "" {
		method = override
	}
	payload := Payload{
		ID:     tree.ID,
		Action: strings.TrimSpace(options.Action),
		Method: strings.ToUpper(method),
		Hidden: render.MergeHiddenFields(options.Hidden),
		Theme:  buildTheme(options.Theme),
		Tree:   tree,
	}
	if mapping := render.MapErrorPayload(tree, options.Errors); len(mapping.Form) > 0 || len(mapping.Fields) > 0 {
		payload.Errors = &Errors{Form: mapping.Form, Fields: mapping.Fields}
	}
	if r.widgets != nil {
		payload.Widgets = make(map[string]string)
		for _, field := range tree.Fields() {
			payload.Widgets[field.ID] = r.widgets.MustResolve(field)
		}
	}

	var (
		out []byte
		err error
	)
	if r.indent != "" {
		out, err = json.MarshalIndent(payload, "", r.indent)
	} else {
		out, err = json.Marshal(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("jsontree renderer: marshal tree: %w", err)
	}
	return out, nil
}

func buildTheme(cfg *theme.RendererConfig) *Theme {
	if cfg == nil {
		return nil
	}
	return &Theme{
		Name:     cfg.Theme,
		Variant:  cfg.Variant,
		Partials: copyStringMap(cfg.Partials),
		Tokens:   copyStringMap(cfg.Tokens),
		CSSVars:  copyStringMap(cfg.CSSVars),
	}
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

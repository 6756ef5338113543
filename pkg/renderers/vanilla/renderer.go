package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
	rendertemplate "github.com/goliatone/go-formengine/pkg/render/template"
	"github.com/goliatone/go-formengine/pkg/render/template/pongo"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	widgets          *widgets.Registry
	textPolicy       *bluemonday.Policy
	classes          ChromeClasses
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithWidgets replaces the widget registry used to pick field controls.
func WithWidgets(reg *widgets.Registry) Option {
	return func(cfg *config) {
		if reg != nil {
			cfg.widgets = reg
		}
	}
}

// WithTextPolicy replaces the sanitiser applied to text children. Labels and
// other attributes are always reduced to plain text.
func WithTextPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.textPolicy = policy
		}
	}
}

// WithChromeClasses overrides the chrome CSS classes.
func WithChromeClasses(classes ChromeClasses) Option {
	return func(cfg *config) {
		cfg.classes = classes
	}
}

// Renderer turns an engine tree into server-rendered HTML.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	widgets   *widgets.Registry
	labels    *bluemonday.Policy
	text      *bluemonday.Policy
	classes   map[string]any
}

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(
			pongo.WithFS(cfg.templateFS),
			pongo.WithExtension(".tpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}
	if cfg.widgets == nil {
		cfg.widgets = widgets.NewRegistry()
	}
	if cfg.textPolicy == nil {
		cfg.textPolicy = bluemonday.UGCPolicy()
	}

	return &Renderer{
		templates: renderer,
		widgets:   cfg.widgets,
		labels:    bluemonday.StrictPolicy(),
		text:      cfg.textPolicy,
		classes:   cfg.classes.resolve(),
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes the mounted tree as a <form>. Server errors in options are
// merged onto the fields they address; unmatched paths are listed at the top
// of the form.
func (r *Renderer) Render(ctx context.Context, tree engine.Element, options render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	mapping := render.MapErrorPayload(tree, options.Errors)
	state := &renderState{
		ctx:     ctx,
		theme:   buildThemeContext(options.Theme),
		errors:  mapping.Fields,
		classes: r.classes,
	}

	body, err := r.renderChildren(state, tree.Children)
	if err != nil {
		return nil, err
	}

	method, override := render.FormMethod(options.Method)
	hidden := make([]map[string]any, 0, len(options.Hidden))
	for _, field := range render.SortedHiddenFields(options.Hidden) {
		if field.Name == "_method" && override != "" {
			continue
		}
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	data := map[string]any{
		"form": map[string]any{
			"id":             tree.ID,
			"action":         strings.TrimSpace(options.Action),
			"method":         strings.ToLower(method),
			"methodOverride": override,
		},
		"classes":      r.classes,
		"theme":        state.theme.data(),
		"stylesheet":   state.theme.stylesheet(),
		"hiddenFields": hidden,
		"formErrors":   mapping.Form,
		"body":         body,
	}

	out, err := r.templates.RenderTemplate(state.theme.partial("form", "form"), data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render form: %w", err)
	}
	return []byte(out), nil
}

type renderState struct {
	ctx     context.Context
	theme   rendererTheme
	errors  map[string][]string
	classes map[string]any
}

// Stylesheet returns the embedded default CSS.
func Stylesheet() string {
	return defaultStylesheet()
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

const defaultMaxRounds = 3

// Renderer drives terminal sessions. Render prints a static outline of a
// tree; Fill walks a live form, prompting for each mounted field in document
// order so fields revealed by earlier answers are asked too.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	widgets           *widgets.Registry
	maxRounds         int
}

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) *Renderer {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		maxRounds:    defaultMaxRounds,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	if r.widgets == nil {
		r.widgets = widgets.NewRegistry()
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render and Fill.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render serializes the field values of tree. With the pretty format the
// whole tree is printed as an indented outline.
func (r *Renderer) Render(ctx context.Context, tree engine.Element, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.outputFormat == OutputFormatPrettyText {
		mapping := render.MapErrorPayload(tree, opts.Errors)
		var b strings.Builder
		r.outline(&b, tree, 0, mapping)
		return []byte(b.String()), nil
	}
	values := make(map[string]any)
	for _, field := range tree.Fields() {
		if r.widgets.MustResolve(field) == widgets.WidgetButton {
			continue
		}
		values[field.ID] = field.Value
	}
	return r.serialize(values)
}

// Fill prompts for every mounted field of form, submits it and returns the
// serialized submission. Fields that fail validation are asked again up to
// the configured number of rounds.
func (r *Renderer) Fill(ctx context.Context, form *engine.Form) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if form == nil {
		return nil, ErrNoForm
	}

	asked := make(map[string]bool)
	for round := 0; ; round++ {
		if err := r.askPending(ctx, form, asked); err != nil {
			return nil, err
		}

		submission, err := form.Submit()
		if err == nil {
			return r.finish(submission.Values)
		}
		if !errors.Is(err, validation.ErrInvalid) {
			return nil, fmt.Errorf("tui: submit: %w", err)
		}
		if round+1 >= r.maxRounds {
			return nil, fmt.Errorf("tui: %w", err)
		}

		for _, field := range form.Tree().Fields() {
			message, failed := submission.Errors[field.ID]
			if !failed {
				continue
			}
			_ = r.driver.Info(ctx, r.theme.ErrorPrefix+fmt.Sprintf("%s: %s", displayLabel(field), message))
			delete(asked, field.ID)
		}
	}
}

// askPending prompts for the first unasked field until none is left. The
// tree is re-read after every answer since answers change what is mounted.
func (r *Renderer) askPending(ctx context.Context, form *engine.Form, asked map[string]bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, ok := r.nextField(form.Tree(), asked)
		if !ok {
			return nil
		}
		asked[next.ID] = true
		if err := r.promptField(ctx, form, next); err != nil {
			return err
		}
	}
}

func (r *Renderer) nextField(tree engine.Element, asked map[string]bool) (engine.Element, bool) {
	for _, field := range tree.Fields() {
		if asked[field.ID] || r.widgets.MustResolve(field) == widgets.WidgetButton {
			continue
		}
		return field, true
	}
	return engine.Element{}, false
}

func (r *Renderer) finish(values map[string]any) ([]byte, error) {
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(values)
}

func (r *Renderer) outline(b *strings.Builder, el engine.Element, depth int, mapping render.ErrorMapping) {
	indent := strings.Repeat("  ", depth)
	switch el.Kind {
	case engine.KindText:
		if text := strings.TrimSpace(el.Text); text != "" {
			fmt.Fprintf(b, "%s%s\n", indent, text)
		}
		return
	case engine.KindUnsupported:
		fmt.Fprintf(b, "%s[unsupported %s]\n", indent, el.Type)
		return
	case engine.KindField:
		fmt.Fprintf(b, "%s%s: %s\n", indent, displayLabel(el), formatValue(el.Value))
		messages := mapping.Fields[el.ID]
		if el.Error != "" {
			messages = append([]string{el.Error}, messages...)
		}
		for _, message := range messages {
			fmt.Fprintf(b, "%s  %s%s\n", indent, r.theme.ErrorPrefix, message)
		}
		if el.Warning != "" {
			fmt.Fprintf(b, "%s  %s%s\n", indent, r.theme.InfoPrefix, el.Warning)
		}
		return
	}

	next := depth
	if depth == 0 && el.Component == "Form" {
		if el.ID != "" {
			fmt.Fprintf(b, "%s\n", el.ID)
		}
		for _, message := range mapping.Form {
			fmt.Fprintf(b, "%s%s\n", r.theme.ErrorPrefix, message)
		}
		next = 1
	} else if title := elementTitle(el); title != "" {
		fmt.Fprintf(b, "%s%s\n", indent, title)
		next = depth + 1
	}
	for _, child := range el.Children {
		r.outline(b, child, next, mapping)
	}
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/internal/loader"
	"github.com/goliatone/go-formengine/internal/openapi/parser"
	"github.com/goliatone/go-formengine/pkg/engine"
	pkgopenapi "github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/jsontree"
	"github.com/goliatone/go-formengine/pkg/renderers/vanilla"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom document loader.
func WithLoader(l schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = l
	}
}

// WithParser injects a custom OpenAPI parser.
func WithParser(p pkgopenapi.Parser) Option {
	return func(o *Orchestrator) {
		o.parser = p
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer registers a Transformer that runs on the document
// before the form is built.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// WithScaffoldOptions tunes the OpenAPI scaffolder.
func WithScaffoldOptions(options ...pkgopenapi.ScaffoldOption) Option {
	return func(o *Orchestrator) {
		o.scaffold = append(o.scaffold, options...)
	}
}

// WithEngineOptions forwards options to every engine.New call.
func WithEngineOptions(options ...engine.Option) Option {
	return func(o *Orchestrator) {
		o.engineOptions = append(o.engineOptions, options...)
	}
}

// WithTheme sets the theme used when a request carries none.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(o *Orchestrator) {
		o.theme = cfg
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from a document location to rendered
// output. Missing collaborators fall back to the built-in implementations.
type Orchestrator struct {
	loader          schema.Loader
	parser          pkgopenapi.Parser
	registry        *render.Registry
	defaultRenderer string
	transformers    []Transformer
	scaffold        []pkgopenapi.ScaffoldOption
	engineOptions   []engine.Option
	theme           *theme.RendererConfig
	logger          *zap.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one render.
type Request struct {
	// Source identifies where the document lives. Optional when Document is
	// supplied.
	Source schema.Source

	// Document bypasses loading when the caller already holds a form
	// document.
	Document *schema.Document

	// OperationID selects the operation to scaffold when the source is an
	// OpenAPI document. May be empty when the document has one operation.
	OperationID string

	// Renderer names the renderer to use. Empty selects the default.
	Renderer string

	// Values prefill fields before rendering.
	Values map[string]any

	// Validate runs a submit pass so the output carries field errors.
	Validate bool

	RenderOptions render.RenderOptions
}

// Generate resolves the document, builds a form and renders its tree.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	form, err := o.Form(ctx, req)
	if err != nil {
		return nil, err
	}
	defer form.Close()

	if req.Validate {
		if _, err := form.Submit(); err != nil && !errors.Is(err, validation.ErrInvalid) {
			return nil, fmt.Errorf("orchestrator: validate: %w", err)
		}
	}

	name := req.Renderer
	if name == "" {
		name = o.defaultRenderer
	}
	options := req.RenderOptions
	if options.Theme == nil {
		options.Theme = o.theme
	}

	output, err := o.registry.Render(ctx, name, form.Tree(), options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Form resolves the request's document and returns a live form seeded with
// req.Values. Callers own the form and must Close it.
func (o *Orchestrator) Form(ctx context.Context, req Request) (*engine.Form, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	doc, err := o.Document(ctx, req)
	if err != nil {
		return nil, err
	}

	options := append([]engine.Option{engine.WithLogger(o.logger)}, o.engineOptions...)
	form, err := engine.New(doc, options...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build form: %w", err)
	}
	for _, id := range sortedKeys(req.Values) {
		if err := form.SetValue(id, req.Values[id]); err != nil {
			form.Close()
			return nil, fmt.Errorf("orchestrator: prefill %s: %w", id, err)
		}
	}
	return form, nil
}

// Document resolves the request into a transformed form document.
func (o *Orchestrator) Document(ctx context.Context, req Request) (schema.Document, error) {
	var doc schema.Document
	switch {
	case req.Document != nil:
		doc = req.Document.Clone()
	case req.Source != nil:
		raw, err := o.loader.Load(ctx, req.Source)
		if err != nil {
			return schema.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
		}
		if pkgopenapi.Detect(raw.Raw()) {
			doc, err = o.scaffoldDocument(ctx, raw, req.OperationID)
		} else {
			doc, err = raw.Decode()
		}
		if err != nil {
			return schema.Document{}, fmt.Errorf("orchestrator: %s: %w", raw.Location(), err)
		}
	default:
		return schema.Document{}, errors.New("orchestrator: source or document is required")
	}

	for _, t := range o.transformers {
		if err := t.Transform(ctx, &doc); err != nil {
			return schema.Document{}, fmt.Errorf("orchestrator: transform document: %w", err)
		}
	}
	return doc, nil
}

// Operations lists the operations of an OpenAPI source.
func (o *Orchestrator) Operations(ctx context.Context, src schema.Source) (map[string]pkgopenapi.Operation, error) {
	raw, err := o.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load document: %w", err)
	}
	doc, err := pkgopenapi.FromRaw(raw)
	if err != nil {
		return nil, err
	}
	return o.parser.Operations(ctx, doc)
}

func (o *Orchestrator) scaffoldDocument(ctx context.Context, raw schema.RawDocument, operationID string) (schema.Document, error) {
	doc, err := pkgopenapi.FromRaw(raw)
	if err != nil {
		return schema.Document{}, err
	}
	operations, err := o.parser.Operations(ctx, doc)
	if err != nil {
		return schema.Document{}, fmt.Errorf("parse operations: %w", err)
	}

	if operationID == "" {
		if len(operations) != 1 {
			return schema.Document{}, fmt.Errorf("operation id is required (available: %s)", strings.Join(sortedKeys(operations), ", "))
		}
		for id := range operations {
			operationID = id
		}
	}
	op, ok := operations[operationID]
	if !ok {
		return schema.Document{}, fmt.Errorf("operation %q not found", operationID)
	}
	o.logger.Debug("scaffolding form from operation",
		zap.String("operation", op.ID),
		zap.String("method", op.Method),
		zap.String("path", op.Path),
		zap.String("body", op.RequestBody.DebugString()),
	)
	return pkgopenapi.Scaffold(op, o.scaffold...)
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = loader.New(schema.NewLoaderOptions())
	}
	if o.parser == nil {
		o.parser = parser.New(pkgopenapi.NewParserOptions())
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		html, err := vanilla.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		o.registry.MustRegister(html)
		o.registry.MustRegister(jsontree.New())
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}

package formengine

import (
	"context"

	"github.com/goliatone/go-formengine/pkg/orchestrator"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// RenderOptions describes per-request data renderers use to prefill actions,
// hidden inputs and server-side errors.
type RenderOptions = render.RenderOptions

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML loads a form document (or scaffolds one from an OpenAPI
// operation) and renders it with the HTML renderer.
func GenerateHTML(ctx context.Context, source schema.Source, operationID string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source:      source,
		OperationID: operationID,
		Renderer:    "vanilla",
	})
}

// GenerateHTMLFromDocument renders an already decoded form document.
func GenerateHTMLFromDocument(ctx context.Context, doc schema.Document, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Document: &doc,
		Renderer: "vanilla",
	})
}

// ScaffoldFromOpenAPI turns one OpenAPI operation into a form document.
func ScaffoldFromOpenAPI(ctx context.Context, source schema.Source, operationID string, options ...orchestrator.Option) (schema.Document, error) {
	return orchestrator.New(options...).Document(ctx, orchestrator.Request{
		Source:      source,
		OperationID: operationID,
	})
}

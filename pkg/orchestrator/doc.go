// Package orchestrator wires the loader, OpenAPI scaffolding, preset
// transformers, the form engine and the renderer registry into one call for
// callers that want rendered output from a document location.
package orchestrator

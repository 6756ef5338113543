// Package openapi scaffolds form documents from OpenAPI operations. The
// parser implementation lives under internal/openapi to keep kin-openapi
// types out of the public API; construct one with formengine.NewOpenAPIParser.
package openapi

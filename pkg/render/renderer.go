package render

import (
	"context"

	"github.com/goliatone/go-formengine/pkg/engine"
)

// Renderer converts a snapshot of a form's render tree into a byte
// representation (HTML, JSON, terminal text).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, tree engine.Element, options RenderOptions) ([]byte, error)
}

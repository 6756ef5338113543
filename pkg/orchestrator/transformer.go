package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Transformer mutates a form document before the form is built.
type Transformer interface {
	Transform(ctx context.Context, doc *schema.Document) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, doc *schema.Document) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, doc *schema.Document) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, doc)
}

// PresetTransformer applies a declarative preset loaded from JSON or YAML.
// Overrides and default values are deep-merged over the document's own:
//
//	{
//	  "className": "signup",
//	  "restoreMode": "default-value",
//	  "overrides": {"email": {"label": "Work email"}},
//	  "defaultValues": {"plan": "pro"}
//	}
type PresetTransformer struct {
	className     string
	restoreMode   schema.RestoreMode
	overrides     map[string]any
	defaultValues map[string]any
}

var presetKeys = map[string]bool{"className": true, "restoreMode": true, "overrides": true, "defaultValues": true}

// NewPresetTransformer parses a preset document.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	raw, err := schema.DecodeOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}

	var unknown []string
	for key := range raw {
		if !presetKeys[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("preset transformer: unknown keys %s", strings.Join(unknown, ", "))
	}

	preset := &PresetTransformer{}
	preset.className, _ = raw["className"].(string)
	if mode, ok := raw["restoreMode"].(string); ok {
		if preset.restoreMode, err = schema.ParseRestoreMode(mode); err != nil {
			return nil, fmt.Errorf("preset transformer: %w", err)
		}
	}
	if preset.overrides, err = objectAt(raw, "overrides"); err != nil {
		return nil, err
	}
	if preset.defaultValues, err = objectAt(raw, "defaultValues"); err != nil {
		return nil, err
	}
	return preset, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the preset onto doc.
func (t *PresetTransformer) Transform(ctx context.Context, doc *schema.Document) error {
	if doc == nil {
		return errors.New("preset transformer: document is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.className != "" {
		doc.ClassName = t.className
	}
	if t.restoreMode != "" {
		doc.RestoreMode = t.restoreMode
	}
	if len(t.overrides) > 0 {
		doc.Overrides = schema.MergeMaps(doc.Overrides, t.overrides)
	}
	if len(t.defaultValues) > 0 {
		doc.DefaultValues = schema.MergeMaps(doc.DefaultValues, t.defaultValues)
	}
	return nil
}

func objectAt(raw map[string]any, key string) (map[string]any, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return nil, nil
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("preset transformer: %s must be an object", key)
	}
	return object, nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

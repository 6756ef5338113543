package parser

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-formengine/pkg/openapi"
)

const (
	extensionNamespace = "x-formengine"
	orderExtensionKey  = "x-formengine-order"
)

func convertSchema(ref *openapi3.SchemaRef) pkgopenapi.Schema {
	return newConverter().convert(ref)
}

// converter tracks the schemas on the current path so self-referencing
// components stop at the $ref instead of recursing forever.
type converter struct {
	active map[*openapi3.Schema]bool
}

func newConverter() *converter {
	return &converter{active: make(map[*openapi3.Schema]bool)}
}

func (c *converter) convert(ref *openapi3.SchemaRef) pkgopenapi.Schema {
	if ref == nil {
		return pkgopenapi.Schema{}
	}
	if ref.Value == nil {
		return pkgopenapi.Schema{Ref: ref.Ref}
	}
	src := ref.Value
	if c.active[src] {
		return pkgopenapi.Schema{Ref: ref.Ref, Type: firstSchemaType(src.Type)}
	}
	c.active[src] = true
	defer delete(c.active, src)

	out := pkgopenapi.Schema{
		Ref:              ref.Ref,
		Type:             firstSchemaType(src.Type),
		Format:           src.Format,
		Title:            src.Title,
		Description:      src.Description,
		Default:          src.Default,
		ExclusiveMinimum: src.ExclusiveMin,
		ExclusiveMaximum: src.ExclusiveMax,
		Pattern:          src.Pattern,
		ReadOnly:         src.ReadOnly,
		Extensions:       extractExtensions(src.Extensions),
	}

	if len(src.Required) > 0 {
		out.Required = append([]string(nil), src.Required...)
	}
	if len(src.Enum) > 0 {
		out.Enum = append([]any(nil), src.Enum...)
	}
	if len(src.Properties) > 0 {
		out.Properties = make(map[string]pkgopenapi.Schema, len(src.Properties))
		for name, property := range src.Properties {
			out.Properties[name] = c.convert(property)
		}
	}
	if src.Items != nil {
		items := c.convert(src.Items)
		out.Items = &items
	}
	if src.Min != nil {
		value := *src.Min
		out.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		out.Maximum = &value
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		out.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		out.MaxLength = &value
	}

	for _, part := range src.AllOf {
		c.mergeAllOf(&out, part)
	}
	out.Order = propertyOrder(out)
	return out
}

// mergeAllOf folds an allOf member into target. Properties and required
// names accumulate; scalar keywords only fill gaps.
func (c *converter) mergeAllOf(target *pkgopenapi.Schema, ref *openapi3.SchemaRef) {
	if ref == nil || ref.Value == nil {
		return
	}
	part := c.convert(ref)
	if target.Type == "" {
		target.Type = part.Type
	}
	if target.Title == "" {
		target.Title = part.Title
	}
	if target.Description == "" {
		target.Description = part.Description
	}
	if len(part.Properties) > 0 {
		if target.Properties == nil {
			target.Properties = make(map[string]pkgopenapi.Schema, len(part.Properties))
		}
		for name, property := range part.Properties {
			if _, exists := target.Properties[name]; !exists {
				target.Properties[name] = property
			}
		}
	}
	for _, name := range part.Required {
		if !contains(target.Required, name) {
			target.Required = append(target.Required, name)
		}
	}
	for key, value := range part.Extensions {
		if target.Extensions == nil {
			target.Extensions = make(map[string]any, len(part.Extensions))
		}
		if _, exists := target.Extensions[key]; !exists {
			target.Extensions[key] = value
		}
	}
}

// propertyOrder lists the names from x-formengine-order first, then the
// remaining properties alphabetically.
func propertyOrder(s pkgopenapi.Schema) []string {
	if len(s.Properties) == 0 {
		return nil
	}
	order := make([]string, 0, len(s.Properties))
	if listed, ok := s.Extensions[orderExtensionKey].([]any); ok {
		for _, item := range listed {
			name, ok := item.(string)
			if !ok || contains(order, name) {
				continue
			}
			if _, exists := s.Properties[name]; exists {
				order = append(order, name)
			}
		}
	}
	for _, name := range sortedKeys(s.Properties) {
		if !contains(order, name) {
			order = append(order, name)
		}
	}
	return order
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return strings.Join(values, ",")
	}
}

func extractExtensions(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	result := make(map[string]any)
	for key, value := range raw {
		if key == extensionNamespace || strings.HasPrefix(key, extensionNamespace+"-") {
			result[key] = value
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

package engine

import (
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Element is an immutable snapshot of one mounted node of the render tree.
type Element struct {
	ID        string         `json:"id,omitempty"`
	Kind      Kind           `json:"kind"`
	Type      string         `json:"type,omitempty"`
	Component string         `json:"component,omitempty"`
	HTMLTag   string         `json:"htmlTag,omitempty"`
	Schema    map[string]any `json:"schema,omitempty"`
	Text      string         `json:"text,omitempty"`
	Value     any            `json:"value,omitempty"`
	Error     string         `json:"error,omitempty"`
	Warning   string         `json:"warning,omitempty"`
	Children  []Element      `json:"children,omitempty"`
}

// Label returns the schema label of the element, if any.
func (e Element) Label() string {
	label, _ := e.Schema["label"].(string)
	return label
}

// Attr returns a schema attribute of the element.
func (e Element) Attr(key string) (any, bool) {
	value, ok := e.Schema[key]
	return value, ok
}

// Fields returns the field elements of the subtree in document order.
func (e Element) Fields() []Element {
	var out []Element
	var walk func(Element)
	walk = func(el Element) {
		if el.Kind == KindField {
			out = append(out, el)
		}
		for _, child := range el.Children {
			walk(child)
		}
	}
	walk(e)
	return out
}

// Tree snapshots the mounted render tree. The root element stands for the
// form itself and carries the document id.
func (f *Form) Tree() Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flush()
	return f.snapshot(f.root)
}

func (f *Form) snapshot(inst *instance) Element {
	el := Element{ID: inst.id, Kind: inst.kind()}
	if inst == f.root {
		el.Kind = KindElement
		el.Component = inst.resolution.Descriptor.Component
	} else if !inst.bare {
		el.Type = strings.ToLower(inst.resolution.Tag)
		el.Component = inst.resolution.Descriptor.Component
		el.HTMLTag = inst.resolution.Descriptor.HTMLTag
		el.Schema = inst.node.Map()
		delete(el.Schema, schema.KeyChildren)
	}

	switch el.Kind {
	case KindField:
		if inst.holdsValue() {
			el.Value, _ = f.store.Get(inst.id)
		}
		el.Error = f.errorFor(inst.id)
		el.Warning = f.warnings[inst.id]
	case KindElement:
		if inst.hasText {
			el.Children = append(el.Children, Element{Kind: KindText, Text: inst.text})
		}
		for _, child := range inst.children {
			if !child.applied {
				continue
			}
			el.Children = append(el.Children, f.snapshot(child))
		}
	}
	return el
}

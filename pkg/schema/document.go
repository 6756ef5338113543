package schema

import (
	"errors"
	"fmt"
	"strings"
)

// RestoreMode controls what happens to a field's value when it unmounts.
type RestoreMode string

const (
	// RestoreNone clears the value to the empty value of its type.
	RestoreNone RestoreMode = "none"
	// RestoreDefault resets the value to the declared default.
	RestoreDefault RestoreMode = "default-value"
	// RestoreUserInput keeps whatever the user entered.
	RestoreUserInput RestoreMode = "user-input"
)

// ParseRestoreMode validates a restore mode string. Empty input yields
// RestoreNone.
func ParseRestoreMode(raw string) (RestoreMode, error) {
	switch mode := RestoreMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return RestoreNone, nil
	case RestoreNone, RestoreDefault, RestoreUserInput:
		return mode, nil
	default:
		return "", fmt.Errorf("schema: unknown restore mode %q", raw)
	}
}

// Document is a complete form description.
type Document struct {
	ID            string
	ClassName     string
	Sections      Children
	DefaultValues map[string]any
	Overrides     map[string]any
	RestoreMode   RestoreMode
	// StripUnknown is accepted for compatibility; submissions always contain
	// registered fields only.
	StripUnknown bool
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	out.Sections = d.Sections.Clone()
	out.DefaultValues = cloneMap(d.DefaultValues)
	out.Overrides = cloneMap(d.Overrides)
	return out
}

// Default returns the declared default value for a field id.
func (d Document) Default(id string) (any, bool) {
	if d.DefaultValues == nil {
		return nil, false
	}
	value, ok := d.DefaultValues[id]
	if !ok {
		return nil, false
	}
	return CloneValue(value), true
}

// Root wraps the sections in a synthetic container node so walkers can treat
// the document like any other container.
func (d Document) Root() *Node {
	return &Node{Children: d.Sections}
}

// DecodeDocument parses a JSON or YAML form document. Both the bare form
// ({"sections": ...}) and an enveloped form ({"data": {"sections": ...}})
// are accepted.
func DecodeDocument(raw []byte) (Document, error) {
	value, err := decodeOrdered(raw)
	if err != nil {
		return Document{}, err
	}
	root, ok := value.(*orderedMap)
	if !ok {
		return Document{}, &DecodeError{Err: errors.New("document must be an object")}
	}
	if inner, ok := root.values["data"].(*orderedMap); ok && root.values["sections"] == nil {
		root = inner
	}
	return documentFromOrdered(root)
}

func documentFromOrdered(root *orderedMap) (Document, error) {
	doc := Document{RestoreMode: RestoreNone}

	if id, ok := root.values["id"].(string); ok {
		doc.ID = id
	}
	if className, ok := root.values["className"].(string); ok {
		doc.ClassName = className
	}
	if strip, ok := root.values["stripUnknown"].(bool); ok {
		doc.StripUnknown = strip
	}

	sections, present := root.values["sections"]
	if !present {
		return Document{}, &DecodeError{Path: "sections", Err: errors.New("sections are required")}
	}
	doc.Sections = childrenFromValue(sections)

	if raw, present := root.values["defaultValues"]; present && raw != nil {
		values, ok := plain(raw).(map[string]any)
		if !ok {
			return Document{}, &DecodeError{Path: "defaultValues", Err: errors.New("must be an object")}
		}
		doc.DefaultValues = values
	}
	if raw, present := root.values["overrides"]; present && raw != nil {
		overrides, ok := plain(raw).(map[string]any)
		if !ok {
			return Document{}, &DecodeError{Path: "overrides", Err: errors.New("must be an object")}
		}
		doc.Overrides = overrides
	}
	if raw, present := root.values["restoreMode"]; present && raw != nil {
		text, _ := raw.(string)
		mode, err := ParseRestoreMode(text)
		if err != nil {
			return Document{}, &DecodeError{Path: "restoreMode", Err: err}
		}
		doc.RestoreMode = mode
	}
	return doc, nil
}

// DecodeOverrides parses a standalone override map.
func DecodeOverrides(raw []byte) (map[string]any, error) {
	value, err := decodeOrdered(raw)
	if err != nil {
		return nil, err
	}
	overrides, ok := plain(value).(map[string]any)
	if !ok {
		return nil, &DecodeError{Err: errors.New("overrides must be an object")}
	}
	return overrides, nil
}

package openapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// ErrNoRequestBody is returned when an operation has no object request body
// to build a form from.
var ErrNoRequestBody = errors.New("openapi: operation has no object request body")

const (
	submitExtensionKey = "x-formengine-submit"
	widgetExtensionKey = "x-formengine-widget"
	hiddenExtensionKey = "x-formengine-hidden"
)

// ScaffoldOptions tunes how operations become form documents.
type ScaffoldOptions struct {
	Labeler      func(string) string
	SubmitLabel  string
	IncludeRead  bool
	SectionTitle string
}

// ScaffoldOption mutates ScaffoldOptions.
type ScaffoldOption func(*ScaffoldOptions)

// WithLabeler replaces DefaultLabeler for properties without a title.
func WithLabeler(fn func(string) string) ScaffoldOption {
	return func(opts *ScaffoldOptions) {
		if fn != nil {
			opts.Labeler = fn
		}
	}
}

// WithSubmitLabel sets the submit button text. The operation's
// x-formengine-submit extension wins over this value.
func WithSubmitLabel(label string) ScaffoldOption {
	return func(opts *ScaffoldOptions) {
		opts.SubmitLabel = label
	}
}

// WithReadOnlyFields keeps readOnly properties, which are skipped by default.
func WithReadOnlyFields(enabled bool) ScaffoldOption {
	return func(opts *ScaffoldOptions) {
		opts.IncludeRead = enabled
	}
}

// WithSectionTitle overrides the title of the generated top section.
func WithSectionTitle(title string) ScaffoldOption {
	return func(opts *ScaffoldOptions) {
		opts.SectionTitle = title
	}
}

// Scaffold builds a form document from the request body of op. Each
// property becomes a field keyed by its (dotted) path; nested objects become
// sections.
func Scaffold(op Operation, options ...ScaffoldOption) (schema.Document, error) {
	cfg := ScaffoldOptions{Labeler: DefaultLabeler, SubmitLabel: "Submit"}
	for _, opt := range options {
		opt(&cfg)
	}

	body := op.RequestBody
	if primaryType(body.Type) != "object" && len(body.Properties) == 0 {
		return schema.Document{}, fmt.Errorf("%w: %s", ErrNoRequestBody, op.ID)
	}

	s := &scaffolder{cfg: cfg, defaults: make(map[string]any)}
	fields, err := s.properties("", body)
	if err != nil {
		return schema.Document{}, fmt.Errorf("openapi: scaffold %s: %w", op.ID, err)
	}

	submit := cfg.SubmitLabel
	if label, ok := op.Extensions[submitExtensionKey].(string); ok && strings.TrimSpace(label) != "" {
		submit = label
	}
	fields = append(fields, schema.Entry{ID: "submit", Node: &schema.Node{
		UIType:     "submit",
		Attributes: map[string]any{"label": submit},
	}})

	title := cfg.SectionTitle
	if title == "" {
		title = firstNonEmpty(op.Summary, body.Title, cfg.Labeler(op.ID))
	}
	section := &schema.Node{
		UIType:     "section",
		Attributes: map[string]any{"label": title},
		Children:   schema.NodeChildren(fields...),
	}
	if description := firstNonEmpty(op.Description, body.Description); description != "" {
		section.Attributes["description"] = description
	}

	doc := schema.Document{
		ID:          op.ID,
		Sections:    schema.NodeChildren(schema.Entry{ID: sectionID(op.ID), Node: section}),
		RestoreMode: schema.RestoreNone,
	}
	if len(s.defaults) > 0 {
		doc.DefaultValues = s.defaults
	}
	return doc, nil
}

type scaffolder struct {
	cfg      ScaffoldOptions
	defaults map[string]any
}

func (s *scaffolder) properties(prefix string, parent Schema) ([]schema.Entry, error) {
	order := parent.Order
	if len(order) == 0 {
		order = make([]string, 0, len(parent.Properties))
		for name := range parent.Properties {
			order = append(order, name)
		}
		sort.Strings(order)
	}

	entries := make([]schema.Entry, 0, len(order))
	for _, name := range order {
		property, ok := parent.Properties[name]
		if !ok {
			continue
		}
		if property.ReadOnly && !s.cfg.IncludeRead {
			continue
		}
		if hidden, _ := property.Extensions[hiddenExtensionKey].(bool); hidden {
			continue
		}
		id := name
		if prefix != "" {
			id = prefix + "." + name
		}
		node, err := s.node(id, name, property, contains(parent.Required, name))
		if err != nil {
			return nil, err
		}
		if node != nil {
			entries = append(entries, schema.Entry{ID: id, Node: node})
		}
	}
	return entries, nil
}

func (s *scaffolder) node(id, name string, property Schema, required bool) (*schema.Node, error) {
	label := property.Title
	if label == "" {
		label = s.cfg.Labeler(name)
	}
	attrs := map[string]any{"label": label}
	if property.Description != "" {
		attrs["description"] = property.Description
	}

	kind := primaryType(property.Type)
	if kind == "object" || (kind == "" && len(property.Properties) > 0) {
		children, err := s.properties(id, property)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return nil, nil
		}
		return &schema.Node{UIType: "section", Attributes: attrs, Children: schema.NodeChildren(children...)}, nil
	}

	uiType, err := s.fieldType(kind, property, attrs)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", id, err)
	}
	if widget, ok := property.Extensions[widgetExtensionKey].(string); ok && widget != "" {
		uiType = widget
	}

	if rules := validationRules(kind, property, required); len(rules) > 0 {
		attrs["validation"] = rules
	}
	if property.Default != nil {
		s.defaults[id] = schema.CloneValue(property.Default)
	}
	return &schema.Node{UIType: uiType, Attributes: attrs}, nil
}

func (s *scaffolder) fieldType(kind string, property Schema, attrs map[string]any) (string, error) {
	if len(property.Enum) > 0 && kind != "boolean" {
		attrs["options"] = enumOptions(property.Enum, s.cfg.Labeler)
		if len(property.Enum) <= 3 {
			return "radio", nil
		}
		return "select", nil
	}

	switch kind {
	case "string", "":
		switch property.Format {
		case "email":
			return "email-field", nil
		case "date":
			return "date-field", nil
		case "time":
			return "time-field", nil
		case "password":
			attrs["inputType"] = "password"
			return "text-field", nil
		case "binary":
			return "file-upload", nil
		case "textarea":
			return "textarea", nil
		}
		if property.MaxLength != nil && *property.MaxLength > 255 {
			return "textarea", nil
		}
		return "text-field", nil
	case "integer", "number":
		if property.Minimum != nil {
			attrs["min"] = *property.Minimum
		}
		if property.Maximum != nil {
			attrs["max"] = *property.Maximum
		}
		if kind == "integer" {
			attrs["step"] = 1.0
		}
		return "numeric-field", nil
	case "boolean":
		return "switch", nil
	case "array":
		if property.Items != nil && len(property.Items.Enum) > 0 {
			attrs["options"] = enumOptions(property.Items.Enum, s.cfg.Labeler)
			return "multi-select", nil
		}
		if property.Items != nil && property.Items.Format == "binary" {
			attrs["multiple"] = true
			return "file-upload", nil
		}
		return "chips", nil
	default:
		return "", fmt.Errorf("unsupported type %q", kind)
	}
}

func validationRules(kind string, property Schema, required bool) []any {
	var rules []any
	add := func(key string, value any) {
		rules = append(rules, map[string]any{key: value})
	}
	if required {
		add("required", true)
	}

	switch kind {
	case "string", "":
		if len(property.Enum) > 0 {
			break
		}
		switch property.Format {
		case "email":
			add("email", true)
		case "uri", "url":
			add("url", true)
		case "uuid":
			add("uuid", true)
		}
		if property.MinLength != nil && *property.MinLength > 0 {
			add("min", float64(*property.MinLength))
		}
		if property.MaxLength != nil {
			add("max", float64(*property.MaxLength))
		}
		if property.Pattern != "" {
			add("matches", "/"+property.Pattern+"/")
		}
	case "integer", "number":
		if kind == "integer" {
			add("integer", true)
		}
		if property.Minimum != nil {
			if property.ExclusiveMinimum {
				add("moreThan", *property.Minimum)
			} else {
				add("min", *property.Minimum)
			}
		}
		if property.Maximum != nil {
			if property.ExclusiveMaximum {
				add("lessThan", *property.Maximum)
			} else {
				add("max", *property.Maximum)
			}
		}
	}
	return rules
}

func enumOptions(values []any, labeler func(string) string) []any {
	options := make([]any, 0, len(values))
	for _, value := range values {
		if value == nil {
			continue
		}
		text := fmt.Sprint(value)
		options = append(options, map[string]any{"label": labeler(text), "value": text})
	}
	return options
}

// primaryType picks the first non-null entry of a joined type list.
func primaryType(raw string) string {
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" && part != "null" {
			return part
		}
	}
	return ""
}

func sectionID(opID string) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, opID)
	if id = strings.Trim(id, "-"); id == "" {
		return "form"
	}
	return id
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}

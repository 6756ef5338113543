package vanilla

import (
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

func (r *Renderer) renderChildren(state *renderState, children []engine.Element) (string, error) {
	var b strings.Builder
	for _, child := range children {
		if err := state.ctx.Err(); err != nil {
			return "", err
		}
		markup, err := r.renderNode(state, child)
		if err != nil {
			return "", err
		}
		b.WriteString(markup)
	}
	return b.String(), nil
}

func (r *Renderer) renderNode(state *renderState, el engine.Element) (string, error) {
	switch el.Kind {
	case engine.KindText:
		return r.text.Sanitize(el.Text), nil
	case engine.KindField:
		return r.renderField(state, el)
	case engine.KindElement:
		return r.renderElement(state, el)
	default:
		return r.execute(state, "unsupported", map[string]any{
			"id":   el.ID,
			"type": el.Type,
		})
	}
}

// elementLayout maps element types onto HTML tags. The zero layout is a div.
type elementLayout struct {
	tag      string
	titleTag string
	class    string
	void     bool
}

func (r *Renderer) layoutFor(el engine.Element) elementLayout {
	section, _ := r.classes["section"].(string)
	grid, _ := r.classes["grid"].(string)
	layout := elementLayout{tag: "div", titleTag: "h3", class: "formengine-" + el.Type}
	switch el.Type {
	case "section":
		layout = elementLayout{tag: "section", titleTag: "h2", class: section}
	case "accordion":
		layout = elementLayout{tag: "details", titleTag: "summary", class: section}
	case "grid":
		layout.class = grid
	case "ordered-list":
		layout.tag = "ol"
	case "unordered-list":
		layout.tag = "ul"
	case "list-item":
		layout.tag = "li"
	case "text-d1", "text-h1":
		layout.tag = "h1"
	case "text-d2", "text-h2":
		layout.tag = "h2"
	case "text-h3", "text-h4", "text-h5", "text-h6":
		layout.tag = "h" + strings.TrimPrefix(el.Type, "text-h")
	case "text-body", "text-bodysmall":
		layout.tag = "p"
	case "text-xsmall":
		layout.tag = "small"
	case "divider":
		layout = elementLayout{tag: "hr", class: "formengine-divider", void: true}
	case "image":
		layout = elementLayout{tag: "img", class: "formengine-image", void: true}
	}
	if el.HTMLTag != "" {
		layout.tag = el.HTMLTag
	}
	return layout
}

func (r *Renderer) renderElement(state *renderState, el engine.Element) (string, error) {
	layout := r.layoutFor(el)
	if layout.void {
		return r.voidElement(el, layout), nil
	}
	children, err := r.renderChildren(state, el.Children)
	if err != nil {
		return "", err
	}

	title := r.plain(stringAttr(el, "title"))
	if title == "" {
		title = r.plain(el.Label())
	}
	return r.execute(state, "element", map[string]any{
		"id":          el.ID,
		"type":        el.Type,
		"tag":         layout.tag,
		"titleTag":    layout.titleTag,
		"class":       layout.class,
		"title":       title,
		"description": r.plain(stringAttr(el, "description")),
		"children":    children,
		"classes":     state.classes,
	})
}

func (r *Renderer) voidElement(el engine.Element, layout elementLayout) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<%s class="%s"`, layout.tag, layout.class)
	if el.ID != "" {
		fmt.Fprintf(&b, ` data-node-id="%s"`, r.attr(el.ID))
	}
	if layout.tag == "img" {
		fmt.Fprintf(&b, ` src="%s" alt="%s"`, r.attr(stringAttr(el, "src")), r.attr(stringAttr(el, "alt")))
	}
	b.WriteString(">")
	return b.String()
}

func (r *Renderer) renderField(state *renderState, el engine.Element) (string, error) {
	widget := r.widgets.MustResolve(el)
	controlID := componentControlID(el.ID)

	message := el.Error
	if extra := state.errors[el.ID]; len(extra) > 0 && message == "" {
		message = strings.Join(extra, "; ")
	}

	data := map[string]any{
		"id":          el.ID,
		"name":        el.ID,
		"controlId":   controlID,
		"widget":      widget,
		"label":       r.plain(el.Label()),
		"placeholder": r.plain(stringAttr(el, "placeholder")),
		"required":    isRequired(el),
		"disabled":    boolAttr(el, "disabled"),
		"error":       message,
		"classes":     state.classes,
	}
	r.controlData(widget, el, data)

	control, err := r.execute(state, "widgets/"+widgetTemplate(widget), data)
	if err != nil {
		return "", err
	}
	if widget == widgets.WidgetButton {
		return control, nil
	}

	data["control"] = control
	data["labelFor"] = labelSupportsFor(widget)
	data["helpText"] = r.plain(stringAttr(el, "helpText"))
	data["warning"] = el.Warning
	return r.execute(state, "field", data)
}

// controlData adds the widget specific template values.
func (r *Renderer) controlData(widget string, el engine.Element, data map[string]any) {
	options, _ := el.Attr("options")
	switch widget {
	case widgets.WidgetText, widgets.WidgetPassword, widgets.WidgetEmail,
		widgets.WidgetNumber, widgets.WidgetDate, widgets.WidgetTime:
		data["inputType"] = inputType(widget)
		data["value"] = stringValue(el.Value)
		data["min"] = stringAttr(el, "min")
		data["max"] = stringAttr(el, "max")
		data["step"] = stringAttr(el, "step")
	case widgets.WidgetTextarea:
		data["value"] = stringValue(el.Value)
		data["rows"] = stringAttr(el, "rows")
	case widgets.WidgetToggle:
		checked, _ := el.Value.(bool)
		data["checked"] = checked
	case widgets.WidgetSelect, widgets.WidgetRadio:
		data["options"] = optionList(options, el.Value)
	case widgets.WidgetMultiSelect, widgets.WidgetChips:
		data["options"] = optionList(options, el.Value)
		data["multiple"] = true
	case widgets.WidgetRange:
		data["from"] = optionList(member(options, "from"), member(el.Value, "from"))
		data["to"] = optionList(member(options, "to"), member(el.Value, "to"))
	case widgets.WidgetDateRange:
		data["start"] = stringValue(member(el.Value, "from"))
		data["end"] = stringValue(member(el.Value, "to"))
	case widgets.WidgetFile:
		data["accept"] = stringAttr(el, "accept")
		data["multiple"] = boolAttr(el, "multiple")
		data["files"] = fileURLs(el.Value)
	case widgets.WidgetLocation:
		data["address"] = stringValue(member(el.Value, "address"))
		data["postalCode"] = stringValue(member(el.Value, "postalCode"))
		data["lat"] = stringValue(member(el.Value, "lat"))
		data["lng"] = stringValue(member(el.Value, "lng"))
	case widgets.WidgetContact:
		data["countryCode"] = stringValue(member(el.Value, "countryCode"))
		data["contactNumber"] = stringValue(member(el.Value, "contactNumber"))
	case widgets.WidgetButton:
		data["buttonType"] = "submit"
		if el.Type == "reset" {
			data["buttonType"] = "reset"
		}
		if data["label"] == "" && el.Type != "" {
			data["label"] = strings.ToUpper(el.Type[:1]) + el.Type[1:]
		}
	default:
		data["inputType"] = "text"
		data["value"] = stringValue(el.Value)
	}
}

func widgetTemplate(widget string) string {
	switch widget {
	case widgets.WidgetText, widgets.WidgetPassword, widgets.WidgetEmail,
		widgets.WidgetNumber, widgets.WidgetDate, widgets.WidgetTime:
		return "input"
	case widgets.WidgetMultiSelect:
		return "checkboxes"
	case widgets.WidgetTextarea, widgets.WidgetToggle, widgets.WidgetSelect,
		widgets.WidgetRadio, widgets.WidgetChips, widgets.WidgetRange,
		widgets.WidgetDateRange, widgets.WidgetFile, widgets.WidgetLocation,
		widgets.WidgetContact, widgets.WidgetButton:
		return widget
	default:
		return "input"
	}
}

func inputType(widget string) string {
	switch widget {
	case widgets.WidgetPassword, widgets.WidgetEmail, widgets.WidgetNumber,
		widgets.WidgetDate, widgets.WidgetTime:
		return widget
	default:
		return "text"
	}
}

// fileURLs lists the already uploaded files of a file field.
func fileURLs(value any) []string {
	var out []string
	collect := func(item any) {
		switch typed := item.(type) {
		case string:
			if typed != "" {
				out = append(out, typed)
			}
		case map[string]any:
			if url := stringValue(typed["url"]); url != "" {
				out = append(out, url)
			}
		}
	}
	if list, ok := value.([]any); ok {
		for _, item := range list {
			collect(item)
		}
		return out
	}
	collect(value)
	return out
}

// execute renders a named template, honouring theme partial overrides.
func (r *Renderer) execute(state *renderState, name string, data map[string]any) (string, error) {
	template := state.theme.partial(name, name)
	out, err := r.templates.RenderTemplate(template, data)
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render %s: %w", name, err)
	}
	return out, nil
}

// plain strips every tag from schema supplied text. The template escapes the
// remainder on output.
func (r *Renderer) plain(value string) string {
	if value == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(r.labels.Sanitize(value)))
}

func (r *Renderer) attr(value string) string {
	return html.EscapeString(value)
}

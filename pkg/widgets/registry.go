package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formengine/pkg/engine"
)

// Widget identifiers understood by the bundled renderers.
const (
	WidgetText        = "text"
	WidgetPassword    = "password"
	WidgetEmail       = "email"
	WidgetNumber      = "number"
	WidgetTextarea    = "textarea"
	WidgetToggle      = "toggle"
	WidgetSelect      = "select"
	WidgetRadio       = "radio"
	WidgetMultiSelect = "multi-select"
	WidgetChips       = "chips"
	WidgetRange       = "range"
	WidgetDate        = "date"
	WidgetDateRange   = "date-range"
	WidgetTime        = "time"
	WidgetFile        = "file"
	WidgetLocation    = "location"
	WidgetContact     = "contact"
	WidgetButton      = "button"
)

// AttrWidget lets a schema node pick its widget explicitly.
const AttrWidget = "widget"

// Matcher decides whether a widget should handle the supplied field element.
type Matcher func(field engine.Element) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for field elements based on an explicit widget
// attribute or registered matchers. Higher priority wins; ties fall back to
// registration order.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget for a field element.
func (r *Registry) Resolve(field engine.Element) (string, bool) {
	if explicit, _ := field.Schema[AttrWidget].(string); strings.TrimSpace(explicit) != "" {
		return strings.TrimSpace(explicit), true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// MustResolve resolves a widget, falling back to a plain text input.
func (r *Registry) MustResolve(field engine.Element) string {
	if widget, ok := r.Resolve(field); ok {
		return widget
	}
	return WidgetText
}

func typeIs(types ...string) Matcher {
	return func(field engine.Element) bool {
		for _, t := range types {
			if field.Type == t {
				return true
			}
		}
		return false
	}
}

func flag(field engine.Element, key string) bool {
	value, _ := field.Schema[key].(bool)
	return value
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetButton, 100, typeIs("submit", "reset"))

	r.Register(WidgetPassword, 95, func(field engine.Element) bool {
		inputType, _ := field.Schema["inputType"].(string)
		return field.Type == "text-field" && strings.EqualFold(inputType, "password")
	})
	r.Register(WidgetMultiSelect, 92, func(field engine.Element) bool {
		return field.Type == "select" && flag(field, "multiple")
	})

	r.Register(WidgetToggle, 90, typeIs("switch"))
	r.Register(WidgetRange, 85, typeIs("range-select"))
	r.Register(WidgetChips, 80, typeIs("chips"))
	r.Register(WidgetMultiSelect, 75, typeIs("multi-select", "checkbox", "filter-item-checkbox"))
	r.Register(WidgetRadio, 72, typeIs("radio"))
	r.Register(WidgetSelect, 70, typeIs("select", "select-histogram"))
	r.Register(WidgetDateRange, 65, typeIs("date-range-field"))
	r.Register(WidgetDate, 64, typeIs("date-field"))
	r.Register(WidgetTime, 63, typeIs("time-field"))
	r.Register(WidgetFile, 60, typeIs("file-upload", "image-upload", "e-signature-field"))
	r.Register(WidgetLocation, 55, typeIs("location-field"))
	r.Register(WidgetContact, 54, typeIs("contact-field"))
	r.Register(WidgetNumber, 50, typeIs("numeric-field", "unit-number-field", "histogram-slider"))
	r.Register(WidgetEmail, 45, typeIs("email-field"))
	r.Register(WidgetTextarea, 40, typeIs("textarea"))
	r.Register(WidgetText, 0, func(engine.Element) bool { return true })
}

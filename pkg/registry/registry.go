package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Class partitions the tag namespace.
type Class int

const (
	ClassBuiltinField Class = iota
	ClassBuiltinElement
	ClassCustomField
	ClassCustomElement
)

func (c Class) String() string {
	switch c {
	case ClassBuiltinField:
		return "builtin-field"
	case ClassBuiltinElement:
		return "builtin-element"
	case ClassCustomField:
		return "custom-field"
	case ClassCustomElement:
		return "custom-element"
	default:
		return "unknown"
	}
}

// IsField reports whether the class binds to a store entry.
func (c Class) IsField() bool {
	return c == ClassBuiltinField || c == ClassCustomField
}

// Capability is the outcome of resolving a node.
type Capability int

const (
	CapabilityUnsupported Capability = iota
	CapabilityField
	CapabilityElement
)

func (c Capability) String() string {
	switch c {
	case CapabilityField:
		return "field"
	case CapabilityElement:
		return "element"
	default:
		return "unsupported"
	}
}

// Reconciler sanitises a retained field value after its schema changed. It
// returns the new value and whether it differs from value.
type Reconciler func(node *schema.Node, value any) (any, bool)

// Descriptor is the resolved renderer handle for a tag.
type Descriptor struct {
	Tag       string
	Component string
	Class     Class
	// HTMLTag is set for elements that render as a plain HTML container.
	HTMLTag string
	// Container elements interpret their own children.
	Container bool
	// ValueLess fields (submit/reset) mount but never hold a value.
	ValueLess bool
	Reconcile Reconciler
}

// Resolution is the result of Registry.Resolve.
type Resolution struct {
	Capability Capability
	Descriptor Descriptor
	Tag        string
	// Silent marks unresolved custom tags that must render nothing.
	Silent bool
}

// Registry maps normalised tags to descriptors per class. Lookups are
// case-insensitive.
type Registry struct {
	mu      sync.RWMutex
	entries map[Class]map[string]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: newEntries()}
}

func newEntries() map[Class]map[string]Descriptor {
	return map[Class]map[string]Descriptor{
		ClassBuiltinField:   {},
		ClassBuiltinElement: {},
		ClassCustomField:    {},
		ClassCustomElement:  {},
	}
}

// Clone returns a copy of the registry to allow isolated registrations.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cloned := New()
	for class, tags := range r.entries {
		for tag, descriptor := range tags {
			cloned.entries[class][tag] = descriptor
		}
	}
	return cloned
}

// Register associates a descriptor with tag under class. Existing entries are
// replaced.
func (r *Registry) Register(class Class, tag string, descriptor Descriptor) error {
	if tag = normalize(tag); tag == "" {
		return fmt.Errorf("registry: tag is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tags, ok := r.entries[class]
	if !ok {
		return fmt.Errorf("registry: unknown class %d", class)
	}
	descriptor.Tag = tag
	descriptor.Class = class
	if descriptor.Component == "" {
		descriptor.Component = componentName(tag)
	}
	tags[tag] = descriptor
	return nil
}

// MustRegister mirrors Register but panics on error, simplifying default
// registry setup.
func (r *Registry) MustRegister(class Class, tag string, descriptor Descriptor) {
	if err := r.Register(class, tag, descriptor); err != nil {
		panic(err)
	}
}

// RegisterCustomField registers a host extension that binds to a value.
func (r *Registry) RegisterCustomField(tag string, descriptor Descriptor) error {
	return r.Register(ClassCustomField, tag, descriptor)
}

// RegisterCustomElement registers a host extension for layout or display.
func (r *Registry) RegisterCustomElement(tag string, descriptor Descriptor) error {
	return r.Register(ClassCustomElement, tag, descriptor)
}

// Lookup fetches a descriptor by class and tag.
func (r *Registry) Lookup(class Class, tag string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.entries[class][normalize(tag)]
	return descriptor, ok
}

// Tags returns the sorted tags registered under class.
func (r *Registry) Tags(class Class) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.entries[class]))
	for tag := range r.entries[class] {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Resolve determines how a node is rendered. referenceKey takes precedence
// and misses are silent; uiType misses (and untagged nodes) resolve to the
// visible unsupported placeholder.
func (r *Registry) Resolve(node *schema.Node) Resolution {
	tag, custom := node.Tag()
	if tag == "" {
		return Resolution{Capability: CapabilityUnsupported}
	}
	if custom {
		if descriptor, ok := r.Lookup(ClassCustomField, tag); ok {
			return Resolution{Capability: CapabilityField, Descriptor: descriptor, Tag: tag}
		}
		if descriptor, ok := r.Lookup(ClassCustomElement, tag); ok {
			return Resolution{Capability: CapabilityElement, Descriptor: descriptor, Tag: tag}
		}
		return Resolution{Capability: CapabilityUnsupported, Tag: tag, Silent: true}
	}
	if descriptor, ok := r.Lookup(ClassBuiltinField, tag); ok {
		return Resolution{Capability: CapabilityField, Descriptor: descriptor, Tag: tag}
	}
	if descriptor, ok := r.Lookup(ClassBuiltinElement, tag); ok {
		return Resolution{Capability: CapabilityElement, Descriptor: descriptor, Tag: tag}
	}
	return Resolution{Capability: CapabilityUnsupported, Tag: tag}
}

func normalize(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}

// componentName turns TEXT-FIELD into TextField.
func componentName(tag string) string {
	parts := strings.FieldsFunc(strings.ToLower(tag), func(r rune) bool {
		return r == '-' || r == '_'
	})
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

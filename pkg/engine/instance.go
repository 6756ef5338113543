package engine

import (
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Kind classifies a node of the render tree.
type Kind string

const (
	KindField       Kind = "field"
	KindElement     Kind = "element"
	KindText        Kind = "text"
	KindUnsupported Kind = "unsupported"
)

// instance is the conditional wrapper around one interpreted child. It is
// reused across rebuilds while its id and resolved tag stay the same, so
// mount state and bindings survive unrelated schema changes.
type instance struct {
	id     string
	parent *instance
	path   []int

	node       *schema.Node
	resolution registry.Resolution
	// bare placeholders stand in for missing or malformed children
	// collections and carry no node.
	bare bool

	rawShowIf   any
	rule        visibility.Rule
	ruleErr     error
	cancelWatch func()

	// mounted is the desired state computed by the walker; applied is the
	// state whose side effects (registration, restore) have been executed.
	mounted bool
	applied bool
	alive   bool

	generation uint64

	children []*instance
	text     string
	hasText  bool
}

func (i *instance) kind() Kind {
	if i.bare {
		return KindUnsupported
	}
	switch i.resolution.Capability {
	case registry.CapabilityField:
		return KindField
	case registry.CapabilityElement:
		return KindElement
	default:
		return KindUnsupported
	}
}

func (i *instance) isField() bool {
	return i.kind() == KindField
}

// holdsValue reports whether the instance binds to a store entry.
func (i *instance) holdsValue() bool {
	return i.isField() && !i.resolution.Descriptor.ValueLess
}

func (i *instance) isContainer() bool {
	return i.kind() == KindElement && i.resolution.Descriptor.Container
}

func (i *instance) stopWatching() {
	if i.cancelWatch != nil {
		i.cancelWatch()
		i.cancelWatch = nil
	}
}

func childPath(parent []int, index int) []int {
	path := make([]int, len(parent)+1)
	copy(path, parent)
	path[len(parent)] = index
	return path
}

// comparePaths orders instances by document position.
func comparePaths(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func sameResolution(a, b registry.Resolution) bool {
	return a.Capability == b.Capability &&
		a.Tag == b.Tag &&
		a.Descriptor.Class == b.Descriptor.Class &&
		a.Descriptor.Component == b.Descriptor.Component
}

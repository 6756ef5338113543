package schema

import (
	"sort"
	"strings"
)

// Reserved node keys. Every other key of a node object lands in Attributes.
const (
	KeyUIType       = "uiType"
	KeyReferenceKey = "referenceKey"
	KeyShowIf       = "showIf"
	KeyChildren     = "children"
	KeyID           = "id"
)

// Node is one entry of the form schema. It is tagged either by a built-in
// UIType or by a ReferenceKey pointing at a host-registered extension.
type Node struct {
	UIType       string
	ReferenceKey string
	// ShowIf keeps the raw rule payload; visibility.ParseRule decodes it.
	ShowIf     any
	Children   Children
	Attributes map[string]any
}

// ChildrenKind enumerates the shapes a node's children may take.
type ChildrenKind int

const (
	// ChildrenNone marks an absent children value.
	ChildrenNone ChildrenKind = iota
	// ChildrenText marks literal text content.
	ChildrenText
	// ChildrenNodes marks an ordered keyed collection of child nodes.
	ChildrenNodes
	// ChildrenInvalid marks a children value of an unusable shape.
	ChildrenInvalid
)

func (k ChildrenKind) String() string {
	switch k {
	case ChildrenNone:
		return "none"
	case ChildrenText:
		return "text"
	case ChildrenNodes:
		return "nodes"
	default:
		return "invalid"
	}
}

// Children is the ordered content of a container node.
type Children struct {
	Kind    ChildrenKind
	Text    string
	Entries []Entry
}

// Entry is a keyed child. Node is nil for malformed entries (null, empty or
// non-object values); walkers skip those.
type Entry struct {
	ID   string
	Node *Node
}

// TextChildren returns literal text children.
func TextChildren(text string) Children {
	return Children{Kind: ChildrenText, Text: text}
}

// NodeChildren returns keyed children in the given order.
func NodeChildren(entries ...Entry) Children {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return Children{Kind: ChildrenNodes, Entries: out}
}

// IDs lists the child ids in declaration order.
func (c Children) IDs() []string {
	if c.Kind != ChildrenNodes {
		return nil
	}
	ids := make([]string, 0, len(c.Entries))
	for _, entry := range c.Entries {
		ids = append(ids, entry.ID)
	}
	return ids
}

// Lookup returns the child registered under id.
func (c Children) Lookup(id string) (*Node, bool) {
	for _, entry := range c.Entries {
		if entry.ID == id {
			return entry.Node, entry.Node != nil
		}
	}
	return nil, false
}

// Clone returns a deep copy.
func (c Children) Clone() Children {
	out := Children{Kind: c.Kind, Text: c.Text}
	if c.Entries != nil {
		out.Entries = make([]Entry, len(c.Entries))
		for i, entry := range c.Entries {
			out.Entries[i] = Entry{ID: entry.ID, Node: entry.Node.Clone()}
		}
	}
	return out
}

// Tag returns the upper-cased tag used for registry lookups and whether the
// node is tagged as a custom extension.
func (n *Node) Tag() (tag string, custom bool) {
	if n == nil {
		return "", false
	}
	if ref := strings.TrimSpace(n.ReferenceKey); ref != "" {
		return strings.ToUpper(ref), true
	}
	return strings.ToUpper(strings.TrimSpace(n.UIType)), false
}

// Attr returns an attribute value.
func (n *Node) Attr(key string) (any, bool) {
	if n == nil || n.Attributes == nil {
		return nil, false
	}
	value, ok := n.Attributes[key]
	return value, ok
}

// String returns a string attribute or "" when absent or not a string.
func (n *Node) String(key string) string {
	value, _ := n.Attr(key)
	text, _ := value.(string)
	return text
}

// Label returns the human label of the node.
func (n *Node) Label() string {
	return n.String("label")
}

// HasShowIf reports whether a conditional rule is declared.
func (n *Node) HasShowIf() bool {
	return n != nil && n.ShowIf != nil
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	return &Node{
		UIType:       n.UIType,
		ReferenceKey: n.ReferenceKey,
		ShowIf:       CloneValue(n.ShowIf),
		Children:     n.Children.Clone(),
		Attributes:   cloneMap(n.Attributes),
	}
}

// Map renders the node back into its wire representation. Keyed children are
// emitted as a map, so their order is only recoverable through Children.
func (n *Node) Map() map[string]any {
	if n == nil {
		return nil
	}
	out := cloneMap(n.Attributes)
	if out == nil {
		out = make(map[string]any)
	}
	if n.UIType != "" {
		out[KeyUIType] = n.UIType
	}
	if n.ReferenceKey != "" {
		out[KeyReferenceKey] = n.ReferenceKey
	}
	if n.ShowIf != nil {
		out[KeyShowIf] = CloneValue(n.ShowIf)
	}
	switch n.Children.Kind {
	case ChildrenText:
		out[KeyChildren] = n.Children.Text
	case ChildrenNodes:
		children := make(map[string]any, len(n.Children.Entries))
		for _, entry := range n.Children.Entries {
			if entry.Node == nil {
				children[entry.ID] = nil
				continue
			}
			children[entry.ID] = entry.Node.Map()
		}
		out[KeyChildren] = children
	}
	return out
}

// NodeFromMap builds a node from a plain map. Nested keyed children are
// ordered by key since Go maps carry no declaration order; use Decode for
// order-preserving input.
func NodeFromMap(raw map[string]any) *Node {
	if raw == nil {
		return nil
	}
	return nodeFromValue(raw)
}

// CloneValue deep-copies decoded JSON-like values.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = CloneValue(value)
	}
	return out
}

func sortedKeys(in map[string]any) []string {
	keys := make([]string, 0, len(in))
	for key := range in {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

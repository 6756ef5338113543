// Package overrides merges partial schema overrides into declared children
// before they are interpreted.
package overrides

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Error reports malformed override documents.
type Error struct {
	Path    string
	Message string
}

func (e Error) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "invalid overrides"
	}
	if strings.TrimSpace(e.Path) == "" {
		return "overrides: " + msg
	}
	return fmt.Sprintf("overrides: %s (%s)", msg, e.Path)
}

// Parse decodes a JSON or YAML override map.
func Parse(raw []byte) (map[string]any, error) {
	parsed, err := schema.DecodeOverrides(raw)
	if err != nil {
		var decodeErr *schema.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, Error{Path: decodeErr.Path, Message: decodeErr.Err.Error()}
		}
		return nil, Error{Message: err.Error()}
	}
	return parsed, nil
}

// Apply returns children with every matching override merged in. Children
// are returned unchanged when overrides is empty or children is literal text.
// The input is never modified.
func Apply(children schema.Children, overrides map[string]any) schema.Children {
	if len(overrides) == 0 || children.Kind != schema.ChildrenNodes {
		return children
	}

	var out schema.Children
	copied := false
	for i, entry := range children.Entries {
		matches := Find(overrides, entry.ID)
		if len(matches) == 0 {
			continue
		}
		if !copied {
			out = schema.Children{Kind: schema.ChildrenNodes, Entries: append([]schema.Entry(nil), children.Entries...)}
			copied = true
		}
		node := entry.Node
		for _, match := range matches {
			if node == nil {
				node = schema.NodeFromMap(match)
				continue
			}
			node = node.Merge(match)
		}
		out.Entries[i] = schema.Entry{ID: entry.ID, Node: node}
	}
	if !copied {
		return children
	}
	return out
}

// Find searches overrides at any depth for object values keyed by id and
// returns them in depth-first order, visiting keys alphabetically at each
// level. Matches nested inside a match are reported after it.
func Find(overrides map[string]any, id string) []map[string]any {
	if id == "" || len(overrides) == 0 {
		return nil
	}
	var matches []map[string]any
	var walk func(node map[string]any)
	walk = func(node map[string]any) {
		keys := make([]string, 0, len(node))
		for key := range node {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			child, ok := node[key].(map[string]any)
			if !ok {
				continue
			}
			if key == id && len(child) > 0 {
				matches = append(matches, child)
			}
			walk(child)
		}
	}
	walk(overrides)
	return matches
}

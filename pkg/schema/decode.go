package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DecodeError reports a payload that could not be turned into a schema.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path == "" {
		return fmt.Sprintf("schema: decode: %v", e.Err)
	}
	return fmt.Sprintf("schema: decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// orderedMap keeps object keys in declaration order while decoding.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func newOrderedMap() *orderedMap {
	return &orderedMap{values: make(map[string]any)}
}

func (m *orderedMap) set(key string, value any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// decodeOrdered parses JSON or YAML into plain values with objects kept as
// *orderedMap. JSON is attempted first; YAML is the fallback.
func decodeOrdered(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Err: errors.New("empty payload")}
	}

	value, jsonErr := decodeOrderedJSON(trimmed)
	if jsonErr == nil {
		return value, nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		// Flow-style YAML is a superset of JSON, so give it a chance before
		// reporting the JSON error.
		if value, yamlErr := decodeOrderedYAML(trimmed); yamlErr == nil {
			return value, nil
		}
		return nil, &DecodeError{Err: jsonErr}
	}

	value, yamlErr := decodeOrderedYAML(trimmed)
	if yamlErr != nil {
		return nil, &DecodeError{Err: fmt.Errorf("parse as JSON (%v) or YAML: %w", jsonErr, yamlErr)}
	}
	return value, nil
}

func decodeOrderedJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	value, err := readJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected trailing data")
	}
	return value, nil
}

func readJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return readJSONToken(dec, tok)
}

func readJSONToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj := newOrderedMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key must be a string, got %T", keyTok)
				}
				value, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			list := make([]any, 0)
			for dec.More() {
				value, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(v))
		}
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case float64:
		return v, nil
	case string, bool, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

func decodeOrderedYAML(raw []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, errors.New("empty YAML document")
	}
	return yamlValue(&doc)
}

func yamlValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return yamlValue(node.Content[0])
	case yaml.AliasNode:
		return yamlValue(node.Alias)
	case yaml.MappingNode:
		obj := newOrderedMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valueNode := node.Content[i], node.Content[i+1]
			if keyNode.Tag == "!!merge" {
				merged, err := yamlValue(valueNode)
				if err != nil {
					return nil, err
				}
				if src, ok := merged.(*orderedMap); ok {
					for _, key := range src.keys {
						obj.set(key, src.values[key])
					}
				}
				continue
			}
			value, err := yamlValue(valueNode)
			if err != nil {
				return nil, err
			}
			obj.set(keyNode.Value, value)
		}
		return obj, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil
	case yaml.ScalarNode:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, err
		}
		return normalizeScalar(value), nil
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", node.Kind)
	}
}

// normalizeScalar collapses YAML's integer types onto float64 so JSON and
// YAML documents yield identical values.
func normalizeScalar(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return v
	}
}

// plain converts decoded values into maps, slices and scalars.
func plain(value any) any {
	switch v := value.(type) {
	case *orderedMap:
		out := make(map[string]any, len(v.keys))
		for _, key := range v.keys {
			out[key] = plain(v.values[key])
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item)
		}
		return out
	default:
		return CloneValue(v)
	}
}

// DecodeNode parses a single node from JSON or YAML.
func DecodeNode(raw []byte) (*Node, error) {
	value, err := decodeOrdered(raw)
	if err != nil {
		return nil, err
	}
	node := nodeFromValue(value)
	if node == nil {
		return nil, &DecodeError{Err: errors.New("node must be a non-empty object")}
	}
	return node, nil
}

// DecodeChildren parses a children payload (object, array or text).
func DecodeChildren(raw []byte) (Children, error) {
	value, err := decodeOrdered(raw)
	if err != nil {
		return Children{}, err
	}
	return childrenFromValue(value), nil
}

func nodeFromValue(value any) *Node {
	var (
		keys   []string
		lookup func(string) any
	)
	switch v := value.(type) {
	case *orderedMap:
		keys = v.keys
		lookup = func(key string) any { return v.values[key] }
	case map[string]any:
		keys = sortedKeys(v)
		lookup = func(key string) any { return v[key] }
	default:
		return nil
	}
	if len(keys) == 0 {
		return nil
	}

	node := &Node{}
	for _, key := range keys {
		raw := lookup(key)
		switch key {
		case KeyUIType:
			node.UIType, _ = raw.(string)
		case KeyReferenceKey:
			node.ReferenceKey, _ = raw.(string)
		case KeyShowIf:
			node.ShowIf = plain(raw)
		case KeyChildren:
			node.Children = childrenFromValue(raw)
		default:
			if node.Attributes == nil {
				node.Attributes = make(map[string]any)
			}
			node.Attributes[key] = plain(raw)
		}
	}
	return node
}

func childrenFromValue(value any) Children {
	switch v := value.(type) {
	case nil:
		return Children{Kind: ChildrenNone}
	case string:
		return TextChildren(v)
	case *orderedMap:
		entries := make([]Entry, 0, len(v.keys))
		for _, key := range v.keys {
			entries = append(entries, Entry{ID: key, Node: nodeFromValue(v.values[key])})
		}
		return Children{Kind: ChildrenNodes, Entries: entries}
	case map[string]any:
		entries := make([]Entry, 0, len(v))
		for _, key := range sortedKeys(v) {
			entries = append(entries, Entry{ID: key, Node: nodeFromValue(v[key])})
		}
		return Children{Kind: ChildrenNodes, Entries: entries}
	case []any:
		entries := make([]Entry, 0, len(v))
		for i, item := range v {
			entries = append(entries, arrayEntry(i, item))
		}
		return Children{Kind: ChildrenNodes, Entries: entries}
	default:
		return Children{Kind: ChildrenInvalid}
	}
}

// arrayEntry lifts the "id" key of an array child into the entry id. Items
// without one fall back to their position.
func arrayEntry(index int, item any) Entry {
	id := strconv.Itoa(index)
	node := nodeFromValue(item)
	if node != nil {
		if raw, ok := node.Attributes[KeyID].(string); ok && strings.TrimSpace(raw) != "" {
			id = raw
			delete(node.Attributes, KeyID)
			if len(node.Attributes) == 0 {
				node.Attributes = nil
			}
		}
		if node.UIType == "" && node.ReferenceKey == "" && node.ShowIf == nil &&
			node.Children.Kind == ChildrenNone && len(node.Attributes) == 0 {
			node = nil
		}
	}
	return Entry{ID: id, Node: node}
}

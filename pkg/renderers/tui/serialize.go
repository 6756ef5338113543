package tui

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		form := url.Values{}
		flatten("", values, form)
		return []byte(form.Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyValues(values)), nil
	default:
		payload, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: marshal values: %w", err)
		}
		return payload, nil
	}
}

// flatten writes nested maps as dotted keys and lists as repeated keys.
func flatten(prefix string, value any, out url.Values) {
	switch typed := value.(type) {
	case map[string]any:
		for key, item := range typed {
			name := key
			if prefix != "" {
				name = prefix + "." + key
			}
			flatten(name, item, out)
		}
	case []any:
		for _, item := range typed {
			flatten(prefix, item, out)
		}
	case nil:
		out.Add(prefix, "")
	default:
		out.Add(prefix, formatValue(typed))
	}
}

func prettyValues(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s: %s\n", key, formatValue(values[key]))
	}
	return b.String()
}

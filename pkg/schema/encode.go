package schema

import (
	"bytes"

	"github.com/goccy/go-json"
)

// MarshalJSON writes keyed children as an object in declaration order.
func (c Children) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ChildrenText:
		return json.Marshal(c.Text)
	case ChildrenNodes:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, entry := range c.Entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(entry.ID)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if entry.Node == nil {
				buf.WriteString("null")
				continue
			}
			value, err := entry.Node.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(value)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}

// MarshalJSON writes the tag first, then attributes in key order, then
// children.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	w := &objectWriter{}
	if n.UIType != "" {
		w.field(KeyUIType, n.UIType)
	}
	if n.ReferenceKey != "" {
		w.field(KeyReferenceKey, n.ReferenceKey)
	}
	for _, key := range sortedKeys(n.Attributes) {
		w.field(key, n.Attributes[key])
	}
	if n.ShowIf != nil {
		w.field(KeyShowIf, n.ShowIf)
	}
	if n.Children.Kind == ChildrenText || n.Children.Kind == ChildrenNodes {
		w.field(KeyChildren, n.Children)
	}
	return w.bytes()
}

// MarshalJSON writes the document in the wire shape DecodeDocument reads.
func (d Document) MarshalJSON() ([]byte, error) {
	w := &objectWriter{}
	if d.ID != "" {
		w.field("id", d.ID)
	}
	if d.ClassName != "" {
		w.field("className", d.ClassName)
	}
	w.field("sections", d.Sections)
	if len(d.DefaultValues) > 0 {
		w.field("defaultValues", d.DefaultValues)
	}
	if len(d.Overrides) > 0 {
		w.field("overrides", d.Overrides)
	}
	if d.RestoreMode != "" && d.RestoreMode != RestoreNone {
		w.field("restoreMode", string(d.RestoreMode))
	}
	if d.StripUnknown {
		w.field("stripUnknown", true)
	}
	return w.bytes()
}

// EncodeDocument renders doc as indented JSON.
func EncodeDocument(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

type objectWriter struct {
	buf bytes.Buffer
	n   int
	err error
}

func (w *objectWriter) field(key string, value any) {
	if w.err != nil {
		return
	}
	encodedKey, err := json.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	encodedValue, err := json.Marshal(value)
	if err != nil {
		w.err = err
		return
	}
	if w.n == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}
	w.n++
	w.buf.Write(encodedKey)
	w.buf.WriteByte(':')
	w.buf.Write(encodedValue)
}

func (w *objectWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.n == 0 {
		return []byte("{}"), nil
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

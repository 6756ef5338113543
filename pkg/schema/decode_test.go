package schema_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
)

func TestDecodeDocument_JSONPreservesChildOrder(t *testing.T) {
	raw := []byte(`{
		"id": "signup",
		"restoreMode": "default-value",
		"defaultValues": {"email": "a@b.c"},
		"sections": {
			"main": {
				"uiType": "section",
				"children": {
					"zeta": {"uiType": "text-field", "label": "Zeta"},
					"alpha": {"uiType": "email-field", "label": "Email"},
					"mid": {"uiType": "div", "children": "hello"}
				}
			}
		}
	}`)

	doc, err := schema.DecodeDocument(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ID != "signup" {
		t.Fatalf("id mismatch: %q", doc.ID)
	}
	if doc.RestoreMode != schema.RestoreDefault {
		t.Fatalf("restore mode mismatch: %q", doc.RestoreMode)
	}
	if got, _ := doc.Default("email"); got != "a@b.c" {
		t.Fatalf("default mismatch: %#v", got)
	}

	main, ok := doc.Sections.Lookup("main")
	if !ok {
		t.Fatalf("section main missing")
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, main.Children.IDs()); diff != "" {
		t.Fatalf("child order mismatch (-want +got):\n%s", diff)
	}
	mid, _ := main.Children.Lookup("mid")
	if mid.Children.Kind != schema.ChildrenText || mid.Children.Text != "hello" {
		t.Fatalf("expected text children, got %#v", mid.Children)
	}
	alpha, _ := main.Children.Lookup("alpha")
	if alpha.Label() != "Email" {
		t.Fatalf("label mismatch: %q", alpha.Label())
	}
}

func TestDecodeDocument_YAMLMatchesJSON(t *testing.T) {
	jsonRaw := []byte(`{"sections":{"s":{"uiType":"section","children":{"b":{"uiType":"numeric-field","validation":[{"min":2}]},"a":{"uiType":"text-field"}}}}}`)
	yamlRaw := []byte(`
sections:
  s:
    uiType: section
    children:
      b:
        uiType: numeric-field
        validation:
          - min: 2
      a:
        uiType: text-field
`)

	fromJSON, err := schema.DecodeDocument(jsonRaw)
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	fromYAML, err := schema.DecodeDocument(yamlRaw)
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Fatalf("documents differ (-json +yaml):\n%s", diff)
	}
}

func TestDecodeDocument_Envelope(t *testing.T) {
	doc, err := schema.DecodeDocument([]byte(`{"data":{"id":"wrapped","sections":{}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ID != "wrapped" {
		t.Fatalf("expected enveloped id, got %q", doc.ID)
	}
	if doc.Sections.Kind != schema.ChildrenNodes || len(doc.Sections.Entries) != 0 {
		t.Fatalf("expected empty keyed sections, got %#v", doc.Sections)
	}
}

func TestDecodeDocument_Errors(t *testing.T) {
	cases := map[string]string{
		"missing sections": `{"id":"x"}`,
		"bad restore":      `{"sections":{},"restoreMode":"sometimes"}`,
		"bad defaults":     `{"sections":{},"defaultValues":[1,2]}`,
		"not an object":    `[1,2,3]`,
		"empty":            `   `,
	}
	for name, raw := range cases {
		name, raw := name, raw
		t.Run(name, func(t *testing.T) {
			_, err := schema.DecodeDocument([]byte(raw))
			if err == nil {
				t.Fatalf("expected error")
			}
			var decodeErr *schema.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected DecodeError, got %T: %v", err, err)
			}
		})
	}
}

func TestDecodeChildren_ArrayAndHoles(t *testing.T) {
	children, err := schema.DecodeChildren([]byte(`[
		{"id": "first", "uiType": "text-field"},
		null,
		{"uiType": "divider"},
		{"id": "empty"}
	]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"first", "1", "2", "empty"}, children.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if children.Entries[1].Node != nil {
		t.Fatalf("expected null entry to be a hole")
	}
	if children.Entries[3].Node != nil {
		t.Fatalf("expected id-only entry to be a hole")
	}
	first := children.Entries[0].Node
	if _, ok := first.Attr("id"); ok {
		t.Fatalf("array id should be lifted out of attributes")
	}
}

func TestDecodeChildren_InvalidShape(t *testing.T) {
	children, err := schema.DecodeChildren([]byte(`42`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if children.Kind != schema.ChildrenInvalid {
		t.Fatalf("expected invalid children, got %s", children.Kind)
	}
}

func TestNodeTag(t *testing.T) {
	cases := []struct {
		node       *schema.Node
		wantTag    string
		wantCustom bool
	}{
		{&schema.Node{UIType: "text-field"}, "TEXT-FIELD", false},
		{&schema.Node{ReferenceKey: "filter"}, "FILTER", true},
		{&schema.Node{UIType: "div", ReferenceKey: "Filter-Item"}, "FILTER-ITEM", true},
		{&schema.Node{}, "", false},
	}
	for _, tc := range cases {
		tag, custom := tc.node.Tag()
		if tag != tc.wantTag || custom != tc.wantCustom {
			t.Fatalf("Tag() = %q/%v, want %q/%v", tag, custom, tc.wantTag, tc.wantCustom)
		}
	}
}

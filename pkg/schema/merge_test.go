package schema_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
)

func TestNodeMerge_DoesNotMutateReceiver(t *testing.T) {
	base, err := schema.DecodeNode([]byte(`{
		"uiType": "select",
		"label": "Fruit",
		"options": [{"label": "Apple", "value": "Apple"}],
		"customOptions": {"styleType": "link", "nested": {"a": 1}}
	}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	before := base.Clone()

	merged := base.Merge(map[string]any{
		"label":         "Pick one",
		"options":       []any{map[string]any{"label": "Cherry", "value": "Cherry"}},
		"customOptions": map[string]any{"nested": map[string]any{"b": 2.0}},
	})

	if diff := cmp.Diff(before, base); diff != "" {
		t.Fatalf("receiver mutated (-before +after):\n%s", diff)
	}
	if merged.Label() != "Pick one" {
		t.Fatalf("label not overridden: %q", merged.Label())
	}
	wantOptions := []any{map[string]any{"label": "Cherry", "value": "Cherry"}}
	if diff := cmp.Diff(wantOptions, merged.Attributes["options"]); diff != "" {
		t.Fatalf("arrays should be replaced (-want +got):\n%s", diff)
	}
	wantCustom := map[string]any{
		"styleType": "link",
		"nested":    map[string]any{"a": 1.0, "b": 2.0},
	}
	if diff := cmp.Diff(wantCustom, merged.Attributes["customOptions"]); diff != "" {
		t.Fatalf("maps should deep merge (-want +got):\n%s", diff)
	}
}

func TestNodeMerge_Children(t *testing.T) {
	base, err := schema.DecodeNode([]byte(`{
		"uiType": "div",
		"children": {
			"b": {"uiType": "text-field", "label": "B"},
			"a": {"uiType": "text-field", "label": "A"}
		}
	}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	merged := base.Merge(map[string]any{
		"children": map[string]any{
			"a": map[string]any{"label": "A2"},
			"d": map[string]any{"uiType": "divider"},
			"c": map[string]any{"uiType": "divider"},
		},
	})

	if diff := cmp.Diff([]string{"b", "a", "c", "d"}, merged.Children.IDs()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	a, _ := merged.Children.Lookup("a")
	if a.Label() != "A2" || a.UIType != "text-field" {
		t.Fatalf("child merge failed: %#v", a)
	}

	text := base.Merge(map[string]any{"children": "replaced"})
	if text.Children.Kind != schema.ChildrenText || text.Children.Text != "replaced" {
		t.Fatalf("expected text children, got %#v", text.Children)
	}
}

func TestNodeMerge_ShowIfReplaced(t *testing.T) {
	base := &schema.Node{UIType: "text-field", ShowIf: []any{map[string]any{"x": []any{map[string]any{"filled": true}}}}}
	merged := base.Merge(map[string]any{"showIf": []any{map[string]any{"y": []any{map[string]any{"empty": true}}}}})

	want := []any{map[string]any{"y": []any{map[string]any{"empty": true}}}}
	if diff := cmp.Diff(want, merged.ShowIf); diff != "" {
		t.Fatalf("showIf mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeMaps(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": 1.0}, "b": "keep"}
	got := schema.MergeMaps(base, map[string]any{"a": map[string]any{"y": 2.0}})
	want := map[string]any{"a": map[string]any{"x": 1.0, "y": 2.0}, "b": "keep"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
	if _, ok := base["a"].(map[string]any)["y"]; ok {
		t.Fatalf("base mutated")
	}
}

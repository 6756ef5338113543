package registry_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/schema"
)

func TestResolve_Order(t *testing.T) {
	t.Parallel()

	reg := registry.Default()
	cases := []struct {
		name       string
		node       *schema.Node
		capability registry.Capability
		component  string
		silent     bool
	}{
		{"builtin field lower case", &schema.Node{UIType: "text-field"}, registry.CapabilityField, "TextField", false},
		{"builtin field mixed case", &schema.Node{UIType: "Range-Select"}, registry.CapabilityField, "RangeSelect", false},
		{"builtin element", &schema.Node{UIType: "section"}, registry.CapabilityElement, "Section", false},
		{"html wrapper", &schema.Node{UIType: "div"}, registry.CapabilityElement, "Wrapper", false},
		{"custom field", &schema.Node{ReferenceKey: "filter-item-checkbox"}, registry.CapabilityField, "FilterItemCheckbox", false},
		{"custom element", &schema.Node{ReferenceKey: "filter"}, registry.CapabilityElement, "Filter", false},
		{"unknown builtin", &schema.Node{UIType: "not-a-real-type"}, registry.CapabilityUnsupported, "", false},
		{"unknown custom", &schema.Node{ReferenceKey: "map-widget"}, registry.CapabilityUnsupported, "", true},
		{"reference wins over uiType", &schema.Node{UIType: "text-field", ReferenceKey: "missing"}, registry.CapabilityUnsupported, "", true},
		{"untagged", &schema.Node{Attributes: map[string]any{"label": "x"}}, registry.CapabilityUnsupported, "", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := reg.Resolve(tc.node)
			if got.Capability != tc.capability {
				t.Fatalf("capability = %s, want %s", got.Capability, tc.capability)
			}
			if got.Descriptor.Component != tc.component {
				t.Fatalf("component = %q, want %q", got.Descriptor.Component, tc.component)
			}
			if got.Silent != tc.silent {
				t.Fatalf("silent = %v, want %v", got.Silent, tc.silent)
			}
		})
	}
}

func TestRegister_CustomOnClone(t *testing.T) {
	t.Parallel()

	reg := registry.NewDefault()
	if err := reg.RegisterCustomField("map-picker", registry.Descriptor{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	got := reg.Resolve(&schema.Node{ReferenceKey: "MAP-picker"})
	if got.Capability != registry.CapabilityField || got.Descriptor.Class != registry.ClassCustomField {
		t.Fatalf("custom field not resolved: %#v", got)
	}
	if _, ok := registry.Default().Lookup(registry.ClassCustomField, "map-picker"); ok {
		t.Fatalf("registration leaked into the shared default registry")
	}
	if err := reg.Register(registry.ClassCustomElement, "  ", registry.Descriptor{}); err == nil {
		t.Fatalf("expected error for empty tag")
	}
}

func TestDescriptorFlags(t *testing.T) {
	t.Parallel()

	reg := registry.Default()
	submit, _ := reg.Lookup(registry.ClassBuiltinField, "submit")
	if !submit.ValueLess {
		t.Fatalf("submit should not hold a value")
	}
	div, _ := reg.Lookup(registry.ClassBuiltinElement, "DIV")
	if !div.Container || div.HTMLTag != "div" {
		t.Fatalf("div descriptor mismatch: %#v", div)
	}
	divider, _ := reg.Lookup(registry.ClassBuiltinElement, "divider")
	if divider.Container {
		t.Fatalf("divider should not recurse")
	}
}

func rangeNode(from, to []string) *schema.Node {
	opts := func(values []string) []any {
		out := make([]any, 0, len(values))
		for _, v := range values {
			out = append(out, map[string]any{"label": v[:1], "value": v})
		}
		return out
	}
	return &schema.Node{
		UIType: "range-select",
		Attributes: map[string]any{
			"options": map[string]any{"from": opts(from), "to": opts(to)},
		},
	}
}

func TestReconcileRangeOption(t *testing.T) {
	t.Parallel()

	value := map[string]any{"from": "Apple", "to": "Cherry"}

	got, changed := registry.ReconcileRangeOption(rangeNode([]string{"Apple", "Banana"}, []string{"Cherry", "Eggplant"}), value)
	if changed {
		t.Fatalf("retained options must not change the value")
	}
	if diff := cmp.Diff(value, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	got, changed = registry.ReconcileRangeOption(rangeNode([]string{"Apple", "Banana"}, []string{"Eggplant"}), value)
	if !changed {
		t.Fatalf("expected removed option to change the value")
	}
	if diff := cmp.Diff(map[string]any{"from": "Apple", "to": ""}, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if value["to"] != "Cherry" {
		t.Fatalf("input value mutated")
	}
}

func TestReconcileSingleAndMulti(t *testing.T) {
	t.Parallel()

	node := &schema.Node{UIType: "select", Attributes: map[string]any{
		"options": []any{map[string]any{"label": "A", "value": "a"}, map[string]any{"label": "B", "value": "b"}},
	}}

	if _, changed := registry.ReconcileSingleOption(node, "a"); changed {
		t.Fatalf("kept option should not change")
	}
	if got, changed := registry.ReconcileSingleOption(node, "z"); !changed || got != "" {
		t.Fatalf("removed option should clear: %#v %v", got, changed)
	}
	if _, changed := registry.ReconcileSingleOption(node, ""); changed {
		t.Fatalf("empty value should be left alone")
	}

	got, changed := registry.ReconcileMultiOption(node, []any{"a", "z", "b"})
	if !changed {
		t.Fatalf("expected multi selection to shrink")
	}
	if diff := cmp.Diff([]any{"a", "b"}, got); diff != "" {
		t.Fatalf("multi mismatch (-want +got):\n%s", diff)
	}

	noOptions := &schema.Node{UIType: "select"}
	if _, changed := registry.ReconcileSingleOption(noOptions, "z"); changed {
		t.Fatalf("fields without options must not be reconciled")
	}
}

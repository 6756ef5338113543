package vanilla

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOptionList(t *testing.T) {
	t.Parallel()

	raw := []any{
		map[string]any{"label": "Apple", "value": "a"},
		map[string]any{"label": "no value"},
		"b",
		map[string]any{"value": 3.0},
	}
	want := []map[string]any{
		{"label": "Apple", "value": "a", "selected": false},
		{"label": "b", "value": "b", "selected": true},
		{"label": "3", "value": "3", "selected": true},
	}
	if diff := cmp.Diff(want, optionList(raw, []any{"b", 3.0})); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestCSSVarsStyle(t *testing.T) {
	t.Parallel()

	got := cssVarsStyle(map[string]string{"b": "1px", "--a": "red;}</style>"})
	want := ".formengine-form {\n--a: red/style;\n--b: 1px;\n}"
	if got != want {
		t.Fatalf("cssVarsStyle = %q, want %q", got, want)
	}
}

func TestComponentControlID(t *testing.T) {
	t.Parallel()

	if got := componentControlID(" first name "); got != "fe-first-name" {
		t.Fatalf("componentControlID = %q", got)
	}
	if got := sanitizeClassList("fe-internal custom  wide"); got != "custom wide" {
		t.Fatalf("sanitizeClassList = %q", got)
	}
}

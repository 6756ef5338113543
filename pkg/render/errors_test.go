package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
)

func sampleTree() engine.Element {
	return engine.Element{
		Kind: engine.KindElement,
		Children: []engine.Element{{
			ID:   "main",
			Kind: engine.KindElement,
			Children: []engine.Element{
				{ID: "name", Kind: engine.KindField, Type: "text-field", Schema: map[string]any{"label": "Name", "labelKey": "fields.name"}},
				{ID: "price.range", Kind: engine.KindField, Type: "range-select"},
				{Kind: engine.KindText, Text: "Fine print"},
			},
			Schema: map[string]any{"textKey": "main.text"},
		}},
	}
}

func TestMapErrorPayload(t *testing.T) {
	t.Parallel()

	mapping := render.MapErrorPayload(sampleTree(), map[string][]string{
		"/data/name":       {"Name is taken", " Name is taken "},
		"price.range.to":   {"Pick an end"},
		"#/unknown":        {"Something broke"},
		"non_field_errors": {"Try again"},
		"empty":            {"  "},
	})

	wantFields := map[string][]string{
		"name":        {"Name is taken"},
		"price.range": {"Pick an end"},
	}
	if diff := cmp.Diff(wantFields, mapping.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Something broke", "Try again"}, mapping.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	t.Parallel()

	got := render.MergeFormErrors([]string{"a", " b "}, "a", "", "c")
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmissionErrors(t *testing.T) {
	t.Parallel()

	got := render.SubmissionErrors(engine.Submission{Errors: map[string]string{"email": "Required"}})
	if diff := cmp.Diff(map[string][]string{"email": {"Required"}}, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if render.SubmissionErrors(engine.Submission{}) != nil {
		t.Fatalf("expected nil payload without errors")
	}
}

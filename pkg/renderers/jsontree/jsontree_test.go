package jsontree_test

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/jsontree"
	"github.com/goliatone/go-formengine/pkg/testsupport"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

const doc = `{
	"id": "contact",
	"sections": {
		"main": {
			"uiType": "section",
			"children": {
				"name": {"uiType": "text-field", "label": "Name"},
				"topic": {"uiType": "radio", "options": ["sales", "support"]}
			}
		}
	},
	"defaultValues": {"name": "Ada"}
}`

func TestRender_Payload(t *testing.T) {
	t.Parallel()

	form := testsupport.NewForm(t, testsupport.MustDecodeDocument(t, doc))
	renderer := jsontree.New(jsontree.WithWidgets(widgets.NewRegistry()), jsontree.WithIndent("  "))

	out, err := renderer.Render(context.Background(), form.Tree(), render.RenderOptions{
		Action: "/contact",
		Method: "patch",
		Hidden: map[string]string{"csrf": "tok"},
		Errors: map[string][]string{"name": {"too short"}, "__all__": {"later"}},
		Theme:  &theme.RendererConfig{Theme: "acme", CSSVars: map[string]string{"--gap": "1rem"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var payload jsontree.Payload
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("decode payload: %v\n%s", err, out)
	}

	if payload.ID != "contact" || payload.Method != "PATCH" || payload.Action != "/contact" {
		t.Fatalf("unexpected header: %+v", payload)
	}
	wantErrors := &jsontree.Errors{Form: []string{"later"}, Fields: map[string][]string{"name": {"too short"}}}
	if diff := cmp.Diff(wantErrors, payload.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	wantWidgets := map[string]string{"name": widgets.WidgetText, "topic": widgets.WidgetRadio}
	if diff := cmp.Diff(wantWidgets, payload.Widgets); diff != "" {
		t.Fatalf("widgets mismatch (-want +got):\n%s", diff)
	}
	if payload.Theme == nil || payload.Theme.Name != "acme" || payload.Theme.CSSVars["--gap"] != "1rem" {
		t.Fatalf("theme not carried: %+v", payload.Theme)
	}

	fields := payload.Tree.Fields()
	if len(fields) != 2 || fields[0].ID != "name" || fields[0].Value != "Ada" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestRender_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := jsontree.New().Render(ctx, testsupport.NewForm(t, testsupport.MustDecodeDocument(t, doc)).Tree(), render.RenderOptions{}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

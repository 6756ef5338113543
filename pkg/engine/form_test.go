package engine_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/store"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

func decode(t *testing.T, raw string) schema.Document {
	t.Helper()
	doc, err := schema.DecodeDocument([]byte(raw))
	if err != nil {
		t.Fatalf("decode document: %v", err)
	}
	return doc
}

func newForm(t *testing.T, raw string, options ...engine.Option) *engine.Form {
	t.Helper()
	form, err := engine.New(decode(t, raw), options...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	t.Cleanup(func() { _ = form.Close() })
	return form
}

func set(t *testing.T, form *engine.Form, id string, value any) {
	t.Helper()
	if err := form.SetValue(id, value); err != nil {
		t.Fatalf("set %s: %v", id, err)
	}
}

func valueOf(form *engine.Form, id string) any {
	value, _ := form.Value(id)
	return value
}

// outline flattens the mounted tree into kind/id pairs in document order.
func outline(el engine.Element) []string {
	out := []string{string(el.Kind) + "/" + el.ID}
	for _, child := range el.Children {
		out = append(out, outline(child)...)
	}
	return out
}

const basicDoc = `{
	"id": "profile",
	"sections": {
		"main": {
			"uiType": "section",
			"children": {
				"intro": {"uiType": "text-body", "children": "Hello"},
				"name": {"uiType": "text-field", "label": "Name"},
				"hole": null,
				"ext": {"referenceKey": "map-widget"},
				"bogus": {"uiType": "not-a-real-type"},
				"age": {"uiType": "numeric-field"}
			}
		}
	}
}`

func TestNew_InterpretsTree(t *testing.T) {
	t.Parallel()

	form := newForm(t, basicDoc)
	tree := form.Tree()

	want := []string{
		"element/profile",
		"element/main",
		"element/intro",
		"text/",
		"field/name",
		"unsupported/bogus",
		"field/age",
	}
	if diff := cmp.Diff(want, outline(tree)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	main := tree.Children[0]
	if got := main.Children[0].Children[0].Text; got != "Hello" {
		t.Fatalf("text child = %q", got)
	}
	if got := main.Children[2].Type; got != "not-a-real-type" {
		t.Fatalf("placeholder type = %q", got)
	}
	if got := main.Children[1].Label(); got != "Name" {
		t.Fatalf("label = %q", got)
	}
	if diff := cmp.Diff([]string{"age", "name"}, form.ActiveIDs()); diff != "" {
		t.Fatalf("active ids mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_Deterministic(t *testing.T) {
	t.Parallel()

	first := newForm(t, basicDoc).Tree()
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, newForm(t, basicDoc).Tree()); diff != "" {
			t.Fatalf("interpretation is not deterministic (-first +got):\n%s", diff)
		}
	}
}

func TestNew_MissingChildrenRenderPlaceholder(t *testing.T) {
	t.Parallel()

	form := newForm(t, `{"sections": {"empty": {"uiType": "section"}, "bad": {"uiType": "section", "children": 3}}}`)
	want := []string{"element/", "element/empty", "unsupported/", "element/bad", "unsupported/"}
	if diff := cmp.Diff(want, outline(form.Tree())); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_RejectsUnknownRestoreMode(t *testing.T) {
	t.Parallel()

	doc := decode(t, `{"sections": {}}`)
	doc.RestoreMode = "forever"
	if _, err := engine.New(doc); err == nil {
		t.Fatalf("expected error for unknown restore mode")
	}
}

const toggleDoc = `{
	"restoreMode": %q,
	"defaultValues": {"details": "preset"},
	"sections": {
		"main": {
			"uiType": "section",
			"children": {
				"toggle": {"uiType": "switch"},
				"details": {"uiType": "text-field", "showIf": [{"toggle": [{"equals": true}]}]}
			}
		}
	}
}`

const toggleNoDefaults = `{
	"sections": {
		"main": {
			"uiType": "section",
			"children": {
				"toggle": {"uiType": "switch"},
				"details": {"uiType": "text-field", "showIf": [{"toggle": [{"equals": true}]}]},
				"extra": {
					"uiType": "section",
					"showIf": {"toggle": [{"equals": true}]},
					"children": {"note": {"uiType": "textarea"}}
				}
			}
		}
	}
}`

func TestRestoreNone_RemountIsIdempotent(t *testing.T) {
	t.Parallel()

	form := newForm(t, toggleNoDefaults)
	if diff := cmp.Diff([]string{"toggle"}, form.ActiveIDs()); diff != "" {
		t.Fatalf("initial active ids (-want +got):\n%s", diff)
	}
	neverMounted := form.Values()["details"]

	set(t, form, "toggle", true)
	if diff := cmp.Diff([]string{"details", "note", "toggle"}, form.ActiveIDs()); diff != "" {
		t.Fatalf("active ids after show (-want +got):\n%s", diff)
	}
	set(t, form, "toggle", false)
	set(t, form, "toggle", true)

	if got := form.Values()["details"]; got != neverMounted {
		t.Fatalf("remounted value = %#v, want %#v", got, neverMounted)
	}
	if _, ok := form.Value("details"); ok {
		t.Fatalf("restore must not invent a value for an untouched field")
	}
}

func TestRestoreNone_ClearsOnUnmount(t *testing.T) {
	t.Parallel()

	form := newForm(t, toggleNoDefaults)
	set(t, form, "toggle", true)
	set(t, form, "details", "secret")
	set(t, form, "note", "nested")
	set(t, form, "toggle", false)

	if got := valueOf(form, "details"); got != "" {
		t.Fatalf("details = %#v, want cleared", got)
	}
	if got := valueOf(form, "note"); got != "" {
		t.Fatalf("note inside hidden section = %#v, want cleared", got)
	}
	want := map[string]any{"toggle": false}
	if diff := cmp.Diff(want, form.Values()); diff != "" {
		t.Fatalf("hidden fields leaked into values (-want +got):\n%s", diff)
	}
}

func TestRestoreModes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		mode string
		want any
	}{
		{"default-value", "preset"},
		{"user-input", "typed"},
		{"none", ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.mode, func(t *testing.T) {
			t.Parallel()
			form := newForm(t, sprintf(toggleDoc, tc.mode))

			if _, ok := form.Value("details"); ok {
				t.Fatalf("hidden field must not be seeded")
			}
			set(t, form, "toggle", true)
			if got := valueOf(form, "details"); got != "preset" {
				t.Fatalf("mount seeded %#v, want default", got)
			}
			set(t, form, "details", "typed")
			set(t, form, "toggle", false)

			if got := valueOf(form, "details"); got != tc.want {
				t.Fatalf("after unmount = %#v, want %#v", got, tc.want)
			}
			if _, ok := form.Values()["details"]; ok {
				t.Fatalf("unmounted field still registered")
			}
		})
	}
}

func TestCascadingVisibility(t *testing.T) {
	t.Parallel()

	form := newForm(t, `{
		"sections": {
			"main": {
				"uiType": "section",
				"children": {
					"a": {"uiType": "text-field"},
					"b": {"uiType": "text-field", "showIf": {"a": [{"filled": true}]}},
					"c": {"uiType": "text-field", "showIf": {"b": [{"filled": true}]}}
				}
			}
		}
	}`)

	set(t, form, "a", "x")
	set(t, form, "b", "y")
	set(t, form, "c", "z")
	if diff := cmp.Diff([]string{"a", "b", "c"}, form.ActiveIDs()); diff != "" {
		t.Fatalf("active ids (-want +got):\n%s", diff)
	}

	set(t, form, "a", "")
	if diff := cmp.Diff([]string{"a"}, form.ActiveIDs()); diff != "" {
		t.Fatalf("cascade did not unmount dependents (-want +got):\n%s", diff)
	}
	if got := valueOf(form, "c"); got != "" {
		t.Fatalf("c = %#v, want cleared", got)
	}
}

func rangeDocument(from, to []string, value map[string]any) schema.Document {
	options := func(values []string) []any {
		out := make([]any, 0, len(values))
		for _, v := range values {
			out = append(out, map[string]any{"label": v[:1], "value": v})
		}
		return out
	}
	doc := schema.Document{
		Sections: schema.NodeChildren(schema.Entry{ID: "price", Node: &schema.Node{
			UIType: "range-select",
			Attributes: map[string]any{
				"options": map[string]any{"from": options(from), "to": options(to)},
			},
		}}),
	}
	if value != nil {
		doc.DefaultValues = map[string]any{"price": value}
	}
	return doc
}

func TestOptionSetChange(t *testing.T) {
	t.Parallel()

	selection := map[string]any{"from": "Apple", "to": "Cherry"}
	form, err := engine.New(rangeDocument([]string{"Apple", "Banana"}, []string{"Cherry", "Durian"}, selection))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	defer form.Close()

	if diff := cmp.Diff(selection, valueOf(form, "price")); diff != "" {
		t.Fatalf("initial selection (-want +got):\n%s", diff)
	}

	if err := form.UpdateSchema(rangeDocument([]string{"Apple", "Banana"}, []string{"Cherry", "Eggplant"}, selection)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if diff := cmp.Diff(selection, valueOf(form, "price")); diff != "" {
		t.Fatalf("retained options must keep the value (-want +got):\n%s", diff)
	}

	if err := form.UpdateSchema(rangeDocument([]string{"Apple", "Banana"}, []string{"Eggplant"}, selection)); err != nil {
		t.Fatalf("update: %v", err)
	}
	want := map[string]any{"from": "Apple", "to": ""}
	if diff := cmp.Diff(want, valueOf(form, "price")); diff != "" {
		t.Fatalf("removed option must clear its side (-want +got):\n%s", diff)
	}
}

func TestOptionSetChange_ThroughOverrides(t *testing.T) {
	t.Parallel()

	form, err := engine.New(rangeDocument([]string{"Apple", "Banana"}, []string{"Cherry", "Durian"}, map[string]any{"from": "Banana", "to": "Cherry"}))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	defer form.Close()

	err = form.SetOverrides(map[string]any{
		"price": map[string]any{
			"options": map[string]any{"from": []any{map[string]any{"label": "A", "value": "Apple"}}},
		},
	})
	if err != nil {
		t.Fatalf("set overrides: %v", err)
	}
	want := map[string]any{"from": "", "to": "Cherry"}
	if diff := cmp.Diff(want, valueOf(form, "price")); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

const overrideDoc = `{
	"defaultValues": {"name": "Ann", "email": "ann@example.com"},
	"sections": {
		"main": {
			"uiType": "section",
			"children": {
				"name": {"uiType": "text-field", "label": "Name"},
				"group": {
					"uiType": "div",
					"children": {"email": {"uiType": "email-field", "label": "Email"}}
				}
			}
		}
	}
}`

func TestOverrideIsolation(t *testing.T) {
	t.Parallel()

	plain := newForm(t, overrideDoc)
	overridden := newForm(t, overrideDoc)
	if err := overridden.SetOverrides(map[string]any{"email": map[string]any{"label": "Work email"}}); err != nil {
		t.Fatalf("set overrides: %v", err)
	}

	find := func(form *engine.Form, id string) engine.Element {
		for _, el := range form.Tree().Fields() {
			if el.ID == id {
				return el
			}
		}
		t.Fatalf("field %s not rendered", id)
		return engine.Element{}
	}

	if diff := cmp.Diff(find(plain, "name"), find(overridden, "name")); diff != "" {
		t.Fatalf("unreferenced field changed (-plain +overridden):\n%s", diff)
	}
	if got := find(overridden, "email").Label(); got != "Work email" {
		t.Fatalf("nested override not applied: %q", got)
	}
	if got := find(plain, "email").Label(); got != "Email" {
		t.Fatalf("override leaked into another form: %q", got)
	}
}

func TestUnsupportedContainment(t *testing.T) {
	t.Parallel()

	form := newForm(t, `{
		"sections": {
			"main": {
				"uiType": "section",
				"children": {
					"name": {"uiType": "text-field"},
					"broken": {"uiType": "not-a-real-type"},
					"email": {"uiType": "email-field"}
				}
			}
		}
	}`)
	set(t, form, "name", "Ann")
	set(t, form, "email", "ann@example.com")

	submission, err := form.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := map[string]any{"name": "Ann", "email": "ann@example.com"}
	if diff := cmp.Diff(want, submission.Values); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmissionAfterClear(t *testing.T) {
	t.Parallel()

	form := newForm(t, `{"sections": {"name": {"uiType": "text-field"}, "tags": {"uiType": "chips"}}}`)
	set(t, form, "name", "Ann")
	set(t, form, "tags", []any{"a", "b"})

	binding, ok := form.Bind("name")
	if !ok {
		t.Fatalf("name not bound")
	}
	if err := binding.OnChange(engine.ChangeEvent{Target: engine.ChangeTarget{Value: ""}}); err != nil {
		t.Fatalf("on change: %v", err)
	}
	set(t, form, "tags", []any{})

	submission, err := form.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := map[string]any{"name": "", "tags": []any{}}
	if diff := cmp.Diff(want, submission.Values); diff != "" {
		t.Fatalf("cleared values leaked (-want +got):\n%s", diff)
	}
}

func TestBinding_LateWriteAfterUnmount(t *testing.T) {
	t.Parallel()

	form := newForm(t, toggleNoDefaults)
	set(t, form, "toggle", true)

	binding, ok := form.Bind("details")
	if !ok {
		t.Fatalf("details not bound")
	}
	if err := binding.Commit("first"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	set(t, form, "toggle", false)
	if err := binding.Commit("late"); !errors.Is(err, engine.ErrUnmounted) {
		t.Fatalf("late commit err = %v, want ErrUnmounted", err)
	}
	if err := binding.SetError("upload failed"); !errors.Is(err, engine.ErrUnmounted) {
		t.Fatalf("late SetError err = %v, want ErrUnmounted", err)
	}
	if got := valueOf(form, "details"); got != "" {
		t.Fatalf("late write reached the store: %#v", got)
	}

	set(t, form, "toggle", true)
	if binding.Active() {
		t.Fatalf("binding from a previous mount must stay inactive")
	}
	fresh, ok := form.Bind("details")
	if !ok {
		t.Fatalf("details not bound after remount")
	}
	if err := fresh.Commit("second"); err != nil {
		t.Fatalf("fresh commit: %v", err)
	}
	if got := valueOf(form, "details"); got != "second" {
		t.Fatalf("details = %#v", got)
	}
}

func TestBinding_SetErrorSurfacesInProps(t *testing.T) {
	t.Parallel()

	form := newForm(t, `{"sections": {"avatar": {"uiType": "image-upload"}}}`)
	binding, _ := form.Bind("avatar")
	if err := binding.SetError("upload failed"); err != nil {
		t.Fatalf("set error: %v", err)
	}
	props, ok := form.Props("avatar")
	if !ok || props.Error != "upload failed" {
		t.Fatalf("props error = %q", props.Error)
	}
	if err := props.OnChange(engine.ChangeEvent{Target: engine.ChangeTarget{Value: map[string]any{"url": "/f/1"}}}); err != nil {
		t.Fatalf("on change: %v", err)
	}
	props, _ = form.Props("avatar")
	if props.Error != "" {
		t.Fatalf("successful write should clear the leaf error, got %q", props.Error)
	}
}

func TestBinding_UpdateIsAtomic(t *testing.T) {
	t.Parallel()

	form := newForm(t, `{"sections": {"count": {"uiType": "numeric-field"}}}`)
	binding, ok := form.Bind("count")
	if !ok {
		t.Fatalf("count not bound")
	}

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := binding.Update(func(current any) (any, error) {
				n, _ := current.(int)
				return n + 1, nil
			})
			if err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	if diff := cmp.Diff(any(writers), valueOf(form, "count")); diff != "" {
		t.Fatalf("count (-want +got):\n%s", diff)
	}

	failure := errors.New("rejected")
	err := binding.Update(func(current any) (any, error) {
		return nil, failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("update err = %v, want %v", err, failure)
	}
	if diff := cmp.Diff(any(writers), valueOf(form, "count")); diff != "" {
		t.Fatalf("failed update changed the store (-want +got):\n%s", diff)
	}
}

func TestBinding_UpdateAfterUnmount(t *testing.T) {
	t.Parallel()

	form := newForm(t, toggleNoDefaults)
	set(t, form, "toggle", true)
	binding, ok := form.Bind("details")
	if !ok {
		t.Fatalf("details not bound")
	}
	set(t, form, "toggle", false)

	called := false
	err := binding.Update(func(current any) (any, error) {
		called = true
		return "late", nil
	})
	if !errors.Is(err, engine.ErrUnmounted) {
		t.Fatalf("update err = %v, want ErrUnmounted", err)
	}
	if called {
		t.Fatalf("update must not run fn on an unmounted binding")
	}
}

func TestSilentCustomTags(t *testing.T) {
	t.Parallel()

	raw := `{"sections": {"name": {"uiType": "text-field"}, "map": {"referenceKey": "map-widget"}}}`

	form := newForm(t, raw)
	if diff := cmp.Diff([]string{"element/", "field/name"}, outline(form.Tree())); diff != "" {
		t.Fatalf("unregistered custom tag should render nothing (-want +got):\n%s", diff)
	}

	reg := registry.NewDefault()
	if err := reg.RegisterCustomField("map-widget", registry.Descriptor{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	extended := newForm(t, raw, engine.WithRegistry(reg))
	if diff := cmp.Diff([]string{"map", "name"}, extended.ActiveIDs()); diff != "" {
		t.Fatalf("registered custom field should mount (-want +got):\n%s", diff)
	}
}

func TestSubmit_Validation(t *testing.T) {
	t.Parallel()

	form := newForm(t, `{
		"sections": {
			"email": {
				"uiType": "email-field",
				"validation": [{"required": true, "errorMessage": "Email please"}, {"email": true}]
			},
			"send": {"uiType": "submit"}
		}
	}`)

	submission, err := form.Submit()
	if !errors.Is(err, validation.ErrInvalid) {
		t.Fatalf("submit err = %v, want ErrInvalid", err)
	}
	if diff := cmp.Diff(map[string]string{"email": "Email please"}, submission.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if _, ok := submission.Values["send"]; ok {
		t.Fatalf("value-less fields must not submit")
	}

	set(t, form, "email", "nope")
	if props, _ := form.Props("email"); props.Error != "Invalid email address" {
		t.Fatalf("revalidation after submit = %q", props.Error)
	}
	set(t, form, "email", "ann@example.com")
	if props, _ := form.Props("email"); props.Error != "" {
		t.Fatalf("error not cleared: %q", props.Error)
	}
	if err := form.SetValue("send", "x"); err == nil {
		t.Fatalf("expected error writing a value-less field")
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	form := newForm(t, overrideDoc)
	set(t, form, "name", "Bob")
	set(t, form, "email", "")
	if err := form.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	want := map[string]any{"name": "Ann", "email": "ann@example.com"}
	if diff := cmp.Diff(want, form.Values()); diff != "" {
		t.Fatalf("reset mismatch (-want +got):\n%s", diff)
	}
}

func TestWithStore_DraftWinsOverDefaults(t *testing.T) {
	t.Parallel()

	draft := store.New(store.WithValues(map[string]any{"name": "Draft"}))
	form := newForm(t, overrideDoc, engine.WithStore(draft))
	if got := valueOf(form, "name"); got != "Draft" {
		t.Fatalf("name = %#v, want draft value", got)
	}
	if got := valueOf(form, "email"); got != "ann@example.com" {
		t.Fatalf("email = %#v, want default", got)
	}
}

func TestEvaluatorPanicIsContained(t *testing.T) {
	t.Parallel()

	boom := visibility.EvaluatorFunc(func(visibility.Rule, visibility.Values) bool { panic("boom") })
	form := newForm(t, toggleNoDefaults, engine.WithEvaluator(boom))
	set(t, form, "toggle", true)
	if diff := cmp.Diff([]string{"toggle"}, form.ActiveIDs()); diff != "" {
		t.Fatalf("failing rule should hide only its node (-want +got):\n%s", diff)
	}
}

func TestInvalidShowIfHidesNode(t *testing.T) {
	t.Parallel()

	form := newForm(t, `{"sections": {"a": {"uiType": "text-field"}, "b": {"uiType": "text-field", "showIf": "a == 1"}}}`)
	if diff := cmp.Diff([]string{"a"}, form.ActiveIDs()); diff != "" {
		t.Fatalf("active ids (-want +got):\n%s", diff)
	}
}

func TestClose(t *testing.T) {
	t.Parallel()

	form := newForm(t, toggleNoDefaults)
	binding, _ := form.Bind("toggle")
	if err := form.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := form.SetValue("toggle", true); !errors.Is(err, engine.ErrClosed) {
		t.Fatalf("SetValue err = %v, want ErrClosed", err)
	}
	if err := binding.Commit(true); !errors.Is(err, engine.ErrClosed) {
		t.Fatalf("Commit err = %v, want ErrClosed", err)
	}
	if _, err := form.Submit(); !errors.Is(err, engine.ErrClosed) {
		t.Fatalf("Submit err = %v, want ErrClosed", err)
	}
}

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(strings.NewReader(""), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRender_HTML(t *testing.T) {
	t.Parallel()

	out, err := run(t, "render", "testdata/newsletter.json", "--action", "/subscribe")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"<form", `action="/subscribe"`, `name="email"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `name="frequency"`) {
		t.Fatalf("frequency should stay hidden until email is filled")
	}
}

func TestRender_ValuesAndOutputFile(t *testing.T) {
	t.Parallel()

	values := writeFile(t, "values.yaml", "email: ada@example.com\n")
	target := filepath.Join(t.TempDir(), "form.html")

	if _, err := run(t, "render", "testdata/newsletter.json", "--values", values, "-o", target); err != nil {
		t.Fatalf("render: %v", err)
	}
	html, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(html), `name="frequency"`) {
		t.Fatalf("filled email should reveal frequency:\n%s", html)
	}
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	valid := writeFile(t, "valid.json", `{"email": "ada@example.com", "frequency": "monthly"}`)
	out, err := run(t, "submit", "testdata/newsletter.json", "--values", valid)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	var got submissionOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	want := submissionOutput{Values: map[string]any{"email": "ada@example.com", "frequency": "monthly"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}

	invalid := writeFile(t, "invalid.json", `{"email": "nope", "frequency": "monthly"}`)
	out, err = run(t, "submit", "testdata/newsletter.json", "--values", invalid)
	if !errors.Is(err, validation.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	got = submissionOutput{}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if got.Errors["email"] != "Invalid email address" {
		t.Fatalf("errors = %#v", got.Errors)
	}
}

func TestLint(t *testing.T) {
	t.Parallel()

	out, err := run(t, "lint", "testdata/newsletter.json", "testdata/accounts.json")
	if err != nil {
		t.Fatalf("clean documents should pass: %v\n%s", err, out)
	}

	out, err = run(t, "lint", "testdata/broken.json")
	if err == nil {
		t.Fatalf("expected lint failure")
	}
	if !strings.Contains(out, "unsupported uiType hologram") {
		t.Fatalf("missing issue in output:\n%s", out)
	}

	out, err = run(t, "lint", "--json", "testdata/accounts.json")
	if err != nil {
		t.Fatalf("lint json: %v", err)
	}
	var reports map[string]validation.Result
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"testdata/accounts.json#createAccount"}, sortedKeys(reports)); diff != "" {
		t.Fatalf("operations without a body should be skipped (-want +got):\n%s", diff)
	}
}

func TestImportOpenAPI(t *testing.T) {
	t.Parallel()

	out, err := run(t, "import-openapi", "testdata/accounts.json", "--operation", "createAccount", "--submit-label", "Open")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	doc, err := schema.DecodeDocument([]byte(out))
	if err != nil {
		t.Fatalf("decode scaffolded document: %v\n%s", err, out)
	}
	section, ok := doc.Sections.Lookup("createAccount")
	if !ok {
		t.Fatalf("section missing: %v", doc.Sections.IDs())
	}
	if diff := cmp.Diff([]string{"email", "plan", "submit"}, section.Children.IDs()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	submit, _ := section.Children.Lookup("submit")
	if submit.Label() != "Open" {
		t.Fatalf("submit label = %q", submit.Label())
	}

	if _, err := run(t, "import-openapi", "testdata/accounts.json"); err == nil || !strings.Contains(err.Error(), "available: createAccount, listAccounts") {
		t.Fatalf("expected operation list error, got %v", err)
	}
}

func TestPresetFlag(t *testing.T) {
	t.Parallel()

	preset := writeFile(t, "preset.yaml", "overrides:\n  email:\n    label: Work email\n")
	out, err := run(t, "render", "testdata/newsletter.json", "--preset", preset)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Work email") {
		t.Fatalf("preset override not applied:\n%s", out)
	}
}

func TestFill_RequiresTerminal(t *testing.T) {
	t.Parallel()

	if _, err := run(t, "fill", "testdata/newsletter.json"); err == nil || !strings.Contains(err.Error(), "interactive terminal") {
		t.Fatalf("expected terminal error, got %v", err)
	}
}

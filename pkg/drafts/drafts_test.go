package drafts_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/drafts"
	"github.com/goliatone/go-formengine/pkg/testsupport"
)

const newsletterDoc = `{
  "id": "newsletter",
  "sections": {
    "main": {
      "uiType": "section",
      "children": {
        "email": {"uiType": "email-field"},
        "frequency": {
          "uiType": "select",
          "showIf": [{"email": [{"filled": true}]}],
          "options": [{"label": "Weekly", "value": "weekly"}, {"label": "Monthly", "value": "monthly"}]
        }
      }
    }
  },
  "defaultValues": {"frequency": "weekly"}
}`

func openStore(t *testing.T) *drafts.Store {
	t.Helper()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := drafts.Open(filepath.Join(t.TempDir(), "drafts.db"), drafts.WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoadDelete(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	if err := s.Save("signup", "user-1", map[string]any{"name": "Ada", "tags": []any{"a"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save("signup", "user-0", nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	draft, err := s.Load("signup", "user-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := drafts.Draft{
		FormID: "signup",
		Key:    "user-1",
		Values: map[string]any{"name": "Ada", "tags": []any{"a"}},
		Saved:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, draft); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}

	list, err := s.List("signup")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "user-0" || list[1].Key != "user-1" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := s.Delete("signup", "user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load("signup", "user-1"); !errors.Is(err, drafts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Load("other", "user-1"); !errors.Is(err, drafts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown form, got %v", err)
	}
	if err := s.Delete("other", "user-1"); err != nil {
		t.Fatalf("deleting a missing draft should succeed: %v", err)
	}
	if err := s.Save("", "k", nil); err == nil {
		t.Fatalf("expected error for empty form id")
	}
}

func TestSaveFormAndResume(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	doc := testsupport.MustDecodeDocument(t, newsletterDoc)

	form := testsupport.NewForm(t, doc)
	if err := form.SetValue("email", "ada@example.com"); err != nil {
		t.Fatalf("set email: %v", err)
	}
	if err := form.SetValue("frequency", "monthly"); err != nil {
		t.Fatalf("set frequency: %v", err)
	}
	if err := s.SaveForm("session-1", form); err != nil {
		t.Fatalf("save form: %v", err)
	}

	resumed, err := s.Resume("session-1", doc)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	defer resumed.Close()

	want := map[string]any{"email": "ada@example.com", "frequency": "monthly"}
	if diff := cmp.Diff(want, resumed.Values()); diff != "" {
		t.Fatalf("resumed values mismatch (-want +got):\n%s", diff)
	}

	fresh, err := s.Resume("session-2", doc)
	if err != nil {
		t.Fatalf("resume fresh: %v", err)
	}
	defer fresh.Close()
	if diff := cmp.Diff(map[string]any{"email": nil}, fresh.Values()); diff != "" {
		t.Fatalf("fresh values mismatch (-want +got):\n%s", diff)
	}
}

package store_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/store"
)

func TestStore_SetGetCopies(t *testing.T) {
	t.Parallel()

	s := store.New()
	original := map[string]any{"from": "Apple", "to": "Cherry"}
	if !s.Set("range", original) {
		t.Fatalf("expected first write to report a change")
	}
	original["from"] = "mutated"

	got, ok := s.Get("range")
	if !ok {
		t.Fatalf("value missing")
	}
	want := map[string]any{"from": "Apple", "to": "Cherry"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("store should own its copy (-want +got):\n%s", diff)
	}

	got.(map[string]any)["to"] = "mutated"
	again, _ := s.Get("range")
	if diff := cmp.Diff(want, again); diff != "" {
		t.Fatalf("Get should return copies (-want +got):\n%s", diff)
	}

	if from, ok := s.Get("range.from"); !ok || from != "Apple" {
		t.Fatalf("dotted lookup failed: %#v %v", from, ok)
	}
}

func TestStore_WatchNotifiesOnChangeOnly(t *testing.T) {
	t.Parallel()

	s := store.New()
	var seen []string
	cancel := s.Watch([]string{"a", "range"}, func(id string, value any) {
		seen = append(seen, id)
	})

	s.Set("a", "1")
	s.Set("a", "1")
	s.Set("b", "ignored")
	s.Set("range.from", "x")
	s.Delete("a")
	s.Delete("a")

	if diff := cmp.Diff([]string{"a", "range.from", "a"}, seen); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}

	cancel()
	cancel()
	s.Set("a", "2")
	if len(seen) != 3 {
		t.Fatalf("cancelled watcher still notified: %v", seen)
	}
}

func TestStore_WatcherMayWrite(t *testing.T) {
	t.Parallel()

	s := store.New()
	s.Watch([]string{"source"}, func(id string, value any) {
		s.Set("mirror", value)
	})
	s.Set("source", "v")
	if got, _ := s.Get("mirror"); got != "v" {
		t.Fatalf("watcher write lost: %#v", got)
	}
}

func TestStore_ActiveSet(t *testing.T) {
	t.Parallel()

	s := store.New(store.WithValues(map[string]any{"b": "seed", "z": "unmounted"}))
	s.RegisterActive("b")
	s.RegisterActive("a")
	if diff := cmp.Diff([]string{"a", "b"}, s.ActiveIDs()); diff != "" {
		t.Fatalf("active ids mismatch (-want +got):\n%s", diff)
	}

	want := map[string]any{"a": nil, "b": "seed"}
	if diff := cmp.Diff(want, s.ActiveValues()); diff != "" {
		t.Fatalf("active values mismatch (-want +got):\n%s", diff)
	}

	s.UnregisterActive("b")
	if s.IsActive("b") {
		t.Fatalf("b should be unregistered")
	}
	if !s.Has("b") {
		t.Fatalf("unregistering must not drop the value")
	}
}

func TestStore_Close(t *testing.T) {
	t.Parallel()

	s := store.New()
	calls := 0
	s.Watch([]string{"a"}, func(string, any) { calls++ })
	s.RegisterActive("a")
	s.Close()

	if s.Set("a", "x") {
		t.Fatalf("closed store accepted a write")
	}
	if calls != 0 {
		t.Fatalf("closed store notified watchers")
	}
	if len(s.ActiveIDs()) != 0 {
		t.Fatalf("closed store kept registrations")
	}
}

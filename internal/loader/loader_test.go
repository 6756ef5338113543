package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formengine/pkg/schema"
)

const payload = `{"id":"demo","sections":{"name":{"uiType":"text-field"}}}`

func TestLoader_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "form.json")
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	raw, err := New(schema.LoaderOptions{}).Load(context.Background(), schema.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	doc, err := raw.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ID != "demo" {
		t.Fatalf("unexpected document id %q", doc.ID)
	}
}

func TestLoader_FS(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"forms/demo.yaml": &fstest.MapFile{Data: []byte("id: demo\n")}}
	l := New(schema.NewLoaderOptions(schema.WithFileSystem(files)))

	raw, err := l.Load(context.Background(), schema.SourceFromFS("forms/demo.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if raw.Location() != "forms/demo.yaml" {
		t.Fatalf("unexpected location %q", raw.Location())
	}

	if _, err := New(schema.LoaderOptions{}).Load(context.Background(), schema.SourceFromFS("forms/demo.yaml")); err == nil {
		t.Fatalf("expected error without a file system")
	}
}

func TestLoader_HTTP(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)

	ctx := context.Background()
	if _, err := New(schema.LoaderOptions{}).Load(ctx, schema.SourceFromURL(server.URL+"/form.json")); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}

	l := New(schema.NewLoaderOptions(schema.WithHTTPClient(server.Client())))
	raw, err := l.Load(ctx, schema.SourceFromURL(server.URL+"/form.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(raw.Raw()) != payload {
		t.Fatalf("unexpected payload %q", raw.Raw())
	}

	if _, err := l.Load(ctx, schema.SourceFromURL(server.URL+"/missing.json")); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}

	limited := New(schema.NewLoaderOptions(schema.WithHTTPClient(server.Client()), schema.WithMaxBytes(8)))
	if _, err := limited.Load(ctx, schema.SourceFromURL(server.URL+"/form.json")); err == nil {
		t.Fatalf("expected size limit error")
	}
}

func TestLoader_UnsupportedKind(t *testing.T) {
	t.Parallel()

	if _, err := New(schema.LoaderOptions{}).Load(context.Background(), schema.SourceInline("stdin")); err == nil {
		t.Fatalf("expected inline sources to be rejected")
	}
	if _, err := New(schema.LoaderOptions{}).Load(context.Background(), nil); err == nil {
		t.Fatalf("expected nil source error")
	}
}

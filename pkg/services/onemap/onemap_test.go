package onemap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/services/onemap"
)

func TestSearch(t *testing.T) {
	t.Parallel()

	var got url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"found":1,"totalNumPages":1,"pageNum":1,"results":[
			{"SEARCHVAL":"TOWER","BLK_NO":"1","ROAD_NAME":"MAIN ST","POSTAL":"123456","LATITUDE":"1.3","LONGITUDE":"103.8"}
		]}`))
	}))
	defer server.Close()

	client := onemap.New(onemap.WithBaseURL(server.URL+"/"), onemap.WithHTTPClient(server.Client()))
	result, err := client.Search(context.Background(), onemap.SearchParams{Value: "tower", ReturnGeometry: true, Page: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	wantQuery := url.Values{"searchVal": {"tower"}, "returnGeom": {"Y"}, "getAddrDetails": {"N"}, "pageNum": {"2"}}
	if diff := cmp.Diff(wantQuery, got); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}
	want := onemap.SearchResult{Found: 1, TotalPages: 1, Page: 1, Results: []onemap.Address{{
		SearchValue: "TOWER", BlockNumber: "1", RoadName: "MAIN ST", PostalCode: "123456", Latitude: "1.3", Longitude: "103.8",
	}}}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	if _, err := client.Search(context.Background(), onemap.SearchParams{}); err == nil {
		t.Fatalf("expected error for empty search")
	}
}

func TestReverseGeocode(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/proxy/reverse" || q.Get("latitude") != "1.3" || q.Get("bufferRadius") != "50" || q.Get("token") != "abc" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"GeocodeInfo":[{"BUILDINGNAME":"HALL","POSTALCODE":"654321"}]}`))
	}))
	defer server.Close()

	client := onemap.New(onemap.WithBaseURL(server.URL))
	info, err := client.ReverseGeocode(context.Background(), onemap.ReverseParams{
		Route:        "/proxy/reverse?token=abc",
		Latitude:     1.3,
		Longitude:    103.8,
		BufferRadius: 50,
	})
	if err != nil {
		t.Fatalf("reverse geocode: %v", err)
	}
	if diff := cmp.Diff([]onemap.GeocodeInfo{{BuildingName: "HALL", PostalCode: "654321"}}, info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}

	if _, err := client.ReverseGeocode(context.Background(), onemap.ReverseParams{Route: "/missing", Latitude: 1}); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestStaticMapURL(t *testing.T) {
	t.Parallel()

	raw := onemap.New().StaticMapURL(1.5, 103.25, 200, 100, onemap.Color{R: 255})
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Host != "developers.onemap.sg" || parsed.Path != "/commonapi/staticmap/getStaticImage" {
		t.Fatalf("unexpected url %s", raw)
	}
	q := parsed.Query()
	if q.Get("points") != `[1.5,103.25,"255,0,0"]` || q.Get("zoom") != "17" || q.Get("width") != "200" {
		t.Fatalf("unexpected query %v", q)
	}
}

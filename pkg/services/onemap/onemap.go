// Package onemap is a small client for the OneMap address search, reverse
// geocoding and static map endpoints backing location fields.
package onemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public OneMap common API.
const DefaultBaseURL = "https://developers.onemap.sg/commonapi"

const maxResponseBytes = 4 << 20

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at another deployment (or a test server).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to OneMap.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// New constructs a Client.
func New(options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// SearchParams filters an address search.
type SearchParams struct {
	Value          string
	ReturnGeometry bool
	AddressDetails bool
	Page           int
}

// Address is one search hit. OneMap reports coordinates as strings.
type Address struct {
	SearchValue string `json:"SEARCHVAL"`
	BlockNumber string `json:"BLK_NO"`
	RoadName    string `json:"ROAD_NAME"`
	Building    string `json:"BUILDING"`
	Address     string `json:"ADDRESS"`
	PostalCode  string `json:"POSTAL"`
	X           string `json:"X"`
	Y           string `json:"Y"`
	Latitude    string `json:"LATITUDE"`
	Longitude   string `json:"LONGITUDE"`
}

// SearchResult is a page of search hits.
type SearchResult struct {
	Found      int       `json:"found"`
	TotalPages int       `json:"totalNumPages"`
	Page       int       `json:"pageNum"`
	Results    []Address `json:"results"`
}

// Search looks addresses up by free text.
func (c *Client) Search(ctx context.Context, params SearchParams) (SearchResult, error) {
	if strings.TrimSpace(params.Value) == "" {
		return SearchResult{}, fmt.Errorf("onemap: search value is required")
	}
	query := url.Values{}
	query.Set("searchVal", params.Value)
	query.Set("returnGeom", flag(params.ReturnGeometry))
	query.Set("getAddrDetails", flag(params.AddressDetails))
	if params.Page > 0 {
		query.Set("pageNum", strconv.Itoa(params.Page))
	}

	var result SearchResult
	if err := c.get(ctx, c.baseURL+"/search", query, &result); err != nil {
		return SearchResult{}, fmt.Errorf("onemap: search: %w", err)
	}
	return result, nil
}

// ReverseParams locates the buildings around a coordinate. Route is the
// reverse geocoding endpoint, absolute or relative to the base URL; it is
// usually a server-side proxy holding the OneMap credentials.
type ReverseParams struct {
	Route         string
	Latitude      float64
	Longitude     float64
	BufferRadius  int
	OtherFeatures bool
}

// GeocodeInfo is one reverse geocoding hit.
type GeocodeInfo struct {
	BuildingName string `json:"BUILDINGNAME"`
	Block        string `json:"BLOCK"`
	Road         string `json:"ROAD"`
	PostalCode   string `json:"POSTALCODE"`
	X            string `json:"XCOORD"`
	Y            string `json:"YCOORD"`
	Latitude     string `json:"LATITUDE"`
	Longitude    string `json:"LONGITUDE"`
}

// ReverseGeocode returns the buildings near a coordinate.
func (c *Client) ReverseGeocode(ctx context.Context, params ReverseParams) ([]GeocodeInfo, error) {
	route := params.Route
	if route == "" {
		return nil, fmt.Errorf("onemap: reverse geocode route is required")
	}
	if !strings.HasPrefix(route, "http://") && !strings.HasPrefix(route, "https://") {
		route = c.baseURL + "/" + strings.TrimLeft(route, "/")
	}

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(params.Latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(params.Longitude, 'f', -1, 64))
	if params.BufferRadius > 0 {
		query.Set("bufferRadius", strconv.Itoa(params.BufferRadius))
	}
	if params.OtherFeatures {
		query.Set("otherFeatures", flag(true))
	}

	var payload struct {
		GeocodeInfo []GeocodeInfo `json:"GeocodeInfo"`
	}
	if err := c.get(ctx, route, query, &payload); err != nil {
		return nil, fmt.Errorf("onemap: reverse geocode: %w", err)
	}
	return payload.GeocodeInfo, nil
}

// Color is a static map pin colour.
type Color struct {
	R, G, B uint8
}

// StaticMapURL returns the image URL of a map centred on lat/lng with a pin.
func (c *Client) StaticMapURL(lat, lng float64, width, height int, pin Color) string {
	coords := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
	query := url.Values{}
	query.Set("layerchosen", "default")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("zoom", "17")
	query.Set("height", strconv.Itoa(height))
	query.Set("width", strconv.Itoa(width))
	query.Set("points", fmt.Sprintf(`[%s,"%d,%d,%d"]`, coords, pin.R, pin.G, pin.B))
	return c.baseURL + "/staticmap/getStaticImage?" + query.Encode()
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, target any) error {
	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	merged := reqURL.Query()
	for key, values := range query {
		merged[key] = values
	}
	reqURL.RawQuery = merged.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("onemap request", zap.String("url", reqURL.String()))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(target); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func flag(v bool) string {
	if v {
		return "Y"
	}
	return "N"
}

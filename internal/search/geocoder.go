package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RemoteLimit caps the geocoder suggestion list.
const RemoteLimit = 5

// Place is an address candidate.
type Place struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lng  float64 `json:"lng"`
	Lat  float64 `json:"lat"`
}

// Geocoder resolves free text into address candidates.
type Geocoder interface {
	Lookup(ctx context.Context, q string) ([]Place, error)
}

// MapboxConfig configures the Mapbox places endpoint.
type MapboxConfig struct {
	BaseURL  string // defaults to https://api.mapbox.com
	Token    string
	Language string
}

// MapboxGeocoder queries the Mapbox v5 places API.
type MapboxGeocoder struct {
	cfg        MapboxConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMapboxGeocoder creates a Mapbox client. A nil httpClient gets a 10s timeout default.
func NewMapboxGeocoder(cfg MapboxConfig, httpClient *http.Client, logger *zap.Logger) *MapboxGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mapbox.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &MapboxGeocoder{cfg: cfg, httpClient: httpClient, logger: logger}
}

type mapboxResponse struct {
	Features []struct {
		ID        string    `json:"id"`
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
	} `json:"features"`
}

// LookupURL builds the forward geocoding request for q.
func (g *MapboxGeocoder) LookupURL(q string) string {
	v := url.Values{}
	v.Set("access_token", g.cfg.Token)
	v.Set("limit", strconv.Itoa(RemoteLimit))
	if g.cfg.Language != "" {
		v.Set("language", g.cfg.Language)
	}
	return g.cfg.BaseURL + "/geocoding/v5/mapbox.places/" + url.PathEscape(q) + ".json?" + v.Encode()
}

// Lookup returns up to RemoteLimit places. Candidates without a center are dropped.
func (g *MapboxGeocoder) Lookup(ctx context.Context, q string) ([]Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.LookupURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocoder request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned %d", resp.StatusCode)
	}

	var body mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}
	places := make([]Place, 0, len(body.Features))
	for _, f := range body.Features {
		if len(f.Center) < 2 {
			continue
		}
		places = append(places, Place{ID: f.ID, Name: f.PlaceName, Lng: f.Center[0], Lat: f.Center[1]})
		if len(places) == RemoteLimit {
			break
		}
	}
	return places, nil
}

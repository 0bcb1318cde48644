package core

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"cadastre-backend-go/internal/models"
	"cadastre-backend-go/internal/streetview"
)

type streetViewService struct {
	apiKey string
}

// NewStreetViewService creates a StreetViewService. Without an API key pins still
// snap but no embed URL is produced.
func NewStreetViewService(apiKey string) StreetViewService {
	return &streetViewService{apiKey: apiKey}
}

// Snap resolves one pin position. Each pointer move is one call; the call with
// Release set ends the drag. A release inside the viewport carries the panorama
// the client opens after the drop delay.
func (s *streetViewService) Snap(_ context.Context, req models.SnapRequest) (*SnapResult, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: viewport size must be positive", ErrInvalidInput)
	}
	if err := validBBox(req.BBox); err != nil {
		return nil, err
	}
	roads, err := parseRoads(req.Roads)
	if err != nil {
		return nil, err
	}

	vp := streetview.GeoViewport{
		Bound:  orb.Bound{Min: orb.Point{req.BBox[0], req.BBox[1]}, Max: orb.Point{req.BBox[2], req.BBox[3]}},
		Width:  req.Width,
		Height: req.Height,
		Roads:  roads,
	}
	px := orb.Point{req.X, req.Y}
	at, snapped := streetview.Resolve(vp, px)
	res := &SnapResult{Lng: at.Lon(), Lat: at.Lat(), Snapped: snapped}

	if req.Release {
		if dropped, ok := streetview.Drop(vp, px); ok {
			res.Open = true
			res.OpenDelayMs = streetview.OpenDelay.Milliseconds()
			res.EmbedURL = streetview.EmbedURL(s.apiKey, dropped.Lat(), dropped.Lon())
		}
	}
	return res, nil
}

// validBBox accepts west, south, east, north in degrees with west < east and south < north.
func validBBox(b [4]float64) error {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bbox must be finite", ErrInvalidInput)
		}
	}
	w, south, e, n := b[0], b[1], b[2], b[3]
	if w < -180 || e > 180 || south < -90 || n > 90 {
		return fmt.Errorf("%w: bbox out of range", ErrInvalidInput)
	}
	if w >= e || south >= n {
		return fmt.Errorf("%w: bbox must be west,south,east,north with positive extent", ErrInvalidInput)
	}
	return nil
}

func parseRoads(raw []byte) ([]orb.Geometry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: roads: %v", ErrInvalidInput, err)
	}
	roads := make([]orb.Geometry, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry != nil {
			roads = append(roads, f.Geometry)
		}
	}
	return roads, nil
}

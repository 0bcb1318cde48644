package core

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cadastre-backend-go/internal/models"
)

func snapRequest(roads string, release bool) models.SnapRequest {
	req := models.SnapRequest{
		X: 100, Y: 100, Width: 200, Height: 200,
		BBox:    [4]float64{-100.01, 20.0, -99.99, 20.02},
		Release: release,
	}
	if roads != "" {
		req.Roads = json.RawMessage(roads)
	}
	return req
}

const roadNearCenter = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[-100.01,20.0101],[-99.99,20.0101]]}}]}`

func TestStreetViewService_Snap(t *testing.T) {
	ctx := context.Background()
	svc := NewStreetViewService("key-123")

	t.Run("drag snaps to the nearby road", func(t *testing.T) {
		res, err := svc.Snap(ctx, snapRequest(roadNearCenter, false))
		require.NoError(t, err)
		assert.True(t, res.Snapped)
		assert.InDelta(t, 20.0101, res.Lat, 1e-6)
		assert.InDelta(t, -100.0, res.Lng, 1e-4)
		assert.False(t, res.Open)
		assert.Empty(t, res.EmbedURL)
	})

	t.Run("release opens street view at the snapped point", func(t *testing.T) {
		res, err := svc.Snap(ctx, snapRequest(roadNearCenter, true))
		require.NoError(t, err)
		assert.True(t, res.Open)
		assert.EqualValues(t, 40, res.OpenDelayMs)
		assert.Contains(t, res.EmbedURL, "key=key-123")
		assert.Contains(t, res.EmbedURL, "location=20.01")
	})

	t.Run("no roads keeps the raw point", func(t *testing.T) {
		res, err := svc.Snap(ctx, snapRequest("", false))
		require.NoError(t, err)
		assert.False(t, res.Snapped)
		assert.InDelta(t, -100.0, res.Lng, 1e-9)
	})

	t.Run("release outside the viewport discards", func(t *testing.T) {
		req := snapRequest(roadNearCenter, true)
		req.X = 250
		res, err := svc.Snap(ctx, req)
		require.NoError(t, err)
		assert.False(t, res.Open)
		assert.Empty(t, res.EmbedURL)
	})

	t.Run("malformed roads", func(t *testing.T) {
		_, err := svc.Snap(ctx, snapRequest(`{"type":`, false))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("invalid bbox", func(t *testing.T) {
		for name, bbox := range map[string][4]float64{
			"zero":         {},
			"inverted":     {-99.99, 20.02, -100.01, 20.0},
			"out of range": {-200, 20.0, -99.99, 20.02},
		} {
			req := snapRequest("", false)
			req.BBox = bbox
			_, err := svc.Snap(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidInput, name)
		}
	})

	t.Run("empty viewport", func(t *testing.T) {
		req := snapRequest("", false)
		req.Width = 0
		_, err := svc.Snap(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

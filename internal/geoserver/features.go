package geoserver

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cadastre-backend-go/internal/models"
)

const (
	featureInfoCount  = 5
	featureInfoBuffer = 15 // pixels
)

// FeatureInfoParams describes a click in a viewport.
type FeatureInfoParams struct {
	Layer  string
	BBox   [4]float64 // west, south, east, north in EPSG:4326
	Width  int
	Height int
	X, Y   float64 // pixel position of the click
}

// FeatureInfoURL builds a WMS 1.1.1 GetFeatureInfo request.
func (c *Client) FeatureInfoURL(p FeatureInfoParams) string {
	q := url.Values{}
	q.Set("service", "WMS")
	q.Set("version", "1.1.1")
	q.Set("request", "GetFeatureInfo")
	q.Set("layers", p.Layer)
	q.Set("query_layers", p.Layer)
	q.Set("bbox", fmt.Sprintf("%s,%s,%s,%s", ftoa(p.BBox[0]), ftoa(p.BBox[1]), ftoa(p.BBox[2]), ftoa(p.BBox[3])))
	q.Set("width", strconv.Itoa(p.Width))
	q.Set("height", strconv.Itoa(p.Height))
	q.Set("srs", "EPSG:4326")
	q.Set("x", strconv.Itoa(int(math.Round(p.X))))
	q.Set("y", strconv.Itoa(int(math.Round(p.Y))))
	q.Set("info_format", "application/json")
	q.Set("feature_count", strconv.Itoa(featureInfoCount))
	q.Set("buffer", strconv.Itoa(featureInfoBuffer))
	return c.wmsURL() + "?" + q.Encode()
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FeatureInfo returns the first feature the layer reports at the click.
// Non-JSON answers (the server's XML exceptions) count as no feature.
func (c *Client) FeatureInfo(ctx context.Context, p FeatureInfoParams) (*geojson.Feature, error) {
	body, _, err := c.get(ctx, c.FeatureInfoURL(p))
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if !bytes.HasPrefix(body, []byte("{")) {
		return nil, ErrNoFeature
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode feature info: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, ErrNoFeature
	}
	return fc.Features[0], nil
}

// FirstFeatureInfo queries every layer concurrently and returns the first feature found.
// The remaining requests are cancelled once a winner is known.
func (c *Client) FirstFeatureInfo(ctx context.Context, p FeatureInfoParams, layers []string) (*geojson.Feature, error) {
	if len(layers) == 0 {
		return nil, ErrNoFeature
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		layer   string
		feature *geojson.Feature
		err     error
	}
	results := make(chan result, len(layers))
	for _, layer := range layers {
		lp := p
		lp.Layer = layer
		go func() {
			f, err := c.FeatureInfo(ctx, lp)
			results <- result{layer: lp.Layer, feature: f, err: err}
		}()
	}

	for range layers {
		r := <-results
		if r.err == nil {
			return r.feature, nil
		}
		c.logger.Debug("Feature info miss", zap.String("layer", r.layer), zap.Error(r.err))
	}
	return nil, ErrNoFeature
}

// FeaturesURL builds a WFS 1.1.0 GetFeature request for a whole layer.
func (c *Client) FeaturesURL(layer string) string {
	q := url.Values{}
	q.Set("service", "WFS")
	q.Set("version", "1.1.0")
	q.Set("request", "GetFeature")
	q.Set("typeName", layer)
	q.Set("outputFormat", "application/json")
	q.Set("srsName", "EPSG:4326")
	return c.wfsURL() + "?" + q.Encode()
}

// GetFeatures downloads every feature of a layer and tags each with the layer name.
func (c *Client) GetFeatures(ctx context.Context, layer string) ([]*geojson.Feature, error) {
	body, _, err := c.get(ctx, c.FeaturesURL(layer))
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode features of %s: %w", layer, err)
	}
	for _, f := range fc.Features {
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties[models.PropLayer] = layer
	}
	return fc.Features, nil
}

// GetAllFeatures fetches several layers concurrently. Results keep the layer order.
// Any failing layer fails the whole load.
func (c *Client) GetAllFeatures(ctx context.Context, layers []string) ([]*geojson.Feature, error) {
	perLayer := make([][]*geojson.Feature, len(layers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, layer := range layers {
		g.Go(func() error {
			fs, err := c.GetFeatures(gctx, layer)
			if err != nil {
				return err
			}
			perLayer[i] = fs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*geojson.Feature
	for _, fs := range perLayer {
		all = append(all, fs...)
	}
	return all, nil
}

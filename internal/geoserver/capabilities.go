package geoserver

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"cadastre-backend-go/internal/models"
)

type capabilitiesDoc struct {
	Capability struct {
		Layer capLayer `xml:"Layer"`
	} `xml:"Capability"`
}

type capLayer struct {
	Name   string      `xml:"Name"`
	Title  string      `xml:"Title"`
	Styles []capStyle  `xml:"Style"`
	BBox   *capGeoBBox `xml:"EX_GeographicBoundingBox"`
	Layers []capLayer  `xml:"Layer"`
}

type capStyle struct {
	Name       string `xml:"Name"`
	LegendURLs []struct {
		OnlineResource struct {
			Href string `xml:"http://www.w3.org/1999/xlink href,attr"`
		} `xml:"OnlineResource"`
	} `xml:"LegendURL"`
}

type capGeoBBox struct {
	West  string `xml:"westBoundLongitude"`
	South string `xml:"southBoundLatitude"`
	East  string `xml:"eastBoundLongitude"`
	North string `xml:"northBoundLatitude"`
}

// CapabilitiesURL is the WMS 1.3.0 GetCapabilities request.
func (c *Client) CapabilitiesURL() string {
	return c.wmsURL() + "?service=WMS&version=1.3.0&request=GetCapabilities"
}

// RawCapabilities fetches the capabilities document unparsed.
func (c *Client) RawCapabilities(ctx context.Context) ([]byte, error) {
	body, _, err := c.get(ctx, c.CapabilitiesURL())
	return body, err
}

// Capabilities fetches and parses the layer catalog.
func (c *Client) Capabilities(ctx context.Context) ([]models.Layer, error) {
	body, err := c.RawCapabilities(ctx)
	if err != nil {
		return nil, err
	}
	layers, err := ParseCapabilities(bytes.NewReader(body), c.cfg.Workspace, c.cfg.LayerPrefix)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Parsed WMS capabilities", zap.Int("layers", len(layers)))
	return layers, nil
}

// ParseCapabilities returns every nested layer whose name starts with "<workspace>:<prefix>".
// The root layer itself is never a candidate.
func ParseCapabilities(r io.Reader, workspace, prefix string) ([]models.Layer, error) {
	var doc capabilitiesDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse capabilities: %w", err)
	}

	want := workspace + ":" + prefix
	var out []models.Layer
	var walk func(children []capLayer)
	walk = func(children []capLayer) {
		for _, l := range children {
			name := strings.TrimSpace(l.Name)
			if strings.HasPrefix(name, want) {
				out = append(out, toLayer(name, l))
			}
			walk(l.Layers)
		}
	}
	walk(doc.Capability.Layer.Layers)
	return out, nil
}

func toLayer(name string, l capLayer) models.Layer {
	layer := models.Layer{Name: name, Title: strings.TrimSpace(l.Title)}
	if len(l.Styles) > 0 {
		layer.Style = strings.TrimSpace(l.Styles[0].Name)
	}
	for _, s := range l.Styles {
		if len(s.LegendURLs) > 0 {
			layer.Legend = s.LegendURLs[0].OnlineResource.Href
			break
		}
	}
	if l.BBox != nil {
		layer.BBox = []float64{
			parseCoord(l.BBox.West, -180),
			parseCoord(l.BBox.South, -90),
			parseCoord(l.BBox.East, 180),
			parseCoord(l.BBox.North, 90),
		}
	}
	return layer
}

func parseCoord(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}

// TileURL builds the raster tile template for a layer. The bbox placeholder is
// substituted by the map renderer.
func (c *Client) TileURL(layer, style string) string {
	q := url.Values{}
	q.Set("service", "WMS")
	q.Set("version", "1.1.1")
	q.Set("request", "GetMap")
	q.Set("layers", layer)
	q.Set("styles", style)
	q.Set("format", "image/png")
	q.Set("transparent", "true")
	q.Set("srs", "EPSG:3857")
	q.Set("width", "256")
	q.Set("height", "256")
	q.Set("tiled", "true")
	return c.wmsURL() + "?" + q.Encode() + "&bbox={bbox-epsg-3857}"
}

// Package canvas keeps the descriptor of what the map shows: base style, raster
// overlays, highlight and the invisible click index.
package canvas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"cadastre-backend-go/internal/models"
)

// Overlay ids shared with the page.
const (
	HighlightSource  = "hl"
	HighlightFill    = "hl-fill"
	HighlightLine    = "hl-line"
	ClickIndexSource = "click-index-src"
	ClickIndexFill   = "click-index-fill"
	ClickIndexLine   = "click-index-line"

	tileSize = 256
)

var styleURLs = map[string]string{
	models.StyleSatellite: "mapbox://styles/mapbox/satellite-streets-v12",
	models.StyleStreets:   "mapbox://styles/mapbox/streets-v12",
	models.StyleLight:     "mapbox://styles/mapbox/light-v11",
}

var (
	ErrUnknownStyle = errors.New("unknown map style")
	ErrUnknownLayer = errors.New("unknown layer")
)

// StyleURL returns the base style for a label.
func StyleURL(label string) (string, bool) {
	u, ok := styleURLs[label]
	return u, ok
}

// StyleLabels lists the selectable styles.
func StyleLabels() []string {
	return []string{models.StyleSatellite, models.StyleStreets, models.StyleLight}
}

// TileSource builds raster tile templates.
type TileSource interface {
	TileURL(layer, style string) string
}

// RasterLayer is one WMS overlay as the renderer consumes it.
type RasterLayer struct {
	Name     string   `json:"name"`
	SourceID string   `json:"sourceId"`
	LayerID  string   `json:"layerId"`
	Tiles    []string `json:"tiles"`
	TileSize int      `json:"tileSize"`
}

// State is the full map descriptor.
type State struct {
	Style      string                     `json:"style"`
	StyleURL   string                     `json:"styleUrl"`
	Layers     []RasterLayer              `json:"layers"`
	Highlight  *geojson.FeatureCollection `json:"highlight"`
	ClickIndex *geojson.FeatureCollection `json:"clickIndex"`
}

// SourceID is the raster source id of a layer.
func SourceID(name string) string { return "src-" + strings.Replace(name, ":", "_", 1) }

// LayerID is the raster layer id of a layer.
func LayerID(name string) string { return "lay-" + strings.Replace(name, ":", "_", 1) }

// Canvas is a single user's map. It is not safe for concurrent use.
type Canvas struct {
	tiles   TileSource
	catalog map[string]models.Layer
	style   string

	active    []string
	highlight []*geojson.Feature
	indexed   []*geojson.Feature
}

// New creates a canvas over the layers the user may see.
func New(tiles TileSource, catalog []models.Layer, style string) (*Canvas, error) {
	c := &Canvas{tiles: tiles, catalog: make(map[string]models.Layer, len(catalog))}
	for _, l := range catalog {
		c.catalog[l.Name] = l
	}
	if err := c.SetStyle(style); err != nil {
		return nil, err
	}
	return c, nil
}

// SetStyle switches the base style. Overlays and the click index survive the switch.
func (c *Canvas) SetStyle(label string) error {
	if _, ok := styleURLs[label]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, label)
	}
	c.style = label
	return nil
}

// Style returns the current style label.
func (c *Canvas) Style() string { return c.style }

// AddLayer activates a layer. With fit it returns the layer bbox to frame, when known.
// Adding an active layer changes nothing.
func (c *Canvas) AddLayer(name string, fit bool) ([]float64, error) {
	l, ok := c.catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
	}
	if !c.IsActive(name) {
		c.active = append(c.active, name)
	}
	if fit && len(l.BBox) == 4 {
		return l.BBox, nil
	}
	return nil, nil
}

// RemoveLayer deactivates a layer. Removing an inactive layer changes nothing.
func (c *Canvas) RemoveLayer(name string) {
	for i, n := range c.active {
		if n == name {
			c.active = append(c.active[:i], c.active[i+1:]...)
			return
		}
	}
}

// IsActive reports whether a layer is shown.
func (c *Canvas) IsActive(name string) bool {
	for _, n := range c.active {
		if n == name {
			return true
		}
	}
	return false
}

// Active returns the active layers in the order they were added.
func (c *Canvas) Active() []string {
	return append([]string(nil), c.active...)
}

// SetHighlight replaces the highlighted features.
func (c *Canvas) SetHighlight(features ...*geojson.Feature) {
	c.highlight = append([]*geojson.Feature(nil), features...)
}

// ClearHighlight empties the highlight.
func (c *Canvas) ClearHighlight() { c.highlight = nil }

// SetClickIndex replaces the indexed features. Only those of active layers are
// hit-testable or exported.
func (c *Canvas) SetClickIndex(features []*geojson.Feature) {
	c.indexed = features
}

// ClickIndex returns the indexed features of active layers.
func (c *Canvas) ClickIndex() []*geojson.Feature {
	var out []*geojson.Feature
	for _, f := range c.indexed {
		if c.IsActive(models.FeatureLayer(f)) {
			out = append(out, f)
		}
	}
	return out
}

// HitTest returns the first click-index feature containing pt.
func (c *Canvas) HitTest(pt orb.Point) *geojson.Feature {
	for _, f := range c.ClickIndex() {
		if f.Geometry == nil || !f.Geometry.Bound().Contains(pt) {
			continue
		}
		if contains(f.Geometry, pt) {
			return f
		}
	}
	return nil
}

func contains(g orb.Geometry, pt orb.Point) bool {
	switch t := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(t, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(t, pt)
	case orb.Bound:
		return t.Contains(pt)
	default:
		return false
	}
}

// State exports the descriptor.
func (c *Canvas) State() State {
	s := State{
		Style:      c.style,
		StyleURL:   styleURLs[c.style],
		Layers:     make([]RasterLayer, 0, len(c.active)),
		Highlight:  collection(c.highlight),
		ClickIndex: collection(c.ClickIndex()),
	}
	for _, name := range c.active {
		l := c.catalog[name]
		s.Layers = append(s.Layers, RasterLayer{
			Name:     name,
			SourceID: SourceID(name),
			LayerID:  LayerID(name),
			Tiles:    []string{c.tiles.TileURL(l.Name, l.Style)},
			TileSize: tileSize,
		})
	}
	return s
}

func collection(features []*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features, features...)
	return fc
}

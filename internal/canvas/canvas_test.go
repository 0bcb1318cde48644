package canvas

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cadastre-backend-go/internal/models"
)

type fakeTiles struct{}

func (fakeTiles) TileURL(layer, style string) string { return "tile:" + layer + ":" + style }

func square(code, layer string, x, y float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x + 1, y + 1}}.ToPolygon())
	f.Properties["cve_cat"] = code
	f.Properties["__layer"] = layer
	return f
}

func testCatalog() []models.Layer {
	return []models.Layer{
		{Name: "SICDI:SECTOR_01", Style: "predios", BBox: []float64{-99.5, 19.2, -99.1, 19.6}},
		{Name: "SICDI:SECTOR_02"},
	}
}

func TestNew(t *testing.T) {
	_, err := New(fakeTiles{}, testCatalog(), "Nocturno")
	assert.ErrorIs(t, err, ErrUnknownStyle)

	c, err := New(fakeTiles{}, testCatalog(), models.StyleStreets)
	require.NoError(t, err)
	st := c.State()
	assert.Equal(t, "mapbox://styles/mapbox/streets-v12", st.StyleURL)
	assert.Empty(t, st.Layers)
	assert.Empty(t, st.Highlight.Features)
}

func TestLayers(t *testing.T) {
	c, err := New(fakeTiles{}, testCatalog(), models.StyleSatellite)
	require.NoError(t, err)

	bbox, err := c.AddLayer("SICDI:SECTOR_01", true)
	require.NoError(t, err)
	assert.Equal(t, []float64{-99.5, 19.2, -99.1, 19.6}, bbox)

	bbox, err = c.AddLayer("SICDI:SECTOR_02", true)
	require.NoError(t, err)
	assert.Nil(t, bbox, "no bbox advertised")

	_, err = c.AddLayer("SICDI:SECTOR_01", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"SICDI:SECTOR_01", "SICDI:SECTOR_02"}, c.Active())

	_, err = c.AddLayer("SICDI:SECTOR_99", false)
	assert.ErrorIs(t, err, ErrUnknownLayer)

	st := c.State()
	require.Len(t, st.Layers, 2)
	assert.Equal(t, RasterLayer{
		Name:     "SICDI:SECTOR_01",
		SourceID: "src-SICDI_SECTOR_01",
		LayerID:  "lay-SICDI_SECTOR_01",
		Tiles:    []string{"tile:SICDI:SECTOR_01:predios"},
		TileSize: 256,
	}, st.Layers[0])

	c.RemoveLayer("SICDI:SECTOR_01")
	c.RemoveLayer("SICDI:SECTOR_01")
	assert.Equal(t, []string{"SICDI:SECTOR_02"}, c.Active())
}

func TestClickIndexAndHitTest(t *testing.T) {
	c, err := New(fakeTiles{}, testCatalog(), models.StyleSatellite)
	require.NoError(t, err)

	a := square("1", "SICDI:SECTOR_01", 0, 0)
	b := square("2", "SICDI:SECTOR_02", 5, 5)
	c.SetClickIndex([]*geojson.Feature{a, b})

	assert.Empty(t, c.ClickIndex(), "nothing active")
	assert.Nil(t, c.HitTest(orb.Point{0.5, 0.5}))

	_, _ = c.AddLayer("SICDI:SECTOR_01", false)
	assert.Equal(t, []*geojson.Feature{a}, c.ClickIndex())
	assert.Equal(t, a, c.HitTest(orb.Point{0.5, 0.5}))
	assert.Nil(t, c.HitTest(orb.Point{5.5, 5.5}), "layer inactive")
	assert.Nil(t, c.HitTest(orb.Point{3, 3}))

	_, _ = c.AddLayer("SICDI:SECTOR_02", false)
	assert.Equal(t, b, c.HitTest(orb.Point{5.5, 5.5}))
}

func TestStyleSwitchKeepsOverlays(t *testing.T) {
	c, err := New(fakeTiles{}, testCatalog(), models.StyleSatellite)
	require.NoError(t, err)
	_, _ = c.AddLayer("SICDI:SECTOR_01", false)
	f := square("1", "SICDI:SECTOR_01", 0, 0)
	c.SetClickIndex([]*geojson.Feature{f})
	c.SetHighlight(f)

	require.NoError(t, c.SetStyle(models.StyleLight))
	st := c.State()
	assert.Equal(t, "mapbox://styles/mapbox/light-v11", st.StyleURL)
	assert.Len(t, st.Layers, 1)
	assert.Len(t, st.Highlight.Features, 1)
	assert.Len(t, st.ClickIndex.Features, 1)

	assert.ErrorIs(t, c.SetStyle("x"), ErrUnknownStyle)
	assert.Equal(t, models.StyleLight, c.Style())

	c.ClearHighlight()
	raw, err := json.Marshal(c.State().Highlight)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(raw))
}

package streetview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Viewport is the map surface a pin is dragged over. Pixels are relative to its
// top-left corner.
type Viewport interface {
	Unproject(px orb.Point) orb.Point
	RoadsNear(px orb.Point, radius float64) []orb.Geometry
	Contains(px orb.Point) bool
}

// GeoViewport is a web mercator viewport described by its geographic bounds and
// pixel size, with the road lines currently rendered in it.
type GeoViewport struct {
	Bound  orb.Bound // lng/lat
	Width  float64
	Height float64
	Roads  []orb.Geometry
}

func (v GeoViewport) mercatorBound() orb.Bound {
	return orb.Bound{
		Min: project.Point(v.Bound.Min, project.WGS84.ToMercator),
		Max: project.Point(v.Bound.Max, project.WGS84.ToMercator),
	}
}

// Unproject converts a pixel position to lng/lat.
func (v GeoViewport) Unproject(px orb.Point) orb.Point {
	m := v.mercatorBound()
	x := m.Min[0] + px[0]/v.Width*(m.Max[0]-m.Min[0])
	y := m.Max[1] - px[1]/v.Height*(m.Max[1]-m.Min[1])
	return project.Point(orb.Point{x, y}, project.Mercator.ToWGS84)
}

// RoadsNear returns the roads whose bounds touch the square of the given pixel radius.
func (v GeoViewport) RoadsNear(px orb.Point, radius float64) []orb.Geometry {
	a := v.Unproject(orb.Point{px[0] - radius, px[1] + radius})
	b := v.Unproject(orb.Point{px[0] + radius, px[1] - radius})
	box := orb.Bound{Min: a, Max: b}

	var out []orb.Geometry
	for _, g := range v.Roads {
		if g != nil && box.Intersects(g.Bound()) {
			out = append(out, g)
		}
	}
	return out
}

// Contains reports whether the pixel lies inside the viewport, edges included.
func (v GeoViewport) Contains(px orb.Point) bool {
	return px[0] >= 0 && px[0] <= v.Width && px[1] >= 0 && px[1] <= v.Height
}

// Package streetview resolves a dropped pin to a road position and builds the
// Street View embed for it.
package streetview

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/project"
)

// Snap returns the point on roads nearest to raw, measured in meters.
// Only LineString and MultiLineString geometries take part; with none, raw is returned
// unchanged and snapped is false.
func Snap(raw orb.Point, roads []orb.Geometry) (target orb.Point, snapped bool) {
	best := math.Inf(1)
	target = raw
	for _, g := range roads {
		for _, ls := range lines(g) {
			if len(ls) < 2 {
				continue
			}
			p := nearestOnLine(ls, raw)
			if d := geo.Distance(raw, p); d < best {
				best, target, snapped = d, p, true
			}
		}
	}
	return target, snapped
}

func lines(g orb.Geometry) []orb.LineString {
	switch t := g.(type) {
	case orb.LineString:
		return []orb.LineString{t}
	case orb.MultiLineString:
		return t
	default:
		return nil
	}
}

// nearestOnLine projects to web mercator, finds the closest point of each segment
// there, and keeps the one closest on the sphere.
func nearestOnLine(ls orb.LineString, p orb.Point) orb.Point {
	mp := project.Point(p, project.WGS84.ToMercator)
	best := ls[0]
	bestDist := math.Inf(1)
	for i := 0; i < len(ls)-1; i++ {
		a := project.Point(ls[i], project.WGS84.ToMercator)
		b := project.Point(ls[i+1], project.WGS84.ToMercator)
		c := project.Point(closestOnSegment(a, b, mp), project.Mercator.ToWGS84)
		if d := geo.Distance(p, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func closestOnSegment(a, b, p orb.Point) orb.Point {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return orb.Point{a[0] + t*dx, a[1] + t*dy}
}

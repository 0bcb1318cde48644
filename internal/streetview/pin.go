package streetview

import (
	"time"

	"github.com/paulmach/orb"
)

const (
	// SnapRadius is the pixel radius searched for roads around the pointer.
	SnapRadius = 14.0
	// OpenDelay separates the drop from opening Street View so the release
	// is not taken as a map click. Clients wait this long before opening.
	OpenDelay = 40 * time.Millisecond
)

// Resolve returns where a pin held at px lands: the nearest point of the roads
// within SnapRadius, or the unprojected pointer when no road is close.
func Resolve(vp Viewport, px orb.Point) (at orb.Point, snapped bool) {
	return Snap(vp.Unproject(px), vp.RoadsNear(px, SnapRadius))
}

// Drop resolves a release at px. A release outside the viewport discards the
// drag and reports false.
func Drop(vp Viewport, px orb.Point) (orb.Point, bool) {
	if !vp.Contains(px) {
		return orb.Point{}, false
	}
	at, _ := Resolve(vp, px)
	return at, true
}

package search

import (
	"github.com/paulmach/orb/geojson"

	"cadastre-backend-go/internal/models"
)

// FlyZoom is the camera zoom used for a single address match.
const FlyZoom = 17

// Action tells the page what to do with a submitted query.
type Action string

const (
	ActionOpen      Action = "open"      // select one parcel
	ActionHighlight Action = "highlight" // highlight several parcels and fit to them
	ActionFly       Action = "fly"       // move the camera to an address
	ActionNotice    Action = "notice"    // nothing to select
)

// Outcome is the result of submitting a query.
type Outcome struct {
	Action     Action             `json:"action"`
	Feature    *geojson.Feature   `json:"feature,omitempty"`
	Features   []*geojson.Feature `json:"features,omitempty"`
	Bounds     []float64          `json:"bounds,omitempty"` // [minLng, minLat, maxLng, maxLat]
	Center     []float64          `json:"center,omitempty"` // [lng, lat]
	Zoom       float64            `json:"zoom,omitempty"`
	Place      *Place             `json:"place,omitempty"`
	Candidates int                `json:"candidates"`
	ClearQuery bool               `json:"clearQuery"`
}

// Submit decides what pressing enter does:
// exactly one local match opens it; a numeric query with several code matches
// highlights all of them; exactly one remote match flies to it; anything else is a
// notice carrying the candidate count.
func (i *Index) Submit(q string, remote []Place, layers map[string]bool) Outcome {
	local := i.Local(q, layers)
	if len(local) == 1 {
		out := Outcome{Action: ActionOpen, Feature: local[0], Candidates: 1, ClearQuery: true}
		if b, ok := models.FeatureBound(local[0]); ok {
			out.Bounds = models.BoundArray(b)
			c := b.Center()
			out.Center = []float64{c.Lon(), c.Lat()}
		}
		return out
	}

	if isNumericQuery(q) {
		if matches := i.CodeMatches(q, layers); len(matches) > 1 {
			out := Outcome{Action: ActionHighlight, Features: matches, Candidates: len(matches)}
			if b, ok := models.UnionBound(matches); ok {
				out.Bounds = models.BoundArray(b)
			}
			return out
		}
	}

	if len(remote) == 1 {
		p := remote[0]
		return Outcome{
			Action:     ActionFly,
			Place:      &p,
			Center:     []float64{p.Lng, p.Lat},
			Zoom:       FlyZoom,
			Candidates: 1,
			ClearQuery: true,
		}
	}

	return Outcome{Action: ActionNotice, Candidates: len(local) + len(remote)}
}

package models

// Map style labels accepted in preferences.
const (
	StyleSatellite = "Satélite"
	StyleStreets   = "Calles"
	StyleLight     = "Claro"
)

// DefaultMapStyle is written on first load.
const DefaultMapStyle = StyleSatellite

// Preferences is the per-user map state kept in the "preferencias" collection.
type Preferences struct {
	UserID        string   `json:"userId" firestore:"-"`
	MapStyle      string   `json:"mapStyle" firestore:"mapStyle"`
	ActiveLayers  []string `json:"capas" firestore:"capas"`
	VisibleFields []string `json:"visibleFields" firestore:"visibleFields,omitempty"`
}

// DefaultPreferences returns the record created the first time a user opens the map.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:       userID,
		MapStyle:     DefaultMapStyle,
		ActiveLayers: []string{},
	}
}

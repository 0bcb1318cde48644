package models

import "strings"

// Layer describes one map server layer as advertised by its capabilities document.
type Layer struct {
	Name   string    `json:"name"`
	Title  string    `json:"title"`
	Style  string    `json:"style"`
	Legend string    `json:"legend"`
	BBox   []float64 `json:"bbox"` // [west, south, east, north] or nil
}

// StripWorkspace removes a "<workspace>:" prefix from a layer name.
func StripWorkspace(name, workspace string) string {
	return strings.TrimSpace(strings.TrimPrefix(name, workspace+":"))
}

// Label returns the layer name without its workspace prefix.
func (l Layer) Label(workspace string) string {
	return StripWorkspace(l.Name, workspace)
}

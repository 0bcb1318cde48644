package streetview

import (
	"net/url"
	"strconv"
)

// EmbedURL builds the Street View embed for a coordinate. It is empty without a key.
func EmbedURL(key string, lat, lng float64) string {
	if key == "" {
		return ""
	}
	return "https://www.google.com/maps/embed/v1/streetview?key=" + url.QueryEscape(key) +
		"&location=" + strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64) +
		"&fov=80&pitch=0"
}

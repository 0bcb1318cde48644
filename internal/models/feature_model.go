package models

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Well-known feature attribute keys.
const (
	PropCode  = "cve_cat"
	PropOwner = "nombre_del"
	PropLayer = "__layer"
)

// PropString renders an attribute value the way the page displays it.
func PropString(props geojson.Properties, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// FeatureCode returns the cadastral code of a feature.
func FeatureCode(f *geojson.Feature) string {
	return PropString(f.Properties, PropCode)
}

// FeatureOwner returns the owner name attribute of a feature.
func FeatureOwner(f *geojson.Feature) string {
	return PropString(f.Properties, PropOwner)
}

// FeatureLayer returns the layer a feature was loaded from.
func FeatureLayer(f *geojson.Feature) string {
	return PropString(f.Properties, PropLayer)
}

// FeatureBound prefers the feature's own bbox member and falls back to its geometry.
func FeatureBound(f *geojson.Feature) (orb.Bound, bool) {
	if f == nil {
		return orb.Bound{}, false
	}
	if len(f.BBox) >= 4 {
		return f.BBox.Bound(), true
	}
	if f.Geometry == nil {
		return orb.Bound{}, false
	}
	return f.Geometry.Bound(), true
}

// UnionBound returns the bounds covering every feature that has geometry.
func UnionBound(features []*geojson.Feature) (orb.Bound, bool) {
	var (
		out   orb.Bound
		found bool
	)
	for _, f := range features {
		b, ok := FeatureBound(f)
		if !ok {
			continue
		}
		if !found {
			out, found = b, true
			continue
		}
		out = out.Union(b)
	}
	return out, found
}

// BoundArray converts a bound to [minLng, minLat, maxLng, maxLat].
func BoundArray(b orb.Bound) []float64 {
	return []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
}

// Package search implements parcel lookup by code prefix or owner name, plus address geocoding.
package search

import (
	"strings"
	"sync"

	"github.com/paulmach/orb/geojson"

	"cadastre-backend-go/internal/models"
)

// LocalLimit caps the local suggestion list.
const LocalLimit = 8

type entry struct {
	feature *geojson.Feature
	layer   string
	code    string // digits only
	owner   string // normalized
}

// Index is an in-memory matcher over the loaded parcel features.
// It is not ready until the first Load.
type Index struct {
	mu      sync.RWMutex
	entries []entry
	ready   bool
}

// NewIndex returns an empty, not-ready index.
func NewIndex() *Index {
	return &Index{}
}

// Load replaces the indexed features and marks the index ready.
func (i *Index) Load(features []*geojson.Feature) {
	entries := make([]entry, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		entries = append(entries, entry{
			feature: f,
			layer:   models.FeatureLayer(f),
			code:    Digits(models.FeatureCode(f)),
			owner:   Normalize(models.FeatureOwner(f)),
		})
	}
	i.mu.Lock()
	i.entries = entries
	i.ready = true
	i.mu.Unlock()
}

// Ready reports whether features have been loaded.
func (i *Index) Ready() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.ready
}

// Size returns the number of indexed features.
func (i *Index) Size() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Features returns the indexed features of the given layers. A nil set means every layer.
func (i *Index) Features(layers map[string]bool) []*geojson.Feature {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var out []*geojson.Feature
	for _, e := range i.entries {
		if layers == nil || layers[e.layer] {
			out = append(out, e.feature)
		}
	}
	return out
}

// Local returns up to LocalLimit features whose digit-only code starts with the digit-only
// query, or whose normalized owner contains the normalized query.
// Only features of the given layers are considered; nil means every layer.
func (i *Index) Local(q string, layers map[string]bool) []*geojson.Feature {
	return i.match(q, layers, LocalLimit, true)
}

// CodeMatches returns every feature whose code starts with the digit-only query.
func (i *Index) CodeMatches(q string, layers map[string]bool) []*geojson.Feature {
	return i.match(q, layers, 0, false)
}

func (i *Index) match(q string, layers map[string]bool, limit int, byOwner bool) []*geojson.Feature {
	txt := strings.TrimSpace(q)
	if txt == "" {
		return nil
	}
	qNum := Digits(txt)
	qNorm := ""
	if byOwner {
		qNorm = Normalize(txt)
	}
	if qNum == "" && qNorm == "" {
		return nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if !i.ready {
		return nil
	}

	var out []*geojson.Feature
	for _, e := range i.entries {
		if layers != nil && !layers[e.layer] {
			continue
		}
		if (qNum != "" && strings.HasPrefix(e.code, qNum)) || (qNorm != "" && strings.Contains(e.owner, qNorm)) {
			out = append(out, e.feature)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

package core

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cadastre-backend-go/internal/models"
	"cadastre-backend-go/internal/search"
	"cadastre-backend-go/pkg/cache"
)

const (
	layersCacheKey = "catalog:layers"
	featuresKey    = "features"
	loadTimeout    = 60 * time.Second
)

type catalogService struct {
	geo    MapServer
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group

	mu       sync.Mutex
	index    *search.Index
	loadedAt time.Time
	now      func() time.Time
}

// NewCatalogService creates a CatalogService. Parsed layers are cached for ttl;
// the parcel index is rebuilt once it is older than ttl.
func NewCatalogService(geo MapServer, c cache.Cache, ttl time.Duration, logger *zap.Logger) CatalogService {
	return &catalogService{
		geo:    geo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
		index:  search.NewIndex(),
		now:    time.Now,
	}
}

// Layers returns the filtered catalog. Concurrent misses share one upstream fetch.
func (s *catalogService) Layers(ctx context.Context) ([]models.Layer, error) {
	if layers, ok := s.cachedLayers(ctx); ok {
		return layers, nil
	}

	v, err, _ := s.group.Do("layers", func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		layers, err := s.geo.Capabilities(lctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(layers); err == nil {
			if err := s.cache.Set(lctx, layersCacheKey, string(raw), s.ttl); err != nil {
				s.logger.Warn("Failed to cache layer catalog", zap.Error(err))
			}
		}
		s.logger.Info("Loaded layer catalog", zap.Int("layers", len(layers)))
		return layers, nil
	})
	if err != nil {
		s.logger.Error("Failed to load layer catalog", zap.Error(err))
		return nil, upstreamErr("load capabilities", err)
	}
	return v.([]models.Layer), nil
}

func (s *catalogService) cachedLayers(ctx context.Context) ([]models.Layer, bool) {
	raw, ok, err := s.cache.Get(ctx, layersCacheKey)
	if err != nil {
		s.logger.Warn("Layer catalog cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var layers []models.Layer
	if err := json.Unmarshal([]byte(raw), &layers); err != nil {
		s.logger.Warn("Discarding undecodable cached catalog", zap.Error(err))
		return nil, false
	}
	return layers, true
}

func (s *catalogService) RawCapabilities(ctx context.Context) ([]byte, error) {
	body, err := s.geo.RawCapabilities(ctx)
	if err != nil {
		return nil, upstreamErr("fetch capabilities", err)
	}
	return body, nil
}

// FeatureIndex returns the parcel index over every catalog layer. The first call
// loads it. Once older than ttl the current index keeps being served while one
// rebuild runs in the background; a failed rebuild leaves it in place.
func (s *catalogService) FeatureIndex(ctx context.Context) (*search.Index, error) {
	s.mu.Lock()
	idx := s.index
	stale := s.now().Sub(s.loadedAt) >= s.ttl
	s.mu.Unlock()

	if idx.Ready() {
		if stale {
			s.group.DoChan(featuresKey, func() (interface{}, error) {
				return nil, s.rebuild(context.WithoutCancel(ctx))
			})
		}
		return idx, nil
	}

	_, err, _ := s.group.Do(featuresKey, func() (interface{}, error) {
		return nil, s.rebuild(context.WithoutCancel(ctx))
	})

	s.mu.Lock()
	idx = s.index
	s.mu.Unlock()
	if err != nil && !idx.Ready() {
		return idx, err
	}
	return idx, nil
}

// rebuild downloads every layer and swaps in a new index.
func (s *catalogService) rebuild(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	layers, err := s.Layers(ctx)
	if err != nil {
		s.logger.Warn("Parcel index rebuild failed", zap.Error(err))
		return err
	}
	features, err := s.geo.GetAllFeatures(ctx, layerNames(layers))
	if err != nil {
		s.logger.Warn("Parcel index rebuild failed", zap.Error(err))
		return upstreamErr("load features", err)
	}
	next := search.NewIndex()
	next.Load(features)

	s.mu.Lock()
	s.index = next
	s.loadedAt = s.now()
	s.mu.Unlock()
	s.logger.Info("Built parcel index", zap.Int("features", next.Size()))
	return nil
}

package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cadastre-backend-go/pkg/cache"
)

// parcel is a square parcel of side 0.002° with its south-west corner at (x, y).
func parcel(code, owner, layer string, x, y float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{{
		{x, y}, {x + 0.002, y}, {x + 0.002, y + 0.002}, {x, y + 0.002}, {x, y},
	}})
	f.Properties["cve_cat"] = code
	f.Properties["nombre_del"] = owner
	f.Properties["__layer"] = layer
	f.Properties["superficie"] = 250.5
	return f
}

func testFeatures() []*geojson.Feature {
	return []*geojson.Feature{
		parcel("0101001", "José Pérez", "SICDI:SECTOR_01", -100.01, 20.01),
		parcel("0101002", "María López", "SICDI:SECTOR_01", -100.006, 20.01),
		parcel("0201001", "Juan García", "SICDI:SECTOR_02", -100.002, 20.01),
	}
}

func newTestCatalog(geo *fakeMapServer) *catalogService {
	return NewCatalogService(geo, cache.NewMemoryCache(), time.Minute, zap.NewNop()).(*catalogService)
}

func TestCatalogService_Layers(t *testing.T) {
	ctx := context.Background()
	geo := &fakeMapServer{layers: testCatalog()}
	svc := newTestCatalog(geo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			layers, err := svc.Layers(ctx)
			assert.NoError(t, err)
			assert.Len(t, layers, 3)
		}()
	}
	wg.Wait()

	layers, err := svc.Layers(ctx)
	require.NoError(t, err)
	assert.Equal(t, testCatalog(), layers)
	assert.LessOrEqual(t, geo.capCalls, 8)
	calls := geo.capCalls

	_, err = svc.Layers(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, geo.capCalls, "served from cache")
}

func TestCatalogService_LayersUpstreamError(t *testing.T) {
	svc := newTestCatalog(&fakeMapServer{capErr: errors.New("connection refused")})
	_, err := svc.Layers(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCatalogService_FeatureIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("loads once while fresh", func(t *testing.T) {
		geo := &fakeMapServer{layers: testCatalog(), features: testFeatures()}
		svc := newTestCatalog(geo)

		idx, err := svc.FeatureIndex(ctx)
		require.NoError(t, err)
		assert.True(t, idx.Ready())
		assert.Equal(t, 3, idx.Size())

		_, err = svc.FeatureIndex(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, geo.featureCallCount())
	})

	t.Run("failed first load is not ready", func(t *testing.T) {
		geo := &fakeMapServer{layers: testCatalog(), featuresErr: errors.New("layer 2 failed")}
		idx, err := newTestCatalog(geo).FeatureIndex(ctx)
		assert.ErrorIs(t, err, ErrUpstream)
		assert.False(t, idx.Ready())
	})

	t.Run("stale index is served while one rebuild runs behind it", func(t *testing.T) {
		geo := &fakeMapServer{layers: testCatalog(), features: testFeatures()}
		svc := newTestCatalog(geo)
		now := time.Now()
		svc.now = func() time.Time { return now }

		first, err := svc.FeatureIndex(ctx)
		require.NoError(t, err)

		hold := make(chan struct{})
		geo.setFeatures(testFeatures()[:2], nil, hold)
		now = now.Add(2 * time.Minute)

		for i := 0; i < 5; i++ {
			idx, err := svc.FeatureIndex(ctx)
			require.NoError(t, err)
			assert.Same(t, first, idx, "callers do not wait for the rebuild")
		}
		close(hold)

		assert.Eventually(t, func() bool {
			svc.mu.Lock()
			defer svc.mu.Unlock()
			return svc.index.Size() == 2
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, 2, geo.featureCallCount(), "concurrent stale reads share one rebuild")
	})

	t.Run("failed refresh keeps previous index", func(t *testing.T) {
		geo := &fakeMapServer{layers: testCatalog(), features: testFeatures()}
		svc := newTestCatalog(geo)
		now := time.Now()
		svc.now = func() time.Time { return now }

		_, err := svc.FeatureIndex(ctx)
		require.NoError(t, err)

		geo.setFeatures(nil, errors.New("timeout"), nil)
		now = now.Add(2 * time.Minute)
		idx, err := svc.FeatureIndex(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, idx.Size())

		assert.Eventually(t, func() bool { return geo.featureCallCount() == 2 }, time.Second, 5*time.Millisecond)
		svc.mu.Lock()
		assert.Equal(t, 3, svc.index.Size())
		svc.mu.Unlock()
	})
}

func TestCatalogService_RawCapabilities(t *testing.T) {
	body, err := newTestCatalog(&fakeMapServer{}).RawCapabilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<WMS_Capabilities/>", string(body))
}

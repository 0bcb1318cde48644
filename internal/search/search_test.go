package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/models"
)

func parcel(code, owner, layer string, b orb.Bound) *geojson.Feature {
	f := geojson.NewFeature(b.ToPolygon())
	f.Properties["cve_cat"] = code
	f.Properties["nombre_del"] = owner
	f.Properties["__layer"] = layer
	return f
}

func box(x, y float64) orb.Bound {
	return orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x + 1, y + 1}}
}

func testIndex() *Index {
	idx := NewIndex()
	idx.Load([]*geojson.Feature{
		parcel("26-01-01-002-001", "José Núñez Pérez", "SICDI:SECTOR_01", box(0, 0)),
		parcel("260101002002", "MARIA LOPEZ", "SICDI:SECTOR_01", box(2, 0)),
		parcel("260101003001", "Ana Martínez", "SICDI:SECTOR_01", box(0, 5)),
		parcel("270101000001", "Jose Nunez", "SICDI:SECTOR_02", box(10, 10)),
	})
	return idx
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "jose nunez perez", Normalize("José Núñez Pérez"))
	assert.Equal(t, "camion", Normalize("CAMIÓN"))
	assert.Equal(t, "2601", Digits("26-01 "))
	assert.True(t, isNumericQuery("26-01-01"))
	assert.False(t, isNumericQuery("calle 26"))
	assert.False(t, isNumericQuery("--"))
}

func TestIndex_Local(t *testing.T) {
	idx := testIndex()

	t.Run("not ready", func(t *testing.T) {
		assert.Empty(t, NewIndex().Local("26", nil))
	})

	t.Run("blank", func(t *testing.T) {
		assert.Empty(t, idx.Local("   ", nil))
	})

	t.Run("code prefix ignores separators", func(t *testing.T) {
		got := idx.Local("26-01-01-002", nil)
		require.Len(t, got, 2)
		assert.Equal(t, "26-01-01-002-001", models.FeatureCode(got[0]))
	})

	t.Run("strict prefix of a code is always included", func(t *testing.T) {
		got := idx.Local("2601010030", nil)
		require.Len(t, got, 1)
		assert.Equal(t, "260101003001", models.FeatureCode(got[0]))
	})

	t.Run("owner substring folds accents and case", func(t *testing.T) {
		got := idx.Local("nuñez", nil)
		assert.Len(t, got, 2)
		got = idx.Local("MARTINEZ", nil)
		require.Len(t, got, 1)
		assert.Equal(t, "Ana Martínez", models.FeatureOwner(got[0]))
	})

	t.Run("layer restriction", func(t *testing.T) {
		got := idx.Local("nunez", map[string]bool{"SICDI:SECTOR_02": true})
		require.Len(t, got, 1)
		assert.Equal(t, "270101000001", models.FeatureCode(got[0]))
	})

	t.Run("capped", func(t *testing.T) {
		big := NewIndex()
		var fs []*geojson.Feature
		for i := 0; i < 20; i++ {
			fs = append(fs, parcel("99000"+string(rune('a'+i)), "x", "L", box(0, 0)))
		}
		big.Load(fs)
		assert.Len(t, big.Local("99", nil), LocalLimit)
		assert.Len(t, big.CodeMatches("99", nil), 20)
	})
}

func TestIndex_Submit(t *testing.T) {
	idx := testIndex()

	t.Run("single local match opens and clears", func(t *testing.T) {
		out := idx.Submit("ana mart", nil, nil)
		assert.Equal(t, ActionOpen, out.Action)
		assert.True(t, out.ClearQuery)
		require.NotNil(t, out.Feature)
		assert.Equal(t, []float64{0, 5, 1, 6}, out.Bounds)
		assert.Equal(t, []float64{0.5, 5.5}, out.Center)
	})

	t.Run("numeric query with several matches highlights all", func(t *testing.T) {
		out := idx.Submit("2601", nil, nil)
		assert.Equal(t, ActionHighlight, out.Action)
		assert.Len(t, out.Features, 3)
		assert.Equal(t, 3, out.Candidates)
		assert.Equal(t, []float64{0, 0, 3, 6}, out.Bounds)
		assert.False(t, out.ClearQuery)
	})

	t.Run("single remote flies", func(t *testing.T) {
		out := idx.Submit("avenida juarez", []Place{{ID: "a", Name: "Av. Juárez", Lng: -99.1, Lat: 19.4}}, nil)
		assert.Equal(t, ActionFly, out.Action)
		assert.Equal(t, float64(FlyZoom), out.Zoom)
		assert.Equal(t, []float64{-99.1, 19.4}, out.Center)
	})

	t.Run("no match never auto-selects", func(t *testing.T) {
		out := idx.Submit("zzz", nil, nil)
		assert.Equal(t, ActionNotice, out.Action)
		assert.Zero(t, out.Candidates)
		assert.Nil(t, out.Feature)
	})

	t.Run("ambiguous text reports the count", func(t *testing.T) {
		out := idx.Submit("jose", []Place{{ID: "a"}, {ID: "b"}}, nil)
		assert.Equal(t, ActionNotice, out.Action)
		assert.Equal(t, 4, out.Candidates)
	})
}

func TestMapboxGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocoding/v5/mapbox.places/calle 5 de mayo.json", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "es", r.URL.Query().Get("language"))
		_, _ = w.Write([]byte(`{"features":[
			{"id":"address.1","place_name":"Calle 5 de Mayo, Centro","center":[-99.13,19.43]},
			{"id":"broken","place_name":"sin centro"}
		]}`))
	}))
	defer srv.Close()

	g := NewMapboxGeocoder(MapboxConfig{BaseURL: srv.URL, Token: "tok", Language: "es"}, srv.Client(), zap.NewNop())
	places, err := g.Lookup(context.Background(), "calle 5 de mayo")
	require.NoError(t, err)
	assert.Equal(t, []Place{{ID: "address.1", Name: "Calle 5 de Mayo, Centro", Lng: -99.13, Lat: 19.43}}, places)
}

type fakeGeocoder struct {
	calls atomic.Int32
	fn    func(ctx context.Context, q string) ([]Place, error)
}

func (f *fakeGeocoder) Lookup(ctx context.Context, q string) ([]Place, error) {
	f.calls.Add(1)
	return f.fn(ctx, q)
}

func TestSuggester(t *testing.T) {
	t.Run("newer query supersedes the pending one", func(t *testing.T) {
		geo := &fakeGeocoder{fn: func(_ context.Context, q string) ([]Place, error) {
			return []Place{{ID: q}}, nil
		}}
		s := NewSuggester(geo, 100*time.Millisecond, zap.NewNop())

		var (
			wg    sync.WaitGroup
			first []Place
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			first = s.Suggest(context.Background(), "u1", "cal")
		}()
		time.Sleep(20 * time.Millisecond)
		second := s.Suggest(context.Background(), "u1", "calle")
		wg.Wait()

		assert.Empty(t, first)
		assert.Equal(t, []Place{{ID: "calle"}}, second)
		assert.EqualValues(t, 1, geo.calls.Load())
	})

	t.Run("callers are independent", func(t *testing.T) {
		geo := &fakeGeocoder{fn: func(_ context.Context, q string) ([]Place, error) {
			return []Place{{ID: q}}, nil
		}}
		s := NewSuggester(geo, 20*time.Millisecond, zap.NewNop())
		var wg sync.WaitGroup
		results := make([][]Place, 2)
		for i, caller := range []string{"a", "b"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = s.Suggest(context.Background(), caller, "centro")
			}()
		}
		wg.Wait()
		assert.Len(t, results[0], 1)
		assert.Len(t, results[1], 1)
	})

	t.Run("failures and blanks are empty", func(t *testing.T) {
		geo := &fakeGeocoder{fn: func(context.Context, string) ([]Place, error) {
			return nil, errors.New("rate limited")
		}}
		s := NewSuggester(geo, time.Millisecond, zap.NewNop())
		assert.Empty(t, s.Suggest(context.Background(), "u1", "centro"))
		assert.Empty(t, s.Suggest(context.Background(), "u1", "  "))
		assert.EqualValues(t, 1, geo.calls.Load())
	})
}

package core

import (
	"context"
	"strings"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/popup"
	"cadastre-backend-go/internal/search"
)

type searchService struct {
	catalog   CatalogService
	perms     PermissionService
	prefs     PreferencesService
	suggester *search.Suggester
	geocoder  search.Geocoder
	renderer  *popup.Renderer
	logger    *zap.Logger
}

// NewSearchService creates a SearchService. geocoder may be nil when no geocoder
// token is configured; remote candidates are then always empty.
func NewSearchService(catalog CatalogService, perms PermissionService, prefs PreferencesService, suggester *search.Suggester, geocoder search.Geocoder, renderer *popup.Renderer, logger *zap.Logger) SearchService {
	return &searchService{
		catalog:   catalog,
		perms:     perms,
		prefs:     prefs,
		suggester: suggester,
		geocoder:  geocoder,
		renderer:  renderer,
		logger:    logger,
	}
}

// visibleIndex returns the parcel index and the layers the session may search.
// An index that failed to load is returned not ready.
func (s *searchService) visibleIndex(ctx context.Context, sess *Session) (*search.Index, map[string]bool, error) {
	layers, err := s.catalog.Layers(ctx)
	if err != nil {
		return nil, nil, err
	}
	idx, err := s.catalog.FeatureIndex(ctx)
	if err != nil {
		s.logger.Debug("Searching without parcel index", zap.Error(err))
		idx = search.NewIndex()
	}
	return idx, layerSet(s.perms.VisibleLayers(sess, layers)), nil
}

// Suggest lists local parcel matches and debounced address candidates.
func (s *searchService) Suggest(ctx context.Context, sess *Session, q string) (*Suggestions, error) {
	out := &Suggestions{Local: []*geojson.Feature{}, Remote: []search.Place{}}
	if strings.TrimSpace(q) == "" {
		return out, nil
	}
	idx, layers, err := s.visibleIndex(ctx, sess)
	if err != nil {
		return nil, err
	}
	out.Ready = idx.Ready()
	if local := idx.Local(q, layers); local != nil {
		out.Local = local
	}
	if s.suggester != nil {
		if remote := s.suggester.Suggest(ctx, sess.UID, q); remote != nil {
			out.Remote = remote
		}
	}
	return out, nil
}

// Submit decides what pressing enter does. The geocoder is only asked when no
// parcel decision was possible.
func (s *searchService) Submit(ctx context.Context, sess *Session, q string) (*SubmitResult, error) {
	idx, layers, err := s.visibleIndex(ctx, sess)
	if err != nil {
		return nil, err
	}

	outcome := idx.Submit(q, nil, layers)
	if outcome.Action == search.ActionNotice && s.geocoder != nil && strings.TrimSpace(q) != "" {
		remote, err := s.geocoder.Lookup(ctx, strings.TrimSpace(q))
		if err != nil {
			s.logger.Debug("Geocoder lookup failed", zap.String("q", q), zap.Error(err))
			remote = nil
		}
		outcome = idx.Submit(q, remote, layers)
	}

	res := &SubmitResult{Outcome: outcome}
	if outcome.Action == search.ActionOpen {
		perms := s.perms.Load(sess)
		if perms.AllowPopup {
			prefs, err := s.prefs.Load(ctx, sess.UID)
			if err != nil {
				return nil, err
			}
			html, err := s.renderer.Build(outcome.Feature.Properties, prefs.VisibleFields, perms.CanOpenDocuments)
			if err != nil {
				return nil, err
			}
			res.PopupHTML = html
		}
	}
	return res, nil
}

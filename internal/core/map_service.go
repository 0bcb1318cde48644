package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/canvas"
	"cadastre-backend-go/internal/geoserver"
	"cadastre-backend-go/internal/models"
	"cadastre-backend-go/internal/popup"
)

const (
	SourceIndex       = "index"
	SourceFeatureInfo = "feature-info"
)

type mapService struct {
	geo      MapServer
	catalog  CatalogService
	perms    PermissionService
	prefs    PreferencesService
	renderer *popup.Renderer
	logger   *zap.Logger
}

// NewMapService creates a MapService.
func NewMapService(geo MapServer, catalog CatalogService, perms PermissionService, prefs PreferencesService, renderer *popup.Renderer, logger *zap.Logger) MapService {
	return &mapService{
		geo:      geo,
		catalog:  catalog,
		perms:    perms,
		prefs:    prefs,
		renderer: renderer,
		logger:   logger,
	}
}

type mapContext struct {
	canvas  *canvas.Canvas
	visible []models.Layer
	prefs   *models.Preferences
	perms   Permissions
	ready   bool
}

// load rebuilds the session's canvas from its preferences. Stored layers the user
// can no longer see are skipped, and an unknown stored style falls back to the default.
func (s *mapService) load(ctx context.Context, sess *Session) (*mapContext, error) {
	layers, err := s.catalog.Layers(ctx)
	if err != nil {
		return nil, err
	}
	prefs, err := s.prefs.Load(ctx, sess.UID)
	if err != nil {
		return nil, err
	}
	mc := &mapContext{
		visible: s.perms.VisibleLayers(sess, layers),
		prefs:   prefs,
		perms:   s.perms.Load(sess),
	}

	cv, err := canvas.New(s.geo, mc.visible, prefs.MapStyle)
	if errors.Is(err, canvas.ErrUnknownStyle) {
		s.logger.Debug("Stored map style unknown, using default", zap.String("style", prefs.MapStyle))
		cv, err = canvas.New(s.geo, mc.visible, models.DefaultMapStyle)
	}
	if err != nil {
		return nil, fmt.Errorf("build canvas: %w", err)
	}
	for _, name := range prefs.ActiveLayers {
		if _, err := cv.AddLayer(name, false); err != nil {
			s.logger.Debug("Skipping stored layer", zap.String("layer", name), zap.Error(err))
		}
	}

	if idx, err := s.catalog.FeatureIndex(ctx); err == nil && idx.Ready() {
		cv.SetClickIndex(idx.Features(layerSet(mc.visible)))
		mc.ready = true
	}
	mc.canvas = cv
	return mc, nil
}

func (s *mapService) State(ctx context.Context, sess *Session) (*MapView, error) {
	mc, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &MapView{
		State:       mc.canvas.State(),
		Layers:      mc.visible,
		Preferences: mc.prefs,
		Permissions: mc.perms,
		IndexReady:  mc.ready,
	}, nil
}

// Identify resolves a click: the click index first, then a race of GetFeatureInfo
// requests over the active layers. The feature found becomes the only highlight.
func (s *mapService) Identify(ctx context.Context, sess *Session, req models.IdentifyRequest) (*IdentifyResult, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: viewport size must be positive", ErrInvalidInput)
	}
	mc, err := s.load(ctx, sess)
	if err != nil {
		return nil, err
	}

	res := &IdentifyResult{}
	if f := mc.canvas.HitTest(orb.Point{req.Lng, req.Lat}); f != nil {
		res.Feature, res.Source = f, SourceIndex
	} else {
		params := geoserver.FeatureInfoParams{BBox: req.BBox, Width: req.Width, Height: req.Height, X: req.X, Y: req.Y}
		f, err := s.geo.FirstFeatureInfo(ctx, params, mc.canvas.Active())
		switch {
		case errors.Is(err, geoserver.ErrNoFeature):
		case err != nil:
			return nil, upstreamErr("feature info", err)
		default:
			res.Feature, res.Source = f, SourceFeatureInfo
		}
	}

	if res.Feature == nil {
		mc.canvas.ClearHighlight()
		res.Highlight = mc.canvas.State().Highlight
		return res, nil
	}

	mc.canvas.SetHighlight(res.Feature)
	res.Highlight = mc.canvas.State().Highlight
	if mc.perms.AllowPopup {
		html, err := s.renderer.Build(res.Feature.Properties, mc.prefs.VisibleFields, mc.perms.CanOpenDocuments)
		if err != nil {
			return nil, err
		}
		res.PopupHTML = html
	}
	return res, nil
}

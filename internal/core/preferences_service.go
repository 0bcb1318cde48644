package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cadastre-backend-go/internal/canvas"
	"cadastre-backend-go/internal/db"
	"cadastre-backend-go/internal/models"
)

type preferencesService struct {
	repo   db.PreferencesRepository
	logger *zap.Logger
}

// NewPreferencesService creates a PreferencesService.
func NewPreferencesService(repo db.PreferencesRepository, logger *zap.Logger) PreferencesService {
	return &preferencesService{repo: repo, logger: logger}
}

// Load returns the user's preferences, writing the defaults on first load.
func (s *preferencesService) Load(ctx context.Context, userID string) (*models.Preferences, error) {
	prefs, err := s.repo.Get(ctx, userID)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, storeErr("load preferences", err)
	}

	prefs = models.DefaultPreferences(userID)
	if err := s.repo.Create(ctx, prefs); err != nil {
		return nil, storeErr("create preferences", err)
	}
	s.logger.Debug("Created default preferences", zap.String("userID", userID))
	return prefs, nil
}

func (s *preferencesService) SaveStyle(ctx context.Context, userID, style string) error {
	if _, ok := canvas.StyleURL(style); !ok {
		return fmt.Errorf("%w: unknown map style %q", ErrInvalidInput, style)
	}
	return s.patch(ctx, userID, map[string]interface{}{"mapStyle": style})
}

func (s *preferencesService) SaveActiveLayers(ctx context.Context, userID string, layers []string) error {
	if layers == nil {
		layers = []string{}
	}
	return s.patch(ctx, userID, map[string]interface{}{"capas": layers})
}

func (s *preferencesService) SaveVisibleFields(ctx context.Context, userID string, fields []string) error {
	if fields == nil {
		fields = []string{}
	}
	return s.patch(ctx, userID, map[string]interface{}{"visibleFields": fields})
}

// Apply validates and writes a partial update in one merge, then returns the
// stored preferences. Active layers must all be visible to the user.
func (s *preferencesService) Apply(ctx context.Context, userID string, patch models.PreferencesPatch, visible []models.Layer) (*models.Preferences, error) {
	fields := map[string]interface{}{}
	if patch.MapStyle != nil {
		if _, ok := canvas.StyleURL(*patch.MapStyle); !ok {
			return nil, fmt.Errorf("%w: unknown map style %q", ErrInvalidInput, *patch.MapStyle)
		}
		fields["mapStyle"] = *patch.MapStyle
	}
	if patch.ActiveLayers != nil {
		allowed := layerSet(visible)
		layers := []string{}
		seen := map[string]bool{}
		for _, name := range *patch.ActiveLayers {
			if !allowed[name] {
				return nil, fmt.Errorf("%w: layer %q is not visible", ErrInvalidInput, name)
			}
			if !seen[name] {
				seen[name] = true
				layers = append(layers, name)
			}
		}
		fields["capas"] = layers
	}
	if patch.VisibleFields != nil {
		vf := *patch.VisibleFields
		if vf == nil {
			vf = []string{}
		}
		fields["visibleFields"] = vf
	}

	if _, err := s.Load(ctx, userID); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.patch(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.Load(ctx, userID)
}

// ToggleLayer adds a hidden layer or removes a shown one and reports whether it is
// now active.
func (s *preferencesService) ToggleLayer(ctx context.Context, userID, layer string, visible []models.Layer) (*models.Preferences, bool, error) {
	if !layerSet(visible)[layer] {
		return nil, false, fmt.Errorf("%w: layer %q is not visible", ErrInvalidInput, layer)
	}
	prefs, err := s.Load(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	next := make([]string, 0, len(prefs.ActiveLayers)+1)
	active := true
	for _, name := range prefs.ActiveLayers {
		if name == layer {
			active = false
			continue
		}
		next = append(next, name)
	}
	if active {
		next = append(next, layer)
	}

	if err := s.SaveActiveLayers(ctx, userID, next); err != nil {
		return nil, false, err
	}
	prefs.ActiveLayers = next
	return prefs, active, nil
}

func (s *preferencesService) patch(ctx context.Context, userID string, fields map[string]interface{}) error {
	if err := s.repo.Patch(ctx, userID, fields); err != nil {
		return storeErr("save preferences", err)
	}
	return nil
}

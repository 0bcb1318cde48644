package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/core"
	"cadastre-backend-go/internal/models"
)

// PreferencesHandler handles the user's saved map state.
type PreferencesHandler struct {
	prefs   core.PreferencesService
	perms   core.PermissionService
	catalog core.CatalogService
	logger  *zap.Logger
}

// NewPreferencesHandler creates a new PreferencesHandler.
func NewPreferencesHandler(prefs core.PreferencesService, perms core.PermissionService, catalog core.CatalogService, logger *zap.Logger) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs, perms: perms, catalog: catalog, logger: logger}
}

// GetPreferences handles GET /preferences
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	prefs, err := h.prefs.Load(c.Request.Context(), sess.UID)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// PatchPreferences handles PATCH /preferences
func (h *PreferencesHandler) PatchPreferences(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.PreferencesPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	visible, err := h.visibleLayers(c, sess)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	prefs, err := h.prefs.Apply(c.Request.Context(), sess.UID, req, visible)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// ToggleLayer handles POST /preferences/layers/:name/toggle
func (h *PreferencesHandler) ToggleLayer(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	name := c.Param("name")
	visible, err := h.visibleLayers(c, sess)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	prefs, active, err := h.prefs.ToggleLayer(c.Request.Context(), sess.UID, name, visible)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ToggleLayerResponse{Layer: name, Active: active, Preferences: prefs})
}

func (h *PreferencesHandler) visibleLayers(c *gin.Context, sess *core.Session) ([]models.Layer, error) {
	layers, err := h.catalog.Layers(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return h.perms.VisibleLayers(sess, layers), nil
}

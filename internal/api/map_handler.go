package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/core"
	"cadastre-backend-go/internal/models"
)

// MapHandler serves the layer catalog, the map descriptor and click identification.
type MapHandler struct {
	catalog   core.CatalogService
	perms     core.PermissionService
	maps      core.MapService
	workspace string
	logger    *zap.Logger
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(catalog core.CatalogService, perms core.PermissionService, maps core.MapService, workspace string, logger *zap.Logger) *MapHandler {
	return &MapHandler{catalog: catalog, perms: perms, maps: maps, workspace: workspace, logger: logger}
}

// ListLayers handles GET /layers
func (h *MapHandler) ListLayers(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	layers, err := h.catalog.Layers(c.Request.Context())
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	visible := h.perms.VisibleLayers(sess, layers)
	out := make([]LayerResponse, 0, len(visible))
	for _, l := range visible {
		out = append(out, LayerResponse{Layer: l, Label: l.Label(h.workspace)})
	}
	c.JSON(http.StatusOK, out)
}

// Capabilities handles GET /wms/capabilities, relaying the map server document
// so the browser avoids a cross-origin request.
func (h *MapHandler) Capabilities(c *gin.Context) {
	body, err := h.catalog.RawCapabilities(c.Request.Context())
	if err != nil {
		h.logger.Warn("Capabilities proxy failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Upstream error", Details: err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// GetState handles GET /map/state
func (h *MapHandler) GetState(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	view, err := h.maps.State(c.Request.Context(), sess)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Identify handles POST /map/identify
func (h *MapHandler) Identify(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.maps.Identify(c.Request.Context(), sess, req)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

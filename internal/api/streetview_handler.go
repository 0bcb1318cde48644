package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/core"
	"cadastre-backend-go/internal/models"
)

// StreetViewHandler snaps dragged pins.
type StreetViewHandler struct {
	streetView core.StreetViewService
	logger     *zap.Logger
}

// NewStreetViewHandler creates a new StreetViewHandler.
func NewStreetViewHandler(sv core.StreetViewService, logger *zap.Logger) *StreetViewHandler {
	return &StreetViewHandler{streetView: sv, logger: logger}
}

// Snap handles POST /streetview/snap
func (h *StreetViewHandler) Snap(c *gin.Context) {
	var req models.SnapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.streetView.Snap(c.Request.Context(), req)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

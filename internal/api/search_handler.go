package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/core"
	"cadastre-backend-go/internal/models"
)

// SearchHandler answers the search box.
type SearchHandler struct {
	search core.SearchService
	logger *zap.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(search core.SearchService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{search: search, logger: logger}
}

// Suggest handles GET /search/suggest?q=
func (h *SearchHandler) Suggest(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	res, err := h.search.Suggest(c.Request.Context(), sess, c.Query("q"))
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Submit handles POST /search/submit
func (h *SearchHandler) Submit(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.SearchSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.search.Submit(c.Request.Context(), sess, req.Query)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

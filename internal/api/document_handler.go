package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/core"
	"cadastre-backend-go/internal/documents"
)

// DocumentHandler opens case files and proxies them for the browser.
type DocumentHandler struct {
	docs   core.DocumentService
	proxy  *documents.Proxy
	logger *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docs core.DocumentService, proxy *documents.Proxy, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, proxy: proxy, logger: logger}
}

// Open handles GET /documents/:code
func (h *DocumentHandler) Open(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	link, err := h.docs.Open(c.Request.Context(), sess, c.Param("code"))
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// Proxy handles GET /proxy?url=
func (h *DocumentHandler) Proxy(c *gin.Context) {
	up, err := h.proxy.Fetch(c.Request.Context(), c.Query("url"))
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrMissingURL):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing url"})
		case errors.Is(err, documents.ErrForbiddenHost):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden host"})
		default:
			h.logger.Error("Document proxy failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Proxy failed"})
		}
		return
	}
	defer up.Body.Close()

	c.Header("Cache-Control", documents.ProxyCacheControl)
	c.Header("Content-Type", up.ContentType)
	c.Status(up.StatusCode)
	if _, err := io.Copy(c.Writer, up.Body); err != nil {
		h.logger.Warn("Document proxy copy interrupted", zap.Error(err))
	}
}

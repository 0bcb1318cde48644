package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/core"
)

// SessionHandler serves the signed-in user's session and permissions.
type SessionHandler struct {
	perms  core.PermissionService
	logger *zap.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(perms core.PermissionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{perms: perms, logger: logger}
}

// GetSession handles GET /session
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess)
}

// GetPermissions handles GET /permissions
func (h *SessionHandler) GetPermissions(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.perms.Load(sess))
}

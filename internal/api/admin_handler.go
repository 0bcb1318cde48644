package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/core"
	"cadastre-backend-go/internal/models"
)

// AdminHandler handles API endpoints of the user editor.
type AdminHandler struct {
	admin  core.AdminService
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin core.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// ListUsers handles GET /admin/users?q=&role=&layers=&page=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter := core.UserFilter{
		Query:     c.Query("q"),
		Role:      c.Query("role"),
		LayerMode: c.Query("layers"),
		Page:      1,
	}
	if p := c.Query("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid page", Details: err.Error()})
			return
		}
		filter.Page = n
	}
	page, err := h.admin.List(c.Request.Context(), filter)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetUser handles GET /admin/users/:uid
func (h *AdminHandler) GetUser(c *gin.Context) {
	u, err := h.admin.Get(c.Request.Context(), c.Param("uid"))
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// PatchUser handles PATCH /admin/users/:uid
func (h *AdminHandler) PatchUser(c *gin.Context) {
	actor, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.UserPermissionPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.admin.Patch(c.Request.Context(), actor, c.Param("uid"), req)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// ApplyTemplate handles POST /admin/users/:uid/templates/:key
func (h *AdminHandler) ApplyTemplate(c *gin.Context) {
	actor, ok := currentSession(c)
	if !ok {
		return
	}
	u, err := h.admin.ApplyTemplate(c.Request.Context(), actor, c.Param("uid"), c.Param("key"))
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// ListTemplates handles GET /admin/templates
func (h *AdminHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, h.admin.Templates())
}

// ListFields handles GET /admin/fields
func (h *AdminHandler) ListFields(c *gin.Context) {
	c.JSON(http.StatusOK, h.admin.Fields())
}

// SetAdmin handles PUT /admin/users/:uid/admin
func (h *AdminHandler) SetAdmin(c *gin.Context) {
	actor, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.admin.SetAdmin(c.Request.Context(), actor, c.Param("uid"), req.Admin)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// ProvisionUser handles POST /admin/users
func (h *AdminHandler) ProvisionUser(c *gin.Context) {
	actor, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.ProvisionUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.admin.Provision(c.Request.Context(), actor, req.Email, req.Admin)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

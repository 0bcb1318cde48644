package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/middleware"
)

// Handlers groups every handler the router mounts.
type Handlers struct {
	Session     *SessionHandler
	Preferences *PreferencesHandler
	Map         *MapHandler
	Search      *SearchHandler
	StreetView  *StreetViewHandler
	Documents   *DocumentHandler
	Admin       *AdminHandler
}

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (request id, logging, recovery, CORS) is applied by main.
// Every /api/v1 route needs a verified token; all but the capabilities relay and
// the document proxy also need a permission record.
func SetupRoutes(router *gin.Engine, authMW *middleware.AuthMiddleware, sessionGate gin.HandlerFunc, h Handlers, logger *zap.Logger) {
	apiV1 := router.Group("/api/v1", authMW.VerifyToken())
	{
		apiV1.GET("/wms/capabilities", h.Map.Capabilities)
		apiV1.GET("/proxy", h.Documents.Proxy)

		viewer := apiV1.Group("", sessionGate)
		{
			viewer.GET("/session", h.Session.GetSession)
			viewer.GET("/permissions", h.Session.GetPermissions)

			viewer.GET("/preferences", h.Preferences.GetPreferences)
			viewer.PATCH("/preferences", h.Preferences.PatchPreferences)
			viewer.POST("/preferences/layers/:name/toggle", h.Preferences.ToggleLayer)

			viewer.GET("/layers", h.Map.ListLayers)
			viewer.GET("/map/state", h.Map.GetState)
			viewer.POST("/map/identify", h.Map.Identify)

			viewer.GET("/search/suggest", h.Search.Suggest)
			viewer.POST("/search/submit", h.Search.Submit)

			viewer.POST("/streetview/snap", h.StreetView.Snap)

			viewer.GET("/documents/:code", h.Documents.Open)
		}

		admin := apiV1.Group("/admin", sessionGate, middleware.RequireAdmin())
		{
			admin.GET("/users", h.Admin.ListUsers)
			admin.GET("/users/:uid", h.Admin.GetUser)
			admin.PATCH("/users/:uid", h.Admin.PatchUser)
			admin.POST("/users/:uid/templates/:key", h.Admin.ApplyTemplate)
			admin.GET("/templates", h.Admin.ListTemplates)
			admin.GET("/fields", h.Admin.ListFields)

			super := admin.Group("", middleware.RequireSuper())
			{
				super.POST("/users", h.Admin.ProvisionUser)
				super.PUT("/users/:uid/admin", h.Admin.SetAdmin)
			}
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Cadastre backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}

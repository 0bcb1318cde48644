package api

import "cadastre-backend-go/internal/models"

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	// Code is a machine-readable hint, e.g. "signed_out" or "not_found".
	Code string `json:"code,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// LayerResponse is a catalog layer with its display label.
type LayerResponse struct {
	models.Layer
	Label string `json:"label"`
}

// ToggleLayerResponse reports a layer toggle.
type ToggleLayerResponse struct {
	Layer       string              `json:"layer"`
	Active      bool                `json:"active"`
	Preferences *models.Preferences `json:"preferences"`
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/core"
	"cadastre-backend-go/internal/middleware"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeSignedOut = middleware.CodeSignedOut
	CodeNotFound  = "not_found"
)

// mapCoreErrorToStatus maps errors from the core services to HTTP status codes and ErrorResponse.
func mapCoreErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: "Access not authorized", Code: CodeSignedOut}
	case errors.Is(err, core.ErrStoreDenied):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: "Store access denied", Details: err.Error(), Code: core.ErrStoreDenied.Error()}
	case errors.Is(err, core.ErrForbidden):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrForbidden.Error(), Details: err.Error()}
	case errors.Is(err, core.ErrDocumentNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "No case file exists for this parcel", Code: CodeNotFound}
	case errors.Is(err, core.ErrFeatureNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrFeatureNotFound.Error(), Code: CodeNotFound}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrUserNotFound.Error(), Details: err.Error(), Code: CodeNotFound}
	case errors.Is(err, core.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidInput.Error(), Details: err.Error()}
	case errors.Is(err, core.ErrUpstream):
		logger.Warn("Upstream failure", zap.String("path", c.Request.URL.Path), zap.Error(err))
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{Error: core.ErrUpstream.Error()}
	default:
		logger.Error("Internal Server Error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	_ = c.Error(err)
	c.JSON(statusCode, errResponse)
}

// currentSession returns the gate's session or answers 401.
func currentSession(c *gin.Context) (*core.Session, bool) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not found in context", Code: CodeSignedOut})
		return nil, false
	}
	return sess, true
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
}

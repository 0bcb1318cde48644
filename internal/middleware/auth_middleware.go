package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/core"
)

// Context keys set by the auth chain.
const (
	ContextUserID      = "userID"
	ContextUserEmail   = "userEmail"
	ContextDisplayName = "userDisplayName"
	ContextClaims      = "userClaims"
	ContextIDToken     = "idToken"
	ContextSession     = "session"
)

// CodeSignedOut tells the client to sign out and show a blocking message.
const CodeSignedOut = "signed_out"

// ErrorResponse is a local definition for sending standardized error messages.
// It mirrors the one in internal/api/dto_models.go to avoid import cycles.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// TokenVerifier checks identity provider ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware provides Gin middleware for Firebase token authentication.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("AuthMiddleware requires a token verifier")
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// VerifyToken validates the bearer ID token and stores the identity in the context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}
		idToken := parts[1]

		token, err := m.verifier.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			m.logger.Info("Rejected ID token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		c.Set(ContextUserID, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set(ContextUserEmail, email)
		}
		if name, ok := token.Claims["name"].(string); ok {
			c.Set(ContextDisplayName, name)
		}
		c.Set(ContextClaims, token.Claims)
		c.Set(ContextIDToken, idToken)
		c.Next()
	}
}

// SessionGate resolves the verified identity into a session. An identity without a
// permission record is answered with 401 and the signed_out code.
func SessionGate(sessions core.SessionService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := core.Identity{
			UID:     c.GetString(ContextUserID),
			Email:   c.GetString(ContextUserEmail),
			Name:    c.GetString(ContextDisplayName),
			IDToken: c.GetString(ContextIDToken),
		}
		if claims, ok := c.Get(ContextClaims); ok {
			id.Claims, _ = claims.(map[string]interface{})
		}

		sess, err := sessions.Resolve(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, core.ErrUnauthorized) {
				logger.Error("Session resolution failed", zap.String("uid", id.UID), zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "Access not authorized",
				Details: "Your account has no viewer permissions. Contact the administrator.",
				Code:    CodeSignedOut,
			})
			return
		}
		c.Set(ContextSession, sess)
		c.Next()
	}
}

// RequireAdmin lets admins and super-admins through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok || !sess.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Administrator role required"})
			return
		}
		c.Next()
	}
}

// RequireSuper lets only super-admins through.
func RequireSuper() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok || !sess.Super {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Super-administrator role required"})
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session stored by SessionGate.
func SessionFrom(c *gin.Context) (*core.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*core.Session)
	return sess, ok && sess != nil
}

package middleware

import (
	"errors"
	"strings"

	"github.com/docspace/core/internal/modules/sessions"
	"github.com/docspace/core/internal/pkg/jwt"
	"github.com/docspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyOrgID  = "org_id"
	ContextKeySID    = "session_id"
)

// Auth returns a middleware that enforces JWT authentication. The token's
// session must still be live in the registry, which is what makes central
// revocation work independent of the token's own expiry. Each authenticated
// request bumps the session's last-activity time.
func Auth(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := validateToken(registry, extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyOrgID, claims.OrgID)
		c.Set(ContextKeySID, claims.SessionID)
		registry.Touch(claims.SessionID)
		c.Next()
	}
}

func validateToken(registry *sessions.Registry, rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errors.New("token is required")
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return nil, err
	}

	s, ok := registry.Get(claims.SessionID)
	if !ok || s.UserID != claims.UserID {
		return nil, errors.New("session expired or revoked")
	}
	return claims, nil
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentOrgID extracts the authenticated organization ID from context.
func CurrentOrgID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyOrgID)
	id, _ := v.(string)
	return id
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/campus-market/internal/i18n"
	"github.com/javajoker/campus-market/internal/session"
	"github.com/javajoker/campus-market/internal/utils"
)

// SessionChecker reports whether a session is still signed in.
type SessionChecker interface {
	Active(id uuid.UUID) (session.Session, bool)
}

// AuthRequired accepts a Bearer JWT whose session is still active and
// stores the caller in the context.
func AuthRequired(sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(strings.TrimSpace(parts[1]))
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}
		sessionID, err := claims.SessionID()
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		s, ok := sessions.Active(sessionID)
		if !ok || s.UserID != userID {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthSessionEnded))
			c.Abort()
			return
		}

		c.Set(utils.ContextUserID, userID)
		c.Set(utils.ContextSessionID, sessionID)
		c.Set(utils.ContextEmail, claims.Email)
		c.Next()
	}
}
